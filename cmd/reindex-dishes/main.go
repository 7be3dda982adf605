package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/platedev/tastebite-api/internal/config"
	"github.com/platedev/tastebite-api/internal/database"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize search service
	searchService := services.NewSearchService(cfg)
	log.Println("Meilisearch service initialized")

	// Get counts
	var dbCount int64
	if err := db.Model(&models.Dish{}).Count(&dbCount).Error; err != nil {
		log.Fatalf("Failed to get dish count from DB: %v", err)
	}

	meiliCount, err := searchService.GetDishCount()
	if err != nil {
		log.Fatalf("Failed to get dish count from Meilisearch: %v", err)
	}

	log.Printf("Dishes in DB: %d", dbCount)
	log.Printf("Dishes in Meilisearch: %d", meiliCount)

	if meiliCount == dbCount {
		log.Println("Counts match. Verifying all dishes are indexed...")
	} else {
		log.Println("Counts do not match. Reindexing all dishes...")
	}

	// Fetch all dishes in batches
	batchSize := 100
	var offset int
	totalIndexed := 0

	for {
		var dishes []models.Dish
		if err := db.Limit(batchSize).Offset(offset).Find(&dishes).Error; err != nil {
			log.Fatalf("Failed to fetch dishes: %v", err)
		}

		if len(dishes) == 0 {
			break
		}

		if err := searchService.IndexDishes(dishes); err != nil {
			log.Printf("Failed to index batch (offset %d): %v", offset, err)
		} else {
			totalIndexed += len(dishes)
			log.Printf("Indexed batch of %d dishes (total: %d)", len(dishes), totalIndexed)
		}

		offset += batchSize
		time.Sleep(100 * time.Millisecond) // Be nice to Meilisearch
	}

	// Final check
	finalMeiliCount, err := searchService.GetDishCount()
	if err != nil {
		log.Fatalf("Failed to get final count from Meilisearch: %v", err)
	}

	log.Printf("Reindex complete. Dishes in Meilisearch: %d (indexed %d this run)", finalMeiliCount, totalIndexed)
}
