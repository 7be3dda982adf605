// Command migrate-json imports the legacy flat-JSON dataset into the
// relational schema. It backs up the source files first, then migrates
// users, dishes and reviews, and finally recomputes every dish's stored
// average rating. Running it twice is safe: existing rows are skipped.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/platedev/tastebite-api/internal/config"
	"github.com/platedev/tastebite-api/internal/database"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type legacyReview struct {
	User    string  `json:"user"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
	Date    string  `json:"date"`
}

type legacyDish struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Ingredients []string       `json:"ingredients"`
	Preparation []string       `json:"preparation"`
	Tags        []string       `json:"tags"`
	Reviews     []legacyReview `json:"reviews"`
}

type legacyUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func main() {
	dishesPath := flag.String("dishes", "data/dishes.json", "path to the legacy dishes file")
	usersPath := flag.String("users", "users/users.json", "path to the legacy users file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := backupFiles(*dishesPath, *usersPath); err != nil {
		log.Fatalf("Failed to back up JSON data: %v", err)
	}

	users, err := migrateUsers(db, *usersPath)
	if err != nil {
		log.Fatalf("Failed to migrate users: %v", err)
	}

	dishes, reviews, err := migrateDishes(db, *dishesPath)
	if err != nil {
		log.Fatalf("Failed to migrate dishes: %v", err)
	}

	log.Printf("\nMigration Summary:")
	log.Printf("  Users migrated: %d", users)
	log.Printf("  Dishes migrated: %d", dishes)
	log.Printf("  Reviews migrated: %d", reviews)
	log.Println("Migration completed successfully!")
}

func backupFiles(paths ...string) error {
	backupDir := fmt.Sprintf("json_backup_%s", time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		dest := filepath.Join(backupDir, filepath.Base(path))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}

	log.Printf("JSON data backed up to %s", backupDir)
	return nil
}

func migrateUsers(db *gorm.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var users []legacyUser
	if err := json.Unmarshal(data, &users); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	migrated := 0
	for _, u := range users {
		var existing models.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return migrated, err
		}

		// Legacy passwords were stored in the clear; hash them on the
		// way in.
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return migrated, err
		}

		user := models.User{
			Username:     u.Username,
			PasswordHash: string(hashed),
			Role:         models.RoleUser,
		}
		if err := db.Create(&user).Error; err != nil {
			return migrated, err
		}
		migrated++
	}

	log.Printf("Migrated %d users", migrated)
	return migrated, nil
}

func migrateDishes(db *gorm.DB, path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var dishes []legacyDish
	if err := json.Unmarshal(data, &dishes); err != nil {
		return 0, 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	reviewService := services.NewReviewService(db)

	migratedDishes := 0
	migratedReviews := 0

	for _, d := range dishes {
		var dish models.Dish
		err := db.Where("name = ?", d.Name).First(&dish).Error
		if err == gorm.ErrRecordNotFound {
			dish = models.Dish{
				Name:        d.Name,
				Description: d.Description,
				Image:       d.Image,
				Ingredients: d.Ingredients,
				Preparation: d.Preparation,
				Tags:        d.Tags,
			}
			if err := db.Create(&dish).Error; err != nil {
				return migratedDishes, migratedReviews, err
			}
			migratedDishes++
		} else if err != nil {
			return migratedDishes, migratedReviews, err
		}

		for _, r := range d.Reviews {
			var author models.User
			if err := db.Where("username = ?", r.User).First(&author).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					log.Printf("Skipping review by unknown user %q on %q", r.User, d.Name)
					continue
				}
				return migratedDishes, migratedReviews, err
			}

			var existing models.Review
			err := db.Where("dish_id = ? AND user_id = ?", dish.ID, author.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return migratedDishes, migratedReviews, err
			}

			reviewDate, err := time.Parse("2006-01-02", r.Date)
			if err != nil {
				log.Printf("Skipping review with bad date %q on %q", r.Date, d.Name)
				continue
			}

			// Legacy files occasionally hold float ratings
			stars := int(r.Rating)
			if stars < 1 || stars > 5 {
				log.Printf("Skipping review with rating %v on %q", r.Rating, d.Name)
				continue
			}

			review := models.Review{
				DishID:  dish.ID,
				UserID:  author.ID,
				Rating:  stars,
				Comment: r.Comment,
				Date:    reviewDate,
			}
			if err := db.Create(&review).Error; err != nil {
				return migratedDishes, migratedReviews, err
			}
			migratedReviews++
		}

		if err := reviewService.UpdateAverage(dish.ID); err != nil {
			return migratedDishes, migratedReviews, err
		}
	}

	log.Printf("Migrated %d dishes and %d reviews", migratedDishes, migratedReviews)
	return migratedDishes, migratedReviews, nil
}
