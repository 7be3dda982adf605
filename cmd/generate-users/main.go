// Command generate-users fills the database with synthetic accounts for
// demos and load testing. Username styles mirror what real sign-ups look
// like: name combinations, food-interest handles and adjective-noun
// combos, each with a random bcrypt-hashed password.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/platedev/tastebite-api/internal/config"
	"github.com/platedev/tastebite-api/internal/database"
	"github.com/platedev/tastebite-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var interests = []string{
	"foodie", "chef", "cook", "gourmet", "kitchen",
	"baking", "eats", "taste", "flavor", "culinary",
}

var adjectives = []string{
	"hungry", "happy", "crazy", "super", "mega",
	"awesome", "clever", "quick", "sleepy",
}

var nouns = []string{
	"chef", "cook", "baker", "eater", "foodie",
	"gourmet", "taster", "kitchen", "plate",
}

func main() {
	count := flag.Int("count", 200, "number of users to generate")
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

	var existing []models.User
	if err := db.Select("username").Find(&existing).Error; err != nil {
		log.Fatalf("Failed to load existing users: %v", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, u := range existing {
		taken[strings.ToLower(u.Username)] = true
	}
	log.Printf("Current user count: %d", len(existing))

	created := 0
	batch := make([]models.User, 0, 50)

	for i := 0; i < *count; i++ {
		username := makeUsername()
		if taken[strings.ToLower(username)] {
			username = fmt.Sprintf("%s%d", username, rand.Intn(90)+10)
		}
		if taken[strings.ToLower(username)] {
			continue
		}
		taken[strings.ToLower(username)] = true

		password := gofakeit.Password(true, true, true, false, false, rand.Intn(8)+8)
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		batch = append(batch, models.User{
			Username:     username,
			PasswordHash: string(hashed),
			Role:         models.RoleUser,
		})
		created++

		// Insert in batches of 50
		if len(batch) == 50 {
			if err := db.Create(&batch).Error; err != nil {
				log.Fatalf("Failed to insert users: %v", err)
			}
			log.Printf("Added %d users so far...", created)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := db.Create(&batch).Error; err != nil {
			log.Fatalf("Failed to insert users: %v", err)
		}
	}

	var total int64
	db.Model(&models.User{}).Count(&total)
	log.Printf("User generation complete! New users added: %d, current user count: %d", created, total)
}

func makeUsername() string {
	switch style := rand.Float64(); {
	case style < 0.25:
		return gofakeit.FirstName() + gofakeit.LastName()
	case style < 0.5:
		return fmt.Sprintf("%s%s%d", gofakeit.FirstName(), gofakeit.LastName(), rand.Intn(99)+1)
	case style < 0.7:
		return interests[rand.Intn(len(interests))] + gofakeit.FirstName()
	case style < 0.85:
		return fmt.Sprintf("%s%s%d",
			adjectives[rand.Intn(len(adjectives))], nouns[rand.Intn(len(nouns))], rand.Intn(999)+1)
	default:
		return gofakeit.Word() + capitalize(gofakeit.Word())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
