package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/rating"
	"gorm.io/gorm"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyComment  = errors.New("comment must not be empty")
	ErrDishNotFound  = errors.New("dish not found")
	ErrNoReview      = errors.New("review not found")
)

// ReviewService owns the review write path. Every write recomputes the
// dish's stored average inside the same transaction, so the average is
// never stale once the write commits.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// RateDish creates the user's review for a dish or replaces an existing
// one; a user holds at most one review per dish. The returned bool is
// true when a new review row was created.
func (s *ReviewService) RateDish(dishID, userID uuid.UUID, stars int, comment string, date time.Time) (*models.Review, bool, error) {
	if stars < 1 || stars > 5 {
		return nil, false, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, false, ErrEmptyComment
	}

	var review models.Review
	created := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var dish models.Dish
		if err := tx.First(&dish, "id = ?", dishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDishNotFound
			}
			return err
		}

		err := tx.Where("dish_id = ? AND user_id = ?", dishID, userID).First(&review).Error
		switch {
		case err == nil:
			review.Rating = stars
			review.Comment = comment
			review.Date = date
			if err := tx.Save(&review).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{
				DishID:  dishID,
				UserID:  userID,
				Rating:  stars,
				Comment: comment,
				Date:    date,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		return updateAverage(tx, dishID)
	})
	if err != nil {
		return nil, false, err
	}

	return &review, created, nil
}

// DeleteReview removes the user's review for a dish and recomputes the
// average in the same transaction.
func (s *ReviewService) DeleteReview(dishID, userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("dish_id = ? AND user_id = ?", dishID, userID).Delete(&models.Review{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoReview
		}
		return updateAverage(tx, dishID)
	})
}

// UpdateAverage recomputes and persists a dish's average rating from its
// current review set. Exposed for the data commands, which write reviews
// in bulk before fixing up the averages.
func (s *ReviewService) UpdateAverage(dishID uuid.UUID) error {
	return updateAverage(s.db, dishID)
}

func updateAverage(tx *gorm.DB, dishID uuid.UUID) error {
	var reviews []models.Review
	if err := tx.Where("dish_id = ?", dishID).Find(&reviews).Error; err != nil {
		return err
	}
	return tx.Model(&models.Dish{}).Where("id = ?", dishID).
		Update("avg_rating", rating.Average(reviews)).Error
}
