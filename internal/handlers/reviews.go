package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/services"
	"gorm.io/gorm"
)

type RateDishRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
	Date    string `json:"date"`
}

// RateDish creates or replaces the current user's review for a dish.
func RateDish(reviewService *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dishID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Invalid dish ID format",
				},
			})
			return
		}

		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid user ID",
				},
			})
			return
		}

		var req RateDishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}

		// The review date defaults to today; an explicit date is accepted
		// for backdated reviews, malformed values fall back to today.
		reviewDate := time.Now().UTC()
		if req.Date != "" {
			if parsed, err := time.Parse("2006-01-02", req.Date); err == nil {
				reviewDate = parsed
			}
		}

		review, created, err := reviewService.RateDish(dishID, userID, req.Rating, req.Comment, reviewDate)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrDishNotFound):
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Dish not found",
					},
				})
			case errors.Is(err, services.ErrInvalidRating), errors.Is(err, services.ErrEmptyComment):
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "VALIDATION_ERROR",
						"message": err.Error(),
					},
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Failed to save review",
					},
				})
			}
			return
		}

		statusCode := http.StatusOK
		message := "Review updated successfully"
		if created {
			statusCode = http.StatusCreated
			message = "Review created successfully"
		}

		c.JSON(statusCode, gin.H{
			"success": true,
			"data":    review,
			"message": message,
		})
	}
}

// DeleteReview removes the current user's review for a dish.
func DeleteReview(reviewService *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dishID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Invalid dish ID format",
				},
			})
			return
		}

		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid user ID",
				},
			})
			return
		}

		if err := reviewService.DeleteReview(dishID, userID); err != nil {
			if errors.Is(err, services.ErrNoReview) {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Review not found",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to delete review",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Review deleted successfully",
		})
	}
}

// ListDishReviews returns a dish's reviews, newest review date first.
func ListDishReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dishID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Invalid dish ID format",
				},
			})
			return
		}

		var reviews []models.Review
		err = db.Preload("User").
			Where("dish_id = ?", dishID).
			Order("date desc").
			Find(&reviews).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch reviews",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    reviews,
		})
	}
}
