package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/rating"
	"github.com/platedev/tastebite-api/internal/services"
	"gorm.io/gorm"
)

type CreateDishRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Preparation []string `json:"preparation"`
	Tags        []string `json:"tags"`
}

type UpdateDishRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Ingredients *[]string `json:"ingredients"`
	Preparation *[]string `json:"preparation"`
	Tags        *[]string `json:"tags"`
}

// DishSummary is the list-view shape: the raw average is shown, the
// Wilson score is only used server-side for ordering.
type DishSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int      `json:"review_count"`
}

// ListDishes returns dishes with optional search (q), tag filter and
// sorting. sort=rating orders by the Wilson lower-bound score so small
// samples do not dominate; sort=name (the default) is case-insensitive.
func ListDishes(db *gorm.DB, search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		tag := strings.TrimSpace(c.Query("tag"))
		sortMode := c.DefaultQuery("sort", "name")

		var dishes []models.Dish
		if err := db.Preload("Reviews").Find(&dishes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch dishes",
				},
			})
			return
		}

		if query != "" {
			dishes = filterByQuery(dishes, query, search)
		}
		if tag != "" {
			dishes = filterByTag(dishes, tag)
		}

		switch sortMode {
		case "rating":
			scores := make(map[string]float64, len(dishes))
			for _, d := range dishes {
				scores[d.ID.String()] = rating.WilsonScore(d.Reviews)
			}
			sort.Slice(dishes, func(i, j int) bool {
				si, sj := scores[dishes[i].ID.String()], scores[dishes[j].ID.String()]
				if si != sj {
					return si > sj
				}
				return strings.ToLower(dishes[i].Name) < strings.ToLower(dishes[j].Name)
			})
		default:
			sort.Slice(dishes, func(i, j int) bool {
				return strings.ToLower(dishes[i].Name) < strings.ToLower(dishes[j].Name)
			})
		}

		summaries := make([]DishSummary, len(dishes))
		for i, d := range dishes {
			summaries[i] = DishSummary{
				ID:          d.ID.String(),
				Name:        d.Name,
				Description: d.Description,
				Image:       d.Image,
				Tags:        d.Tags,
				AvgRating:   d.AvgRating,
				ReviewCount: len(d.Reviews),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    summaries,
		})
	}
}

// filterByQuery asks Meilisearch first and falls back to an in-memory
// substring match over name, description and tags when search is down.
// The query is comma-separated terms, any of which may match.
func filterByQuery(dishes []models.Dish, query string, search *services.SearchService) []models.Dish {
	if search != nil {
		if ids, err := search.SearchDishes(query, ""); err == nil {
			keep := make(map[string]bool, len(ids))
			for _, id := range ids {
				keep[id] = true
			}
			matched := make([]models.Dish, 0, len(ids))
			for _, d := range dishes {
				if keep[d.ID.String()] {
					matched = append(matched, d)
				}
			}
			return matched
		}
		log.Printf("Search service unavailable, falling back to database filter")
	}

	var terms []string
	for _, t := range strings.Split(query, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			terms = append(terms, t)
		}
	}

	matched := make([]models.Dish, 0)
	for _, d := range dishes {
		name := strings.ToLower(d.Name)
		desc := strings.ToLower(d.Description)
		for _, term := range terms {
			if strings.Contains(name, term) || strings.Contains(desc, term) || tagContains(d.Tags, term) {
				matched = append(matched, d)
				break
			}
		}
	}
	return matched
}

func tagContains(tags []string, term string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func filterByTag(dishes []models.Dish, tag string) []models.Dish {
	matched := make([]models.Dish, 0)
	for _, d := range dishes {
		for _, t := range d.Tags {
			if strings.EqualFold(t, tag) {
				matched = append(matched, d)
				break
			}
		}
	}
	return matched
}

// GetDish returns a single dish with its reviews, newest review date first.
func GetDish(db *gorm.DB) gin.HandlerFunc {
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

		var dish models.Dish
		err = db.Preload("Reviews", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("date desc")
		}).Preload("Reviews.User").First(&dish, "id = ?", dishID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Dish not found",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch dish",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    dish,
		})
	}
}

// ListTags returns all tags across dishes, deduplicated case-insensitively
// and sorted; the first-seen casing is preserved for display.
func ListTags(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dishes []models.Dish
		if err := db.Select("tags").Find(&dishes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch tags",
				},
			})
			return
		}

		seen := make(map[string]string)
		for _, d := range dishes {
			for _, t := range d.Tags {
				t = strings.TrimSpace(t)
				if t == "" {
					continue
				}
				key := strings.ToLower(t)
				if _, ok := seen[key]; !ok {
					seen[key] = t
				}
			}
		}

		tags := make([]string, 0, len(seen))
		for _, display := range seen {
			tags = append(tags, display)
		}
		sort.Slice(tags, func(i, j int) bool {
			return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
		})

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    tags,
		})
	}
}

// CreateDish creates a new dish (admin only)
func CreateDish(db *gorm.DB, search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDishRequest
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

		dish := models.Dish{
			Name:        req.Name,
			Description: req.Description,
			Ingredients: req.Ingredients,
			Preparation: req.Preparation,
			Tags:        req.Tags,
		}

		if err := db.Create(&dish).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to create dish",
				},
			})
			return
		}

		if search != nil {
			if err := search.IndexDish(dish); err != nil {
				log.Printf("Failed to index dish %s: %v", dish.ID, err)
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    dish,
		})
	}
}

// UpdateDish updates an existing dish (admin only)
func UpdateDish(db *gorm.DB, search *services.SearchService) gin.HandlerFunc {
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

		var dish models.Dish
		if err := db.First(&dish, "id = ?", dishID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Dish not found",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch dish",
				},
			})
			return
		}

		var req UpdateDishRequest
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

		if req.Name != nil {
			dish.Name = *req.Name
		}
		if req.Description != nil {
			dish.Description = *req.Description
		}
		if req.Ingredients != nil {
			dish.Ingredients = *req.Ingredients
		}
		if req.Preparation != nil {
			dish.Preparation = *req.Preparation
		}
		if req.Tags != nil {
			dish.Tags = *req.Tags
		}

		if err := db.Save(&dish).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to update dish",
				},
			})
			return
		}

		if search != nil {
			if err := search.IndexDish(dish); err != nil {
				log.Printf("Failed to reindex dish %s: %v", dish.ID, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    dish,
		})
	}
}

// DeleteDish deletes a dish and its reviews (admin only)
func DeleteDish(db *gorm.DB, storage *services.StorageService, search *services.SearchService) gin.HandlerFunc {
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

		var dish models.Dish
		if err := db.First(&dish, "id = ?", dishID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Dish not found",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch dish",
				},
			})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("dish_id = ?", dishID).Delete(&models.Review{}).Error; err != nil {
				return err
			}
			return tx.Delete(&dish).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to delete dish",
				},
			})
			return
		}

		if search != nil {
			if err := search.DeleteDish(dishID.String()); err != nil {
				log.Printf("Failed to deindex dish %s: %v", dishID, err)
			}
		}
		if storage != nil && dish.Image != "" {
			if err := storage.DeleteImage(dish.Image); err != nil {
				log.Printf("Failed to delete image for dish %s: %v", dishID, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Dish deleted successfully",
		})
	}
}

// UploadDishImage stores a dish image in MinIO (admin only)
func UploadDishImage(db *gorm.DB, storage *services.StorageService) gin.HandlerFunc {
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

		var dish models.Dish
		if err := db.First(&dish, "id = ?", dishID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Dish not found",
				},
			})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Image file is required",
				},
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to read upload",
				},
			})
			return
		}
		defer file.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		filename := fmt.Sprintf("%s/%s%s", dishID, uuid.New(), filepath.Ext(fileHeader.Filename))
		if err := storage.UploadImage(file, filename, fileHeader.Size, contentType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to store image",
				},
			})
			return
		}

		oldImage := dish.Image
		dish.Image = filename
		if err := db.Save(&dish).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to update dish",
				},
			})
			return
		}

		if oldImage != "" {
			if err := storage.DeleteImage(oldImage); err != nil {
				log.Printf("Failed to delete previous image %s: %v", oldImage, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    dish,
		})
	}
}

// GetDishImage streams a dish image from MinIO
func GetDishImage(db *gorm.DB, storage *services.StorageService) gin.HandlerFunc {
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

		var dish models.Dish
		if err := db.First(&dish, "id = ?", dishID).Error; err != nil || dish.Image == "" {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Image not found",
				},
			})
			return
		}

		object, err := storage.DownloadImage(dish.Image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to fetch image",
				},
			})
			return
		}

		info, err := object.Stat()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Image not found",
				},
			})
			return
		}

		c.DataFromReader(http.StatusOK, info.Size, info.ContentType, object, nil)
	}
}
