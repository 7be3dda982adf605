package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Dish struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:200;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"size:200" json:"image"`

	Ingredients datatypes.JSONSlice[string] `json:"ingredients"`
	Preparation datatypes.JSONSlice[string] `json:"preparation"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	// Arithmetic mean of current review ratings rounded to 2 decimals.
	// NULL means the dish has no reviews yet.
	AvgRating *float64 `gorm:"column:avg_rating" json:"avg_rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Reviews []Review `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (Dish) TableName() string {
	return "dishes"
}

func (d *Dish) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
