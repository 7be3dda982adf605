package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DishID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_dish_user" json:"dish_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_dish_user" json:"user_id"`

	Rating  int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment string `gorm:"type:text;not null" json:"comment"`

	// Date is the user-facing review date; CreatedAt is the audit timestamp.
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Dish Dish `gorm:"foreignKey:DishID" json:"dish,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
