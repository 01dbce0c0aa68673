package models

import "time"

type Restaurant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Cuisine     string    `json:"cuisine" gorm:"not null" validate:"required,max=100"`
	Address     string    `json:"address" gorm:"not null" validate:"required,max=500"`
	Phone       string    `json:"phone" validate:"max=50"`
	Rating      float64   `json:"rating" gorm:"default:0" validate:"gte=0,lte=5"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	Menu        Menu      `json:"menu" validate:"dive"`
	Version     int       `json:"-" gorm:"not null;default:1"` // optimistic token for menu writes
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MenuItem is owned by its restaurant and only addressable through it.
type MenuItem struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	Image       string  `json:"image,omitempty"`
}

// FindItem returns the menu item with the given id, or nil.
func (r *Restaurant) FindItem(itemID string) *MenuItem {
	for i := range r.Menu {
		if r.Menu[i].ID == itemID {
			return &r.Menu[i]
		}
	}
	return nil
}

// RestaurantSummary is the projection attached to order views.
type RestaurantSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (r Restaurant) Summary() RestaurantSummary {
	return RestaurantSummary{ID: r.ID, Name: r.Name}
}
