package models

import "time"

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusReady     OrderStatus = "Ready"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	UserID        uint                 `json:"userId" gorm:"not null;index"`
	User          User                 `json:"-" gorm:"foreignKey:UserID"`
	RestaurantID  uint                 `json:"restaurantId" gorm:"not null;index"`
	Restaurant    Restaurant           `json:"-" gorm:"foreignKey:RestaurantID"`
	Items         OrderLines           `json:"items"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'Pending';index"`
	Total         float64              `json:"total" gorm:"not null"`
	StatusHistory []OrderStatusHistory `json:"-" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// OrderLine references a menu item of the order's restaurant. Only the
// reference is persisted; item details are resolved when the order is read.
type OrderLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// OrderStatusHistory is the audit trail of status changes.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ResolvedLine is an order line joined with the current menu entry it
// references. Item is nil when the restaurant no longer lists the item.
type ResolvedLine struct {
	ItemID   string    `json:"itemId"`
	Quantity int       `json:"quantity"`
	Item     *MenuItem `json:"item"`
}

// OrderView is the populated, caller-facing shape of an order. It is built on
// read and never persisted.
type OrderView struct {
	ID            uint                 `json:"id"`
	UserID        uint                 `json:"userId"`
	User          *UserSummary         `json:"user,omitempty"`
	RestaurantID  uint                 `json:"restaurantId"`
	Restaurant    *RestaurantSummary   `json:"restaurant"`
	Items         []ResolvedLine       `json:"items"`
	Status        OrderStatus          `json:"status"`
	Total         float64              `json:"total"`
	StatusHistory []OrderStatusHistory `json:"statusHistory,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
