package models

import "time"

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusAccepted  OrderStatus = "accepted"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusDelivered OrderStatus = "delivered"
	StatusRejected  OrderStatus = "rejected"
)

type Order struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	CustomerID      uint        `json:"customer_id" gorm:"not null"`
	Customer        User        `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID    uint        `json:"restaurant_id" gorm:"not null"`
	Restaurant      Restaurant  `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	DeliveryGuyID   *uint       `json:"delivery_guy_id"`
	DeliveryGuy     *User       `json:"delivery_guy,omitempty" gorm:"foreignKey:DeliveryGuyID"`
	Status          OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	TotalAmount     float64     `json:"total_amount" gorm:"not null"`
	DeliveryAddress string      `json:"delivery_address" gorm:"not null"`
	IdempotencyKey  string      `json:"-" gorm:"uniqueIndex;not null"`
	Items           []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem carries a snapshot of name and price taken at order time.
// Later catalog edits never touch these rows.
type OrderItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    uint    `json:"order_id" gorm:"not null"`
	MenuItemID uint    `json:"menu_item_id" gorm:"not null"`
	Name       string  `json:"name" gorm:"not null"`
	Quantity   int     `json:"quantity" gorm:"not null"`
	Price      float64 `json:"price" gorm:"not null"`
}

// OrderStatusHistory records every applied transition
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected
}
