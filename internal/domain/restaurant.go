package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Restaurant арендатор платформы
type Restaurant struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name"`
	OwnerID       int64           `json:"owner_id" gorm:"index"`
	GatewayKeyID  string          `json:"gateway_key_id,omitempty" gorm:"size:64"`
	GatewaySecret string          `json:"-" gorm:"size:128"`
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue" gorm:"type:numeric(14,2)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// HasOwnGateway reports whether the restaurant collects payments itself.
func (r Restaurant) HasOwnGateway() bool {
	return r.GatewayKeyID != "" && r.GatewaySecret != ""
}

// Dish позиция меню
type Dish struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	RestaurantID int64           `json:"restaurant_id" gorm:"index"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Available    bool            `json:"available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// User учётная запись администратора, сотрудника или оператора платформы
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255"`
	Name         string    `json:"name"`
	Role         Role      `json:"role" gorm:"size:16"`
	RestaurantID int64     `json:"restaurant_id,omitempty" gorm:"index"`
	PasswordHash string    `json:"-"`
	SetupToken   string    `json:"-" gorm:"size:64;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NeedsPasswordSetup is true for invited staff who never set a password.
func (u User) NeedsPasswordSetup() bool {
	return u.PasswordHash == ""
}

// StaffPermission связывает сотрудника с рестораном и набором вкладок
type StaffPermission struct {
	ID           int64         `json:"id" gorm:"primaryKey"`
	StaffID      int64         `json:"staff_id" gorm:"uniqueIndex:idx_staff_restaurant"`
	RestaurantID int64         `json:"restaurant_id" gorm:"uniqueIndex:idx_staff_restaurant"`
	Tabs         CapabilitySet `json:"tabs"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// PaymentFlow who collects the money for a gateway payment.
type PaymentFlow string

const (
	PaymentFlowPlatform   PaymentFlow = "platform"
	PaymentFlowRestaurant PaymentFlow = "restaurant"
)

// OrderDraft данные заказа до подтверждения оплаты
type OrderDraft struct {
	RestaurantID        int64           `json:"restaurant_id"`
	Items               []OrderItem     `json:"items"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	TableNumber         string          `json:"table_number,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

// PendingPayment ожидающий подтверждения платёж шлюза
type PendingPayment struct {
	ID             int64       `json:"id" gorm:"primaryKey"`
	GatewayOrderID string      `json:"gateway_order_id" gorm:"uniqueIndex;size:64"`
	Flow           PaymentFlow `json:"flow" gorm:"size:16"`
	RestaurantID   int64       `json:"restaurant_id" gorm:"index"`
	Draft          OrderDraft  `json:"draft" gorm:"serializer:json"`
	SettledOrderID int64       `json:"settled_order_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
