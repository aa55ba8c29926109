package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus стадия выполнения заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus состояние оплаты, не зависит от OrderStatus
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
)

// OrderItem позиция заказа; UnitPrice фиксируется в момент создания
type OrderItem struct {
	ID        int64           `json:"-" gorm:"primaryKey"`
	OrderID   int64           `json:"-" gorm:"index"`
	DishID    int64           `json:"dish_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
}

// LineTotal quantity × unit price.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}

// Order сущность заказа
type Order struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	OrderNumber         string          `json:"order_number" gorm:"uniqueIndex;size:64"`
	RestaurantID        int64           `json:"restaurant_id" gorm:"index"`
	Items               []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	TableNumber         string          `json:"table_number,omitempty"`
	TotalAmount         decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	PaymentMethod       PaymentMethod   `json:"payment_method" gorm:"size:16"`
	PaymentStatus       PaymentStatus   `json:"payment_status" gorm:"size:16;default:'pending'"`
	OrderStatus         OrderStatus     `json:"order_status" gorm:"size:16;default:'pending';index"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	EstimatedTime       int             `json:"estimated_time"`
	GatewayOrderID      string          `json:"gateway_order_id,omitempty" gorm:"size:64;index"`
	GatewayPaymentID    string          `json:"gateway_payment_id,omitempty" gorm:"size:64"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// SumItems сумма по позициям заказа
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

var orderNumberRe = regexp.MustCompile(`^ORD-[0-9]{14}-[0-9A-F]{12}$`)

// NewOrderNumber builds a never-reused order number: timestamp plus random suffix.
// The number is the customer's handle on the order (tracking, cancel), so the
// suffix must stay unguessable.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + suffix
}

// ValidOrderNumber reports whether s has the shape NewOrderNumber produces.
func ValidOrderNumber(s string) bool { return orderNumberRe.MatchString(s) }

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal completed и cancelled
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Cancellable reports whether a customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusAccepted
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

func ParseOrderStatus(v string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

func ParsePaymentStatus(v string) (PaymentStatus, bool) {
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

func ParsePaymentMethod(v string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(v)))
	return m, m.Valid()
}
