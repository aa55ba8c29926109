package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"dinein/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrDuplicate нарушение уникальности (email, номер заказа, заказ шлюза)
	ErrDuplicate = errors.New("already exists")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrderFilter параметры выборки заказов ресторана
type OrderFilter struct {
	RestaurantID int64
	Status       domain.OrderStatus
	Search       string
	Page         int
	Limit        int
}

// Normalize clamps paging to sane bounds.
func (f OrderFilter) Normalize() OrderFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f OrderFilter) Offset() int { return (f.Page - 1) * f.Limit }

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	// List returns one page, newest first, and the total match count.
	List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error)
}

// RestaurantRepository интерфейс репозитория ресторанов
type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) error
	GetByID(ctx context.Context, id int64) (*domain.Restaurant, error)
	Update(ctx context.Context, r *domain.Restaurant) error
	AddOrderStats(ctx context.Context, id int64, amount decimal.Decimal) error
}

// DishRepository интерфейс репозитория блюд
type DishRepository interface {
	Create(ctx context.Context, d *domain.Dish) error
	GetByID(ctx context.Context, id int64) (*domain.Dish, error)
	Update(ctx context.Context, d *domain.Dish) error
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Dish, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBySetupToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// PermissionRepository права сотрудников
type PermissionRepository interface {
	Upsert(ctx context.Context, p *domain.StaffPermission) error
	Get(ctx context.Context, staffID, restaurantID int64) (*domain.StaffPermission, error)
}

// PaymentRepository ожидающие платежи шлюза
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PendingPayment) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PendingPayment, error)
	Update(ctx context.Context, p *domain.PendingPayment) error
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Set все репозитории одного хранилища
type Set struct {
	Orders      OrderRepository
	Restaurants RestaurantRepository
	Dishes      DishRepository
	Users       UserRepository
	Permissions PermissionRepository
	Payments    PaymentRepository
	Tx          TxManager
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
