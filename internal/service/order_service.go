package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/realtime"
	"dinein/internal/repository"
)

// OrderService реализует жизненный цикл заказа: создание, смена статуса, отмена, оплата
type OrderService struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	dishes      repository.DishRepository
	tx          repository.TxManager
	gate        *access.Gate
	bus         realtime.EventBus
	policy      domain.TransitionPolicy
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrderService(repos repository.Set, gate *access.Gate, bus realtime.EventBus, policy domain.TransitionPolicy, logger *slog.Logger) *OrderService {
	if bus == nil {
		bus = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:      repos.Orders,
		restaurants: repos.Restaurants,
		dishes:      repos.Dishes,
		tx:          repos.Tx,
		gate:        gate,
		bus:         bus,
		policy:      policy,
		logger:      logger,
		now:         time.Now,
	}
}

// ItemInput позиция из корзины клиента
type ItemInput struct {
	DishID   int64 `json:"dish_id"`
	Quantity int64 `json:"quantity"`
}

// CreateOrderInput данные оформления заказа
type CreateOrderInput struct {
	RestaurantID        int64
	Items               []ItemInput
	CustomerName        string
	CustomerPhone       string
	TableNumber         string
	SpecialInstructions string
	PaymentMethod       domain.PaymentMethod
}

// OrderPage страница заказов ресторана
type OrderPage struct {
	Orders []domain.Order `json:"orders"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Total  int64          `json:"total"`
	Pages  int            `json:"pages"`
}

// OrderEvent payload событий реального времени. Order (with customer
// contact details) is set only on restaurant channels; order channels are
// open to anyone holding the order number and get the summary.
type OrderEvent struct {
	OrderID       int64                `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	RestaurantID  int64                `json:"restaurant_id"`
	OrderStatus   domain.OrderStatus   `json:"order_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	EstimatedTime int                  `json:"estimated_time"`
	Order         *domain.Order        `json:"order,omitempty"`
}

func orderSummary(o *domain.Order) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		RestaurantID:  o.RestaurantID,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		EstimatedTime: o.EstimatedTime,
	}
}

func restaurantEvent(o *domain.Order) OrderEvent {
	ev := orderSummary(o)
	ev.Order = o
	return ev
}

// QuoteDraft validates the checkout and snapshots current dish prices
// without writing anything.
func (s *OrderService) QuoteDraft(ctx context.Context, in CreateOrderInput) (*domain.OrderDraft, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	if in.RestaurantID <= 0 {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrInvalidInput)
	}
	if in.CustomerName == "" || in.CustomerPhone == "" {
		return nil, fmt.Errorf("%w: customer name and phone are required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	for _, it := range in.Items {
		if it.DishID <= 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid item (dish %d, quantity %d)", ErrInvalidInput, it.DishID, it.Quantity)
		}
	}
	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		d, err := s.dishes.GetByID(ctx, it.DishID)
		if err != nil {
			return nil, fmt.Errorf("dish %d: %w", it.DishID, err)
		}
		if d.RestaurantID != in.RestaurantID {
			return nil, fmt.Errorf("%w: dish %d is not on this restaurant's menu", ErrInvalidInput, d.ID)
		}
		if !d.Available {
			return nil, fmt.Errorf("%w: dish %q is unavailable", ErrInvalidInput, d.Name)
		}
		// price snapshot
		items = append(items, domain.OrderItem{
			DishID:    d.ID,
			Name:      d.Name,
			Quantity:  it.Quantity,
			UnitPrice: d.Price,
		})
	}
	return &domain.OrderDraft{
		RestaurantID:        in.RestaurantID,
		Items:               items,
		CustomerName:        in.CustomerName,
		CustomerPhone:       in.CustomerPhone,
		TableNumber:         strings.TrimSpace(in.TableNumber),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		TotalAmount:         domain.SumItems(items),
	}, nil
}

func (s *OrderService) orderFromDraft(d *domain.OrderDraft) *domain.Order {
	return &domain.Order{
		OrderNumber:         domain.NewOrderNumber(s.now()),
		RestaurantID:        d.RestaurantID,
		Items:               append([]domain.OrderItem(nil), d.Items...),
		CustomerName:        d.CustomerName,
		CustomerPhone:       d.CustomerPhone,
		TableNumber:         d.TableNumber,
		SpecialInstructions: d.SpecialInstructions,
		TotalAmount:         domain.SumItems(d.Items),
		OrderStatus:         domain.OrderStatusPending,
		PaymentStatus:       domain.PaymentStatusPending,
	}
}

// persistNew writes the order and the restaurant counters in one transaction.
func (s *OrderService) persistNew(ctx context.Context, o *domain.Order) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		return s.restaurants.AddOrderStats(ctx, o.RestaurantID, o.TotalAmount)
	})
}

// CreateOrder оформляет заказ с оплатой наличными/картой/UPI (оплата pending)
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentMethodCash
	}
	if !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, in.PaymentMethod)
	}
	if in.PaymentMethod == domain.PaymentMethodOnline {
		return nil, fmt.Errorf("%w: online payments must go through payment verification", ErrInvalidInput)
	}
	draft, err := s.QuoteDraft(ctx, in)
	if err != nil {
		return nil, err
	}
	o := s.orderFromDraft(draft)
	o.PaymentMethod = in.PaymentMethod
	if err := s.persistNew(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("order created", "order_id", o.ID, "order_number", o.OrderNumber,
		"restaurant_id", o.RestaurantID, "total", o.TotalAmount.String(), "payment_method", o.PaymentMethod)
	s.AnnounceNew(ctx, o)
	return o, nil
}

// PlaceSettled creates an order whose online payment is already verified.
// It joins the caller's transaction when ctx carries one; the caller
// announces the order after commit.
func (s *OrderService) PlaceSettled(ctx context.Context, d *domain.OrderDraft, gatewayOrderID, gatewayPaymentID string) (*domain.Order, error) {
	o := s.orderFromDraft(d)
	o.PaymentMethod = domain.PaymentMethodOnline
	o.PaymentStatus = domain.PaymentStatusCompleted
	o.GatewayOrderID = gatewayOrderID
	o.GatewayPaymentID = gatewayPaymentID
	if err := s.persistNew(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AnnounceNew publishes new-order to the owning restaurant's channel.
func (s *OrderService) AnnounceNew(ctx context.Context, o *domain.Order) {
	s.publish(ctx, realtime.RestaurantChannel(o.RestaurantID), realtime.EventNewOrder, restaurantEvent(o))
}

// broadcast: full order to the restaurant, summary to the customer's tracker.
func (s *OrderService) broadcast(ctx context.Context, eventType string, o *domain.Order) {
	s.publish(ctx, realtime.RestaurantChannel(o.RestaurantID), eventType, restaurantEvent(o))
	s.publish(ctx, realtime.OrderChannel(o.OrderNumber), eventType, orderSummary(o))
}

func (s *OrderService) publish(ctx context.Context, channel, eventType string, ev OrderEvent) {
	if err := s.bus.Publish(ctx, channel, eventType, ev); err != nil {
		s.logger.Warn("publish failed", "channel", channel, "type", eventType, "order_id", ev.OrderID, "error", err)
	}
}

// GetOrder возвращает заказ по id (внутренний доступ)
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

// GetOrderByNumber is the customer-facing lookup.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if !domain.ValidOrderNumber(number) {
		return nil, fmt.Errorf("%w: malformed order number", ErrInvalidInput)
	}
	return s.orders.GetByOrderNumber(ctx, number)
}

// ListRestaurantOrders заказы ресторана вызывающего (вкладка Orders)
func (s *OrderService) ListRestaurantOrders(ctx context.Context, p access.Principal, f repository.OrderFilter) (*OrderPage, error) {
	if err := s.gate.Authorize(ctx, p, p.RestaurantID, domain.CapOrders); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	f.RestaurantID = p.RestaurantID
	f = f.Normalize()
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders: orders,
		Page:   f.Page,
		Limit:  f.Limit,
		Total:  total,
		Pages:  int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// AdvanceStatus выставляет статус заказа от имени персонала ресторана.
// Допустимость перехода решает TransitionPolicy.
func (s *OrderService) AdvanceStatus(ctx context.Context, p access.Principal, id int64, target domain.OrderStatus, estimatedTime *int) (*domain.Order, error) {
	if id <= 0 || !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}
	if estimatedTime != nil && *estimatedTime < 0 {
		return nil, fmt.Errorf("%w: estimated time must not be negative", ErrInvalidInput)
	}
	var updated *domain.Order
	var from domain.OrderStatus
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gate.Authorize(ctx, p, o.RestaurantID, domain.CapOrders); err != nil {
			return err
		}
		from = o.OrderStatus
		if !s.policy.Allows(from, target) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidState, from, target)
		}
		o.OrderStatus = target
		if estimatedTime != nil {
			o.EstimatedTime = *estimatedTime
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", "order_id", updated.ID, "from", from, "to", target, "by", p.UserID)
	s.broadcast(ctx, realtime.EventOrderStatusUpdated, updated)
	return updated, nil
}

// CancelOrder отмена клиентом по номеру заказа: только из pending/accepted
func (s *OrderService) CancelOrder(ctx context.Context, number string) (*domain.Order, error) {
	if !domain.ValidOrderNumber(number) {
		return nil, fmt.Errorf("%w: malformed order number", ErrInvalidInput)
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByOrderNumber(ctx, number)
		if err != nil {
			return err
		}
		if !o.OrderStatus.Cancellable() {
			return fmt.Errorf("%w: order in status %s can no longer be cancelled", ErrInvalidState, o.OrderStatus)
		}
		o.OrderStatus = domain.OrderStatusCancelled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled by customer", "order_id", updated.ID)
	s.broadcast(ctx, realtime.EventOrderStatusUpdated, updated)
	return updated, nil
}

// UpdatePaymentStatus перезаписывает статус оплаты; статус заказа не трогается
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, p access.Principal, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	if id <= 0 || !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, status)
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gate.Authorize(ctx, p, o.RestaurantID, domain.CapOrders, domain.CapBilling); err != nil {
			return err
		}
		o.PaymentStatus = status
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment status updated", "order_id", updated.ID, "payment_status", status, "by", p.UserID)
	s.broadcast(ctx, realtime.EventPaymentStatusUpdated, updated)
	return updated, nil
}
