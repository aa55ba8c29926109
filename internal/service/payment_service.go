package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"dinein/internal/domain"
	"dinein/internal/payment"
	"dinein/internal/repository"
)

const settledCacheSize = 4096

// PaymentService онлайн-оплата через шлюз: создание платежа и сверка подписи.
// Заказ создаётся только после успешной проверки подписи.
type PaymentService struct {
	orders      *OrderService
	payments    repository.PaymentRepository
	restaurants repository.RestaurantRepository
	tx          repository.TxManager
	gateway     payment.Gateway
	platform    payment.Credentials
	currency    string
	settled     *lru.Cache[string, int64]
	logger      *slog.Logger
}

func NewPaymentService(orders *OrderService, repos repository.Set, gateway payment.Gateway, platform payment.Credentials, currency string, logger *slog.Logger) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	if logger == nil {
		logger = slog.Default()
	}
	settled, _ := lru.New[string, int64](settledCacheSize)
	return &PaymentService{
		orders:      orders,
		payments:    repos.Payments,
		restaurants: repos.Restaurants,
		tx:          repos.Tx,
		gateway:     gateway,
		platform:    platform,
		currency:    currency,
		settled:     settled,
		logger:      logger,
	}
}

// Checkout данные для клиентского виджета оплаты
type Checkout struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Flow           string          `json:"flow"`
}

// VerifyInput callback от клиента после оплаты
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

func (s *PaymentService) CreatePlatformPayment(ctx context.Context, in CreateOrderInput) (*Checkout, error) {
	return s.createPayment(ctx, domain.PaymentFlowPlatform, in)
}

func (s *PaymentService) CreateRestaurantPayment(ctx context.Context, in CreateOrderInput) (*Checkout, error) {
	return s.createPayment(ctx, domain.PaymentFlowRestaurant, in)
}

func (s *PaymentService) VerifyPlatformPayment(ctx context.Context, in VerifyInput) (*domain.Order, error) {
	return s.verify(ctx, domain.PaymentFlowPlatform, in)
}

func (s *PaymentService) VerifyRestaurantPayment(ctx context.Context, in VerifyInput) (*domain.Order, error) {
	return s.verify(ctx, domain.PaymentFlowRestaurant, in)
}

// credentials picks the secret by the flow that initiated the payment.
func (s *PaymentService) credentials(ctx context.Context, flow domain.PaymentFlow, restaurantID int64) (payment.Credentials, error) {
	if flow == domain.PaymentFlowPlatform {
		if !s.platform.Configured() {
			return payment.Credentials{}, payment.ErrNotConfigured
		}
		return s.platform, nil
	}
	rest, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return payment.Credentials{}, err
	}
	if !rest.HasOwnGateway() {
		return payment.Credentials{}, payment.ErrNotConfigured
	}
	return payment.Credentials{KeyID: rest.GatewayKeyID, KeySecret: rest.GatewaySecret}, nil
}

func (s *PaymentService) createPayment(ctx context.Context, flow domain.PaymentFlow, in CreateOrderInput) (*Checkout, error) {
	draft, err := s.orders.QuoteDraft(ctx, in)
	if err != nil {
		return nil, err
	}
	creds, err := s.credentials(ctx, flow, draft.RestaurantID)
	if err != nil {
		return nil, err
	}
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	amount := payment.ToMinorUnits(draft.TotalAmount)
	gw, err := s.gateway.CreateOrder(ctx, creds, amount, s.currency, receipt)
	if err != nil {
		s.logger.Error("gateway order creation failed", "flow", flow, "restaurant_id", draft.RestaurantID, "error", err)
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	pending := &domain.PendingPayment{
		GatewayOrderID: gw.ID,
		Flow:           flow,
		RestaurantID:   draft.RestaurantID,
		Draft:          *draft,
	}
	if err := s.payments.Create(ctx, pending); err != nil {
		return nil, err
	}
	return &Checkout{
		GatewayOrderID: gw.ID,
		Amount:         amount,
		Currency:       s.currency,
		KeyID:          creds.KeyID,
		TotalAmount:    draft.TotalAmount,
		Flow:           string(flow),
	}, nil
}

func (s *PaymentService) verify(ctx context.Context, flow domain.PaymentFlow, in VerifyInput) (*domain.Order, error) {
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return nil, fmt.Errorf("%w: gateway order id, payment id and signature are required", ErrInvalidInput)
	}
	pending, err := s.payments.GetByGatewayOrderID(ctx, in.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if pending.Flow != flow {
		return nil, fmt.Errorf("%w: payment was not started through the %s flow", ErrInvalidInput, flow)
	}
	creds, err := s.credentials(ctx, flow, pending.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := payment.Verify(creds.KeySecret, in.GatewayOrderID, in.GatewayPaymentID, in.Signature); err != nil {
		s.logger.Warn("payment signature rejected", "flow", flow, "gateway_order_id", in.GatewayOrderID)
		return nil, err
	}

	if orderID, ok := s.settled.Get(in.GatewayOrderID); ok {
		return s.orders.GetOrder(ctx, orderID)
	}

	var (
		order   *domain.Order
		created bool
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByGatewayOrderID(ctx, in.GatewayOrderID)
		if err != nil {
			return err
		}
		if p.SettledOrderID != 0 {
			order, err = s.orders.orders.GetByID(ctx, p.SettledOrderID)
			return err
		}
		order, err = s.orders.PlaceSettled(ctx, &p.Draft, in.GatewayOrderID, in.GatewayPaymentID)
		if err != nil {
			return err
		}
		p.SettledOrderID = order.ID
		created = true
		return s.payments.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.settled.Add(in.GatewayOrderID, order.ID)
	if created {
		s.logger.Info("online payment verified", "flow", flow, "order_id", order.ID, "gateway_order_id", in.GatewayOrderID)
		s.orders.AnnounceNew(ctx, order)
	}
	return order, nil
}
