package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dinein/internal/access"
	"dinein/internal/auth"
	"dinein/internal/domain"
	"dinein/internal/payment"
	"dinein/internal/realtime"
	"dinein/internal/repository"
)

const (
	platformKeyID  = "rzp_platform"
	platformSecret = "platform-secret"
)

type fakeGateway struct {
	mu    sync.Mutex
	n     int
	err   error
	calls []payment.Credentials
}

func (g *fakeGateway) CreateOrder(_ context.Context, creds payment.Credentials, amountMinor int64, currency, receipt string) (*payment.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, creds)
	if g.err != nil {
		return nil, g.err
	}
	g.n++
	return &payment.GatewayOrder{ID: fmt.Sprintf("order_%03d", g.n), Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type fixture struct {
	repos       repository.Set
	hub         *realtime.Hub
	gate        *access.Gate
	gateway     *fakeGateway
	tokens      *auth.Tokens
	orders      *OrderService
	payments    *PaymentService
	menu        *MenuService
	restaurants *RestaurantService
	auth        *AuthService
	reports     *ReportService

	restaurant *domain.Restaurant
	other      *domain.Restaurant
	admin      access.Principal
	otherAdmin access.Principal
	dosa       *domain.Dish // 100
	vada       *domain.Dish // 50
}

func newFixture(t *testing.T, policy domain.TransitionPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		repos:   repository.NewMemorySet(),
		hub:     realtime.NewHub(nil, 32),
		gateway: &fakeGateway{},
		tokens:  auth.NewTokens("test-secret", time.Hour),
	}
	f.gate = access.NewGate(f.repos.Permissions)
	f.orders = NewOrderService(f.repos, f.gate, f.hub, policy, nil)
	f.payments = NewPaymentService(f.orders, f.repos, f.gateway,
		payment.Credentials{KeyID: platformKeyID, KeySecret: platformSecret}, "INR", nil)
	f.menu = NewMenuService(f.repos.Dishes, f.repos.Restaurants, f.gate)
	f.restaurants = NewRestaurantService(f.repos)
	f.auth = NewAuthService(f.repos, f.gate, f.tokens, nil)
	f.reports = NewReportService(f.repos.Orders, f.gate)

	f.restaurant, f.admin = f.seedRestaurant(t, "Saravana Bhavan", "owner@saravana.test")
	f.other, f.otherAdmin = f.seedRestaurant(t, "Other Place", "owner@other.test")

	var err error
	f.dosa, err = f.menu.Create(ctx, f.admin, domain.Dish{RestaurantID: f.restaurant.ID, Name: "Dosa", Price: decimal.NewFromInt(100), Available: true})
	require.NoError(t, err)
	f.vada, err = f.menu.Create(ctx, f.admin, domain.Dish{RestaurantID: f.restaurant.ID, Name: "Vada", Price: decimal.NewFromInt(50), Available: true})
	require.NoError(t, err)
	return f
}

func (f *fixture) seedRestaurant(t *testing.T, name, email string) (*domain.Restaurant, access.Principal) {
	t.Helper()
	super := access.Principal{UserID: 1000, Role: domain.RoleSuperadmin}
	rest, owner, err := f.restaurants.Register(context.Background(), super, RegisterRestaurantInput{
		Name:          name,
		OwnerEmail:    email,
		OwnerName:     "Owner",
		OwnerPassword: "owner-pass-1",
	})
	require.NoError(t, err)
	return rest, access.Principal{UserID: owner.ID, Role: domain.RoleAdmin, RestaurantID: rest.ID}
}

// staff creates an active staff member of the fixture restaurant with tabs.
func (f *fixture) staff(t *testing.T, email string, caps ...domain.Capability) access.Principal {
	t.Helper()
	inv, err := f.auth.InviteStaff(context.Background(), f.admin, f.restaurant.ID, InviteStaffInput{
		Email: email,
		Name:  "Staff",
		Tabs:  domain.NewCapabilitySet(caps...),
	})
	require.NoError(t, err)
	return access.Principal{UserID: inv.Staff.ID, Role: domain.RoleStaff, RestaurantID: f.restaurant.ID}
}

// checkout is the example cart: 2 × Dosa(100) + 1 × Vada(50) = 250.
func (f *fixture) checkout(method domain.PaymentMethod) CreateOrderInput {
	return CreateOrderInput{
		RestaurantID:  f.restaurant.ID,
		Items:         []ItemInput{{DishID: f.dosa.ID, Quantity: 2}, {DishID: f.vada.ID, Quantity: 1}},
		CustomerName:  "Asha",
		CustomerPhone: "9800000001",
		TableNumber:   "T4",
		PaymentMethod: method,
	}
}

func (f *fixture) subscribe(t *testing.T, channel string) *realtime.Client {
	t.Helper()
	c := f.hub.Register()
	require.NoError(t, f.hub.Join(c, channel))
	t.Cleanup(func() { f.hub.Unregister(c) })
	return c
}

func nextEvent(t *testing.T, c *realtime.Client) realtime.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
	return realtime.Event{}
}

func noEvent(t *testing.T, c *realtime.Client) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event %s on %s", ev.Type, ev.Channel)
	default:
	}
}
