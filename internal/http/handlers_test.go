package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"dinein/internal/access"
	"dinein/internal/auth"
	"dinein/internal/domain"
	"dinein/internal/payment"
	"dinein/internal/realtime"
	"dinein/internal/repository"
	"dinein/internal/service"
)

const testPlatformSecret = "platform-secret"

type testEnv struct {
	s          *Server
	adminToken string
	restaurant int64
	dish       int64
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	// Razorpay Orders API stub
	n := 0
	rzp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": fmt.Sprintf("order_test%d", n), "amount": body.Amount, "currency": body.Currency, "status": "created",
		})
	}))
	t.Cleanup(rzp.Close)

	repos := repository.NewMemorySet()
	gate := access.NewGate(repos.Permissions)
	hub := realtime.NewHub(nil, 8)
	tokens := auth.NewTokens("test-secret", time.Hour)
	orders := service.NewOrderService(repos, gate, hub, domain.PermissiveTransitions, nil)
	svc := Services{
		Orders: orders,
		Payments: service.NewPaymentService(orders, repos, payment.NewRazorpayClient(rzp.URL, time.Second),
			payment.Credentials{KeyID: "rzp_platform", KeySecret: testPlatformSecret}, "INR", nil),
		Menu:        service.NewMenuService(repos.Dishes, repos.Restaurants, gate),
		Restaurants: service.NewRestaurantService(repos),
		Auth:        service.NewAuthService(repos, gate, tokens, nil),
		Reports:     service.NewReportService(repos.Orders, gate),
	}
	s := NewServer(svc, Options{Tokens: tokens, Realtime: realtime.NewWSHandler(hub, realtime.WSOptions{Tokens: tokens, Gate: gate})})

	super := access.Principal{UserID: 1000, Role: domain.RoleSuperadmin}
	rest, owner, err := svc.Restaurants.Register(ctx, super, service.RegisterRestaurantInput{
		Name: "Saravana Bhavan", OwnerEmail: "owner@saravana.test", OwnerPassword: "owner-pass-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	admin := access.Principal{UserID: owner.ID, Role: domain.RoleAdmin, RestaurantID: rest.ID}
	dish, err := svc.Menu.Create(ctx, admin, domain.Dish{RestaurantID: rest.ID, Name: "Dosa", Price: decimal.NewFromInt(100), Available: true})
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{s: s, restaurant: rest.ID, dish: dish.ID}
	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "owner@saravana.test", "password": "owner-pass-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login %v: %s", w.Code, w.Body)
	}
	env.adminToken = decode[service.Session](t, w).Token
	return env
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAuthJSON(t, s, "", method, path, body)
}

func doAuthJSON(t *testing.T, s *Server, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
	return v
}

func (e *testEnv) cart(method string) map[string]any {
	return map[string]any{
		"restaurant_id":  e.restaurant,
		"items":          []map[string]any{{"dish_id": e.dish, "quantity": 2}},
		"customer_name":  "Asha",
		"customer_phone": "9800000001",
		"table_number":   "T4",
		"payment_method": method,
	}
}

func TestOrderFlow(t *testing.T) {
	e := setupServer(t)
	// create
	w := doJSON(t, e.s, http.MethodPost, "/api/v1/orders", e.cart("UPI"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v: %s", w.Code, w.Body)
	}
	o := decode[domain.Order](t, w)
	if !o.TotalAmount.Equal(decimal.NewFromInt(200)) || o.PaymentMethod != domain.PaymentMethodUPI {
		t.Fatalf("unexpected order %+v", o)
	}
	// customer tracks by order number
	track := "/api/v1/orders/" + o.OrderNumber
	w = doJSON(t, e.s, http.MethodGet, track, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	// staff moves it along by id
	staff := fmt.Sprintf("/api/v1/orders/%d", o.ID)
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodPut, staff+"/status", map[string]any{"status": "accepted", "estimated_time": 20})
	if w.Code != http.StatusOK {
		t.Fatalf("status code %v: %s", w.Code, w.Body)
	}
	if got := decode[domain.Order](t, w); got.OrderStatus != domain.OrderStatusAccepted || got.EstimatedTime != 20 {
		t.Fatalf("status not applied: %+v", got)
	}
	// sequential ids are not accepted on the public routes
	if w = doJSON(t, e.s, http.MethodGet, staff, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("get by id code %v", w.Code)
	}
	if w = doJSON(t, e.s, http.MethodPut, staff+"/cancel", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("cancel by id code %v", w.Code)
	}
	// cancel
	w = doJSON(t, e.s, http.MethodPut, track+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel code %v", w.Code)
	}
	// second cancel hits a final status
	w = doJSON(t, e.s, http.MethodPut, track+"/cancel", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("repeat cancel code %v", w.Code)
	}

	w = doJSON(t, e.s, http.MethodGet, "/api/v1/orders/"+domain.NewOrderNumber(time.Now()), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing order code %v", w.Code)
	}
	w = doJSON(t, e.s, http.MethodGet, "/api/v1/orders/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad number code %v", w.Code)
	}
}

func TestRealtime_RestaurantFeedNeedsToken(t *testing.T) {
	e := setupServer(t)
	srv := httptest.NewServer(e.s.Engine())
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	join := func(url string) realtime.Event {
		t.Helper()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		if err := conn.WriteJSON(map[string]any{"action": "join-restaurant", "id": e.restaurant}); err != nil {
			t.Fatal(err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev realtime.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}
	if ev := join(base); ev.Type != "error" {
		t.Fatalf("anonymous join-restaurant got %+v", ev)
	}
	if ev := join(base + "?token=" + e.adminToken); ev.Type != "joined" {
		t.Fatalf("admin join-restaurant got %+v", ev)
	}
	if _, resp, err := websocket.DefaultDialer.Dial(base+"?token=forged", nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token should be refused before upgrade, err=%v", err)
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	e := setupServer(t)
	w := doJSON(t, e.s, http.MethodPost, "/api/v1/orders", e.cart("online"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("online shortcut code %v", w.Code)
	}
	cart := e.cart("cash")
	cart["items"] = []map[string]any{}
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/orders", cart)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart code %v", w.Code)
	}
	cart = e.cart("cash")
	cart["restaurant_id"] = 404
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/orders", cart)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown restaurant code %v", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	e.s.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken json code %v", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	e := setupServer(t)
	w := doJSON(t, e.s, http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token code %v", w.Code)
	}
	w = doAuthJSON(t, e.s, "garbage", http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token code %v", w.Code)
	}
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "owner@saravana.test", "password": "nope-nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password code %v", w.Code)
	}
}

func TestStaffInvitationAndTabs(t *testing.T) {
	e := setupServer(t)
	staffPath := fmt.Sprintf("/api/v1/restaurants/%d/staff", e.restaurant)

	w := doAuthJSON(t, e.s, e.adminToken, http.MethodPost, staffPath, map[string]any{
		"email": "menu@saravana.test", "name": "Ravi", "tabs": []string{"Menu"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("invite code %v: %s", w.Code, w.Body)
	}
	inv := decode[service.Invitation](t, w)

	w = doAuthJSON(t, e.s, e.adminToken, http.MethodPost, staffPath, map[string]any{
		"email": "x@saravana.test", "tabs": []string{"kitchen"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown tab code %v", w.Code)
	}

	// login before setup
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "menu@saravana.test", "password": "whatever1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("pre-setup login code %v", w.Code)
	}
	if body := decode[map[string]any](t, w); body["requires_password_setup"] != true {
		t.Fatalf("missing requires_password_setup flag: %v", body)
	}

	w = doJSON(t, e.s, http.MethodPost, "/api/v1/auth/setup-password", map[string]any{"token": inv.SetupToken, "password": "kitchen-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("setup code %v: %s", w.Code, w.Body)
	}
	staffToken := decode[service.Session](t, w).Token

	w = doAuthJSON(t, e.s, staffToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("staff without orders tab code %v", w.Code)
	}
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders?status=pending&page=1&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list code %v: %s", w.Code, w.Body)
	}
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders?page=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad page code %v", w.Code)
	}

	// grant orders, then revoke
	permPath := fmt.Sprintf("%s/%d/permissions", staffPath, inv.Staff.ID)
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodPut, permPath, map[string]any{"tabs": []string{"orders", "menu"}})
	if w.Code != http.StatusOK {
		t.Fatalf("permissions code %v: %s", w.Code, w.Body)
	}
	w = doAuthJSON(t, e.s, staffToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("staff with orders tab code %v", w.Code)
	}
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodDelete, fmt.Sprintf("%s/%d", staffPath, inv.Staff.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("revoke code %v", w.Code)
	}
	w = doAuthJSON(t, e.s, staffToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("revoked staff code %v", w.Code)
	}
}

func TestPlatformPaymentFlow(t *testing.T) {
	e := setupServer(t)
	w := doJSON(t, e.s, http.MethodPost, "/api/v1/orders/create-payment", e.cart("online"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create-payment code %v: %s", w.Code, w.Body)
	}
	co := decode[service.Checkout](t, w)
	if co.Amount != 20000 || co.KeyID != "rzp_platform" || co.GatewayOrderID == "" {
		t.Fatalf("unexpected checkout %+v", co)
	}

	verify := map[string]any{
		"razorpay_order_id":   co.GatewayOrderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  strings.Repeat("0", 64),
	}
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/orders/verify-payment", verify)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature code %v", w.Code)
	}
	w = doAuthJSON(t, e.s, e.adminToken, http.MethodGet, "/api/v1/orders/restaurant/my-orders", nil)
	if page := decode[service.OrderPage](t, w); page.Total != 0 {
		t.Fatalf("order created without a valid signature: %+v", page)
	}

	verify["razorpay_signature"] = payment.Sign(testPlatformSecret, co.GatewayOrderID, "pay_1")
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/orders/verify-payment", verify)
	if w.Code != http.StatusOK {
		t.Fatalf("verify code %v: %s", w.Code, w.Body)
	}
	o := decode[domain.Order](t, w)
	if o.PaymentStatus != domain.PaymentStatusCompleted || o.PaymentMethod != domain.PaymentMethodOnline {
		t.Fatalf("unexpected order %+v", o)
	}

	// restaurant has no keys of its own
	w = doJSON(t, e.s, http.MethodPost, "/api/v1/orders/create-restaurant-payment", e.cart("online"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unconfigured restaurant gateway code %v", w.Code)
	}
}

func TestExportAndPaymentStatus(t *testing.T) {
	e := setupServer(t)
	w := doJSON(t, e.s, http.MethodPost, "/api/v1/orders", e.cart("cash"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v", w.Code)
	}
	o := decode[domain.Order](t, w)

	w = doAuthJSON(t, e.s, e.adminToken, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/payment-status", o.ID), map[string]any{"payment_status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("payment-status code %v: %s", w.Code, w.Body)
	}

	w = doAuthJSON(t, e.s, e.adminToken, http.MethodGet, "/api/v1/orders/restaurant/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export code %v: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") || w.Body.Len() == 0 {
		t.Fatalf("no workbook in response")
	}
}

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("x: %w", service.ErrInvalidState), http.StatusBadRequest},
		{payment.ErrSignatureInvalid, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{access.ErrForbidden, http.StatusForbidden},
		{service.ErrRequiresPasswordSetup, http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{repository.ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("x: %w", payment.ErrGatewayUnavailable), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToStatus(tc.err); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}
