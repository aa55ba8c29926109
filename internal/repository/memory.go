package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dinein/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu     sync.RWMutex
	nextID map[string]int64

	orders      map[int64]domain.Order
	orderNums   map[string]int64
	restaurants map[int64]domain.Restaurant
	dishes      map[int64]domain.Dish
	users       map[int64]domain.User
	permissions map[[2]int64]domain.StaffPermission
	payments    map[string]domain.PendingPayment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      make(map[string]int64),
		orders:      make(map[int64]domain.Order),
		orderNums:   make(map[string]int64),
		restaurants: make(map[int64]domain.Restaurant),
		dishes:      make(map[int64]domain.Dish),
		users:       make(map[int64]domain.User),
		permissions: make(map[[2]int64]domain.StaffPermission),
		payments:    make(map[string]domain.PendingPayment),
	}
}

// NewMemorySet wires every repository onto one shared store.
func NewMemorySet() Set {
	store := NewMemoryStore()
	return Set{
		Orders:      &MemoryOrders{store: store},
		Restaurants: &MemoryRestaurants{store: store},
		Dishes:      &MemoryDishes{store: store},
		Users:       &MemoryUsers{store: store},
		Permissions: &MemoryPermissions{store: store},
		Payments:    &MemoryPayments{store: store},
		Tx:          &MemoryTx{store: store},
	}
}

func (m *MemoryStore) id(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, taken := mo.store.orderNums[o.OrderNumber]; taken {
		return ErrDuplicate
	}
	o.ID = mo.store.id("order")
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	mo.store.orders[o.ID] = cloneOrder(*o)
	mo.store.orderNums[o.OrderNumber] = o.ID
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	id, ok := mo.store.orderNums[number]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(mo.store.orders[id])
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.orders[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	mo.store.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	f = f.Normalize()
	matched := make([]domain.Order, 0)
	for _, o := range mo.store.orders {
		if f.RestaurantID != 0 && o.RestaurantID != f.RestaurantID {
			continue
		}
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		if f.Search != "" &&
			!containsIgnoreCase(o.OrderNumber, f.Search) &&
			!containsIgnoreCase(o.CustomerName, f.Search) &&
			!containsIgnoreCase(o.CustomerPhone, f.Search) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	start := f.Offset()
	if start >= len(matched) {
		return []domain.Order{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// MemoryRestaurants RestaurantRepository
type MemoryRestaurants struct{ store *MemoryStore }

var _ RestaurantRepository = (*MemoryRestaurants)(nil)

func (mr *MemoryRestaurants) Create(ctx context.Context, r *domain.Restaurant) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	r.ID = mr.store.id("restaurant")
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	mr.store.restaurants[r.ID] = *r
	return nil
}

func (mr *MemoryRestaurants) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	r, ok := mr.store.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (mr *MemoryRestaurants) Update(ctx context.Context, r *domain.Restaurant) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if _, ok := mr.store.restaurants[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	mr.store.restaurants[r.ID] = *r
	return nil
}

func (mr *MemoryRestaurants) AddOrderStats(ctx context.Context, id int64, amount decimal.Decimal) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	r, ok := mr.store.restaurants[id]
	if !ok {
		return ErrNotFound
	}
	r.TotalOrders++
	r.TotalRevenue = r.TotalRevenue.Add(amount)
	mr.store.restaurants[id] = r
	return nil
}

// MemoryDishes DishRepository
type MemoryDishes struct{ store *MemoryStore }

var _ DishRepository = (*MemoryDishes)(nil)

func (md *MemoryDishes) Create(ctx context.Context, d *domain.Dish) error {
	md.store.wlock(ctx)
	defer md.store.wunlock(ctx)
	d.ID = md.store.id("dish")
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	md.store.dishes[d.ID] = *d
	return nil
}

func (md *MemoryDishes) GetByID(ctx context.Context, id int64) (*domain.Dish, error) {
	md.store.rlock(ctx)
	defer md.store.runlock(ctx)
	d, ok := md.store.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (md *MemoryDishes) Update(ctx context.Context, d *domain.Dish) error {
	md.store.wlock(ctx)
	defer md.store.wunlock(ctx)
	if _, ok := md.store.dishes[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	md.store.dishes[d.ID] = *d
	return nil
}

func (md *MemoryDishes) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Dish, error) {
	md.store.rlock(ctx)
	defer md.store.runlock(ctx)
	out := make([]domain.Dish, 0)
	for _, d := range md.store.dishes {
		if d.RestaurantID == restaurantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryUsers UserRepository
type MemoryUsers struct{ store *MemoryStore }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	u.Email = normalizeEmail(u.Email)
	for _, existing := range mu.store.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = mu.store.id("user")
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	mu.store.users[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	email = normalizeEmail(email)
	for _, u := range mu.store.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) GetBySetupToken(ctx context.Context, token string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	if token == "" {
		return nil, ErrNotFound
	}
	for _, u := range mu.store.users {
		if u.SetupToken == token {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	mu.store.users[u.ID] = *u
	return nil
}

// MemoryPermissions PermissionRepository
type MemoryPermissions struct{ store *MemoryStore }

var _ PermissionRepository = (*MemoryPermissions)(nil)

func (mp *MemoryPermissions) Upsert(ctx context.Context, p *domain.StaffPermission) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	key := [2]int64{p.StaffID, p.RestaurantID}
	now := time.Now().UTC()
	if existing, ok := mp.store.permissions[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		p.ID = mp.store.id("permission")
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	mp.store.permissions[key] = *p
	return nil
}

func (mp *MemoryPermissions) Get(ctx context.Context, staffID, restaurantID int64) (*domain.StaffPermission, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.permissions[[2]int64{staffID, restaurantID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// MemoryPayments PaymentRepository
type MemoryPayments struct{ store *MemoryStore }

var _ PaymentRepository = (*MemoryPayments)(nil)

func (mp *MemoryPayments) Create(ctx context.Context, p *domain.PendingPayment) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if _, ok := mp.store.payments[p.GatewayOrderID]; ok {
		return ErrDuplicate
	}
	p.ID = mp.store.id("payment")
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	mp.store.payments[p.GatewayOrderID] = *p
	return nil
}

func (mp *MemoryPayments) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PendingPayment, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.payments[gatewayOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (mp *MemoryPayments) Update(ctx context.Context, p *domain.PendingPayment) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if _, ok := mp.store.payments[p.GatewayOrderID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	mp.store.payments[p.GatewayOrderID] = *p
	return nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
