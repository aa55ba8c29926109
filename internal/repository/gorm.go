package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"dinein/internal/domain"
)

// GormStore хранилище поверх PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the schema.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := &GormStore{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(
		&domain.Restaurant{},
		&domain.Dish{},
		&domain.User{},
		&domain.StaffPermission{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.PendingPayment{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Set wires every repository onto this store.
func (s *GormStore) Set() Set {
	return Set{
		Orders:      &GormOrders{s},
		Restaurants: &GormRestaurants{s},
		Dishes:      &GormDishes{s},
		Users:       &GormUsers{s},
		Permissions: &GormPermissions{s},
		Payments:    &GormPayments{s},
		Tx:          s,
	}
}

type gormTxKey struct{}

// conn returns the transaction bound to ctx, or the pool.
func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *GormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type GormOrders struct{ s *GormStore }

var _ OrderRepository = (*GormOrders)(nil)

func (r *GormOrders) Create(ctx context.Context, o *domain.Order) error {
	return translate(r.s.conn(ctx).Create(o).Error)
}

func (r *GormOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := r.s.conn(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrders) GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	var o domain.Order
	if err := r.s.conn(ctx).Preload("Items").First(&o, "order_number = ?", number).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrders) Update(ctx context.Context, o *domain.Order) error {
	res := r.s.conn(ctx).Omit(clause.Associations).Save(o)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

func (r *GormOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	f = f.Normalize()
	q := r.s.conn(ctx).Model(&domain.Order{})
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.Status != "" {
		q = q.Where("order_status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("order_number ILIKE ? OR customer_name ILIKE ? OR customer_phone ILIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]domain.Order, 0, f.Limit)
	if err := q.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

type GormRestaurants struct{ s *GormStore }

var _ RestaurantRepository = (*GormRestaurants)(nil)

func (r *GormRestaurants) Create(ctx context.Context, rest *domain.Restaurant) error {
	return translate(r.s.conn(ctx).Create(rest).Error)
}

func (r *GormRestaurants) GetByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	if err := r.s.conn(ctx).First(&rest, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rest, nil
}

func (r *GormRestaurants) Update(ctx context.Context, rest *domain.Restaurant) error {
	return translate(r.s.conn(ctx).Save(rest).Error)
}

func (r *GormRestaurants) AddOrderStats(ctx context.Context, id int64, amount decimal.Decimal) error {
	res := r.s.conn(ctx).Model(&domain.Restaurant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_orders":  gorm.Expr("total_orders + 1"),
			"total_revenue": gorm.Expr("total_revenue + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type GormDishes struct{ s *GormStore }

var _ DishRepository = (*GormDishes)(nil)

func (r *GormDishes) Create(ctx context.Context, d *domain.Dish) error {
	return translate(r.s.conn(ctx).Create(d).Error)
}

func (r *GormDishes) GetByID(ctx context.Context, id int64) (*domain.Dish, error) {
	var d domain.Dish
	if err := r.s.conn(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *GormDishes) Update(ctx context.Context, d *domain.Dish) error {
	return translate(r.s.conn(ctx).Save(d).Error)
}

func (r *GormDishes) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Dish, error) {
	dishes := make([]domain.Dish, 0)
	if err := r.s.conn(ctx).Where("restaurant_id = ?", restaurantID).Order("id").Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

type GormUsers struct{ s *GormStore }

var _ UserRepository = (*GormUsers)(nil)

func (r *GormUsers) Create(ctx context.Context, u *domain.User) error {
	u.Email = normalizeEmail(u.Email)
	return translate(r.s.conn(ctx).Create(u).Error)
}

func (r *GormUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.s.conn(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUsers) GetBySetupToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var u domain.User
	if err := r.s.conn(ctx).First(&u, "setup_token = ?", token).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUsers) Update(ctx context.Context, u *domain.User) error {
	return translate(r.s.conn(ctx).Save(u).Error)
}

type GormPermissions struct{ s *GormStore }

var _ PermissionRepository = (*GormPermissions)(nil)

func (r *GormPermissions) Upsert(ctx context.Context, p *domain.StaffPermission) error {
	db := r.s.conn(ctx)
	if p.ID != 0 {
		// fetched record: конфликт был бы по primary key, а не по (staff_id, restaurant_id)
		res := db.Model(p).
			Where("staff_id = ? AND restaurant_id = ?", p.StaffID, p.RestaurantID).
			Select("tabs", "active", "updated_at").
			Updates(p)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		p.ID = 0
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}, {Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tabs", "active", "updated_at"}),
	}).Create(p).Error
	return translate(err)
}

func (r *GormPermissions) Get(ctx context.Context, staffID, restaurantID int64) (*domain.StaffPermission, error) {
	var p domain.StaffPermission
	if err := r.s.conn(ctx).
		First(&p, "staff_id = ? AND restaurant_id = ?", staffID, restaurantID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

type GormPayments struct{ s *GormStore }

var _ PaymentRepository = (*GormPayments)(nil)

func (r *GormPayments) Create(ctx context.Context, p *domain.PendingPayment) error {
	return translate(r.s.conn(ctx).Create(p).Error)
}

func (r *GormPayments) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PendingPayment, error) {
	var p domain.PendingPayment
	// row lock: concurrent verify callbacks for one gateway order settle once
	q := r.s.conn(ctx)
	if _, inTx := ctx.Value(gormTxKey{}).(*gorm.DB); inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&p, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPayments) Update(ctx context.Context, p *domain.PendingPayment) error {
	return translate(r.s.conn(ctx).Save(p).Error)
}
