package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

// MenuService инкапсулирует бизнес-логику вокруг блюд меню
type MenuService struct {
	repo        repository.DishRepository
	restaurants repository.RestaurantRepository
	gate        *access.Gate
}

func NewMenuService(repo repository.DishRepository, restaurants repository.RestaurantRepository, gate *access.Gate) *MenuService {
	return &MenuService{repo: repo, restaurants: restaurants, gate: gate}
}

func (s *MenuService) Create(ctx context.Context, p access.Principal, d domain.Dish) (*domain.Dish, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.RestaurantID <= 0 || d.Name == "" || !d.Price.IsPositive() {
		return nil, fmt.Errorf("%w: dish needs restaurant, name and a positive price", ErrInvalidInput)
	}
	if err := s.gate.Authorize(ctx, p, d.RestaurantID, domain.CapMenu); err != nil {
		return nil, err
	}
	if _, err := s.restaurants.GetByID(ctx, d.RestaurantID); err != nil {
		return nil, err
	}
	cp := d
	cp.Price = cp.Price.Round(2)
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MenuService) GetByID(ctx context.Context, id int64) (*domain.Dish, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *MenuService) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Dish, error) {
	if restaurantID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRestaurant(ctx, restaurantID)
}

// UpdatePrice changes the live menu price; existing orders keep their snapshot.
func (s *MenuService) UpdatePrice(ctx context.Context, p access.Principal, id int64, price decimal.Decimal, available *bool) (*domain.Dish, error) {
	if id <= 0 || !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, d.RestaurantID, domain.CapMenu); err != nil {
		return nil, err
	}
	d.Price = price.Round(2)
	if available != nil {
		d.Available = *available
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
