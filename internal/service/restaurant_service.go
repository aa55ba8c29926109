package service

import (
	"context"
	"fmt"
	"strings"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

// RestaurantService регистрация ресторанов и настройка собственного шлюза оплаты
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	users       repository.UserRepository
	tx          repository.TxManager
}

func NewRestaurantService(repos repository.Set) *RestaurantService {
	return &RestaurantService{restaurants: repos.Restaurants, users: repos.Users, tx: repos.Tx}
}

// RegisterRestaurantInput ресторан и учётка его владельца
type RegisterRestaurantInput struct {
	Name          string
	OwnerEmail    string
	OwnerName     string
	OwnerPassword string
}

// Register creates a restaurant with its admin account. Superadmin only.
func (s *RestaurantService) Register(ctx context.Context, p access.Principal, in RegisterRestaurantInput) (*domain.Restaurant, *domain.User, error) {
	if err := access.RequireRole(p, domain.RoleSuperadmin); err != nil {
		return nil, nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || !strings.Contains(in.OwnerEmail, "@") {
		return nil, nil, fmt.Errorf("%w: restaurant name and owner email are required", ErrInvalidInput)
	}
	hash, err := hashPassword(in.OwnerPassword)
	if err != nil {
		return nil, nil, err
	}
	var (
		rest  domain.Restaurant
		owner domain.User
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rest = domain.Restaurant{Name: in.Name}
		if err := s.restaurants.Create(ctx, &rest); err != nil {
			return err
		}
		owner = domain.User{
			Email:        in.OwnerEmail,
			Name:         strings.TrimSpace(in.OwnerName),
			Role:         domain.RoleAdmin,
			RestaurantID: rest.ID,
			PasswordHash: hash,
		}
		if err := s.users.Create(ctx, &owner); err != nil {
			return err
		}
		rest.OwnerID = owner.ID
		return s.restaurants.Update(ctx, &rest)
	})
	if err != nil {
		return nil, nil, err
	}
	return &rest, &owner, nil
}

func (s *RestaurantService) Get(ctx context.Context, id int64) (*domain.Restaurant, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.restaurants.GetByID(ctx, id)
}

// ConfigureGateway stores the restaurant's own gateway keys; empty values
// switch it back to platform-collected payments. Restaurant admin only.
func (s *RestaurantService) ConfigureGateway(ctx context.Context, p access.Principal, id int64, keyID, secret string) (*domain.Restaurant, error) {
	if err := access.RequireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if p.RestaurantID != id {
		return nil, fmt.Errorf("%w: restaurant mismatch", access.ErrForbidden)
	}
	keyID, secret = strings.TrimSpace(keyID), strings.TrimSpace(secret)
	if (keyID == "") != (secret == "") {
		return nil, fmt.Errorf("%w: key id and secret must be set together", ErrInvalidInput)
	}
	rest, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rest.GatewayKeyID = keyID
	rest.GatewaySecret = secret
	if err := s.restaurants.Update(ctx, rest); err != nil {
		return nil, err
	}
	return rest, nil
}
