package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dinein/internal/access"
	"dinein/internal/auth"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

const minPasswordLen = 8

// AuthService вход, приглашение сотрудников и управление их правами
type AuthService struct {
	users  repository.UserRepository
	perms  repository.PermissionRepository
	tx     repository.TxManager
	gate   *access.Gate
	tokens *auth.Tokens
	logger *slog.Logger
}

func NewAuthService(repos repository.Set, gate *access.Gate, tokens *auth.Tokens, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:  repos.Users,
		perms:  repos.Permissions,
		tx:     repos.Tx,
		gate:   gate,
		tokens: tokens,
		logger: logger,
	}
}

// Session выданный токен
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) issue(u *domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(access.Principal{UserID: u.ID, Role: u.Role, RestaurantID: u.RestaurantID})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Login; invited staff who never set a password get ErrRequiresPasswordSetup.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.NeedsPasswordSetup() {
		return nil, ErrRequiresPasswordSetup
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// InviteStaffInput приглашение сотрудника
type InviteStaffInput struct {
	Email string
	Name  string
	Tabs  domain.CapabilitySet
}

// Invitation returned to the admin; SetupToken is shown once.
type Invitation struct {
	Staff      *domain.User            `json:"staff"`
	Permission *domain.StaffPermission `json:"permission"`
	SetupToken string                  `json:"setup_token"`
}

func (s *AuthService) InviteStaff(ctx context.Context, p access.Principal, restaurantID int64, in InviteStaffInput) (*Invitation, error) {
	if err := s.gate.Authorize(ctx, p, restaurantID, domain.CapStaff); err != nil {
		return nil, err
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	inv := &Invitation{SetupToken: uuid.NewString()}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		staff := &domain.User{
			Email:        in.Email,
			Name:         strings.TrimSpace(in.Name),
			Role:         domain.RoleStaff,
			RestaurantID: restaurantID,
			SetupToken:   inv.SetupToken,
		}
		if err := s.users.Create(ctx, staff); err != nil {
			return err
		}
		perm := &domain.StaffPermission{StaffID: staff.ID, RestaurantID: restaurantID, Tabs: in.Tabs, Active: true}
		if err := s.perms.Upsert(ctx, perm); err != nil {
			return err
		}
		inv.Staff, inv.Permission = staff, perm
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff invited", "restaurant_id", restaurantID, "staff_id", inv.Staff.ID, "tabs", in.Tabs.Names())
	return inv, nil
}

// SetupPassword completes the one-time invitation step and logs the staff in.
func (s *AuthService) SetupPassword(ctx context.Context, token, password string) (*Session, error) {
	u, err := s.users.GetBySetupToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown or used setup token", ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	u.SetupToken = ""
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) staffOf(ctx context.Context, restaurantID, staffID int64) (*domain.StaffPermission, error) {
	u, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleStaff || u.RestaurantID != restaurantID {
		return nil, repository.ErrNotFound
	}
	return s.perms.Get(ctx, staffID, restaurantID)
}

// UpdatePermissions replaces the staff member's tabs and active flag.
func (s *AuthService) UpdatePermissions(ctx context.Context, p access.Principal, restaurantID, staffID int64, tabs domain.CapabilitySet, active bool) (*domain.StaffPermission, error) {
	if err := s.gate.Authorize(ctx, p, restaurantID, domain.CapStaff); err != nil {
		return nil, err
	}
	perm, err := s.staffOf(ctx, restaurantID, staffID)
	if err != nil {
		return nil, err
	}
	perm.Tabs = tabs
	perm.Active = active
	if err := s.perms.Upsert(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

// RevokeStaff deactivates the permission record; the account stays.
func (s *AuthService) RevokeStaff(ctx context.Context, p access.Principal, restaurantID, staffID int64) error {
	if err := s.gate.Authorize(ctx, p, restaurantID, domain.CapStaff); err != nil {
		return err
	}
	perm, err := s.staffOf(ctx, restaurantID, staffID)
	if err != nil {
		return err
	}
	perm.Active = false
	return s.perms.Upsert(ctx, perm)
}

// EnsureSuperadmin seeds the platform operator account if it is missing.
func (s *AuthService) EnsureSuperadmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u := &domain.User{Email: email, Name: "Platform operator", Role: domain.RoleSuperadmin, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	s.logger.Info("superadmin account created", "email", u.Email)
	return nil
}
