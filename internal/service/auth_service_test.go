package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinein/internal/access"
	"dinein/internal/domain"
	"dinein/internal/repository"
)

func TestInviteStaff_PasswordSetupFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)

	inv, err := f.auth.InviteStaff(ctx, f.admin, f.restaurant.ID, InviteStaffInput{
		Email: "Cook@Saravana.test",
		Name:  " Ravi ",
		Tabs:  domain.NewCapabilitySet(domain.CapOrders),
	})
	require.NoError(t, err)
	require.NotEmpty(t, inv.SetupToken)
	assert.Equal(t, domain.RoleStaff, inv.Staff.Role)
	assert.True(t, inv.Permission.Active)
	assert.True(t, inv.Permission.Tabs.Has(domain.CapOrders))

	_, err = f.auth.Login(ctx, "cook@saravana.test", "anything")
	assert.ErrorIs(t, err, ErrRequiresPasswordSetup)

	_, err = f.auth.SetupPassword(ctx, inv.SetupToken, "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	sess, err := f.auth.SetupPassword(ctx, inv.SetupToken, "kitchen-pass")
	require.NoError(t, err)
	p, err := f.tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, access.Principal{UserID: inv.Staff.ID, Role: domain.RoleStaff, RestaurantID: f.restaurant.ID}, p)

	_, err = f.auth.SetupPassword(ctx, inv.SetupToken, "kitchen-pass-2")
	assert.ErrorIs(t, err, ErrInvalidInput, "setup token is single use")

	_, err = f.auth.Login(ctx, "COOK@saravana.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@saravana.test", "kitchen-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err = f.auth.Login(ctx, "cook@saravana.test", "kitchen-pass")
	require.NoError(t, err)
	assert.Equal(t, inv.Staff.ID, sess.User.ID)
}

func TestInviteStaff_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)
	in := InviteStaffInput{Email: "a@saravana.test", Tabs: domain.NewCapabilitySet(domain.CapMenu)}

	_, err := f.auth.InviteStaff(ctx, f.otherAdmin, f.restaurant.ID, in)
	assert.ErrorIs(t, err, access.ErrForbidden)

	menuOnly := f.staff(t, "menu@saravana.test", domain.CapMenu)
	_, err = f.auth.InviteStaff(ctx, menuOnly, f.restaurant.ID, in)
	assert.ErrorIs(t, err, access.ErrForbidden)

	manager := f.staff(t, "manager@saravana.test", domain.CapStaff)
	_, err = f.auth.InviteStaff(ctx, manager, f.restaurant.ID, in)
	require.NoError(t, err)

	_, err = f.auth.InviteStaff(ctx, f.admin, f.restaurant.ID, in)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	_, err = f.auth.InviteStaff(ctx, f.admin, f.restaurant.ID, InviteStaffInput{Email: "no-at-sign"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdatePermissionsAndRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)
	waiter := f.staff(t, "waiter@saravana.test", domain.CapMenu)

	_, err := f.orders.ListRestaurantOrders(ctx, waiter, repository.OrderFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	perm, err := f.auth.UpdatePermissions(ctx, f.admin, f.restaurant.ID, waiter.UserID,
		domain.NewCapabilitySet(domain.CapOrders, domain.CapBilling), true)
	require.NoError(t, err)
	assert.False(t, perm.Tabs.Has(domain.CapMenu))
	_, err = f.orders.ListRestaurantOrders(ctx, waiter, repository.OrderFilter{})
	require.NoError(t, err)

	require.NoError(t, f.auth.RevokeStaff(ctx, f.admin, f.restaurant.ID, waiter.UserID))
	_, err = f.orders.ListRestaurantOrders(ctx, waiter, repository.OrderFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	// staff of another restaurant is not visible here
	_, err = f.auth.UpdatePermissions(ctx, f.admin, f.restaurant.ID, f.otherAdmin.UserID, domain.NewCapabilitySet(), true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.auth.RevokeStaff(ctx, f.otherAdmin, f.restaurant.ID, waiter.UserID), access.ErrForbidden)
}

func TestEnsureSuperadmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)

	require.NoError(t, f.auth.EnsureSuperadmin(ctx, "", ""))
	require.NoError(t, f.auth.EnsureSuperadmin(ctx, "root@dinein.test", "root-password"))
	require.NoError(t, f.auth.EnsureSuperadmin(ctx, "root@dinein.test", "another-password"))

	sess, err := f.auth.Login(ctx, "root@dinein.test", "root-password")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperadmin, sess.User.Role)
	assert.Zero(t, sess.User.RestaurantID)

	_, err = f.auth.Login(ctx, "root@dinein.test", "another-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "existing account is left untouched")
}

func TestRegisterRestaurant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)
	super := access.Principal{UserID: 1000, Role: domain.RoleSuperadmin}
	in := RegisterRestaurantInput{Name: "Third", OwnerEmail: "owner@third.test", OwnerPassword: "owner-pass-1"}

	_, _, err := f.restaurants.Register(ctx, f.admin, in)
	assert.ErrorIs(t, err, access.ErrForbidden)

	rest, owner, err := f.restaurants.Register(ctx, super, in)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, rest.OwnerID)
	assert.Equal(t, domain.RoleAdmin, owner.Role)
	assert.Equal(t, rest.ID, owner.RestaurantID)

	sess, err := f.auth.Login(ctx, "owner@third.test", "owner-pass-1")
	require.NoError(t, err)
	assert.Equal(t, rest.ID, sess.User.RestaurantID)

	in.Name = "Fourth"
	_, _, err = f.restaurants.Register(ctx, super, in)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, _, err = f.restaurants.Register(ctx, super, RegisterRestaurantInput{Name: " ", OwnerEmail: "x@y.test", OwnerPassword: "owner-pass-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.restaurants.Register(ctx, super, RegisterRestaurantInput{Name: "Fifth", OwnerEmail: "x@y.test", OwnerPassword: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigureGateway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.PermissiveTransitions)
	manager := f.staff(t, "manager@saravana.test", domain.CapStaff, domain.CapBilling)

	_, err := f.restaurants.ConfigureGateway(ctx, manager, f.restaurant.ID, "k", "s")
	assert.ErrorIs(t, err, access.ErrForbidden, "staff cannot change keys")
	_, err = f.restaurants.ConfigureGateway(ctx, f.otherAdmin, f.restaurant.ID, "k", "s")
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = f.restaurants.ConfigureGateway(ctx, f.admin, f.restaurant.ID, "k", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	rest, err := f.restaurants.ConfigureGateway(ctx, f.admin, f.restaurant.ID, " rzp_k ", "secret")
	require.NoError(t, err)
	assert.True(t, rest.HasOwnGateway())
	assert.Equal(t, "rzp_k", rest.GatewayKeyID)

	rest, err = f.restaurants.ConfigureGateway(ctx, f.admin, f.restaurant.ID, "", "")
	require.NoError(t, err)
	assert.False(t, rest.HasOwnGateway())
}
