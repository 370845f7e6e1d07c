package crm_test

import (
	"context"
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := crm.ActorFromContext(ctx)
	assert.False(t, ok)

	actor := crm.ActorContext{ActorID: "user-1", Role: crm.RoleAdmin}
	ctx = crm.WithActorContext(ctx, actor)

	got, ok := crm.ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, actor, got)
	assert.True(t, got.IsAdmin())
}

func TestActorContextIsAdmin(t *testing.T) {
	assert.True(t, crm.ActorContext{Role: crm.RoleAdmin}.IsAdmin())
	assert.False(t, crm.ActorContext{Role: crm.RoleUser}.IsAdmin())
	assert.False(t, crm.ActorContext{}.IsAdmin())
}

func TestActorContextFromClaims(t *testing.T) {
	claims := &crm.JWTClaims{UID: "user-9", UserRole: crm.RoleUser}

	actor := crm.ActorContextFromClaims(claims)
	assert.Equal(t, "user-9", actor.ActorID)
	assert.Equal(t, crm.RoleUser, actor.Role)

	assert.Equal(t, crm.ActorContext{}, crm.ActorContextFromClaims(nil))
}

func TestClaimsContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := crm.GetClaims(ctx)
	assert.False(t, ok)

	claims := &crm.JWTClaims{UID: "user-3", UserRole: crm.RoleAdmin}
	ctx = crm.WithClaimsContext(ctx, claims)

	got, ok := crm.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-3", got.UserID())
}

func TestCan(t *testing.T) {
	ctx := crm.WithClaimsContext(context.Background(), &crm.JWTClaims{UserRole: crm.RoleUser})

	assert.True(t, crm.Can(ctx, "projects", "read"))
	assert.True(t, crm.Can(ctx, "projects", "edit"))
	assert.True(t, crm.Can(ctx, "projects", "create"))
	assert.False(t, crm.Can(ctx, "clients", "create"))
	assert.False(t, crm.Can(ctx, "projects", "delete"))
	assert.False(t, crm.Can(ctx, "projects", "transmogrify"))

	// no claims in context
	assert.False(t, crm.Can(context.Background(), "projects", "read"))
}

func TestCanFromRouter(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.Locals("user", &crm.JWTClaims{UserRole: crm.RoleAdmin})

	assert.True(t, crm.CanFromRouter(ctx, "projects", "read"))
	assert.True(t, crm.CanFromRouter(ctx, "clients", "create"))
	assert.True(t, crm.CanFromRouter(ctx, "projects", "delete"))
	assert.False(t, crm.CanFromRouter(ctx, "projects", "transmogrify"))

	member := router.NewMockContext()
	member.Locals("user", &crm.JWTClaims{UserRole: crm.RoleUser})
	assert.False(t, crm.CanFromRouter(member, "clients", "create"))
	assert.False(t, crm.CanFromRouter(member, "projects", "delete"))

	// nothing stored under the middleware key
	assert.False(t, crm.CanFromRouter(router.NewMockContext(), "projects", "read"))
}
