package crm

import (
	"context"

	"github.com/goliatone/go-router"
)

var actorCtxKey = &contextKey{"actor"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// ActorContext identifies the authenticated subject performing an
// operation. Registries use it for ownership and role checks.
type ActorContext struct {
	ActorID string
	Role    string
}

// IsAdmin reports whether the actor holds the admin role.
func (a ActorContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorContextFromClaims builds an ActorContext from validated claims.
func ActorContextFromClaims(claims AuthClaims) ActorContext {
	if claims == nil {
		return ActorContext{}
	}
	return ActorContext{
		ActorID: claims.UserID(),
		Role:    claims.Role(),
	}
}

// WithActorContext sets the ActorContext in the given context
func WithActorContext(r context.Context, actor ActorContext) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext finds the actor from the context.
func ActorFromContext(ctx context.Context) (ActorContext, bool) {
	raw, ok := ctx.Value(actorCtxKey).(ActorContext)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// ActorFromRouterContext resolves the acting subject from the router
// context locals, falling back to the request context.
func ActorFromRouterContext(ctx router.Context, key string) (ActorContext, bool) {
	if claims, ok := GetRouterClaims(ctx, key); ok {
		return ActorContextFromClaims(claims), true
	}
	return ActorFromContext(ctx.Context())
}

// Can is a convenience function to check permissions directly from the standard context
func Can(ctx context.Context, resource, permission string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}

	switch permission {
	case "read":
		return claims.CanRead(resource)
	case "edit":
		return claims.CanEdit(resource)
	case "create":
		return claims.CanCreate(resource)
	case "delete":
		return claims.CanDelete(resource)
	default:
		return false
	}
}

// CanFromRouter is a convenience function to check permissions directly from the router context
func CanFromRouter(ctx router.Context, resource, permission string) bool {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return false
	}

	switch permission {
	case "read":
		return claims.CanRead(resource)
	case "edit":
		return claims.CanEdit(resource)
	case "create":
		return claims.CanCreate(resource)
	case "delete":
		return claims.CanDelete(resource)
	default:
		return false
	}
}
