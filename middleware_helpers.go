package crm

import (
	"context"

	"github.com/goliatone/go-crm/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use the root helpers directly.
type ValidationListener = jwtware.ValidationListener

// tokenValidatorAdapter bridges the TokenService into the middleware's
// narrower validator interface.
type tokenValidatorAdapter struct {
	service TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewTokenValidator exposes a TokenService as a jwtware.TokenValidator.
func NewTokenValidator(service TokenService) jwtware.TokenValidator {
	return tokenValidatorAdapter{service: service}
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to the root AuthClaims and stores
// claims + actor context in the standard context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	ctxWithClaims := WithClaimsContext(c, authClaims)

	return WithActorContext(ctxWithClaims, ActorContextFromClaims(authClaims))
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
