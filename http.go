package crm

import (
	"net/http"

	"github.com/goliatone/go-crm/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// APIResponse is the JSON envelope every endpoint speaks.
type APIResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Details any       `json:"details,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
}

func respondSuccess(ctx router.Context, status int, data any) error {
	return ctx.JSON(status, APIResponse{
		Status: "success",
		Data:   data,
	})
}

func respondMessage(ctx router.Context, status int, message string) error {
	return ctx.JSON(status, APIResponse{
		Status:  "success",
		Message: message,
	})
}

func respondList(ctx router.Context, data any, meta PageMeta) error {
	return ctx.JSON(http.StatusOK, APIResponse{
		Status: "success",
		Data:   data,
		Meta:   &meta,
	})
}

// RespondError maps a domain error onto the envelope. Internal errors
// are logged and collapsed into a generic message.
func RespondError(ctx router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "unexpected error")
	}

	status := statusForCategory(richErr.Category)

	logger.Debug("request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	resp := APIResponse{
		Status:  "error",
		Message: richErr.Message,
	}

	if richErr.Category == errors.CategoryValidation {
		if details := richErr.ValidationMap(); len(details) > 0 {
			resp.Details = details
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		resp.Message = "internal server error"
	}

	return ctx.JSON(status, resp)
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RouteAuthenticator wires the token middleware into routes.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.AuthErrorHandler = a.MakeAPIAuthErrorHandler()

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute returns the middleware that rejects requests without a
// valid bearer token.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.AuthErrorHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:      cfg.GetAuthScheme(),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		TokenValidator:  NewTokenValidator(a.auth.TokenService()),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// Login verifies credentials and returns a signed token.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	return token, nil
}

// MakeAPIAuthErrorHandler normalizes middleware failures into the
// envelope with a 401.
func (a *RouteAuthenticator) MakeAPIAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return RespondError(ctx, a.Logger, richErr)
	}
}

// RequireRole gates a route behind a minimum role. It runs after the
// token middleware populated the context locals.
func (a *RouteAuthenticator) RequireRole(minimum string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
			if !ok {
				return RespondError(ctx, a.Logger, ErrUnauthenticated)
			}

			if !claims.IsAtLeast(minimum) {
				return RespondError(ctx, a.Logger, ErrForbidden.WithMetadata(map[string]any{
					"required_role": minimum,
				}))
			}

			return next(ctx)
		}
	}
}
