package crm

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// AuthController handles login and account registration.
type AuthController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthAuthenticator(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the public auth endpoints.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post("/auth/login", controller.LoginPost)
	app.Post("/auth/register", controller.RegistrationCreate)

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid login payload"); err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	return respondSuccess(ctx, http.StatusOK, map[string]any{
		"token": token,
	})
}

// RegistrationCreatePayload is the account signup payload
type RegistrationCreatePayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return RespondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body"))
	}

	if err := errors.ValidateWithOzzo(payload.Validate, "invalid registration payload"); err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	handler := NewRegisterUserHandler(a.Repo)
	msg := RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Role:      RoleUser,
		Password:  payload.Password,
		UseHashid: true,
	}

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	return respondMessage(ctx, http.StatusCreated, "account created")
}
