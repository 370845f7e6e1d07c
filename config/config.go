//go:generate config-getters -input ./config.go -output config_getters.go
package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// BaseConfig is the application configuration root. Values load from
// config files and environment overrides via go-config.
type BaseConfig struct {
	Server      Server      `json:"server" yaml:"server"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
}

func (a *BaseConfig) Validate() error {
	if err := a.Auth.Validate(); err != nil {
		return err
	}
	return a.Persistence.Validate()
}

func (a *BaseConfig) GetServer() Server {
	return a.Server
}

func (a *BaseConfig) GetAuth() Auth {
	return a.Auth
}

func (a *BaseConfig) GetPersistence() Persistence {
	return a.Persistence
}

// Server holds the HTTP listener options.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":8080"
	}
	return s.Addr
}

// Auth configures token issuance and the route middleware.
type Auth struct {
	SigningKey      string   `json:"signing_key" yaml:"signing_key"`
	SigningMethod   string   `json:"signing_method" yaml:"signing_method"`
	ContextKey      string   `json:"context_key" yaml:"context_key"`
	TokenExpiration int      `json:"token_expiration" yaml:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" yaml:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" yaml:"auth_scheme"`
	Issuer          string   `json:"issuer" yaml:"issuer"`
	Audience        []string `json:"audience" yaml:"audience"`
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(32, 0)),
	)
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 24
	}
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

// Persistence configures the database handle and migration runner.
type Persistence struct {
	Driver                string `json:"driver" yaml:"driver"`
	DSN                   string `json:"dsn" yaml:"dsn"`
	Debug                 bool   `json:"debug" yaml:"debug"`
	Server                string `json:"server" yaml:"server"`
	Database              string `json:"database" yaml:"database"`
	Username              string `json:"username" yaml:"username"`
	Password              string `json:"password" yaml:"password"`
	SSLMode               string `json:"ssl_mode" yaml:"ssl_mode"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DSN, validation.Required),
	)
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDatabase() string {
	return p.Database
}

func (p Persistence) GetUsername() string {
	return p.Username
}

func (p Persistence) GetPassword() string {
	return p.Password
}

func (p Persistence) GetSSLMode() string {
	return p.SSLMode
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}

	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
