package crm_test

import (
	"context"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/mock"
)

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Name() string  { return t.name }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Role() string  { return t.role }

// MockIdentityProvider implements crm.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (crm.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(crm.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (crm.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(crm.Identity)
	return identity, args.Error(1)
}

// MockConfig implements crm.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetSigningMethod").Return("HS256")
	mockConfig.On("GetContextKey").Return("user")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetTokenLookup").Return("header:Authorization")
	mockConfig.On("GetAuthScheme").Return("Bearer")
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

// MockUserTracker implements crm.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*crm.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*crm.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *crm.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *crm.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockLoginPayload implements crm.LoginPayload
type MockLoginPayload struct {
	Identifier string
	Password   string
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

// capturingSink collects activity events for assertions
type capturingSink struct {
	events []crm.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt crm.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) byType(eventType crm.ActivityEventType) []crm.ActivityEvent {
	matched := []crm.ActivityEvent{}
	for _, evt := range c.events {
		if evt.EventType == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}
