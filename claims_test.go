package crm_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	crm "github.com/goliatone/go-crm"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccessors(t *testing.T) {
	now := time.Now()
	claims := &crm.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
		UID:      "user-123",
		UserRole: crm.RoleUser,
	}

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, crm.RoleUser, claims.Role())
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, now.Add(24*time.Hour), claims.Expires(), time.Second)
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &crm.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-only"},
	}
	assert.Equal(t, "subject-only", claims.UserID())
}

func TestJWTClaimsRoleChecks(t *testing.T) {
	user := &crm.JWTClaims{UserRole: crm.RoleUser}
	admin := &crm.JWTClaims{UserRole: crm.RoleAdmin}
	unknown := &crm.JWTClaims{UserRole: "ghost"}

	assert.True(t, user.HasRole(crm.RoleUser))
	assert.False(t, user.HasRole(crm.RoleAdmin))
	assert.True(t, user.IsAtLeast(crm.RoleUser))
	assert.False(t, user.IsAtLeast(crm.RoleAdmin))

	assert.True(t, admin.IsAtLeast(crm.RoleUser))
	assert.True(t, admin.IsAtLeast(crm.RoleAdmin))

	assert.False(t, unknown.IsAtLeast(crm.RoleUser))
	assert.False(t, unknown.CanRead("clients"))
}

func TestJWTClaimsPermissions(t *testing.T) {
	user := &crm.JWTClaims{UserRole: crm.RoleUser}
	admin := &crm.JWTClaims{UserRole: crm.RoleAdmin}

	// both roles read and edit
	assert.True(t, user.CanRead("clients"))
	assert.True(t, user.CanEdit("projects"))
	assert.True(t, admin.CanRead("clients"))

	// client creation is admin-only, projects are open to both
	assert.False(t, user.CanCreate("clients"))
	assert.True(t, admin.CanCreate("clients"))
	assert.True(t, user.CanCreate("projects"))

	// blanket delete is admin-only; creator-scoped checks happen in the registry
	assert.False(t, user.CanDelete("projects"))
	assert.True(t, admin.CanDelete("projects"))
}

func TestJWTClaimsExpiresZeroWhenUnset(t *testing.T) {
	claims := &crm.JWTClaims{}
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
