// Package testutil provides shared helpers for the import API tests:
// sqlmock-backed GORM connections, signed access tokens and polling assertions.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM connection backed by sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// TestJWTSecret signs every token issued by NewTestJWTService
const TestJWTSecret = "test-secret-key-that-is-at-least-32-characters"

// NewTestJWTService returns a JWT service with a fixed test secret
func NewTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                TestJWTSecret,
		AccessTokenExpiration: time.Hour,
		Issuer:                "ecn-test",
	})
}

// Identity is a caller of the import API
type Identity struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Plan        auth.Plan
	Token       string
}

// NewIdentity signs a token for a fresh user in a fresh workspace
func NewIdentity(t *testing.T, jwtService *auth.JWTService, plan auth.Plan) Identity {
	t.Helper()
	return IdentityFor(t, jwtService, uuid.New(), uuid.New(), plan)
}

// IdentityFor signs a token for the given user and workspace
func IdentityFor(t *testing.T, jwtService *auth.JWTService, userID, workspaceID uuid.UUID, plan auth.Plan) Identity {
	t.Helper()

	token, _, err := jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		TenantID: workspaceID,
		UserID:   userID,
		Username: "tester",
		Plan:     plan,
	})
	require.NoError(t, err, "Failed to sign test token")

	return Identity{UserID: userID, WorkspaceID: workspaceID, Plan: plan, Token: token}
}

// NewTestUUID generates a deterministic UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// RequireEventually polls condition until it holds or fails the test after timeout.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}

// AssertNever verifies a condition never becomes true within the duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("Condition unexpectedly became true: %v", msgAndArgs)
		}
		time.Sleep(interval)
	}
}
