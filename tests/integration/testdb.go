// Package integration runs the import pipeline against PostgreSQL started
// with testcontainers. The schema comes from the repository migrations.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/earthcare/backend/internal/infrastructure/logger"
	"github.com/earthcare/backend/internal/infrastructure/migration"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// appTables are truncated between tests, children first.
var appTables = []string{"import_row_errors", "import_files", "import_jobs", "opportunities", "people", "enterprises"}

// postgresContainer is started on first use and shared by the package
var postgresContainer struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is a connection to the shared container
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

func startPostgres() (*tcpostgres.PostgresContainer, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ecn_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("earthcare"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}
	if err := migrate(dsn); err != nil {
		return container, "", err
	}
	return container, dsn, nil
}

func migrate(dsn string) error {
	dir := migrationsDir()
	if dir == "" {
		return errors.New("migrations directory not found")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	// The migrator owns sqlDB from here and closes it
	m, err := migration.New(sqlDB, dir, zap.NewNop())
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// NewSharedTestDB opens a fresh connection to the package container.
// Callers reset state with CleanTables.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	postgresContainer.once.Do(func() {
		postgresContainer.container, postgresContainer.dsn, postgresContainer.err = startPostgres()
	})
	require.NoError(t, postgresContainer.err, "Failed to start PostgreSQL container")

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(postgresContainer.dsn), &gorm.Config{
		Logger: logger.NewGormLogger(zaptest.NewLogger(t), level, 200*time.Millisecond),
	})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, t: t}
}

// CleanTables empties every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	for _, table := range appTables {
		require.NoError(tdb.t, tdb.DB.Exec("DELETE FROM "+table).Error, "Failed to clean %s", table)
	}
}

// CreateTestEnterprise inserts a directory enterprise and returns its ID
func (tdb *TestDB) CreateTestEnterprise(name, website string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO enterprises (id, created_by, name, website, tags, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, '[]', 1, NOW(), NOW())
	`, id, uuid.New(), name, website).Error
	require.NoError(tdb.t, err, "Failed to create test enterprise")
	return id
}

// CreateTestPerson inserts a contact in a workspace and returns its ID
func (tdb *TestDB) CreateTestPerson(workspaceID uuid.UUID, firstName, lastName, email string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO people (id, workspace_id, created_by, first_name, last_name, email, invitation_status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, NOW(), NOW())
	`, id, workspaceID, uuid.New(), firstName, lastName, email, string(directory.InvitationNotInvited)).Error
	require.NoError(tdb.t, err, "Failed to create test person")
	return id
}

func migrationsDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	// tests/integration -> module root
	dir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	return dir
}

// terminatePostgres stops the shared container, if one was started
func terminatePostgres() {
	if postgresContainer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresContainer.container.Terminate(ctx)
}
