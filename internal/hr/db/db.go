// Package db implements the entity store on top of GORM. It owns
// schema migration, uniqueness enforcement, and the mapping from
// driver errors to the core failure taxonomy. All writes are
// single-entity atomic; multi-entity consistency is validated before
// calls reach this layer.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository is the concrete entity store over a GORM connection.
type Repository struct {
	db *gorm.DB
}

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository connects to PostgreSQL, retrying with exponential
// backoff while the database comes up, and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate creates or updates the five entity collections.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Department{},
		&models.Employee{},
		&models.Payroll{},
		&models.Benefit{},
		&models.EmployeeBenefit{},
	)
}

// translate maps driver and context errors onto the core taxonomy.
// rule names the violated uniqueness constraint for DuplicateKey.
func translate(entity, rule string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.NotFound(entity, "")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.DuplicateKey(entity, rule)
	default:
		// Anything the switch does not recognize is a driver or
		// connection failure; callers only see the taxonomy.
		return e.Unavailable(entity, err)
	}
}

// WithTransaction runs fn against a transactional repository,
// committing on nil and rolling back on error.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
