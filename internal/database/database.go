package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/umit144/subscriber-provisioner/internal/models"
)

// ErrInvalidConnString is returned when a URI or DSN cannot be parsed. No
// connection is attempted in that case.
var ErrInvalidConnString = errors.New("invalid connection string")

// Database is the MySQL handle behind the credential mirror.
type Database struct {
	*sql.DB
}

func NewDatabase(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: mysql: %v", ErrInvalidConnString, err)
	}

	// One provisioning run issues a handful of statements in sequence.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w: %w", models.ErrConnectivity, err)
	}

	return &Database{db}, nil
}
