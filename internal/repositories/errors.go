package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/umit144/subscriber-provisioner/internal/models"
)

const mysqlDuplicateEntry = 1062

// mongoError maps driver errors onto the models error kinds so callers can
// branch with errors.Is without importing the driver.
func mongoError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %w", op, models.ErrDuplicateKey, err)
	case isConnectivity(err), mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %w", op, models.ErrConnectivity, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func mysqlError(op string, err error) error {
	var myErr *mysql.MySQLError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry:
		return fmt.Errorf("%s: %w: %w", op, models.ErrDuplicateKey, err)
	case isConnectivity(err), errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn):
		return fmt.Errorf("%s: %w: %w", op, models.ErrConnectivity, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isConnectivity(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr)
}
