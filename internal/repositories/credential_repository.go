package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/blockloop/scan/v2"

	"github.com/umit144/subscriber-provisioner/internal/database"
	"github.com/umit144/subscriber-provisioner/internal/models"
)

// CredentialRepository keeps the AKA credential table in step with the
// subscriber documents.
type CredentialRepository struct {
	db    *database.Database
	table string
}

func NewCredentialRepository(db *database.Database, table string) *CredentialRepository {
	if table == "" {
		table = "subscribers"
	}
	return &CredentialRepository{db: db, table: table}
}

func (r *CredentialRepository) DeleteByIMSI(ctx context.Context, imsi string) (int64, error) {
	query := sq.Delete(r.table).
		Where(sq.Eq{"imsi": imsi}).
		PlaceholderFormat(sq.Question)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("query build failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, mysqlError("delete failed", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *CredentialRepository) Insert(ctx context.Context, cred models.Credential) error {
	query := sq.Insert(r.table).
		Columns("imsi", "ki", "opc", "sqn", "amf").
		Values(cred.IMSI, cred.Ki, cred.Opc, cred.SQN, cred.AMF).
		PlaceholderFormat(sq.Question)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("query build failed: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, sql, args...); err != nil {
		return mysqlError("insert failed", err)
	}
	return nil
}

func (r *CredentialRepository) FetchByIMSI(ctx context.Context, imsi string) (*models.Credential, error) {
	query := sq.Select("imsi", "ki", "opc", "sqn", "amf").
		From(r.table).
		Where(sq.Eq{"imsi": imsi}).
		PlaceholderFormat(sq.Question)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("query build failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, mysqlError("query failed", err)
	}
	defer rows.Close()

	var cred models.Credential
	if err := scan.Row(&cred, rows); err != nil {
		return nil, mysqlError("scan failed", err)
	}
	return &cred, nil
}
