// Package repository persists members and vehicles, including the CRM remote
// ids and verification flags written back after a successful sync.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/crmsync/internal/models"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("repository: not found")

const memberColumns = `id, email, first_name, last_name, phone, birth_date, gender, tier,
	dealer_code, marketing_opt_in, COALESCE(remote_id, ''), is_verified, created_at, updated_at`

// PostgresMemberRepository stores members in PostgreSQL.
type PostgresMemberRepository struct {
	DB *sql.DB
}

// NewPostgresMemberRepository creates a repository on top of db.
func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (models.Member, error) {
	var (
		m         models.Member
		birthDate sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.Phone, &birthDate, &m.Gender, &m.Tier,
		&m.DealerCode, &m.MarketingOptIn, &m.RemoteID, &m.IsVerified, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return models.Member{}, err
	}
	if birthDate.Valid {
		m.BirthDate = birthDate.Time
	}
	return m, nil
}

// GetMember fetches a member by local id.
func (r *PostgresMemberRepository) GetMember(ctx context.Context, id string) (*models.Member, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetMember: %w", err)
	}
	return &m, nil
}

// ListUnsyncedMembers returns up to limit members that have no remote id yet,
// oldest first.
func (r *PostgresMemberRepository) ListUnsyncedMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return r.list(ctx, "ListUnsyncedMembers", `SELECT `+memberColumns+` FROM members
		WHERE remote_id IS NULL ORDER BY created_at LIMIT $1`, limit)
}

// ListUnverifiedMembers returns up to limit synced members still awaiting CRM verification.
func (r *PostgresMemberRepository) ListUnverifiedMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return r.list(ctx, "ListUnverifiedMembers", `SELECT `+memberColumns+` FROM members
		WHERE remote_id IS NOT NULL AND is_verified = false ORDER BY created_at LIMIT $1`, limit)
}

func (r *PostgresMemberRepository) list(ctx context.Context, op, query string, limit int) ([]models.Member, error) {
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return members, nil
}

// SetMemberRemoteID records the CRM id after a successful creation.
func (r *PostgresMemberRepository) SetMemberRemoteID(ctx context.Context, id, remoteID string) error {
	return execOne(ctx, r.DB, "SetMemberRemoteID",
		`UPDATE members SET remote_id = $2, updated_at = NOW() WHERE id = $1`, id, remoteID)
}

// ClearMemberRemoteID forgets the CRM id and verification flag after a remote delete.
func (r *PostgresMemberRepository) ClearMemberRemoteID(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "ClearMemberRemoteID",
		`UPDATE members SET remote_id = NULL, is_verified = false, updated_at = NOW() WHERE id = $1`, id)
}

// MarkMembersVerified sets the verification flag on every listed member.
func (r *PostgresMemberRepository) MarkMembersVerified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE members SET is_verified = true, updated_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("MarkMembersVerified: %w", err)
	}
	return nil
}

// execOne runs a single-row update and maps "no row touched" to ErrNotFound.
func execOne(ctx context.Context, db *sql.DB, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
