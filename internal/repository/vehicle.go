package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/crmsync/internal/models"
	"github.com/lib/pq"
)

const vehicleColumns = `id, owner_id, vin, model_code, model_year, color, plate_number, purchase_date,
	purchase_type, fuel_type, mileage, COALESCE(remote_id, ''), is_verified, created_at, updated_at`

// PostgresVehicleRepository stores vehicles in PostgreSQL.
type PostgresVehicleRepository struct {
	DB *sql.DB
}

// NewPostgresVehicleRepository creates a repository on top of db.
func NewPostgresVehicleRepository(db *sql.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{DB: db}
}

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var (
		v            models.Vehicle
		purchaseDate sql.NullTime
	)
	err := row.Scan(&v.ID, &v.OwnerID, &v.VIN, &v.ModelCode, &v.ModelYear, &v.Color, &v.PlateNumber, &purchaseDate,
		&v.PurchaseType, &v.FuelType, &v.Mileage, &v.RemoteID, &v.IsVerified, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return models.Vehicle{}, err
	}
	if purchaseDate.Valid {
		v.PurchaseDate = purchaseDate.Time
	}
	return v, nil
}

// GetVehicle fetches a vehicle by local id.
func (r *PostgresVehicleRepository) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetVehicle: %w", err)
	}
	return &v, nil
}

// ListUnsyncedVehicles returns up to limit vehicles without a remote id whose
// owner is already synced, so the owner reference resolves on the CRM side.
func (r *PostgresVehicleRepository) ListUnsyncedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles
		WHERE remote_id IS NULL
		  AND owner_id IN (SELECT id FROM members WHERE remote_id IS NOT NULL)
		ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnsyncedVehicles: %w", err)
	}
	return collectVehicles(rows)
}

// ListUnverifiedVehicles returns up to limit synced vehicles still awaiting CRM verification.
func (r *PostgresVehicleRepository) ListUnverifiedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles
		WHERE remote_id IS NOT NULL AND is_verified = false ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnverifiedVehicles: %w", err)
	}
	return collectVehicles(rows)
}

func collectVehicles(rows *sql.Rows) ([]models.Vehicle, error) {
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return vehicles, nil
}

// SetVehicleRemoteID records the CRM id after a successful creation.
func (r *PostgresVehicleRepository) SetVehicleRemoteID(ctx context.Context, id, remoteID string) error {
	return execOne(ctx, r.DB, "SetVehicleRemoteID",
		`UPDATE vehicles SET remote_id = $2, updated_at = NOW() WHERE id = $1`, id, remoteID)
}

// ClearVehicleRemoteID forgets the CRM id and verification flag.
func (r *PostgresVehicleRepository) ClearVehicleRemoteID(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "ClearVehicleRemoteID",
		`UPDATE vehicles SET remote_id = NULL, is_verified = false, updated_at = NOW() WHERE id = $1`, id)
}

// MarkVehiclesVerified sets the verification flag on every listed vehicle.
func (r *PostgresVehicleRepository) MarkVehiclesVerified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE vehicles SET is_verified = true, updated_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("MarkVehiclesVerified: %w", err)
	}
	return nil
}
