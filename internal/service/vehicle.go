package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/models"
	"go.uber.org/zap"
)

// ErrOwnerNotSynced is returned when a vehicle is pushed before its owner
// exists in the CRM.
var ErrOwnerNotSynced = errors.New("service: vehicle owner is not synced")

// VehicleRepository defines the persistence operations needed for vehicle sync.
type VehicleRepository interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	ListUnsyncedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error)
	ListUnverifiedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error)
	SetVehicleRemoteID(ctx context.Context, id, remoteID string) error
	ClearVehicleRemoteID(ctx context.Context, id string) error
	MarkVehiclesVerified(ctx context.Context, ids []string) error
}

// VehicleSyncer is the CRM side of vehicle synchronization.
type VehicleSyncer interface {
	Create(ctx context.Context, v models.Vehicle) (string, error)
	Update(ctx context.Context, v models.Vehicle) (crm.Result, error)
	Delete(ctx context.Context, remoteID string) error
	Verify(ctx context.Context, v models.Vehicle) bool
	CheckVerification(ctx context.Context, v models.Vehicle) (bool, error)
	UpdateField(ctx context.Context, remoteID, reference, value string) bool
}

// VehicleSyncResult is the outcome of a first-time vehicle sync.
type VehicleSyncResult struct {
	RemoteID string `json:"remoteId"`
	Verified bool   `json:"verified"`
}

// VehicleService mirrors vehicles into the CRM.
type VehicleService struct {
	repo    VehicleRepository
	members MemberRepository
	crm     VehicleSyncer
	log     *zap.Logger
}

// NewVehicleService constructs a VehicleService. members is used to check
// that the owner has been synced before a vehicle is created.
func NewVehicleService(repo VehicleRepository, members MemberRepository, syncer VehicleSyncer, log *zap.Logger) *VehicleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VehicleService{repo: repo, members: members, crm: syncer, log: log}
}

// SyncVehicle creates the vehicle in the CRM, stores the remote id and then
// immediately checks whether the CRM verified it.
func (s *VehicleService) SyncVehicle(ctx context.Context, v *models.Vehicle) (VehicleSyncResult, error) {
	if v.RemoteID == "" {
		owner, err := s.members.GetMember(ctx, v.OwnerID)
		if err != nil {
			return VehicleSyncResult{}, fmt.Errorf("GetMember: %w", err)
		}
		if owner.RemoteID == "" {
			return VehicleSyncResult{}, ErrOwnerNotSynced
		}

		remoteID, err := s.crm.Create(ctx, *v)
		if err != nil {
			return VehicleSyncResult{}, err
		}
		if err := s.repo.SetVehicleRemoteID(ctx, v.ID, remoteID); err != nil {
			s.log.Error("vehicle created in crm but remote id not saved",
				zap.String("vehicle_id", v.ID), zap.String("remote_id", remoteID), zap.Error(err))
			return VehicleSyncResult{}, fmt.Errorf("SetVehicleRemoteID: %w", err)
		}
		v.RemoteID = remoteID
	}

	verified, err := s.markIfVerified(ctx, v, s.crm.Verify(ctx, *v))
	if err != nil {
		return VehicleSyncResult{RemoteID: v.RemoteID}, err
	}
	return VehicleSyncResult{RemoteID: v.RemoteID, Verified: verified}, nil
}

// UpdateVehicle pushes the vehicle's current state. A validation rejection is
// returned as a FieldError with a nil error.
func (s *VehicleService) UpdateVehicle(ctx context.Context, v *models.Vehicle) (*crm.FieldError, error) {
	res, err := s.crm.Update(ctx, *v)
	if err != nil {
		return nil, err
	}
	return res.FieldError, nil
}

// VerifyVehicle asks the CRM for the verification state and caches a
// positive answer locally.
func (s *VehicleService) VerifyVehicle(ctx context.Context, v *models.Vehicle) (bool, error) {
	return s.markIfVerified(ctx, v, s.crm.Verify(ctx, *v))
}

// DeleteVehicle removes the remote record and forgets the remote id locally.
func (s *VehicleService) DeleteVehicle(ctx context.Context, v *models.Vehicle) error {
	if err := s.crm.Delete(ctx, v.RemoteID); err != nil {
		return err
	}
	if err := s.repo.ClearVehicleRemoteID(ctx, v.ID); err != nil {
		return fmt.Errorf("ClearVehicleRemoteID: %w", err)
	}
	v.RemoteID = ""
	v.IsVerified = false
	return nil
}

func (s *VehicleService) markIfVerified(ctx context.Context, v *models.Vehicle, verified bool) (bool, error) {
	if !verified || v.IsVerified {
		return verified, nil
	}
	if err := s.repo.MarkVehiclesVerified(ctx, []string{v.ID}); err != nil {
		return true, fmt.Errorf("MarkVehiclesVerified: %w", err)
	}
	v.IsVerified = true
	return true, nil
}

// SyncVehicleByID loads the vehicle and syncs it.
func (s *VehicleService) SyncVehicleByID(ctx context.Context, id string) (VehicleSyncResult, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return VehicleSyncResult{}, err
	}
	return s.SyncVehicle(ctx, v)
}

// UpdateVehicleByID loads the vehicle and pushes its state.
func (s *VehicleService) UpdateVehicleByID(ctx context.Context, id string) (*crm.FieldError, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.UpdateVehicle(ctx, v)
}

// VerifyVehicleByID loads the vehicle and checks its verification state.
func (s *VehicleService) VerifyVehicleByID(ctx context.Context, id string) (bool, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return false, err
	}
	return s.VerifyVehicle(ctx, v)
}

// DeleteVehicleByID loads the vehicle and deletes its remote record.
func (s *VehicleService) DeleteVehicleByID(ctx context.Context, id string) error {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	return s.DeleteVehicle(ctx, v)
}
