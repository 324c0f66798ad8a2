package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// nudgeReference is the vehicle reference re-pushed to pending records.
const nudgeReference = "Model"

// SweepConfig bounds a maintenance run.
type SweepConfig struct {
	// Concurrency caps simultaneous CRM calls during a resync.
	Concurrency int
	// Batch caps the records picked up per entity type and run.
	Batch int
}

// SyncCount tallies one entity type of a resync run.
type SyncCount struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// ResyncReport summarizes a resync run.
type ResyncReport struct {
	RunID    string    `json:"runId"`
	Members  SyncCount `json:"members"`
	Vehicles SyncCount `json:"vehicles"`
}

// ReverifyReport summarizes a reverification run.
type ReverifyReport struct {
	RunID    string    `json:"runId"`
	Members  crm.Tally `json:"members"`
	Vehicles crm.Tally `json:"vehicles"`
	// Nudged counts pending vehicles whose model reference was re-pushed.
	Nudged int `json:"nudged"`
}

// MaintenanceService catches up on records that were never synced or are
// still awaiting CRM verification.
type MaintenanceService struct {
	members  *MemberService
	vehicles *VehicleService
	poller   *crm.Poller
	cfg      SweepConfig
	log      *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(members *MemberService, vehicles *VehicleService, poller *crm.Poller, cfg SweepConfig, log *zap.Logger) *MaintenanceService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MaintenanceService{members: members, vehicles: vehicles, poller: poller, cfg: cfg, log: log}
}

// IsAlive reports whether the CRM answers with the current session.
func (s *MaintenanceService) IsAlive(ctx context.Context) bool {
	return s.members.crm.HealthCheck(ctx)
}

// Resync creates every unsynced member, then every unsynced vehicle whose
// owner is synced. Individual failures are logged and counted; only a failed
// listing aborts the run.
func (s *MaintenanceService) Resync(ctx context.Context) (ResyncReport, error) {
	report := ResyncReport{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", report.RunID))

	members, err := s.members.repo.ListUnsyncedMembers(ctx, s.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("ListUnsyncedMembers: %w", err)
	}
	report.Members = syncAll(ctx, s.cfg.Concurrency, members, func(ctx context.Context, m *models.Member) error {
		_, err := s.members.SyncMember(ctx, m)
		if err != nil {
			log.Warn("member resync failed", zap.String("member_id", m.ID), zap.Error(err))
		}
		return err
	})

	vehicles, err := s.vehicles.repo.ListUnsyncedVehicles(ctx, s.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("ListUnsyncedVehicles: %w", err)
	}
	report.Vehicles = syncAll(ctx, s.cfg.Concurrency, vehicles, func(ctx context.Context, v *models.Vehicle) error {
		_, err := s.vehicles.SyncVehicle(ctx, v)
		if err != nil {
			log.Warn("vehicle resync failed", zap.String("vehicle_id", v.ID), zap.Error(err))
		}
		return err
	})

	log.Info("resync finished",
		zap.Int("members_synced", report.Members.Synced),
		zap.Int("members_failed", report.Members.Failed),
		zap.Int("vehicles_synced", report.Vehicles.Synced),
		zap.Int("vehicles_failed", report.Vehicles.Failed),
	)
	return report, nil
}

func syncAll[E any](ctx context.Context, limit int, items []E, fn func(context.Context, *E) error) SyncCount {
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	var c SyncCount
	for _, err := range errs {
		if err != nil {
			c.Failed++
		} else {
			c.Synced++
		}
	}
	return c
}

// Reverify polls the verification state of synced but unverified records
// and stores the positive answers. Vehicles that are still pending get their
// model reference re-pushed so the CRM re-evaluates them.
func (s *MaintenanceService) Reverify(ctx context.Context) (ReverifyReport, error) {
	report := ReverifyReport{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", report.RunID))

	members, err := s.members.repo.ListUnverifiedMembers(ctx, s.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("ListUnverifiedMembers: %w", err)
	}
	memberOutcomes, tally := crm.Poll(ctx, s.poller, members, s.members.crm.CheckVerification)
	report.Members = tally

	var verified []string
	for _, o := range memberOutcomes {
		if o.Verified {
			verified = append(verified, o.Entity.ID)
		}
	}
	if err := s.members.repo.MarkMembersVerified(ctx, verified); err != nil {
		return report, fmt.Errorf("MarkMembersVerified: %w", err)
	}

	vehicles, err := s.vehicles.repo.ListUnverifiedVehicles(ctx, s.cfg.Batch)
	if err != nil {
		return report, fmt.Errorf("ListUnverifiedVehicles: %w", err)
	}
	vehicleOutcomes, tally := crm.Poll(ctx, s.poller, vehicles, s.vehicles.crm.CheckVerification)
	report.Vehicles = tally

	var verifiedVehicles []string
	for _, o := range vehicleOutcomes {
		switch {
		case o.Err != nil:
			log.Debug("vehicle verification undetermined", zap.String("vehicle_id", o.Entity.ID), zap.Error(o.Err))
		case o.Verified:
			verifiedVehicles = append(verifiedVehicles, o.Entity.ID)
		case o.Entity.ModelCode != "":
			if ctx.Err() != nil {
				continue
			}
			if s.vehicles.crm.UpdateField(ctx, o.Entity.RemoteID, nudgeReference, o.Entity.ModelCode) {
				report.Nudged++
			}
		}
	}
	if err := s.vehicles.repo.MarkVehiclesVerified(ctx, verifiedVehicles); err != nil {
		return report, fmt.Errorf("MarkVehiclesVerified: %w", err)
	}

	log.Info("reverify finished",
		zap.Int("members_verified", report.Members.Verified),
		zap.Int("vehicles_verified", report.Vehicles.Verified),
		zap.Int("nudged", report.Nudged),
	)
	return report, nil
}

// Sweep runs Resync followed by Reverify, logging failures.
func (s *MaintenanceService) Sweep(ctx context.Context) {
	if _, err := s.Resync(ctx); err != nil {
		s.log.Error("resync failed", zap.Error(err))
	}
	if _, err := s.Reverify(ctx); err != nil {
		s.log.Error("reverify failed", zap.Error(err))
	}
}
