// Package service coordinates local records with their CRM mirrors. Local
// writes are never blocked or rolled back by a CRM failure; the remote id and
// verification flag are persisted only after the CRM call succeeded.
package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/models"
	"go.uber.org/zap"
)

// MemberRepository defines the persistence operations needed for member sync.
type MemberRepository interface {
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListUnsyncedMembers(ctx context.Context, limit int) ([]models.Member, error)
	ListUnverifiedMembers(ctx context.Context, limit int) ([]models.Member, error)
	SetMemberRemoteID(ctx context.Context, id, remoteID string) error
	ClearMemberRemoteID(ctx context.Context, id string) error
	MarkMembersVerified(ctx context.Context, ids []string) error
}

// MemberSyncer is the CRM side of member synchronization.
type MemberSyncer interface {
	Create(ctx context.Context, m models.Member) (string, error)
	Update(ctx context.Context, m models.Member) (crm.Result, error)
	Delete(ctx context.Context, remoteID string) error
	CheckVerification(ctx context.Context, m models.Member) (bool, error)
	HealthCheck(ctx context.Context) bool
}

// MemberService mirrors members into the CRM.
type MemberService struct {
	repo MemberRepository
	crm  MemberSyncer
	log  *zap.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(repo MemberRepository, syncer MemberSyncer, log *zap.Logger) *MemberService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberService{repo: repo, crm: syncer, log: log}
}

// SyncMember creates the member in the CRM when it has no remote id yet and
// records the returned id on m and in the repository. An already synced
// member is returned as is.
func (s *MemberService) SyncMember(ctx context.Context, m *models.Member) (string, error) {
	if m.RemoteID != "" {
		return m.RemoteID, nil
	}
	remoteID, err := s.crm.Create(ctx, *m)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetMemberRemoteID(ctx, m.ID, remoteID); err != nil {
		s.log.Error("member created in crm but remote id not saved",
			zap.String("member_id", m.ID), zap.String("remote_id", remoteID), zap.Error(err))
		return "", fmt.Errorf("SetMemberRemoteID: %w", err)
	}
	m.RemoteID = remoteID
	return remoteID, nil
}

// UpdateMember pushes the member's current state and returns the remote id.
// A validation rejection is returned in Result.FieldError with a nil error.
func (s *MemberService) UpdateMember(ctx context.Context, m *models.Member) (crm.Result, error) {
	return s.crm.Update(ctx, *m)
}

// DeleteMember removes the remote record and forgets the remote id locally.
func (s *MemberService) DeleteMember(ctx context.Context, m *models.Member) error {
	if err := s.crm.Delete(ctx, m.RemoteID); err != nil {
		return err
	}
	if err := s.repo.ClearMemberRemoteID(ctx, m.ID); err != nil {
		return fmt.Errorf("ClearMemberRemoteID: %w", err)
	}
	m.RemoteID = ""
	m.IsVerified = false
	return nil
}

// SyncMemberByID loads the member and syncs it.
func (s *MemberService) SyncMemberByID(ctx context.Context, id string) (string, error) {
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return "", err
	}
	return s.SyncMember(ctx, m)
}

// UpdateMemberByID loads the member and pushes its state.
func (s *MemberService) UpdateMemberByID(ctx context.Context, id string) (crm.Result, error) {
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return crm.Result{}, err
	}
	return s.UpdateMember(ctx, m)
}

// DeleteMemberByID loads the member and deletes its remote record.
func (s *MemberService) DeleteMemberByID(ctx context.Context, id string) error {
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return err
	}
	return s.DeleteMember(ctx, m)
}
