package service_test

import (
	"context"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/models"
)

type mockMemberRepo struct {
	GetMemberFunc             func(ctx context.Context, id string) (*models.Member, error)
	ListUnsyncedMembersFunc   func(ctx context.Context, limit int) ([]models.Member, error)
	ListUnverifiedMembersFunc func(ctx context.Context, limit int) ([]models.Member, error)
	SetMemberRemoteIDFunc     func(ctx context.Context, id, remoteID string) error
	ClearMemberRemoteIDFunc   func(ctx context.Context, id string) error
	MarkMembersVerifiedFunc   func(ctx context.Context, ids []string) error
}

func (m *mockMemberRepo) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return m.GetMemberFunc(ctx, id)
}
func (m *mockMemberRepo) ListUnsyncedMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return m.ListUnsyncedMembersFunc(ctx, limit)
}
func (m *mockMemberRepo) ListUnverifiedMembers(ctx context.Context, limit int) ([]models.Member, error) {
	return m.ListUnverifiedMembersFunc(ctx, limit)
}
func (m *mockMemberRepo) SetMemberRemoteID(ctx context.Context, id, remoteID string) error {
	if m.SetMemberRemoteIDFunc == nil {
		return nil
	}
	return m.SetMemberRemoteIDFunc(ctx, id, remoteID)
}
func (m *mockMemberRepo) ClearMemberRemoteID(ctx context.Context, id string) error {
	if m.ClearMemberRemoteIDFunc == nil {
		return nil
	}
	return m.ClearMemberRemoteIDFunc(ctx, id)
}
func (m *mockMemberRepo) MarkMembersVerified(ctx context.Context, ids []string) error {
	if m.MarkMembersVerifiedFunc == nil {
		return nil
	}
	return m.MarkMembersVerifiedFunc(ctx, ids)
}

type mockMemberCRM struct {
	CreateFunc            func(ctx context.Context, m models.Member) (string, error)
	UpdateFunc            func(ctx context.Context, m models.Member) (crm.Result, error)
	DeleteFunc            func(ctx context.Context, remoteID string) error
	CheckVerificationFunc func(ctx context.Context, m models.Member) (bool, error)
	alive                 bool
}

func (m *mockMemberCRM) Create(ctx context.Context, mem models.Member) (string, error) {
	return m.CreateFunc(ctx, mem)
}
func (m *mockMemberCRM) Update(ctx context.Context, mem models.Member) (crm.Result, error) {
	return m.UpdateFunc(ctx, mem)
}
func (m *mockMemberCRM) Delete(ctx context.Context, remoteID string) error {
	return m.DeleteFunc(ctx, remoteID)
}
func (m *mockMemberCRM) CheckVerification(ctx context.Context, mem models.Member) (bool, error) {
	return m.CheckVerificationFunc(ctx, mem)
}
func (m *mockMemberCRM) HealthCheck(context.Context) bool {
	return m.alive
}

type mockVehicleRepo struct {
	GetVehicleFunc             func(ctx context.Context, id string) (*models.Vehicle, error)
	ListUnsyncedVehiclesFunc   func(ctx context.Context, limit int) ([]models.Vehicle, error)
	ListUnverifiedVehiclesFunc func(ctx context.Context, limit int) ([]models.Vehicle, error)
	SetVehicleRemoteIDFunc     func(ctx context.Context, id, remoteID string) error
	ClearVehicleRemoteIDFunc   func(ctx context.Context, id string) error
	MarkVehiclesVerifiedFunc   func(ctx context.Context, ids []string) error
}

func (m *mockVehicleRepo) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	return m.GetVehicleFunc(ctx, id)
}
func (m *mockVehicleRepo) ListUnsyncedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error) {
	return m.ListUnsyncedVehiclesFunc(ctx, limit)
}
func (m *mockVehicleRepo) ListUnverifiedVehicles(ctx context.Context, limit int) ([]models.Vehicle, error) {
	return m.ListUnverifiedVehiclesFunc(ctx, limit)
}
func (m *mockVehicleRepo) SetVehicleRemoteID(ctx context.Context, id, remoteID string) error {
	if m.SetVehicleRemoteIDFunc == nil {
		return nil
	}
	return m.SetVehicleRemoteIDFunc(ctx, id, remoteID)
}
func (m *mockVehicleRepo) ClearVehicleRemoteID(ctx context.Context, id string) error {
	if m.ClearVehicleRemoteIDFunc == nil {
		return nil
	}
	return m.ClearVehicleRemoteIDFunc(ctx, id)
}
func (m *mockVehicleRepo) MarkVehiclesVerified(ctx context.Context, ids []string) error {
	if m.MarkVehiclesVerifiedFunc == nil {
		return nil
	}
	return m.MarkVehiclesVerifiedFunc(ctx, ids)
}

type mockVehicleCRM struct {
	CreateFunc            func(ctx context.Context, v models.Vehicle) (string, error)
	UpdateFunc            func(ctx context.Context, v models.Vehicle) (crm.Result, error)
	DeleteFunc            func(ctx context.Context, remoteID string) error
	VerifyFunc            func(ctx context.Context, v models.Vehicle) bool
	CheckVerificationFunc func(ctx context.Context, v models.Vehicle) (bool, error)
	UpdateFieldFunc       func(ctx context.Context, remoteID, reference, value string) bool
}

func (m *mockVehicleCRM) Create(ctx context.Context, v models.Vehicle) (string, error) {
	return m.CreateFunc(ctx, v)
}
func (m *mockVehicleCRM) Update(ctx context.Context, v models.Vehicle) (crm.Result, error) {
	return m.UpdateFunc(ctx, v)
}
func (m *mockVehicleCRM) Delete(ctx context.Context, remoteID string) error {
	return m.DeleteFunc(ctx, remoteID)
}
func (m *mockVehicleCRM) Verify(ctx context.Context, v models.Vehicle) bool {
	if m.VerifyFunc == nil {
		return false
	}
	return m.VerifyFunc(ctx, v)
}
func (m *mockVehicleCRM) CheckVerification(ctx context.Context, v models.Vehicle) (bool, error) {
	return m.CheckVerificationFunc(ctx, v)
}
func (m *mockVehicleCRM) UpdateField(ctx context.Context, remoteID, reference, value string) bool {
	return m.UpdateFieldFunc(ctx, remoteID, reference, value)
}
