package crm

import (
	"context"

	"github.com/atinyakov/crmsync/internal/models"
	"go.uber.org/zap"
)

// VehicleResource is the CRM object that mirrors vehicles.
const VehicleResource = "Vehicle__c"

// VehicleSync mirrors vehicles into the CRM.
type VehicleSync struct {
	res *resource
}

// NewVehicleSync is the vehicle counterpart of NewMemberSync.
func NewVehicleSync(client *Client, auth Reauthenticator, log *zap.Logger) *VehicleSync {
	return &VehicleSync{res: newResource(VehicleResource, client, auth, log)}
}

// Create inserts the vehicle. The owner reference is resolved by the CRM
// through the owner's external id, so the owner must already be synced.
func (s *VehicleSync) Create(ctx context.Context, v models.Vehicle) (string, error) {
	return s.res.create(ctx, ToCreateVehiclePayload(v))
}

// Update patches identity-free vehicle fields (see UpdateVehiclePayload).
func (s *VehicleSync) Update(ctx context.Context, v models.Vehicle) (Result, error) {
	return s.res.update(ctx, v.RemoteID, ToUpdateVehiclePayload(v))
}

func (s *VehicleSync) Delete(ctx context.Context, remoteID string) error {
	return s.res.delete(ctx, remoteID)
}

// Verify follows the same contract as MemberSync.Verify.
func (s *VehicleSync) Verify(ctx context.Context, v models.Vehicle) bool {
	return s.res.verify(ctx, v.IsVerified, v.RemoteID)
}

func (s *VehicleSync) CheckVerification(ctx context.Context, v models.Vehicle) (bool, error) {
	return s.res.checkVerification(ctx, v.IsVerified, v.RemoteID)
}

// UpdateField pushes a single reference value, e.g. ("Model", code).
func (s *VehicleSync) UpdateField(ctx context.Context, remoteID, reference, value string) bool {
	return s.res.updateField(ctx, remoteID, reference, value)
}

func (s *VehicleSync) HealthCheck(ctx context.Context) bool {
	return s.res.healthCheck(ctx)
}
