package crm

import (
	"context"

	"github.com/atinyakov/crmsync/internal/models"
	"go.uber.org/zap"
)

// MemberResource is the CRM object that mirrors members.
const MemberResource = "Member__c"

// MemberSync mirrors members into the CRM.
type MemberSync struct {
	res *resource
}

// NewMemberSync builds the member sync operations on top of client, renewing
// expired sessions through auth.
func NewMemberSync(client *Client, auth Reauthenticator, log *zap.Logger) *MemberSync {
	return &MemberSync{res: newResource(MemberResource, client, auth, log)}
}

// Create inserts the member and returns its remote id. Every failure is fatal.
func (s *MemberSync) Create(ctx context.Context, m models.Member) (string, error) {
	return s.res.create(ctx, ToCreateMemberPayload(m))
}

// Update patches the member's remote record. Validation rejections come back
// in Result.FieldError; other failures are returned as errors.
func (s *MemberSync) Update(ctx context.Context, m models.Member) (Result, error) {
	return s.res.update(ctx, m.RemoteID, ToUpdateMemberPayload(m))
}

// Delete removes the remote record.
func (s *MemberSync) Delete(ctx context.Context, remoteID string) error {
	return s.res.delete(ctx, remoteID)
}

// Verify reports whether the CRM has verified the member. It returns true
// without a network call when the member is already marked verified, and
// false on any error.
func (s *MemberSync) Verify(ctx context.Context, m models.Member) bool {
	return s.res.verify(ctx, m.IsVerified, m.RemoteID)
}

// CheckVerification is Verify without the error degradation.
func (s *MemberSync) CheckVerification(ctx context.Context, m models.Member) (bool, error) {
	return s.res.checkVerification(ctx, m.IsVerified, m.RemoteID)
}

// UpdateField pushes a single reference value. Failures are logged and
// reported as false.
func (s *MemberSync) UpdateField(ctx context.Context, remoteID, reference, value string) bool {
	return s.res.updateField(ctx, remoteID, reference, value)
}

// HealthCheck reports whether the CRM answers with the current session.
func (s *MemberSync) HealthCheck(ctx context.Context) bool {
	return s.res.healthCheck(ctx)
}
