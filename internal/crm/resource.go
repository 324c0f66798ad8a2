package crm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// VerifiedStatus is the literal status value of a record that passed the
// CRM's verification workflow.
const VerifiedStatus = "Verified"

const statusField = "Verification_Status__c"

// VerificationStatus is the classified remote verification state.
type VerificationStatus int

const (
	StatusPending VerificationStatus = iota
	StatusVerified
)

func (s VerificationStatus) String() string {
	if s == StatusVerified {
		return "verified"
	}
	return "pending"
}

// Result is the outcome of an update: the remote id on success, or the CRM's
// validation rejection returned as data.
type Result struct {
	RemoteID   string
	FieldError *FieldError
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// resource runs the sync operations shared by every CRM object type.
type resource struct {
	name   string
	client *Client
	auth   Reauthenticator
	log    *zap.Logger
}

func newResource(name string, client *Client, auth Reauthenticator, log *zap.Logger) *resource {
	if log == nil {
		log = zap.NewNop()
	}
	return &resource{
		name:   name,
		client: client,
		auth:   auth,
		log:    log.With(zap.String("resource", name)),
	}
}

func (r *resource) collectionPath() string {
	return "/sobjects/" + r.name
}

func (r *resource) recordPath(remoteID string) string {
	return r.collectionPath() + "/" + url.PathEscape(remoteID)
}

// do executes req through the re-auth wrapper, decoding the response into out.
func (r *resource) do(ctx context.Context, req request, out any) (int, error) {
	call := WithReauth(r.auth, Action[request, int](func(ctx context.Context, req request) (int, error) {
		return r.client.Do(ctx, req.method, req.path, req.query, req.body, out)
	}))
	return call(ctx, req)
}

func (r *resource) create(ctx context.Context, payload any) (string, error) {
	var res createResponse
	_, err := r.do(ctx, request{method: http.MethodPost, path: r.collectionPath(), body: payload}, &res)
	if err != nil {
		return "", fatal(r.log, "create "+r.name, err)
	}
	if res.ID == "" || (res.Success != nil && !*res.Success) {
		cause := errors.New("crm: create reported no id")
		if len(res.Errors) > 0 {
			fe := res.Errors[0]
			cause = &fe
		}
		return "", fatal(r.log, "create "+r.name, cause)
	}
	r.log.Info("crm record created", zap.String("remote_id", res.ID))
	return res.ID, nil
}

func (r *resource) update(ctx context.Context, remoteID string, payload any) (Result, error) {
	if strings.TrimSpace(remoteID) == "" {
		return Result{}, ErrNotSynced
	}
	_, err := r.do(ctx, request{method: http.MethodPatch, path: r.recordPath(remoteID), body: payload}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if fe, ok := apiErr.FieldError(); ok {
				r.log.Warn("crm rejected update",
					zap.String("remote_id", remoteID),
					zap.Int("status", apiErr.StatusCode),
					zap.String("code", fe.Code),
					zap.Strings("fields", fe.Fields),
				)
				return Result{FieldError: fe}, nil
			}
		}
		return Result{}, fatal(r.log, "update "+r.name, err)
	}
	return Result{RemoteID: remoteID}, nil
}

func (r *resource) delete(ctx context.Context, remoteID string) error {
	if strings.TrimSpace(remoteID) == "" {
		return ErrNotSynced
	}
	if _, err := r.do(ctx, request{method: http.MethodDelete, path: r.recordPath(remoteID)}, nil); err != nil {
		return fatal(r.log, "delete "+r.name, err)
	}
	r.log.Info("crm record deleted", zap.String("remote_id", remoteID))
	return nil
}

// status reads the remote verification state. Unlike verify it reports
// transport and auth failures to the caller.
func (r *resource) status(ctx context.Context, remoteID string) (VerificationStatus, error) {
	if strings.TrimSpace(remoteID) == "" {
		return StatusPending, ErrNotSynced
	}
	var res statusResponse
	query := url.Values{"fields": {statusField}}
	if _, err := r.do(ctx, request{method: http.MethodGet, path: r.recordPath(remoteID), query: query}, &res); err != nil {
		return StatusPending, err
	}
	if res.Status == VerifiedStatus {
		return StatusVerified, nil
	}
	return StatusPending, nil
}

// checkVerification short-circuits on the cached flag and otherwise polls.
func (r *resource) checkVerification(ctx context.Context, cached bool, remoteID string) (bool, error) {
	if cached {
		return true, nil
	}
	st, err := r.status(ctx, remoteID)
	if err != nil {
		return false, err
	}
	return st == StatusVerified, nil
}

// verify never fails: any error degrades to false.
func (r *resource) verify(ctx context.Context, cached bool, remoteID string) bool {
	ok, err := r.checkVerification(ctx, cached, remoteID)
	if err != nil {
		r.log.Warn("crm verification check failed", zap.String("remote_id", remoteID), zap.Error(err))
		return false
	}
	return ok
}

func (r *resource) updateField(ctx context.Context, remoteID, reference, value string) bool {
	if strings.TrimSpace(remoteID) == "" || strings.TrimSpace(reference) == "" {
		r.log.Warn("crm field update skipped", zap.String("remote_id", remoteID), zap.String("reference", reference))
		return false
	}
	body := ReferenceFieldUpdate{Reference: reference, Value: value}
	if _, err := r.do(ctx, request{method: http.MethodPatch, path: r.recordPath(remoteID), body: body}, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			r.log.Error("crm field update failed",
				zap.String("remote_id", remoteID),
				zap.String("reference", reference),
				zap.Int("status", apiErr.StatusCode),
				zap.ByteString("body", apiErr.Body),
			)
		} else {
			r.log.Error("crm field update failed",
				zap.String("remote_id", remoteID),
				zap.String("reference", reference),
				zap.Error(err),
			)
		}
		return false
	}
	return true
}

// healthCheck never authenticates lazily: without a session it is false.
func (r *resource) healthCheck(ctx context.Context) bool {
	if !r.client.HasSession() {
		return false
	}
	code, err := r.do(ctx, request{method: http.MethodGet, path: "/limits"}, nil)
	if err != nil {
		r.log.Debug("crm health check failed", zap.Error(err))
		return false
	}
	return code == http.StatusOK
}
