package crm

import "context"

// Reauthenticator opens a fresh session on demand.
type Reauthenticator interface {
	Authenticate(ctx context.Context) (Session, error)
}

// Action is a single call against the CRM using the current session.
type Action[In, Out any] func(ctx context.Context, in In) (Out, error)

// WithReauth wraps action so that a session failure (401 or no session yet)
// triggers exactly one re-authentication followed by exactly one more attempt.
// Any other error, a failed re-authentication, or a second 401 is returned
// unchanged.
func WithReauth[In, Out any](auth Reauthenticator, action Action[In, Out]) Action[In, Out] {
	return func(ctx context.Context, in In) (Out, error) {
		out, err := action(ctx, in)
		if err == nil || !IsSessionExpired(err) {
			return out, err
		}

		if _, authErr := auth.Authenticate(ctx); authErr != nil {
			var zero Out
			return zero, authErr
		}
		return action(ctx, in)
	}
}
