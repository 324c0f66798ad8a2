package crm

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultPollConcurrency = 4

// Tally aggregates one verification pass. Undetermined counts entities whose
// status could not be read, so a connectivity problem is not mistaken for a
// batch of pending records.
type Tally struct {
	Verified     int `json:"verified"`
	Total        int `json:"total"`
	Undetermined int `json:"undetermined"`
}

// Outcome is the verification result for a single entity.
type Outcome[E any] struct {
	Entity   E
	Verified bool
	Err      error
}

// VerifyFunc reads the verification state of one entity.
type VerifyFunc[E any] func(ctx context.Context, e E) (bool, error)

// Poller checks verification state for batches of entities on demand. It does
// not persist anything; callers store the flags they care about.
type Poller struct {
	limit int
	log   *zap.Logger
}

// NewPoller returns a Poller running at most limit checks at once.
func NewPoller(limit int, log *zap.Logger) *Poller {
	if limit <= 0 {
		limit = defaultPollConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{limit: limit, log: log}
}

// Poll runs verify for every entity and returns the per-entity outcomes in
// input order along with the tally.
func Poll[E any](ctx context.Context, p *Poller, entities []E, verify VerifyFunc[E]) ([]Outcome[E], Tally) {
	outcomes := make([]Outcome[E], len(entities))

	var g errgroup.Group
	g.SetLimit(p.limit)
	for i, e := range entities {
		g.Go(func() error {
			outcomes[i].Entity = e
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Verified, outcomes[i].Err = verify(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	tally := Tally{Total: len(entities)}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			tally.Undetermined++
		case o.Verified:
			tally.Verified++
		}
	}
	p.log.Info("verification pass finished",
		zap.Int("total", tally.Total),
		zap.Int("verified", tally.Verified),
		zap.Int("undetermined", tally.Undetermined),
	)
	return outcomes, tally
}
