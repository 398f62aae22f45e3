package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

const defaultCartTTL = 24 * time.Hour

type staleCartVoider interface {
	VoidStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartTTLJobParams configures the abandoned-cart sweep.
type CartTTLJobParams struct {
	Logger  *logger.Logger
	PosRepo staleCartVoider
	TTL     time.Duration
}

type cartTTLJob struct {
	logg *logger.Logger
	pos  staleCartVoider
	ttl  time.Duration
	now  func() time.Time
}

// NewCartTTLJob constructs the job that voids point-of-sale carts left open
// past the TTL. Stock is only deducted at checkout, so voiding releases
// nothing; it just keeps terminals from resuming day-old sales.
func NewCartTTLJob(params CartTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PosRepo == nil {
		return nil, fmt.Errorf("pos repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &cartTTLJob{
		logg: params.Logger,
		pos:  params.PosRepo,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (j *cartTTLJob) Name() string { return "cart_ttl" }

func (j *cartTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	voided, err := j.pos.VoidStaleOpenCarts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("void stale carts: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "voided", voided), "cart sweep finished")
	return nil
}
