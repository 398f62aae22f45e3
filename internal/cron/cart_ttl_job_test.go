package cron

import (
	"context"
	"testing"
	"time"

	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

type fakeCartVoider struct {
	cutoff time.Time
	voided int64
}

func (f *fakeCartVoider) VoidStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.voided, nil
}

func TestCartTTLUsesConfiguredWindow(t *testing.T) {
	voider := &fakeCartVoider{voided: 4}
	job, err := NewCartTTLJob(CartTTLJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		PosRepo: voider,
		TTL:     6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := time.Now().UTC().Add(-6 * time.Hour)
	diff := voider.cutoff.Sub(want)
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Minute {
		t.Fatalf("cutoff %v not within the configured window", voider.cutoff)
	}
}
