package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pharmhq/pharmacy-backend/pkg/logger"
	"github.com/pharmhq/pharmacy-backend/pkg/metrics"
)

type orgIDLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type inviteExpirer interface {
	ExpireDueForOrg(ctx context.Context, orgID uuid.UUID, now time.Time) (int64, error)
}

// InviteExpiryJobParams configures the daily invitation sweep.
type InviteExpiryJobParams struct {
	Logger     *logger.Logger
	OrgRepo    orgIDLister
	InviteRepo inviteExpirer
	Metrics    *metrics.CronJobMetrics
}

type inviteExpiryJob struct {
	logg    *logger.Logger
	orgs    orgIDLister
	invites inviteExpirer
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

// NewInviteExpiryJob constructs the job that marks overdue pending
// invitations as expired. Expiry is also enforced at read time, so the sweep
// only keeps listings and metrics honest; one slow cycle loses nothing.
func NewInviteExpiryJob(params InviteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.OrgRepo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if params.InviteRepo == nil {
		return nil, fmt.Errorf("invite repository required")
	}
	return &inviteExpiryJob{
		logg:    params.Logger,
		orgs:    params.OrgRepo,
		invites: params.InviteRepo,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (j *inviteExpiryJob) Name() string { return "invite_expiry" }

func (j *inviteExpiryJob) Run(ctx context.Context) error {
	orgIDs, err := j.orgs.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}

	now := j.now().UTC()
	var total int64
	var failures error
	for _, orgID := range orgIDs {
		expired, err := j.invites.ExpireDueForOrg(ctx, orgID, now)
		if err != nil {
			// One broken tenant must not stop the sweep for the rest.
			orgCtx := j.logg.WithField(ctx, "org_id", orgID.String())
			j.logg.Error(orgCtx, "invite sweep failed for organization", err)
			failures = multierr.Append(failures, fmt.Errorf("org %s: %w", orgID, err))
			continue
		}
		total += expired
	}

	if total > 0 && j.metrics != nil {
		j.metrics.AddExpiredInvites(total)
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", total), "invite sweep finished")
	return failures
}
