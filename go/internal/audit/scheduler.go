package audit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// DefaultSchedule runs the sweep nightly at 04:00.
const DefaultSchedule = "0 0 4 * * *"

// Alerter is told about every sweep that finds drift.
type Alerter interface {
	Alert(ctx context.Context, report *Report) error
}

// Scheduler runs VerifyBudgets for the league's current season on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	store   store.Store
	auditor *Auditor
	alerter Alerter
	baseCtx context.Context
}

// NewScheduler creates a Scheduler. A nil alerter only logs.
func NewScheduler(baseCtx context.Context, s store.Store, auditor *Auditor, alerter Alerter) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		store:   s,
		auditor: auditor,
		alerter: alerter,
		baseCtx: baseCtx,
	}
}

// Add registers the sweep under schedule, a six-field cron expression.
func (s *Scheduler) Add(schedule string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunOnce(s.baseCtx); err != nil {
			log.Error().Err(err).Msg("budget audit failed")
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule budget audit %q: %w", schedule, err)
	}
	return id, nil
}

// RunOnce audits the current season and every later one.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	var season int
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		league, err := tx.League().Get(ctx)
		if err != nil {
			return err
		}
		season = league.CurrentSeason
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	report, err := s.auditor.VerifyBudgets(ctx, season)
	if err != nil {
		return nil, err
	}
	if !report.Clean() && s.alerter != nil {
		if err := s.alerter.Alert(ctx, report); err != nil {
			log.Warn().Err(err).Msg("failed to send drift alert")
		}
	}
	return report, nil
}

func (s *Scheduler) Start() {
	log.Info().Msg("audit cron started")
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("audit cron stopped")
}
