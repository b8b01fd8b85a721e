package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/audit"
	"github.com/mcdev12/dynasty-ledger/go/internal/config"
	"github.com/mcdev12/dynasty-ledger/go/internal/cut"
	"github.com/mcdev12/dynasty-ledger/go/internal/franchise"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/rollover"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/service"
	"github.com/mcdev12/dynasty-ledger/go/internal/signing"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/postgres"
	"github.com/mcdev12/dynasty-ledger/go/internal/trade"
)

type Services struct {
	Store   *postgres.Store
	Ledger  *service.Service
	Auditor *audit.Auditor
	Alerter audit.Alerter

	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, leagueRules *rules.Rules) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Store → Processors → Service layer
	s := &Services{Store: postgres.New(pool)}

	locker, err := setupLocker(ctx, cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("ledgerd"), nats.MaxReconnects(-1))
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, drift alerts will only be logged")
	} else {
		s.Alerter = audit.NewNATSAlerter(nc)
		s.closers = append(s.closers, nc.Close)
	}

	clock := clockwork.NewRealClock()
	rollovers := rollover.NewApp(s.Store, locker, leagueRules)
	s.Auditor = audit.NewAuditor(s.Store, leagueRules)
	s.Ledger = service.NewService(service.Deps{
		Store:      s.Store,
		Clock:      clock,
		Trades:     trade.NewApp(s.Store, locker, leagueRules),
		Cuts:       cut.NewApp(s.Store, locker, leagueRules),
		Signings:   signing.NewApp(s.Store, locker, leagueRules),
		Rollover:   rollovers,
		Auditor:    s.Auditor,
		Franchises: franchise.NewDirectory(s.Store, rollovers, clock, cfg.FranchiseTTL),
	})
	return s, nil
}

// setupLocker uses Redis when REDIS_URL is set so several ledgerd replicas can share locks.
func setupLocker(ctx context.Context, cfg config.Config, s *Services) (lock.Locker, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("using in-process franchise locks")
		return lock.NewLocalLocker(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	s.closers = append(s.closers, func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	})

	lockCfg := lock.DefaultRedisConfig()
	lockCfg.TTL = cfg.LockTTL
	lockCfg.Wait = cfg.LockWait
	log.Info().Str("addr", opts.Addr).Msg("using redis franchise locks")
	return lock.NewRedisLocker(client, lockCfg), nil
}
