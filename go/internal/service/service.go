// Package service exposes the ledger processors over connect.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/audit"
	"github.com/mcdev12/dynasty-ledger/go/internal/cut"
	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rollover"
	"github.com/mcdev12/dynasty-ledger/go/internal/signing"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
	"github.com/mcdev12/dynasty-ledger/go/internal/trade"
)

// TradeApp defines what the service layer needs from the trade processor
type TradeApp interface {
	ProcessTrade(ctx context.Context, clock models.LeagueClock, parties []trade.Party, opts trade.Options) (*trade.Result, error)
}

type CutApp interface {
	ProcessCut(ctx context.Context, clock models.LeagueClock, franchiseID, playerID uuid.UUID, source models.Source) (*cut.Result, error)
}

type SigningApp interface {
	ProcessSigning(ctx context.Context, clock models.LeagueClock, req signing.Request) (*signing.Result, error)
}

type RolloverApp interface {
	Bootstrap(ctx context.Context, now time.Time, season int) (*rollover.Result, error)
	ProcessSeasonRollover(ctx context.Context, now time.Time, req rollover.Request) (*rollover.Result, error)
}

type Auditor interface {
	VerifyBudgets(ctx context.Context, season int) (*audit.Report, error)
}

// FranchiseDirectory resolves franchise names and registers new franchises.
type FranchiseDirectory interface {
	Create(ctx context.Context, name string) (*models.Franchise, error)
	List(ctx context.Context) ([]models.Franchise, error)
	Name(ctx context.Context, id uuid.UUID) string
}

// Deps is everything a Service is assembled from.
type Deps struct {
	Store      store.Store
	Clock      clockwork.Clock
	Trades     TradeApp
	Cuts       CutApp
	Signings   SigningApp
	Rollover   RolloverApp
	Auditor    Auditor
	Franchises FranchiseDirectory
}

// Service implements the LedgerService handlers.
type Service struct {
	Deps
}

// NewService creates a new ledger service
func NewService(deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Service{Deps: deps}
}

// ProcessTrade validates and applies a trade, or only validates it.
func (s *Service) ProcessTrade(ctx context.Context, req *connect.Request[ProcessTradeRequest]) (*connect.Response[ProcessTradeResponse], error) {
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Trades.ProcessTrade(ctx, clock, req.Msg.Parties, trade.Options{
		ValidateOnly: req.Msg.ValidateOnly,
		Source:       req.Msg.Source,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProcessTradeResponse{
		Transaction: res.Transaction,
		Warnings:    res.Warnings,
	}), nil
}

// ProcessCut releases a player and charges the buy-outs.
func (s *Service) ProcessCut(ctx context.Context, req *connect.Request[ProcessCutRequest]) (*connect.Response[ProcessCutResponse], error) {
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Cuts.ProcessCut(ctx, clock, req.Msg.FranchiseID, req.Msg.PlayerID, req.Msg.Source)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProcessCutResponse{
		Transaction: res.Transaction,
		BuyOuts:     res.BuyOuts,
	}), nil
}

// ProcessSigning puts a player under contract.
func (s *Service) ProcessSigning(ctx context.Context, req *connect.Request[ProcessSigningRequest]) (*connect.Response[ProcessSigningResponse], error) {
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	res, err := s.Signings.ProcessSigning(ctx, clock, signing.Request{
		Kind:        m.Kind,
		FranchiseID: m.FranchiseID,
		PlayerID:    m.PlayerID,
		PlayerName:  m.PlayerName,
		Salary:      m.Salary,
		StartYear:   m.StartYear,
		EndYear:     m.EndYear,
		PickID:      m.PickID,
		Source:      m.Source,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProcessSigningResponse{
		Contract:    res.Contract,
		Transaction: res.Transaction,
		Warnings:    res.Warnings,
	}), nil
}

// ProcessSeasonRollover opens the next season.
func (s *Service) ProcessSeasonRollover(ctx context.Context, req *connect.Request[ProcessSeasonRolloverRequest]) (*connect.Response[ProcessSeasonRolloverResponse], error) {
	res, err := s.Rollover.ProcessSeasonRollover(ctx, s.Clock.Now().UTC(), rollover.Request{
		DraftOrder: rollover.DraftOrder(req.Msg.DraftOrder),
		KeyDates:   req.Msg.KeyDates,
		Season:     req.Msg.Season,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(rolloverResponse(res)), nil
}

// BootstrapLeague opens an empty league at a starting season.
func (s *Service) BootstrapLeague(ctx context.Context, req *connect.Request[BootstrapLeagueRequest]) (*connect.Response[ProcessSeasonRolloverResponse], error) {
	if req.Msg.Season <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("season is required"))
	}
	res, err := s.Rollover.Bootstrap(ctx, s.Clock.Now().UTC(), req.Msg.Season)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(rolloverResponse(res)), nil
}

// ValidateBudgetImpact judges a hypothetical delta against one budget row without writing it.
func (s *Service) ValidateBudgetImpact(ctx context.Context, req *connect.Request[ValidateBudgetImpactRequest]) (*connect.Response[ValidateBudgetImpactResponse], error) {
	if !req.Msg.Delta.Balanced() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("delta available does not match its other fields"))
	}
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}

	var budget *models.Budget
	err = s.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		budget, err = tx.Budgets().Get(ctx, req.Msg.FranchiseID, req.Msg.Season)
		return err
	})
	if err != nil {
		return nil, toConnectError(fmt.Errorf("failed to load budget: %w", err))
	}

	hardCap := ledger.HardCapApplies(clock, req.Msg.Season)
	name := s.Franchises.Name(ctx, req.Msg.FranchiseID)
	verdict := ledger.ValidateBudgetImpact(name, *budget, req.Msg.Delta, hardCap)
	return connect.NewResponse(&ValidateBudgetImpactResponse{
		Outcome: verdict.Outcome.String(),
		Message: verdict.Message,
		Before:  *budget,
		After:   budget.Apply(req.Msg.Delta),
		HardCap: hardCap,
	}), nil
}

// VerifyBudgets runs the budget audit on demand.
func (s *Service) VerifyBudgets(ctx context.Context, req *connect.Request[VerifyBudgetsRequest]) (*connect.Response[VerifyBudgetsResponse], error) {
	season := req.Msg.Season
	if season == 0 {
		clock, err := s.leagueClock(ctx)
		if err != nil {
			return nil, err
		}
		season = clock.Season
	}
	report, err := s.Auditor.VerifyBudgets(ctx, season)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&VerifyBudgetsResponse{Report: report}), nil
}

// ListTransactions returns transaction history, newest first.
func (s *Service) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	m := req.Msg
	if m.Limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit cannot be negative"))
	}
	var txns []models.Transaction
	err := s.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		txns, err = tx.Transactions().List(ctx, store.TransactionFilter{
			Types:       m.Types,
			FranchiseID: m.FranchiseID,
			PlayerID:    m.PlayerID,
			Since:       m.Since,
			Until:       m.Until,
			Limit:       m.Limit,
		})
		return err
	})
	if err != nil {
		return nil, toConnectError(fmt.Errorf("failed to list transactions: %w", err))
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return connect.NewResponse(&ListTransactionsResponse{Transactions: txns}), nil
}

// GetLeagueClock reports the current season and phase.
func (s *Service) GetLeagueClock(ctx context.Context, _ *connect.Request[GetLeagueClockRequest]) (*connect.Response[GetLeagueClockResponse], error) {
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetLeagueClockResponse{
		Season:          clock.Season,
		Now:             clock.Now,
		Phase:           clock.Phase(),
		KeyDates:        clock.KeyDates,
		HardCapActive:   clock.HardCapActive(),
		TradeWindowOpen: clock.TradeWindowOpen(),
	}), nil
}

// CreateFranchise registers a franchise.
func (s *Service) CreateFranchise(ctx context.Context, req *connect.Request[CreateFranchiseRequest]) (*connect.Response[CreateFranchiseResponse], error) {
	f, err := s.Franchises.Create(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateFranchiseResponse{Franchise: f}), nil
}

func (s *Service) ListFranchises(ctx context.Context, _ *connect.Request[ListFranchisesRequest]) (*connect.Response[ListFranchisesResponse], error) {
	all, err := s.Franchises.List(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListFranchisesResponse{Franchises: all}), nil
}

// ListBudgets returns a franchise's budget rows from the current season on.
func (s *Service) ListBudgets(ctx context.Context, req *connect.Request[ListBudgetsRequest]) (*connect.Response[ListBudgetsResponse], error) {
	clock, err := s.leagueClock(ctx)
	if err != nil {
		return nil, err
	}
	var budgets []models.Budget
	err = s.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		all, err := tx.Budgets().ListFrom(ctx, clock.Season)
		if err != nil {
			return err
		}
		for _, b := range all {
			if b.FranchiseID == req.Msg.FranchiseID {
				budgets = append(budgets, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, toConnectError(fmt.Errorf("failed to list budgets: %w", err))
	}
	if len(budgets) == 0 {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no budgets for franchise %s", req.Msg.FranchiseID))
	}
	return connect.NewResponse(&ListBudgetsResponse{Budgets: budgets}), nil
}

// leagueClock reads the league row and pins the clock at the injected now.
func (s *Service) leagueClock(ctx context.Context) (models.LeagueClock, error) {
	var league *models.League
	err := s.Store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		league, err = tx.League().Get(ctx)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.LeagueClock{}, connect.NewError(connect.CodeFailedPrecondition, errors.New("league is not initialized"))
	}
	if err != nil {
		return models.LeagueClock{}, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to load league: %w", err))
	}
	return league.ClockAt(s.Clock.Now().UTC()), nil
}

func rolloverResponse(res *rollover.Result) *ProcessSeasonRolloverResponse {
	return &ProcessSeasonRolloverResponse{
		Season:         res.Season,
		PicksCreated:   res.PicksCreated,
		BudgetsCreated: res.BudgetsCreated,
		Converted:      res.Converted,
		Expired:        res.Expired,
		Lapsed:         res.Lapsed,
		PicksNumbered:  res.PicksNumbered,
		Transactions:   res.Transactions,
	}
}

// ProblemHeader carries each validation problem on a rejected call.
const ProblemHeader = "Ledger-Problem"

func toConnectError(err error) error {
	if problems, ok := ledger.AsValidation(err); ok {
		cerr := connect.NewError(connect.CodeFailedPrecondition, err)
		for _, p := range problems {
			cerr.Meta().Add(ProblemHeader, p)
		}
		return cerr
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	log.Error().Err(err).Msg("ledger request failed")
	return connect.NewError(connect.CodeInternal, err)
}
