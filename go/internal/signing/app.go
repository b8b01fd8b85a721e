package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/lock"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/rules"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// Request puts a player under contract with a franchise.
type Request struct {
	Kind        models.TransactionType
	FranchiseID uuid.UUID
	// PlayerID may be zero for a player the ledger has never seen.
	PlayerID   uuid.UUID
	PlayerName string
	Salary     int
	// StartYear is nil for a single-season free agent deal.
	StartYear *int
	EndYear   int
	// PickID is the pick spent on a draft-select.
	PickID *uuid.UUID
	Source models.Source
}

// Result is an applied signing.
type Result struct {
	Contract    *models.Contract
	Transaction *models.Transaction
	Warnings    []string
}

// App signs players to contracts and charges their salary to the cap.
type App struct {
	store  store.Store
	locker lock.Locker
	rules  *rules.Rules
	calc   *ledger.Calculator
}

// NewApp creates a new signing App
func NewApp(s store.Store, locker lock.Locker, r *rules.Rules) *App {
	return &App{
		store:  s,
		locker: locker,
		rules:  r,
		calc:   ledger.NewCalculator(r.BuyOutTable()),
	}
}

type plan struct {
	franchise *models.Franchise
	contract  models.Contract
	existing  bool             // filling in RFA rights the franchise already holds
	replaces  *models.Contract // rights held elsewhere that an auction win overrides
	pick      *models.Pick
	deltas    ledger.Deltas
	warnings  []string
}

// ProcessSigning validates and applies a free agent add, auction win, draft selection or
// contract signing.
func (a *App) ProcessSigning(ctx context.Context, clock models.LeagueClock, req Request) (*Result, error) {
	if req.Source == "" {
		req.Source = models.SourceManual
	}
	if req.PlayerID == uuid.Nil {
		req.PlayerID = uuid.New()
	}

	unlock, err := a.locker.Lock(ctx, lock.FranchiseKey(req.FranchiseID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock franchise: %w", err)
	}
	defer unlock()

	var result *Result
	err = a.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := ledger.ConfirmSeason(ctx, tx, clock); err != nil {
			return err
		}
		p, err := a.validate(ctx, tx, clock, req)
		if err != nil {
			return err
		}
		txn, err := a.apply(ctx, tx, clock, req, p)
		if err != nil {
			return err
		}
		result = &Result{Contract: &p.contract, Transaction: txn, Warnings: p.warnings}
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			log.Debug().Err(err).Str("kind", string(req.Kind)).Msg("signing rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to process signing: %w", err)
	}

	log.Info().
		Str("kind", string(req.Kind)).
		Str("franchise_id", req.FranchiseID.String()).
		Str("player_id", req.PlayerID.String()).
		Int("salary", req.Salary).
		Int("end_year", req.EndYear).
		Msg("player signed")
	return result, nil
}

func (a *App) validate(ctx context.Context, tx store.Tx, clock models.LeagueClock, req Request) (*plan, error) {
	var problems ledger.Problems

	switch req.Kind {
	case models.TransactionTypeFA, models.TransactionTypeAuctionWin, models.TransactionTypeDraftSelect, models.TransactionTypeContract:
	default:
		return nil, &ledger.ValidationError{Problems: []string{fmt.Sprintf("%q is not a signing", req.Kind)}}
	}

	f, err := tx.Franchises().Get(ctx, req.FranchiseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ledger.ValidationError{Problems: []string{fmt.Sprintf("franchise %s not found", req.FranchiseID)}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load franchise: %w", err)
	}

	p := &plan{
		franchise: f,
		deltas:    ledger.Deltas{},
		contract: models.Contract{
			ID:          uuid.New(),
			PlayerID:    req.PlayerID,
			PlayerName:  req.PlayerName,
			FranchiseID: f.ID,
			Salary:      models.IntPtr(req.Salary),
			StartYear:   req.StartYear,
			EndYear:     models.IntPtr(req.EndYear),
		},
	}
	name := req.PlayerName
	if name == "" {
		name = "player " + req.PlayerID.String()
	}

	a.checkTerms(clock, req, name, &problems)

	if req.Kind == models.TransactionTypeFA && !req.Source.IsOverride() && !clock.CutsAllowed(f.ID) {
		problems.Addf("%s cannot add free agents during %s", f.Name, clock.Phase())
	}

	existing, err := tx.Contracts().GetByPlayer(ctx, req.PlayerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if existing != nil {
		if req.PlayerName == "" {
			name = existing.PlayerName
			p.contract.PlayerName = existing.PlayerName
		}
		holder := existing.FranchiseID.String()
		if hf, err := tx.Franchises().Get(ctx, existing.FranchiseID); err == nil {
			holder = hf.Name
		}
		switch {
		case !existing.IsRFARights():
			problems.Addf("%s is already under contract with %s", name, holder)
		case existing.FranchiseID == f.ID:
			p.existing = true
			p.contract.ID = existing.ID
		case req.Kind == models.TransactionTypeAuctionWin:
			p.replaces = existing
			p.warnings = append(p.warnings, fmt.Sprintf("%s's RFA rights to %s were not matched", holder, name))
		default:
			problems.Addf("%s holds the RFA rights to %s", holder, name)
		}
	}

	if req.Kind == models.TransactionTypeDraftSelect {
		if err := a.checkPick(ctx, tx, clock, req, p, &problems); err != nil {
			return nil, err
		}
	}

	contracts, err := tx.Contracts().ListByFranchise(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if size := ledger.RosterSize(contracts, clock.Season) + 1; size > a.rules.RosterLimit {
		problems.Addf("%s would roster %d salaried players, over the limit of %d", f.Name, size, a.rules.RosterLimit)
	}

	if len(problems) == 0 {
		if err := a.checkCap(ctx, tx, clock, p, &problems); err != nil {
			return nil, err
		}
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *App) checkTerms(clock models.LeagueClock, req Request, name string, problems *ledger.Problems) {
	if req.Salary <= 0 {
		problems.Addf("salary for %s must be positive, got $%d", name, req.Salary)
	}
	if req.EndYear < clock.Season {
		problems.Addf("contract for %s ends in %d, before the current season %d", name, req.EndYear, clock.Season)
	}
	if req.Kind == models.TransactionTypeFA {
		if req.StartYear != nil || req.EndYear != clock.Season {
			problems.Addf("free agent deals run for the current season %d only", clock.Season)
		}
		return
	}
	if req.StartYear == nil {
		problems.Addf("contract for %s needs a start year", name)
		return
	}
	if *req.StartYear > req.EndYear {
		problems.Addf("contract for %s starts in %d after it ends in %d", name, *req.StartYear, req.EndYear)
		return
	}
	if length := req.EndYear - *req.StartYear + 1; length > a.rules.MaxContractLength {
		problems.Addf("contract for %s runs %d seasons, longer than the limit of %d", name, length, a.rules.MaxContractLength)
	}
}

func (a *App) checkPick(ctx context.Context, tx store.Tx, clock models.LeagueClock, req Request, p *plan, problems *ledger.Problems) error {
	if req.PickID == nil {
		problems.Addf("a draft selection needs a pick")
		return nil
	}
	pick, err := tx.Picks().Get(ctx, *req.PickID)
	if errors.Is(err, store.ErrNotFound) {
		problems.Addf("pick %s not found", *req.PickID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load pick: %w", err)
	}
	switch {
	case pick.Status != models.PickStatusAvailable:
		problems.Addf("the %d round %d pick is %s", pick.Season, pick.Round, pick.Status)
	case pick.CurrentFranchiseID != p.franchise.ID:
		problems.Addf("%s does not own the %d round %d pick", p.franchise.Name, pick.Season, pick.Round)
	case pick.Season != clock.Season:
		problems.Addf("the %d round %d pick cannot be used in %d", pick.Season, pick.Round, clock.Season)
	}
	p.pick = pick
	return nil
}

// checkCap charges the salary to every season the contract covers and judges each row.
func (a *App) checkCap(ctx context.Context, tx store.Tx, clock models.LeagueClock, p *plan, problems *ledger.Problems) error {
	c := p.contract
	for season := c.FirstYear(); season <= *c.EndYear; season++ {
		b, err := tx.Budgets().Get(ctx, c.FranchiseID, season)
		if errors.Is(err, store.ErrNotFound) {
			problems.Addf("%s has no budget for %d", p.franchise.Name, season)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load budget: %w", err)
		}

		delta := models.PayrollDelta(*c.Salary, a.calc.RecoverableShare(c, season))
		v := ledger.ValidateBudgetImpact(p.franchise.Name, *b, delta, ledger.HardCapApplies(clock, season))
		switch v.Outcome {
		case ledger.Warn:
			p.warnings = append(p.warnings, v.Message)
		case ledger.Reject:
			problems.Addf("%s", v.Message)
			continue
		}
		p.deltas.Add(c.FranchiseID, season, delta)
	}
	return nil
}

func (a *App) apply(ctx context.Context, tx store.Tx, clock models.LeagueClock, req Request, p *plan) (*models.Transaction, error) {
	for _, key := range p.deltas.Keys() {
		if err := tx.Budgets().ApplyDelta(ctx, key, p.deltas[key]); err != nil {
			return nil, fmt.Errorf("failed to update budget: %w", err)
		}
	}

	switch {
	case p.existing:
		if err := tx.Contracts().Update(ctx, &p.contract); err != nil {
			return nil, fmt.Errorf("failed to sign rfa: %w", err)
		}
	default:
		if p.replaces != nil {
			if err := tx.Contracts().Delete(ctx, p.replaces.ID); err != nil {
				return nil, fmt.Errorf("failed to clear rfa rights: %w", err)
			}
		}
		if err := tx.Contracts().Create(ctx, &p.contract); err != nil {
			return nil, fmt.Errorf("failed to create contract: %w", err)
		}
	}

	if p.pick != nil {
		if err := tx.Picks().UpdateStatus(ctx, p.pick.ID, models.PickStatusUsed); err != nil {
			return nil, fmt.Errorf("failed to use pick: %w", err)
		}
	}

	txn := models.NewTransaction(a.entry(req.Kind, p), clock.Season, clock.Now, req.Source)
	if err := tx.Transactions().Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record signing: %w", err)
	}
	return txn, nil
}

func (a *App) entry(kind models.TransactionType, p *plan) models.Entry {
	c := p.contract
	switch kind {
	case models.TransactionTypeFA:
		return &models.FAEntry{
			FranchiseID: c.FranchiseID,
			Add:         &models.FAMove{PlayerID: c.PlayerID, PlayerName: c.PlayerName, Terms: c.Terms()},
		}
	case models.TransactionTypeDraftSelect:
		return &models.DraftSelectEntry{
			FranchiseID: c.FranchiseID,
			PlayerID:    c.PlayerID,
			PlayerName:  c.PlayerName,
			PickID:      p.pick.ID,
			Season:      p.pick.Season,
			Round:       p.pick.Round,
			PickNumber:  p.pick.PickNumber,
			Terms:       c.Terms(),
		}
	default:
		return &models.SigningEntry{
			Kind:        kind,
			FranchiseID: c.FranchiseID,
			PlayerID:    c.PlayerID,
			PlayerName:  c.PlayerName,
			Terms:       c.Terms(),
		}
	}
}
