package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

type playerMove struct {
	contract models.Contract // as held before the trade
	to       uuid.UUID
}

type pickMove struct {
	pick models.Pick // as held before the trade
	to   uuid.UUID
}

// plan is a fully validated trade, ready to apply.
type plan struct {
	parties  []Party
	names    map[uuid.UUID]string
	players  []playerMove
	picks    []pickMove
	deltas   ledger.Deltas
	warnings []string
}

func (p *plan) name(id uuid.UUID) string {
	if n, ok := p.names[id]; ok {
		return n
	}
	return id.String()
}

func (p *plan) receipts() []models.TradeReceipt {
	receipts := make([]models.TradeReceipt, len(p.parties))
	index := make(map[uuid.UUID]int, len(p.parties))
	for i, party := range p.parties {
		receipts[i].FranchiseID = party.FranchiseID
		index[party.FranchiseID] = i
		for _, c := range party.Cash {
			receipts[i].Cash = append(receipts[i].Cash, models.CashTransfer{
				Amount:          c.Amount,
				Season:          c.Season,
				FromFranchiseID: c.FromFranchiseID,
			})
		}
	}
	for _, mv := range p.players {
		tp := models.TradedPlayer{
			PlayerID:        mv.contract.PlayerID,
			PlayerName:      mv.contract.PlayerName,
			FromFranchiseID: mv.contract.FranchiseID,
			Terms:           mv.contract.Terms(),
		}
		r := &receipts[index[mv.to]]
		if mv.contract.IsRFARights() {
			r.RFARights = append(r.RFARights, tp)
		} else {
			r.Players = append(r.Players, tp)
		}
	}
	for _, mv := range p.picks {
		r := &receipts[index[mv.to]]
		r.Picks = append(r.Picks, models.TradedPick{
			PickID:              mv.pick.ID,
			Season:              mv.pick.Season,
			Round:               mv.pick.Round,
			OriginalFranchiseID: mv.pick.OriginalFranchiseID,
			FromFranchiseID:     mv.pick.CurrentFranchiseID,
		})
	}
	return receipts
}

// validate checks the whole trade against current state without writing anything.
// Every problem found is reported, not just the first.
func (a *App) validate(ctx context.Context, tx store.Tx, clock models.LeagueClock, parties []Party) (*plan, error) {
	var problems ledger.Problems
	pl := &plan{
		parties: parties,
		names:   make(map[uuid.UUID]string, len(parties)),
		deltas:  ledger.Deltas{},
	}

	// Verify every franchise exists
	inTrade := make(map[uuid.UUID]bool, len(parties))
	for _, party := range parties {
		if inTrade[party.FranchiseID] {
			problems.Addf("franchise %s appears in the trade more than once", pl.name(party.FranchiseID))
			continue
		}
		inTrade[party.FranchiseID] = true

		f, err := tx.Franchises().Get(ctx, party.FranchiseID)
		if errors.Is(err, store.ErrNotFound) {
			problems.Addf("franchise %s not found", party.FranchiseID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load franchise: %w", err)
		}
		pl.names[f.ID] = f.Name
	}

	sent, err := a.validatePlayers(ctx, tx, clock, pl, inTrade, &problems)
	if err != nil {
		return nil, err
	}
	if err := a.validatePicks(ctx, tx, pl, inTrade, &problems); err != nil {
		return nil, err
	}

	for _, party := range parties {
		received := len(party.Players) + len(party.Picks) + len(party.Cash)
		if received == 0 && sent[party.FranchiseID] == 0 {
			problems.Addf("%s neither receives an asset nor sends a player", pl.name(party.FranchiseID))
		}
	}

	a.collectCash(clock, pl, inTrade, &problems)
	a.collectSalary(clock, pl)

	if err := a.checkCap(ctx, tx, clock, pl, &problems); err != nil {
		return nil, err
	}
	if err := a.checkRosters(ctx, tx, clock, pl, &problems); err != nil {
		return nil, err
	}

	if !clock.TradeWindowOpen() {
		pl.warnings = append(pl.warnings,
			fmt.Sprintf("trade made during %s, outside the normal trading window", clock.Phase()))
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return pl, nil
}

// validatePlayers resolves every traded player to the contract a partner holds.
// It returns how many players each franchise sends away.
func (a *App) validatePlayers(ctx context.Context, tx store.Tx, clock models.LeagueClock, pl *plan, inTrade map[uuid.UUID]bool, problems *ledger.Problems) (map[uuid.UUID]int, error) {
	sent := make(map[uuid.UUID]int)
	seen := make(map[uuid.UUID]bool)

	for _, party := range pl.parties {
		for _, asset := range party.Players {
			if seen[asset.PlayerID] {
				problems.Addf("player %s is traded more than once", asset.PlayerID)
				continue
			}
			seen[asset.PlayerID] = true

			c, err := tx.Contracts().GetByPlayer(ctx, asset.PlayerID)
			if errors.Is(err, store.ErrNotFound) {
				problems.Addf("player %s is not under contract with any franchise", asset.PlayerID)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load contract: %w", err)
			}

			name := playerName(c)
			switch {
			case c.FranchiseID == party.FranchiseID:
				problems.Addf("%s already belongs to %s", name, pl.name(party.FranchiseID))
				continue
			case !inTrade[c.FranchiseID]:
				problems.Addf("%s is not held by another party to the trade", name)
				continue
			case !c.IsRFARights() && c.EndYear != nil && *c.EndYear < clock.Season:
				problems.Addf("%s's contract expired after %d", name, *c.EndYear)
				continue
			case !c.Terms().Equal(asset.Terms):
				problems.Addf("%s is held by %s at %s, not %s",
					name, pl.name(c.FranchiseID), formatTerms(c.Terms()), formatTerms(asset.Terms))
				continue
			}

			sent[c.FranchiseID]++
			pl.players = append(pl.players, playerMove{contract: *c, to: party.FranchiseID})
		}
	}
	return sent, nil
}

func (a *App) validatePicks(ctx context.Context, tx store.Tx, pl *plan, inTrade map[uuid.UUID]bool, problems *ledger.Problems) error {
	seen := make(map[uuid.UUID]bool)

	for _, party := range pl.parties {
		for _, pickID := range party.Picks {
			if seen[pickID] {
				problems.Addf("pick %s is traded more than once", pickID)
				continue
			}
			seen[pickID] = true

			p, err := tx.Picks().Get(ctx, pickID)
			if errors.Is(err, store.ErrNotFound) {
				problems.Addf("pick %s not found", pickID)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load pick: %w", err)
			}

			label := fmt.Sprintf("%s's %d round %d pick", pl.name(p.OriginalFranchiseID), p.Season, p.Round)
			switch {
			case p.Status != models.PickStatusAvailable:
				problems.Addf("%s is %s", label, p.Status)
				continue
			case p.CurrentFranchiseID == party.FranchiseID:
				problems.Addf("%s already belongs to %s", label, pl.name(party.FranchiseID))
				continue
			case !inTrade[p.CurrentFranchiseID]:
				problems.Addf("%s is not held by another party to the trade", label)
				continue
			}

			pl.picks = append(pl.picks, pickMove{pick: *p, to: party.FranchiseID})
		}
	}
	return nil
}

// collectCash turns cash receipts into budget deltas. Cash may only move within the
// tradable seasons, whatever the cap says.
func (a *App) collectCash(clock models.LeagueClock, pl *plan, inTrade map[uuid.UUID]bool, problems *ledger.Problems) {
	first, last := a.rules.TradeCashSeasons(clock.Season)

	for _, party := range pl.parties {
		for _, c := range party.Cash {
			switch {
			case c.Amount <= 0:
				problems.Addf("cash to %s must be a positive amount, got $%d", pl.name(party.FranchiseID), c.Amount)
				continue
			case c.Season < first || c.Season > last:
				problems.Addf("cash to %s for %d is outside the tradable seasons %d-%d",
					pl.name(party.FranchiseID), c.Season, first, last)
				continue
			case c.FromFranchiseID == party.FranchiseID || !inTrade[c.FromFranchiseID]:
				problems.Addf("cash to %s for %d must come from another party to the trade",
					pl.name(party.FranchiseID), c.Season)
				continue
			}
			pl.deltas.Add(party.FranchiseID, c.Season, models.CashDelta(c.Amount))
			pl.deltas.Add(c.FromFranchiseID, c.Season, models.CashDelta(-c.Amount))
		}
	}
}

// collectSalary moves each traded salary, and its recoverable share, between the
// sending and receiving budgets for every season the contract has left.
func (a *App) collectSalary(clock models.LeagueClock, pl *plan) {
	for _, mv := range pl.players {
		c := mv.contract
		if c.IsRFARights() {
			continue
		}
		for season := max(c.FirstYear(), clock.Season); season <= *c.EndYear; season++ {
			share := a.calc.RecoverableShare(c, season)
			pl.deltas.Add(mv.to, season, models.PayrollDelta(*c.Salary, share))
			pl.deltas.Add(c.FranchiseID, season, models.PayrollDelta(-*c.Salary, -share))
		}
	}
}

// checkCap runs the cap evaluator on every budget row the trade touches. A franchise
// over the cap stays subject to it even when the trade improves its balance.
func (a *App) checkCap(ctx context.Context, tx store.Tx, clock models.LeagueClock, pl *plan, problems *ledger.Problems) error {
	for _, key := range pl.deltas.Keys() {
		if _, known := pl.names[key.FranchiseID]; !known {
			continue
		}
		name := pl.name(key.FranchiseID)
		d := pl.deltas[key]

		b, err := tx.Budgets().Get(ctx, key.FranchiseID, key.Season)
		if errors.Is(err, store.ErrNotFound) {
			problems.Addf("%s has no budget for %d", name, key.Season)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load budget: %w", err)
		}

		v := ledger.ValidateBudgetImpact(name, *b, d, ledger.HardCapApplies(clock, key.Season))
		switch v.Outcome {
		case ledger.Warn:
			pl.warnings = append(pl.warnings, v.Message)
		case ledger.Reject:
			problems.Addf("%s", v.Message)
		}
	}
	return nil
}

// checkRosters rejects a trade that leaves any party with more salaried players than
// the league allows.
func (a *App) checkRosters(ctx context.Context, tx store.Tx, clock models.LeagueClock, pl *plan, problems *ledger.Problems) error {
	incoming := make(map[uuid.UUID]int)
	outgoing := make(map[uuid.UUID]int)
	for _, mv := range pl.players {
		if mv.contract.IsRFARights() {
			continue
		}
		incoming[mv.to]++
		outgoing[mv.contract.FranchiseID]++
	}

	for _, party := range pl.parties {
		id := party.FranchiseID
		if _, known := pl.names[id]; !known {
			continue
		}
		contracts, err := tx.Contracts().ListByFranchise(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		post := ledger.RosterSize(contracts, clock.Season) + incoming[id] - outgoing[id]
		if post > a.rules.RosterLimit {
			problems.Addf("%s would roster %d salaried players, over the limit of %d",
				pl.name(id), post, a.rules.RosterLimit)
		}
	}
	return nil
}

func playerName(c *models.Contract) string {
	if c.PlayerName != "" {
		return c.PlayerName
	}
	return "player " + c.PlayerID.String()
}

func formatTerms(t models.ContractTerms) string {
	switch {
	case t.Salary == nil:
		return "RFA rights"
	case t.EndYear == nil:
		return fmt.Sprintf("$%d", *t.Salary)
	case t.StartYear == nil:
		return fmt.Sprintf("$%d for %d", *t.Salary, *t.EndYear)
	default:
		return fmt.Sprintf("$%d for %d-%d", *t.Salary, *t.StartYear, *t.EndYear)
	}
}
