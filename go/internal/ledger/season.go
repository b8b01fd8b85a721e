package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

// ConfirmSeason re-reads the league row inside tx and rejects a clock built for a
// season the league has since rolled past. Processors call it after taking their locks
// so validation and apply see the same season.
func ConfirmSeason(ctx context.Context, tx store.Tx, clock models.LeagueClock) error {
	league, err := tx.League().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return &ValidationError{Problems: []string{"league is not initialized"}}
	}
	if err != nil {
		return fmt.Errorf("failed to load league: %w", err)
	}
	if league.CurrentSeason != clock.Season {
		return &ValidationError{Problems: []string{
			fmt.Sprintf("the league is in season %d, not %d; reload the league clock and retry", league.CurrentSeason, clock.Season),
		}}
	}
	return nil
}
