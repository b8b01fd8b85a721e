package franchise

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/ledger"
	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/mcdev12/dynasty-ledger/go/internal/store"
)

const allKey = "all"

// Opener gives a franchise created after the league opened its place in the open seasons.
type Opener interface {
	OpenFranchise(ctx context.Context, tx store.Tx, f models.Franchise) error
}

// Directory looks up franchises. Franchise identity never changes once created, so
// lookups are served from a cache in front of the store.
type Directory struct {
	store  store.Store
	opener Opener
	cache  *gocache.Cache
	clock  clockwork.Clock
	ttl    time.Duration
}

// NewDirectory creates a Directory caching entries for ttl. Cache expiry runs on
// wall-clock time; clock only stamps CreatedAt. opener may be nil.
func NewDirectory(s store.Store, opener Opener, clock clockwork.Clock, ttl time.Duration) *Directory {
	return &Directory{
		store:  s,
		opener: opener,
		cache:  gocache.New(ttl, ttl*2),
		clock:  clock,
		ttl:    ttl,
	}
}

// Create registers a new franchise and, once the league is open, its picks and budgets.
func (d *Directory) Create(ctx context.Context, name string) (*models.Franchise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ledger.ValidationError{Problems: []string{"franchise name is required"}}
	}

	f := &models.Franchise{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: d.clock.Now().UTC(),
	}
	err := d.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Franchises().Create(ctx, f); err != nil {
			return err
		}
		if d.opener == nil {
			return nil
		}
		return d.opener.OpenFranchise(ctx, tx, *f)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create franchise: %w", err)
	}

	d.cache.Delete(allKey)
	d.cache.Set(f.ID.String(), *f, d.ttl)

	log.Info().
		Str("franchise_id", f.ID.String()).
		Str("name", f.Name).
		Msg("franchise created")
	return f, nil
}

// Get returns the franchise with id.
func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	if v, ok := d.cache.Get(id.String()); ok {
		f := v.(models.Franchise)
		return &f, nil
	}

	var f *models.Franchise
	err := d.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		f, err = tx.Franchises().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.cache.Set(id.String(), *f, d.ttl)
	return f, nil
}

// List returns every franchise ordered by name.
func (d *Directory) List(ctx context.Context) ([]models.Franchise, error) {
	if v, ok := d.cache.Get(allKey); ok {
		return append([]models.Franchise(nil), v.([]models.Franchise)...), nil
	}

	var all []models.Franchise
	err := d.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		all, err = tx.Franchises().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list franchises: %w", err)
	}
	d.cache.Set(allKey, all, d.ttl)
	for _, f := range all {
		d.cache.Set(f.ID.String(), f, d.ttl)
	}
	return append([]models.Franchise(nil), all...), nil
}

// Name returns a display name for id, or the id itself when the franchise is unknown.
func (d *Directory) Name(ctx context.Context, id uuid.UUID) string {
	f, err := d.Get(ctx, id)
	if err != nil {
		return id.String()
	}
	return f.Name
}
