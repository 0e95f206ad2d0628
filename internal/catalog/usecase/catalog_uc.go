package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

// Snapshot is a point-in-time copy of the catalog state. The product slice is
// owned by the receiver and safe to read without further locking.
type Snapshot struct {
	Filter   domain.Filter
	Products []*domain.Product
	Loading  bool
}

// CatalogUsecase owns the filter state and the in-memory product list. All
// mutation goes through SetFilter, Refresh and Remove; reads go through
// Snapshot or Subscribe.
//
// Refreshes may overlap. Each one is issued with a monotonically increasing
// sequence token and its result is applied only while the token is still the
// latest issued, so results land in issue order and stale responses are
// discarded rather than applied.
type CatalogUsecase struct {
	repo     domain.ProductRepository
	notifier domain.Notifier
	logger   *logger.Logger
	timeout  time.Duration

	mu       sync.Mutex
	filter   domain.Filter
	products []*domain.Product
	seq      uint64 // last issued refresh token
	inflight int
	subs     map[int]chan Snapshot
	nextSub  int
}

func NewCatalogUsecase(repo domain.ProductRepository, notifier domain.Notifier, log *logger.Logger, timeout time.Duration) *CatalogUsecase {
	return &CatalogUsecase{
		repo:     repo,
		notifier: notifier,
		logger:   log.Named("catalog"),
		timeout:  timeout,
		filter:   domain.NewFilter(),
		products: []*domain.Product{},
		subs:     map[int]chan Snapshot{},
	}
}

// SetFilter replaces the filter state and triggers exactly one refresh.
func (uc *CatalogUsecase) SetFilter(ctx context.Context, f domain.Filter) error {
	if f.SortBy == "" {
		f.SortBy = domain.SortNewest
	}
	uc.mu.Lock()
	uc.filter = f
	uc.mu.Unlock()
	return uc.Refresh(ctx)
}

// Refresh re-executes the catalog query for the current filter. On success
// the whole in-memory list is replaced; on failure the last known good list
// is retained and an error notification is raised. A refresh superseded by a
// newer one while in flight has its result discarded and returns nil.
func (uc *CatalogUsecase) Refresh(ctx context.Context) error {
	uc.mu.Lock()
	uc.seq++
	token := uc.seq
	filter := uc.filter
	uc.inflight++
	uc.mu.Unlock()

	query := domain.BuildCatalogQuery(filter)

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	products, err := uc.repo.FindByQuery(cctx, query)

	uc.mu.Lock()
	uc.inflight--
	if latest := uc.seq; token != latest {
		// A newer refresh was issued while this one was in flight; its
		// result wins regardless of completion order.
		uc.mu.Unlock()
		uc.logger.Debug("discarding stale refresh result",
			zap.Uint64("token", token), zap.Uint64("latest", latest))
		return nil
	}

	if err != nil {
		uc.mu.Unlock()
		uc.logger.Error("catalog refresh failed", zap.Error(err))
		uc.notifier.Error(ctx, "Failed to load products. Please try again.")
		return fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}

	if products == nil {
		products = []*domain.Product{}
	}
	uc.products = products
	uc.publishLocked()
	uc.mu.Unlock()

	uc.logger.Debug("catalog refreshed", zap.Int("count", len(products)))
	return nil
}

// Remove drops a single product from the in-memory list without refetching.
// Used by the archiver for immediate local consistency.
func (uc *CatalogUsecase) Remove(id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	kept := uc.products[:0]
	for _, p := range uc.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	uc.products = kept
	uc.publishLocked()
}

// Snapshot returns a copy of the current catalog state.
func (uc *CatalogUsecase) Snapshot() Snapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snapshotLocked()
}

// Subscribe registers for catalog change notifications. Each change delivers
// the latest snapshot; a slow consumer only ever misses intermediate states,
// never the final one. The returned cancel func must be called when done.
func (uc *CatalogUsecase) Subscribe() (<-chan Snapshot, func()) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := uc.nextSub
	uc.nextSub++
	ch := make(chan Snapshot, 1)
	uc.subs[id] = ch

	cancel := func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		if _, ok := uc.subs[id]; ok {
			delete(uc.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (uc *CatalogUsecase) snapshotLocked() Snapshot {
	products := make([]*domain.Product, len(uc.products))
	copy(products, uc.products)
	return Snapshot{
		Filter:   uc.filter,
		Products: products,
		Loading:  uc.inflight > 0,
	}
}

func (uc *CatalogUsecase) publishLocked() {
	snap := uc.snapshotLocked()
	for _, ch := range uc.subs {
		// Replace a pending snapshot instead of blocking.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
