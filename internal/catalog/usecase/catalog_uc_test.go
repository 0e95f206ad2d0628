package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

// fakeProductRepo lets each test control query behavior directly.
type fakeProductRepo struct {
	findByQuery func(ctx context.Context, q domain.Query) ([]*domain.Product, error)
}

func (f *fakeProductRepo) FindByQuery(ctx context.Context, q domain.Query) ([]*domain.Product, error) {
	return f.findByQuery(ctx, q)
}
func (f *fakeProductRepo) Create(context.Context, *domain.Product) (string, error) {
	panic("not used")
}
func (f *fakeProductRepo) FindByID(context.Context, string) (*domain.Product, error) {
	panic("not used")
}
func (f *fakeProductRepo) FindByFarmer(context.Context, string) ([]*domain.Product, error) {
	panic("not used")
}
func (f *fakeProductRepo) UpdateStatus(context.Context, string, domain.ListingStatus) error {
	panic("not used")
}
func (f *fakeProductRepo) AddImages(context.Context, []domain.Image) error {
	panic("not used")
}

// recordingNotifier captures user-visible notifications.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

// evalQuery applies a query description to an in-memory fixture set the way
// the storage adapter would.
func evalQuery(products []*domain.Product, q domain.Query) []*domain.Product {
	var out []*domain.Product
	for _, p := range products {
		if matches(p, q.Predicates) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch q.OrderBy.Field {
		case domain.FieldPrice:
			if q.OrderBy.Descending {
				return out[i].PricePerUnit > out[j].PricePerUnit
			}
			return out[i].PricePerUnit < out[j].PricePerUnit
		default:
			if q.OrderBy.Descending {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
	})
	return out
}

func matches(p *domain.Product, preds []domain.Predicate) bool {
	for _, pred := range preds {
		got := fieldValue(p, pred.Field)
		switch pred.Kind {
		case domain.PredicateEquals:
			if got != pred.Value {
				return false
			}
		case domain.PredicateContainsFold:
			if !strings.Contains(strings.ToLower(got), strings.ToLower(pred.Value)) {
				return false
			}
		}
	}
	return true
}

func fieldValue(p *domain.Product, field string) string {
	switch field {
	case domain.FieldStatus:
		return string(p.Status)
	case domain.FieldCategoryID:
		return p.CategoryID
	case domain.FieldProvince:
		return p.Province
	case domain.FieldTitle:
		return p.Title
	}
	return ""
}

func fixtureProduct(id, categoryID, title string, price float64, createdAt time.Time) *domain.Product {
	return &domain.Product{
		ID:           id,
		CategoryID:   categoryID,
		Title:        title,
		PricePerUnit: price,
		Status:       domain.StatusAvailable,
		CreatedAt:    createdAt,
	}
}

func newCatalogForTest(repo domain.ProductRepository, notifier domain.Notifier) *CatalogUsecase {
	return NewCatalogUsecase(repo, notifier, logger.NewNop(), time.Second)
}

func TestCatalogRefresh_ReplacesWholeList(t *testing.T) {
	base := time.Now()
	first := []*domain.Product{fixtureProduct("p1", "veg-1", "Kale", 5, base)}
	second := []*domain.Product{fixtureProduct("p2", "veg-1", "Tomato", 7, base)}

	results := [][]*domain.Product{first, second}
	call := 0
	repo := &fakeProductRepo{findByQuery: func(context.Context, domain.Query) ([]*domain.Product, error) {
		r := results[call]
		call++
		return r, nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})

	require.NoError(t, uc.Refresh(context.Background()))
	require.NoError(t, uc.Refresh(context.Background()))

	snap := uc.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "p2", snap.Products[0].ID, "a refresh must replace, not merge")
}

func TestCatalogRefresh_ErrorKeepsLastKnownGood(t *testing.T) {
	base := time.Now()
	good := []*domain.Product{fixtureProduct("p1", "veg-1", "Kale", 5, base)}

	call := 0
	repo := &fakeProductRepo{findByQuery: func(context.Context, domain.Query) ([]*domain.Product, error) {
		call++
		if call == 1 {
			return good, nil
		}
		return nil, errors.New("backend down")
	}}
	notifier := &recordingNotifier{}
	uc := newCatalogForTest(repo, notifier)

	require.NoError(t, uc.Refresh(context.Background()))
	err := uc.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuery)
	assert.Equal(t, 1, notifier.errorCount(), "a failed refresh must raise one error notification")

	snap := uc.Snapshot()
	require.Len(t, snap.Products, 1, "failed refresh must not clear the list")
	assert.Equal(t, "p1", snap.Products[0].ID)

	// The component stays usable: a later refresh succeeds again.
	call = 0
	require.NoError(t, uc.Refresh(context.Background()))
}

// Two refreshes overlap and the later-issued one completes first. The earlier
// one's response arrives afterwards and must be discarded: results apply in
// issue order, not completion order.
func TestCatalogRefresh_StaleResponseDiscarded(t *testing.T) {
	base := time.Now()
	resultA := []*domain.Product{fixtureProduct("a", "veg-1", "Filter A result", 1, base)}
	resultB := []*domain.Product{fixtureProduct("b", "veg-2", "Filter B result", 2, base)}

	releaseA := make(chan struct{})
	var calls int
	var mu sync.Mutex
	repo := &fakeProductRepo{findByQuery: func(ctx context.Context, q domain.Query) ([]*domain.Product, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-releaseA
			return resultA, nil
		}
		return resultB, nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = uc.SetFilter(context.Background(), domain.Filter{CategoryID: "veg-1"})
	}()

	// Make sure refresh A is issued and blocked before issuing B.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, uc.SetFilter(context.Background(), domain.Filter{CategoryID: "veg-2"}))
	snap := uc.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "b", snap.Products[0].ID)

	// Now let A's response arrive late.
	close(releaseA)
	wg.Wait()

	snap = uc.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "b", snap.Products[0].ID, "stale response must not overwrite the newer result")
}

// Filter {categoryId: "veg-1", sortBy: price_low} over listings priced
// 10, 30, 20 must come back ordered [10, 20, 30].
func TestCatalog_PriceLowOrderingScenario(t *testing.T) {
	base := time.Now()
	fixtures := []*domain.Product{
		fixtureProduct("p10", "veg-1", "Carrots", 10, base.Add(1*time.Minute)),
		fixtureProduct("p30", "veg-1", "Spinach", 30, base.Add(2*time.Minute)),
		fixtureProduct("p20", "veg-1", "Cabbage", 20, base.Add(3*time.Minute)),
	}
	repo := &fakeProductRepo{findByQuery: func(_ context.Context, q domain.Query) ([]*domain.Product, error) {
		return evalQuery(fixtures, q), nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})

	require.NoError(t, uc.SetFilter(context.Background(), domain.Filter{
		CategoryID: "veg-1",
		SortBy:     domain.SortPriceLow,
	}))

	snap := uc.Snapshot()
	require.Len(t, snap.Products, 3)
	prices := []float64{snap.Products[0].PricePerUnit, snap.Products[1].PricePerUnit, snap.Products[2].PricePerUnit}
	assert.Equal(t, []float64{10, 20, 30}, prices)
}

func TestCatalog_ArchivedListingsExcludedAfterRefresh(t *testing.T) {
	base := time.Now()
	fixtures := []*domain.Product{
		fixtureProduct("keep", "veg-1", "Kale", 5, base),
		fixtureProduct("gone", "veg-1", "Tomato", 7, base),
	}
	repo := &fakeProductRepo{findByQuery: func(_ context.Context, q domain.Query) ([]*domain.Product, error) {
		return evalQuery(fixtures, q), nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})
	require.NoError(t, uc.Refresh(context.Background()))
	require.Len(t, uc.Snapshot().Products, 2)

	// Archive flips the status; the always-present status predicate now
	// excludes the row.
	fixtures[1].Status = domain.StatusArchived
	require.NoError(t, uc.Refresh(context.Background()))

	snap := uc.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "keep", snap.Products[0].ID)
}

func TestCatalog_RemoveDropsSingleEntry(t *testing.T) {
	base := time.Now()
	repo := &fakeProductRepo{findByQuery: func(context.Context, domain.Query) ([]*domain.Product, error) {
		return []*domain.Product{
			fixtureProduct("p1", "veg-1", "Kale", 5, base),
			fixtureProduct("p2", "veg-1", "Tomato", 7, base),
		}, nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})
	require.NoError(t, uc.Refresh(context.Background()))

	uc.Remove("p1")

	snap := uc.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "p2", snap.Products[0].ID)

	// Removing an unknown id changes nothing.
	uc.Remove("does-not-exist")
	assert.Len(t, uc.Snapshot().Products, 1)
}

func TestCatalog_SubscribeSeesLatestState(t *testing.T) {
	base := time.Now()
	repo := &fakeProductRepo{findByQuery: func(context.Context, domain.Query) ([]*domain.Product, error) {
		return []*domain.Product{fixtureProduct("p1", "veg-1", "Kale", 5, base)}, nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})

	ch, cancel := uc.Subscribe()
	defer cancel()

	require.NoError(t, uc.Refresh(context.Background()))

	select {
	case snap := <-ch:
		require.Len(t, snap.Products, 1)
		assert.Equal(t, "p1", snap.Products[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after refresh")
	}
}

func TestSetFilter_TriggersExactlyOneRefresh(t *testing.T) {
	var calls int
	repo := &fakeProductRepo{findByQuery: func(context.Context, domain.Query) ([]*domain.Product, error) {
		calls++
		return nil, nil
	}}
	uc := newCatalogForTest(repo, &recordingNotifier{})

	require.NoError(t, uc.SetFilter(context.Background(), domain.Filter{Search: "kale"}))
	assert.Equal(t, 1, calls)

	snap := uc.Snapshot()
	assert.Equal(t, "kale", snap.Filter.Search)
	assert.Equal(t, domain.SortNewest, snap.Filter.SortBy, "zero sort mode must normalize to newest")
	assert.NotNil(t, snap.Products, "empty result must normalize to an empty list")
}
