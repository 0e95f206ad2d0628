package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/usecase"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/metrics"
)

const testSecret = "test-secret"

type stubRepo struct {
	lastQuery domain.Query
	products  []*domain.Product
	byID      *domain.Product
}

func (s *stubRepo) Create(context.Context, *domain.Product) (string, error) { return "id", nil }
func (s *stubRepo) FindByQuery(_ context.Context, q domain.Query) ([]*domain.Product, error) {
	s.lastQuery = q
	return s.products, nil
}
func (s *stubRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	if s.byID == nil || s.byID.ID != id {
		return nil, domain.ErrListingNotFound
	}
	return s.byID, nil
}
func (s *stubRepo) FindByFarmer(context.Context, string) ([]*domain.Product, error) {
	return s.products, nil
}
func (s *stubRepo) UpdateStatus(context.Context, string, domain.ListingStatus) error { return nil }
func (s *stubRepo) AddImages(context.Context, []domain.Image) error                  { return nil }

type stubStorage struct{}

func (stubStorage) Upload(context.Context, string, []byte, string) (string, error) {
	return "http://example/img", nil
}

type stubCache struct{}

func (stubCache) Get(context.Context, string) (*domain.Product, error) { return nil, nil }
func (stubCache) Set(context.Context, *domain.Product) error           { return nil }
func (stubCache) Delete(context.Context, string) error                 { return nil }

type stubEvents struct{}

func (stubEvents) ListingCreated(context.Context, *domain.Product) error { return nil }
func (stubEvents) ListingArchived(context.Context, string) error         { return nil }

type stubNotifier struct{}

func (stubNotifier) Success(context.Context, string) {}
func (stubNotifier) Error(context.Context, string)   {}

func newTestRouter(t *testing.T, repo domain.ProductRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	m := metrics.NewManager("catalog_test")
	catalog := usecase.NewCatalogUsecase(repo, stubNotifier{}, log, time.Second)
	listings := usecase.NewListingUsecase(repo, stubStorage{}, stubCache{}, stubEvents{}, stubNotifier{}, catalog, log, time.Second)
	h := NewHandler(catalog, listings, log, m)
	return NewRouter(h, testSecret, log, m)
}

func farmerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    "farmer",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestListProducts_MapsQueryParamsToFilter(t *testing.T) {
	repo := &stubRepo{}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category_id=veg-1&province=Lam%20Dong&search=tomato&sort_by=price_low", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, repo.lastQuery.Predicates, domain.Predicate{Kind: domain.PredicateEquals, Field: domain.FieldCategoryID, Value: "veg-1"})
	assert.Contains(t, repo.lastQuery.Predicates, domain.Predicate{Kind: domain.PredicateEquals, Field: domain.FieldProvince, Value: "Lam Dong"})
	assert.Contains(t, repo.lastQuery.Predicates, domain.Predicate{Kind: domain.PredicateContainsFold, Field: domain.FieldTitle, Value: "tomato"})
	assert.Equal(t, domain.Ordering{Field: domain.FieldPrice, Descending: false}, repo.lastQuery.OrderBy)
}

func TestListProducts_DefaultsToNewest(t *testing.T) {
	repo := &stubRepo{}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Ordering{Field: domain.FieldCreatedAt, Descending: true}, repo.lastQuery.OrderBy)
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveProduct_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/products/prod-1/archive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArchiveProduct_OwnerSucceeds(t *testing.T) {
	repo := &stubRepo{byID: &domain.Product{ID: "prod-1", FarmerID: "farmer-1", Status: domain.StatusAvailable}}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/products/prod-1/archive", nil)
	req.Header.Set("Authorization", "Bearer "+farmerToken(t, "farmer-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestArchiveProduct_NonOwnerForbidden(t *testing.T) {
	repo := &stubRepo{byID: &domain.Product{ID: "prod-1", FarmerID: "farmer-1", Status: domain.StatusAvailable}}
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/products/prod-1/archive", nil)
	req.Header.Set("Authorization", "Bearer "+farmerToken(t, "someone-else"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
