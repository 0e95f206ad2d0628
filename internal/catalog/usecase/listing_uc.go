package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

// ListingUsecase carries the listing lifecycle commands: two-phase creation
// and soft-delete archival.
type ListingUsecase struct {
	repo     domain.ProductRepository
	storage  domain.ImageStorage
	cache    domain.ProductCache
	events   domain.EventPublisher
	notifier domain.Notifier
	catalog  *CatalogUsecase
	logger   *logger.Logger
	timeout  time.Duration

	now func() time.Time
}

func NewListingUsecase(
	repo domain.ProductRepository,
	storage domain.ImageStorage,
	cache domain.ProductCache,
	events domain.EventPublisher,
	notifier domain.Notifier,
	catalog *CatalogUsecase,
	log *logger.Logger,
	timeout time.Duration,
) *ListingUsecase {
	return &ListingUsecase{
		repo:     repo,
		storage:  storage,
		cache:    cache,
		events:   events,
		notifier: notifier,
		catalog:  catalog,
		logger:   log.Named("listing"),
		timeout:  timeout,
		now:      time.Now,
	}
}

// CreateListing inserts the listing record and then uploads its images.
//
// Phase 1 inserts the record with status forced to available; a failure here
// aborts the whole operation with nothing partial left behind. Phase 2 runs
// the per-image uploads concurrently, then inserts the image records as one
// batch once every upload has succeeded. The image at input position 0 is the
// primary image. If any upload or the batch insert fails, the phase-1 record
// is marked incomplete so it never surfaces in the catalog, and the call
// returns an error.
//
// The returned product does not carry its images; callers refresh to see
// them.
func (uc *ListingUsecase) CreateListing(ctx context.Context, farmerID string, draft domain.Draft, uploads []domain.ImageUpload) (*domain.Product, error) {
	uc.logger.Info("creating listing",
		zap.String("farmer_id", farmerID),
		zap.String("title", draft.Title),
		zap.Int("images", len(uploads)))

	now := uc.now()
	product := &domain.Product{
		FarmerID:     farmerID,
		CategoryID:   draft.CategoryID,
		Title:        draft.Title,
		Description:  draft.Description,
		PricePerUnit: draft.PricePerUnit,
		Unit:         draft.Unit,
		Province:     draft.Province,
		Status:       domain.StatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	id, err := uc.repo.Create(cctx, product)
	if err != nil {
		uc.logger.Error("listing record insert failed", zap.Error(err), zap.String("farmer_id", farmerID))
		uc.notifier.Error(ctx, "Failed to create listing.")
		return nil, fmt.Errorf("%w: %v", domain.ErrRecordCreation, err)
	}
	product.ID = id

	if len(uploads) > 0 {
		if err := uc.uploadImages(ctx, id, uploads); err != nil {
			uc.markIncomplete(ctx, id)
			uc.notifier.Error(ctx, "Listing was created but its images failed to upload.")
			return nil, err
		}
	}

	if err := uc.events.ListingCreated(ctx, product); err != nil {
		uc.logger.Warn("failed to publish listing created event", zap.Error(err), zap.String("listing_id", id))
	}
	uc.notifier.Success(ctx, "Listing created.")
	return product, nil
}

func (uc *ListingUsecase) uploadImages(ctx context.Context, productID string, uploads []domain.ImageUpload) error {
	uploadedAt := uc.now().UnixMilli()
	images := make([]domain.Image, len(uploads))

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(cctx)
	for i, up := range uploads {
		g.Go(func() error {
			key := objectKey(productID, uploadedAt, i, up.Filename)
			url, err := uc.storage.Upload(gctx, key, up.Data, up.ContentType)
			if err != nil {
				return fmt.Errorf("image %d (%s): %w", i, up.Filename, err)
			}
			images[i] = domain.Image{
				ProductID:   productID,
				URL:         url,
				IsPrimary:   i == 0,
				UploadOrder: i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("image upload failed", zap.Error(err), zap.String("listing_id", productID))
		return fmt.Errorf("%w: %v", domain.ErrImageUpload, err)
	}

	if err := uc.repo.AddImages(cctx, images); err != nil {
		uc.logger.Error("image record insert failed", zap.Error(err), zap.String("listing_id", productID))
		return fmt.Errorf("%w: %v", domain.ErrImageUpload, err)
	}
	return nil
}

// markIncomplete is the compensation for a failed image phase: the orphaned
// record is parked out of the catalog instead of being silently left
// available or hard-deleted.
func (uc *ListingUsecase) markIncomplete(ctx context.Context, id string) {
	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	if err := uc.repo.UpdateStatus(cctx, id, domain.StatusIncomplete); err != nil {
		uc.logger.Error("failed to mark listing incomplete", zap.Error(err), zap.String("listing_id", id))
	}
}

// ArchiveListing soft-deletes a listing by flipping its status to archived.
// Only the owner may archive; the caller is expected to have confirmed the
// action with the user already. Archiving an already archived listing is a
// no-op and succeeds. On success the entry is removed from the in-memory
// catalog list and the cached copy is dropped.
func (uc *ListingUsecase) ArchiveListing(ctx context.Context, id, actorID string) error {
	uc.logger.Info("archiving listing", zap.String("listing_id", id), zap.String("actor_id", actorID))

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	listing, err := uc.repo.FindByID(cctx, id)
	if err != nil {
		uc.logger.Error("archive lookup failed", zap.Error(err), zap.String("listing_id", id))
		if errors.Is(err, domain.ErrListingNotFound) {
			return err
		}
		uc.notifier.Error(ctx, "Failed to archive listing.")
		return fmt.Errorf("%w: %v", domain.ErrArchive, err)
	}
	if listing.FarmerID != actorID {
		uc.logger.Warn("archive forbidden",
			zap.String("listing_id", id),
			zap.String("owner_id", listing.FarmerID),
			zap.String("actor_id", actorID))
		return domain.ErrForbidden
	}

	if err := uc.repo.UpdateStatus(cctx, id, domain.StatusArchived); err != nil {
		uc.logger.Error("archive status update failed", zap.Error(err), zap.String("listing_id", id))
		uc.notifier.Error(ctx, "Failed to archive listing.")
		return fmt.Errorf("%w: %v", domain.ErrArchive, err)
	}

	if err := uc.cache.Delete(ctx, id); err != nil {
		uc.logger.Warn("failed to drop cached listing", zap.Error(err), zap.String("listing_id", id))
	}
	uc.catalog.Remove(id)

	if err := uc.events.ListingArchived(ctx, id); err != nil {
		uc.logger.Warn("failed to publish listing archived event", zap.Error(err), zap.String("listing_id", id))
	}
	uc.notifier.Success(ctx, "Listing archived.")
	return nil
}

// GetListing returns a single listing, read through the cache.
func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Product, error) {
	if cached, err := uc.cache.Get(ctx, id); err != nil {
		uc.logger.Warn("cache lookup failed", zap.Error(err), zap.String("listing_id", id))
	} else if cached != nil {
		return cached, nil
	}

	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	listing, err := uc.repo.FindByID(cctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, listing); err != nil {
		uc.logger.Warn("cache store failed", zap.Error(err), zap.String("listing_id", id))
	}
	return listing, nil
}

// ListByFarmer returns every listing owned by the farmer, newest first,
// including archived and incomplete ones. This backs the farmer dashboard.
func (uc *ListingUsecase) ListByFarmer(ctx context.Context, farmerID string) ([]*domain.Product, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.repo.FindByFarmer(cctx, farmerID)
}

// objectKey derives a collision-resistant storage key for an uploaded image:
// {productID}/{uploadTimestamp}-{index}{ext}. The index is the image's
// position in the input batch.
func objectKey(productID string, uploadedAt int64, index int, filename string) string {
	return fmt.Sprintf("%s/%d-%d%s", productID, uploadedAt, index, filepath.Ext(filename))
}
