package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/http/middleware"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/usecase"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/metrics"
)

// maxImageBytes bounds a single uploaded image blob.
const maxImageBytes = 10 << 20

type Handler struct {
	catalog  *usecase.CatalogUsecase
	listings *usecase.ListingUsecase
	logger   *logger.Logger
	metrics  *metrics.Manager
}

func NewHandler(catalog *usecase.CatalogUsecase, listings *usecase.ListingUsecase, log *logger.Logger, m *metrics.Manager) *Handler {
	return &Handler{catalog: catalog, listings: listings, logger: log.Named("http"), metrics: m}
}

type productResponse struct {
	ID           string          `json:"id"`
	FarmerID     string          `json:"farmer_id"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	PricePerUnit float64         `json:"price_per_unit"`
	Unit         string          `json:"unit"`
	Province     string          `json:"province"`
	Status       string          `json:"status"`
	Images       []imageResponse `json:"images"`
	PrimaryImage string          `json:"primary_image_url,omitempty"`
	Farmer       *farmerResponse `json:"farmer,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type imageResponse struct {
	URL         string `json:"url"`
	IsPrimary   bool   `json:"is_primary"`
	UploadOrder int    `json:"upload_order"`
}

type farmerResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Province  string `json:"province"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func toProductResponse(p *domain.Product) productResponse {
	resp := productResponse{
		ID:           p.ID,
		FarmerID:     p.FarmerID,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Title:        p.Title,
		Description:  p.Description,
		PricePerUnit: p.PricePerUnit,
		Unit:         p.Unit,
		Province:     p.Province,
		Status:       string(p.Status),
		Images:       make([]imageResponse, 0, len(p.Images)),
		CreatedAt:    p.CreatedAt,
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, imageResponse{
			URL:         img.URL,
			IsPrimary:   img.IsPrimary,
			UploadOrder: img.UploadOrder,
		})
	}
	if primary := p.PrimaryImage(); primary != nil {
		resp.PrimaryImage = primary.URL
	}
	if p.Farmer != nil {
		resp.Farmer = &farmerResponse{
			ID:        p.Farmer.ID,
			FullName:  p.Farmer.FullName,
			Province:  p.Farmer.Province,
			AvatarURL: p.Farmer.AvatarURL,
		}
	}
	return resp
}

func toProductResponses(products []*domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

// ListProducts applies the query-parameter filter to the catalog and returns
// the resulting product list.
func (h *Handler) ListProducts(c *gin.Context) {
	filter := domain.Filter{
		CategoryID: c.Query("category_id"),
		Province:   c.Query("province"),
		Search:     c.Query("search"),
		SortBy:     domain.SortMode(c.DefaultQuery("sort_by", string(domain.SortNewest))),
	}

	if err := h.catalog.SetFilter(c.Request.Context(), filter); err != nil {
		h.metrics.APIErrorsTotal.WithLabelValues("list_products").Inc()
		h.metrics.CatalogRefreshesTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load products"})
		return
	}
	h.metrics.CatalogRefreshesTotal.WithLabelValues("applied").Inc()

	snap := h.catalog.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"products": toProductResponses(snap.Products),
		"filter": gin.H{
			"category_id": snap.Filter.CategoryID,
			"province":    snap.Filter.Province,
			"search":      snap.Filter.Search,
			"sort_by":     snap.Filter.SortBy,
		},
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.listings.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		h.metrics.APIErrorsTotal.WithLabelValues("get_product").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing"})
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

type createProductForm struct {
	CategoryID   string  `form:"category_id" binding:"required"`
	Title        string  `form:"title" binding:"required"`
	Description  string  `form:"description"`
	PricePerUnit float64 `form:"price_per_unit" binding:"required,gt=0"`
	Unit         string  `form:"unit" binding:"required"`
	Province     string  `form:"province" binding:"required"`
}

// CreateProduct accepts a multipart form: listing fields plus zero or more
// files under "images". File order in the form is the upload order; the first
// file becomes the primary image.
func (h *Handler) CreateProduct(c *gin.Context) {
	var form createProductForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	farmerID := c.GetString(middleware.ContextUserID)

	multipart, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	var uploads []domain.ImageUpload
	for _, file := range multipart.File["images"] {
		if file.Size > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		uploads = append(uploads, domain.ImageUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	draft := domain.Draft{
		CategoryID:   form.CategoryID,
		Title:        form.Title,
		Description:  form.Description,
		PricePerUnit: form.PricePerUnit,
		Unit:         form.Unit,
		Province:     form.Province,
	}

	product, err := h.listings.CreateListing(c.Request.Context(), farmerID, draft, uploads)
	if err != nil {
		h.metrics.APIErrorsTotal.WithLabelValues("create_product").Inc()
		switch {
		case errors.Is(err, domain.ErrImageUpload):
			h.metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "listing created but image upload failed"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create listing"})
		}
		return
	}

	h.metrics.ListingsCreatedTotal.Inc()
	if len(uploads) > 0 {
		h.metrics.ImageUploadsTotal.WithLabelValues("ok").Add(float64(len(uploads)))
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

// ArchiveProduct soft-deletes a listing. The UI confirms with the user before
// calling this endpoint.
func (h *Handler) ArchiveProduct(c *gin.Context) {
	id := c.Param("id")
	actorID := c.GetString(middleware.ContextUserID)

	err := h.listings.ArchiveListing(c.Request.Context(), id, actorID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the owner may archive a listing"})
		default:
			h.metrics.APIErrorsTotal.WithLabelValues("archive_product").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to archive listing"})
		}
		return
	}

	h.metrics.ListingsArchivedTotal.Inc()
	c.Status(http.StatusNoContent)
}

// MyProducts returns the authenticated farmer's own listings, archived and
// incomplete ones included.
func (h *Handler) MyProducts(c *gin.Context) {
	farmerID := c.GetString(middleware.ContextUserID)
	products, err := h.listings.ListByFarmer(c.Request.Context(), farmerID)
	if err != nil {
		h.metrics.APIErrorsTotal.WithLabelValues("my_products").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
