package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/adapter/http/middleware"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/metrics"
)

// NewRouter wires the public API. Catalog reads are public; listing mutation
// requires an authenticated farmer.
func NewRouter(h *Handler, jwtSecret string, log *logger.Logger, m *metrics.Manager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logging(log, m))

	router.GET("/healthz", h.Healthz)

	api := router.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		authed := api.Group("", middleware.Auth(jwtSecret, log))
		{
			farmers := authed.Group("", middleware.RequireRole(middleware.RoleFarmer, middleware.RoleAdmin))
			{
				farmers.POST("/products", h.CreateProduct)
				farmers.POST("/products/:id/archive", h.ArchiveProduct)
				farmers.GET("/farmers/me/products", h.MyProducts)
			}
		}
	}

	return router
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

func NewServer(port string, router *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

func (s *Server) Run() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
