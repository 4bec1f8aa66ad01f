package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
	"gitlab.connectwisedev.com/cars-service/pkg/database"
	"gitlab.connectwisedev.com/cars-service/pkg/service"
)

// CarCatalog is the set of catalog operations the handlers expose
type CarCatalog interface {
	Latest(ctx context.Context) ([]models.CarSpec, error)
	Search(ctx context.Context, q string) ([]models.CarSummary, error)
	Get(ctx context.Context, id string) (*models.CarSpec, error)
	Create(ctx context.Context, c models.CarSpecCreate) (*models.CarSpec, error)
}

// CarHandler serves the catalog routes
type CarHandler struct {
	cars   CarCatalog
	logger *zap.Logger
}

// NewCarHandler creates a new car handler
func NewCarHandler(cars CarCatalog, logger *zap.Logger) *CarHandler {
	return &CarHandler{cars: cars, logger: logger}
}

// HealthCheck handles GET /api/health
func (h *CarHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "IKUL Cars API is running",
	})
}

// Latest handles GET /api/cars/latest
func (h *CarHandler) Latest(c *gin.Context) {
	cars, err := h.cars.Latest(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cars)
}

// Search handles GET /api/cars/search?q=
func (h *CarHandler) Search(c *gin.Context) {
	results, err := h.cars.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Detail handles GET /api/cars/:id
func (h *CarHandler) Detail(c *gin.Context) {
	car, err := h.cars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, car)
}

// Create handles POST /api/cars
func (h *CarHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("Error reading request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid request body",
			"status": http.StatusBadRequest,
		})
		return
	}

	create, err := models.ValidateCreate(body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	car, err := h.cars.Create(c.Request.Context(), *create)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, car)
}

// respondError maps service errors onto status codes
func (h *CarHandler) respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var dErr *models.DeserializationError

	switch {
	case errors.As(err, &vErr):
		h.logger.Debug("Rejected car spec", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Validation failed",
			"details": vErr.Fields,
			"status":  http.StatusUnprocessableEntity,
		})
	case errors.Is(err, service.ErrCarNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Car not found",
			"status": http.StatusNotFound,
		})
	case errors.As(err, &dErr):
		h.logger.Error("Stored car is malformed", zap.String("id", dErr.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Internal server error",
			"status": http.StatusInternalServerError,
		})
	case errors.Is(err, database.ErrStoreUnavailable):
		h.logger.Error("Document store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Document store unavailable",
			"status": http.StatusServiceUnavailable,
		})
	default:
		h.logger.Error("Error handling request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Internal server error",
			"status": http.StatusInternalServerError,
		})
	}
}
