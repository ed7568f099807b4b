package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carappx/internal/bus"
	"carappx/internal/model"
	"carappx/internal/repository"
	"carappx/internal/service"
	"carappx/internal/utils"
)

// ItemsHandler runs the add-item wizard flow server-side: schema exposure,
// brand/model lookup and the per-type create endpoints.
type ItemsHandler struct {
	locationBus *bus.LocationBus
	uploader    service.Uploader
	creator     service.ItemCreator
	catalog     service.BrandCatalog
	geocoder    *service.Geocoder
	repo        *repository.PostgresRepository
	log         *zap.Logger
}

// NewItemsHandler creates an items handler.
func NewItemsHandler(locationBus *bus.LocationBus, uploader service.Uploader, creator service.ItemCreator, catalog service.BrandCatalog, geocoder *service.Geocoder, repo *repository.PostgresRepository, log *zap.Logger) *ItemsHandler {
	return &ItemsHandler{
		locationBus: locationBus,
		uploader:    uploader,
		creator:     creator,
		catalog:     catalog,
		geocoder:    geocoder,
		repo:        repo,
		log:         log,
	}
}

// Schema handles GET /api/v1/items/:type/schema
func (h *ItemsHandler) Schema(c *gin.Context) {
	itemType, err := model.ParseItemType(c.Param("type"))
	if err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, err.Error()))
		return
	}
	schema, _ := service.SchemaFor(itemType)
	c.JSON(http.StatusOK, gin.H{
		"type":   schema.Type,
		"fields": schema.Fields,
		"paid":   schema.Paid,
		"tiers":  schema.TierPrices,
	})
}

type createItemRequest struct {
	Fields    map[string]string `json:"fields"`
	Photos    []string          `json:"photos,omitempty"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Address   string            `json:"address,omitempty"`
	Tier      string            `json:"tier,omitempty"`
}

// Create handles POST /api/v1/items/:type. Validation failures are rejected
// locally with the aggregated message; paid types return payment parameters
// instead of persisting.
func (h *ItemsHandler) Create(c *gin.Context) {
	itemType, err := model.ParseItemType(c.Param("type"))
	if err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, err.Error()))
		return
	}

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	w := service.NewWizard(service.WizardDeps{
		Bus:      h.locationBus,
		Uploader: h.uploader,
		Creator:  h.creator,
		Catalog:  h.catalog,
		Log:      h.log,
	})
	if err := w.Open(&itemType); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, err.Error()))
		return
	}
	defer w.Close()

	for key, value := range req.Fields {
		if err := w.SetField(key, value); err != nil {
			c.Error(utils.NewCustomError(http.StatusBadRequest, err.Error()))
			return
		}
	}
	for _, uri := range req.Photos {
		w.AddPhoto(uri)
	}
	if req.Latitude != nil && req.Longitude != nil {
		address := req.Address
		if address == "" {
			address = h.geocoder.ReverseGeocode(c.Request.Context(), *req.Latitude, *req.Longitude)
		}
		w.SetLocation(*req.Latitude, *req.Longitude, address)
	}

	result, err := w.Submit(c.Request.Context(), model.PaymentTier(req.Tier))
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          verr.Error(),
				"missing_fields": verr.MissingLabels,
			})
			return
		}
		c.Error(err)
		return
	}

	if result.Payment != nil {
		c.JSON(http.StatusOK, gin.H{"payment": result.Payment})
		return
	}
	c.JSON(http.StatusCreated, result.Created)
}

type reverseGeocodeRequest struct {
	Latitude  float64 `form:"lat" binding:"required"`
	Longitude float64 `form:"lng" binding:"required"`
}

// ReverseGeocode handles GET /api/v1/geocode/reverse. The map-picking screen
// uses it to show an address for the dropped pin; on lookup failure the
// response carries the raw coordinate string.
func (h *ItemsHandler) ReverseGeocode(c *gin.Context) {
	var req reverseGeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(utils.NewCustomError(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	address := h.geocoder.ReverseGeocode(c.Request.Context(), req.Latitude, req.Longitude)
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// Brands handles GET /api/v1/brands
func (h *ItemsHandler) Brands(c *gin.Context) {
	brands, err := h.repo.Brands(c.Request.Context())
	if err != nil || len(brands) == 0 {
		// lookup table unavailable; serve the built-in catalog
		brands = h.catalog.Brands()
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// Models handles GET /api/v1/brands/:brand/models
func (h *ItemsHandler) Models(c *gin.Context) {
	brand := c.Param("brand")
	models, err := h.repo.ModelsForBrand(c.Request.Context(), brand)
	if err != nil || len(models) == 0 {
		models = h.catalog.ModelsForBrand(brand)
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand, "models": models})
}
