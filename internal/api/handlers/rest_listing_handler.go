package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/storage"
	"github.com/FabricioLanche/campus-room/internal/tasks"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// RestListingHandler handles REST requests for listings.
type RestListingHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	dealService    services.IDealService
	userService    services.IUserService
	storageService storage.IS3Storage
	taskClient     IAsynqClient
}

// NewRestListingHandler creates a new RestListingHandler.
func NewRestListingHandler(
	cfg *config.Config,
	listingService services.IListingService,
	dealService services.IDealService,
	userService services.IUserService,
	storageService storage.IS3Storage,
	taskClient IAsynqClient,
) *RestListingHandler {
	return &RestListingHandler{
		cfg:            cfg,
		listingService: listingService,
		dealService:    dealService,
		userService:    userService,
		storageService: storageService,
		taskClient:     taskClient,
	}
}

// SearchListings handles GET /v1/listing/search?q=<term>
func (h *RestListingHandler) SearchListings(c *gin.Context) {
	listings, err := h.listingService.SearchListings(c.Request.Context(), c.Query("q"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings})
}

// GetListingByID handles GET /v1/listing/:id
func (h *RestListingHandler) GetListingByID(c *gin.Context) {
	listingID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID format"})
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetUserListings handles GET /v1/user/:id/listing
func (h *RestListingHandler) GetUserListings(c *gin.Context) {
	userID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	listings, err := h.listingService.FindListingsByUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// CreateListing handles POST /v1/listing (landlord only).
func (h *RestListingHandler) CreateListing(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Address     string              `json:"address" binding:"required"`
		Image       string              `json:"image"`
		Price       float64             `json:"price" binding:"required"`
		Lat         float64             `json:"lat"`
		Lng         float64             `json:"lng"`
		Specs       models.ListingSpecs `json:"specs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, address and price are required"})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), landlordID,
		req.Title, req.Description, req.Address, req.Image, req.Price, req.Lat, req.Lng, req.Specs)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// DeleteListing handles DELETE /v1/listing/:id (landlord only, own listings).
func (h *RestListingHandler) DeleteListing(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}

	listingID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID format"})
		return
	}

	if err := h.listingService.DeleteListing(c.Request.Context(), listingID, landlordID); err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else if errors.Is(err, services.ErrListingNotOwned) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Listing belongs to another landlord"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// PresignListingPhoto handles POST /v1/listing/:id/photo. It returns a
// pre-signed S3 PUT URL and queues the normalization task for the key.
func (h *RestListingHandler) PresignListingPhoto(c *gin.Context) {
	landlordID, ok := currentUserID(c)
	if !ok {
		return
	}

	listingID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID format"})
		return
	}

	var req struct {
		Filename    string `json:"filename" binding:"required"`
		ContentType string `json:"content_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required"})
		return
	}

	url, objectKey, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(),
		landlordID.String(), listingID.String(), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	if h.taskClient != nil {
		task, taskErr := tasks.NewImageProcessTask(objectKey, listingID.String())
		if taskErr == nil {
			if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqueueErr != nil {
				_ = c.Error(enqueueErr)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": objectKey})
}

// ResetData handles POST /v1/listing/reset (admin only). Listings and
// deals are dropped and reseeded from scratch.
func (h *RestListingHandler) ResetData(c *gin.Context) {
	landlord, err := h.userService.FindUserByHandle(c.Request.Context(), h.cfg.AutoReplyLandlordHandle)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Demo landlord account missing"})
		return
	}

	listings, err := h.listingService.ResetData(c.Request.Context(), landlord.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset listings"})
		return
	}

	if err := h.dealService.Reset(c.Request.Context(), listings); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset deals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": len(listings)})
}

// RegisterRestListingRoutes registers the public listing routes.
func RegisterRestListingRoutes(rg *gin.RouterGroup, handler *RestListingHandler) {
	rg.GET("/listing/search", handler.SearchListings)
	rg.GET("/listing/:id", handler.GetListingByID)
	rg.GET("/user/:id/listing", handler.GetUserListings)
}

// RegisterRestListingAuthRoutes registers the landlord-only routes.
func RegisterRestListingAuthRoutes(rg *gin.RouterGroup, handler *RestListingHandler) {
	rg.POST("/listing", handler.CreateListing)
	rg.DELETE("/listing/:id", handler.DeleteListing)
	rg.POST("/listing/:id/photo", handler.PresignListingPhoto)
}
