package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FabricioLanche/campus-room/internal/api/middleware"
	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/email"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/tasks"
	"github.com/FabricioLanche/campus-room/internal/utils"

	"github.com/hibiken/asynq"
)

// RestChatHandler handles REST requests for chat sessions.
type RestChatHandler struct {
	cfg            *config.Config
	chatService    services.IChatService
	listingService services.IListingService
	userService    services.IUserService
	taskClient     IAsynqClient
}

// NewRestChatHandler creates a new RestChatHandler.
func NewRestChatHandler(cfg *config.Config, chatService services.IChatService, listingService services.IListingService, userService services.IUserService, taskClient IAsynqClient) *RestChatHandler {
	return &RestChatHandler{
		cfg:            cfg,
		chatService:    chatService,
		listingService: listingService,
		userService:    userService,
		taskClient:     taskClient,
	}
}

func currentUserID(c *gin.Context) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identity"})
		return utils.SixID{}, false
	}
	return id, true
}

// ListSessions handles GET /v1/chat
func (h *RestChatHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessions, err := h.chatService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list chat sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// OpenSession handles POST /v1/chat
func (h *RestChatHandler) OpenSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		CounterpartID   string `json:"counterpart_id" binding:"required"`
		CounterpartName string `json:"counterpart_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counterpart_id and counterpart_name are required"})
		return
	}

	session, err := h.chatService.OpenChatWith(c.Request.Context(), userID, req.CounterpartID, req.CounterpartName)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open chat session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// SendMessage handles POST /v1/chat/:id/message. A message to the demo
// landlord schedules the delayed auto-reply.
func (h *RestChatHandler) SendMessage(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	sessionID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID format"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	session, err := h.chatService.SendMessage(c.Request.Context(), sessionID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		}
		return
	}

	if session.CounterpartID == h.cfg.AutoReplyLandlordHandle && h.taskClient != nil {
		task, taskErr := tasks.NewChatAutoReplyTask(session.ID.String())
		if taskErr == nil {
			if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task, asynq.ProcessIn(h.cfg.AutoReplyDelay)); enqueueErr != nil {
				_ = c.Error(enqueueErr)
			}
		}
	}

	c.JSON(http.StatusOK, session)
}

// IssueContractOffer handles POST /v1/chat/:id/offer. The caller offers
// a contract for one of its listings.
func (h *RestChatHandler) IssueContractOffer(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	sessionID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID format"})
		return
	}

	var req struct {
		ListingID string `json:"listing_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing_id is required"})
		return
	}

	listingID, err := utils.ParseSixID(req.ListingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID format"})
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	session, deal, err := h.chatService.IssueContractOffer(c.Request.Context(), sessionID, models.SenderMe, listing.Snapshot())
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue contract offer"})
		}
		return
	}

	h.notifyOffer(c, session.CounterpartID, deal)
	c.JSON(http.StatusOK, gin.H{"session": session, "deal": deal})
}

// notifyOffer emails the counterpart about a fresh contract offer, best
// effort. Counterpart handles that resolve to no account are skipped.
func (h *RestChatHandler) notifyOffer(c *gin.Context, counterpartHandle string, deal *models.Deal) {
	if h.taskClient == nil {
		return
	}
	counterpart, err := h.userService.FindUserByHandle(c.Request.Context(), counterpartHandle)
	if err != nil {
		return
	}

	task, err := tasks.NewDealNotificationTask(tasks.DealNotificationPayload{
		To:           counterpart.Email,
		Kind:         email.KindContractOffer,
		ContractCode: deal.ContractCode,
		ListingTitle: deal.ListingTitle,
		Price:        deal.Price,
	})
	if err != nil {
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		_ = c.Error(err)
	}
}

// RegisterRestChatRoutes registers the chat routes, all authenticated.
func RegisterRestChatRoutes(rg *gin.RouterGroup, handler *RestChatHandler) {
	rg.GET("/chat", handler.ListSessions)
	rg.POST("/chat", handler.OpenSession)
	rg.POST("/chat/:id/message", handler.SendMessage)
	rg.POST("/chat/:id/offer", handler.IssueContractOffer)
}
