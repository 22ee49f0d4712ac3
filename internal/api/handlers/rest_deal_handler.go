package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FabricioLanche/campus-room/internal/api/middleware"
	"github.com/FabricioLanche/campus-room/internal/email"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/tasks"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// RestDealHandler handles REST requests for the deal lifecycle.
type RestDealHandler struct {
	dealService services.IDealService
	userService services.IUserService
	taskClient  IAsynqClient
}

// NewRestDealHandler creates a new RestDealHandler.
func NewRestDealHandler(dealService services.IDealService, userService services.IUserService, taskClient IAsynqClient) *RestDealHandler {
	return &RestDealHandler{
		dealService: dealService,
		userService: userService,
		taskClient:  taskClient,
	}
}

// GetDealByContractCode handles GET /v1/deal/contract/:code
func (h *RestDealHandler) GetDealByContractCode(c *gin.Context) {
	deal, err := h.dealService.FindByContractCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract code not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve deal"})
		}
		return
	}
	c.JSON(http.StatusOK, deal)
}

// SignContract handles POST /v1/deal/contract/:code/sign
func (h *RestDealHandler) SignContract(c *gin.Context) {
	code := c.Param("code")
	paymentCode, err := h.dealService.Sign(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract code not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign contract"})
		}
		return
	}

	h.notify(c, email.KindDealSigned, code, paymentCode)
	c.JSON(http.StatusOK, gin.H{"payment_code": paymentCode})
}

// GetDealByPaymentCode handles GET /v1/deal/payment/:code
func (h *RestDealHandler) GetDealByPaymentCode(c *gin.Context) {
	deal, err := h.dealService.FindByPaymentCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment code not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve deal"})
		}
		return
	}
	c.JSON(http.StatusOK, deal)
}

// PayDeal handles POST /v1/deal/payment/:code/pay
func (h *RestDealHandler) PayDeal(c *gin.Context) {
	code := c.Param("code")
	err := h.dealService.MarkPaid(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDealNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment code not found"})
		case errors.Is(err, services.ErrDealNotSigned):
			c.JSON(http.StatusConflict, gin.H{"error": "Contract must be signed before payment"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process payment"})
		}
		return
	}

	h.notify(c, email.KindDealPaid, "", code)
	c.JSON(http.StatusOK, gin.H{"paid": true})
}

// notify enqueues a lifecycle email to the authenticated user, best
// effort. Lifecycle state has already been committed when this runs.
func (h *RestDealHandler) notify(c *gin.Context, kind, contractCode, paymentCode string) {
	if h.taskClient == nil {
		return
	}
	userIDStr := c.GetString(middleware.ContextKeyUserID)
	userID, err := utils.ParseSixID(userIDStr)
	if err != nil {
		return
	}
	user, err := h.userService.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		return
	}

	var deal = struct {
		title string
		price float64
	}{}
	if contractCode != "" {
		if d, derr := h.dealService.FindByContractCode(c.Request.Context(), contractCode); derr == nil {
			deal.title, deal.price = d.ListingTitle, d.Price
		}
	} else if paymentCode != "" {
		if d, derr := h.dealService.FindByPaymentCode(c.Request.Context(), paymentCode); derr == nil {
			deal.title, deal.price = d.ListingTitle, d.Price
		}
	}

	task, err := tasks.NewDealNotificationTask(tasks.DealNotificationPayload{
		To:           user.Email,
		Kind:         kind,
		ContractCode: contractCode,
		PaymentCode:  paymentCode,
		ListingTitle: deal.title,
		Price:        deal.price,
	})
	if err != nil {
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		_ = c.Error(err)
	}
}

// RegisterRestDealRoutes registers the deal lifecycle routes. All of
// them require an authenticated user.
func RegisterRestDealRoutes(rg *gin.RouterGroup, handler *RestDealHandler) {
	rg.GET("/deal/contract/:code", handler.GetDealByContractCode)
	rg.POST("/deal/contract/:code/sign", handler.SignContract)
	rg.GET("/deal/payment/:code", handler.GetDealByPaymentCode)
	rg.POST("/deal/payment/:code/pay", handler.PayDeal)
}
