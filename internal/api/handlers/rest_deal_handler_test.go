package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FabricioLanche/campus-room/internal/api/handlers"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/services"
)

func setupDealRouter(dealSvc *MockDealService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// nil task client: notification enqueueing is skipped.
	handler := handlers.NewRestDealHandler(dealSvc, new(MockUserService), nil)
	handlers.RegisterRestDealRoutes(r.Group("/v1"), handler)
	return r
}

func TestRestDealHandler_GetDealByContractCode(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	deal := &models.Deal{
		Base:         models.NewBase(),
		ContractCode: "CTR-4821",
		ListingTitle: "Minidepa Estudiantil en Surco",
		Price:        850,
	}
	mockDealSvc.On("FindByContractCode", mock.Anything, "CTR-4821").Return(deal, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/deal/contract/CTR-4821", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody models.Deal
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "CTR-4821", respBody.ContractCode)
	assert.Equal(t, deal.ListingTitle, respBody.ListingTitle)
	mockDealSvc.AssertExpectations(t)
}

func TestRestDealHandler_GetDealByContractCode_NotFound(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	mockDealSvc.On("FindByContractCode", mock.Anything, "CTR-0000").Return(nil, services.ErrDealNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/deal/contract/CTR-0000", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockDealSvc.AssertExpectations(t)
}

func TestRestDealHandler_SignContract(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	mockDealSvc.On("Sign", mock.Anything, "CTR-4821").Return("PAY-7310", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/deal/contract/CTR-4821/sign", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "PAY-7310", respBody["payment_code"])
	mockDealSvc.AssertExpectations(t)
}

func TestRestDealHandler_PayDeal(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	mockDealSvc.On("MarkPaid", mock.Anything, "PAY-7310").Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/deal/payment/PAY-7310/pay", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockDealSvc.AssertExpectations(t)
}

func TestRestDealHandler_PayDeal_NotSigned(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	mockDealSvc.On("MarkPaid", mock.Anything, "PAY-7310").Return(services.ErrDealNotSigned)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/deal/payment/PAY-7310/pay", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Contains(t, respBody["error"], "signed before payment")
	mockDealSvc.AssertExpectations(t)
}

func TestRestDealHandler_PayDeal_NotFound(t *testing.T) {
	mockDealSvc := new(MockDealService)
	r := setupDealRouter(mockDealSvc)

	mockDealSvc.On("MarkPaid", mock.Anything, "PAY-0000").Return(services.ErrDealNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/deal/payment/PAY-0000/pay", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockDealSvc.AssertExpectations(t)
}
