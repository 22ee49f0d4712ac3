package tasks_test

import (
	"context"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/email"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/tasks"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// --- Mocks ---

// MockEmailSender implements email.Sender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

// MockChatService implements services.IChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) OpenChatWith(ctx context.Context, ownerID utils.SixID, counterpartID, counterpartName string) (*models.ChatSession, error) {
	args := m.Called(ctx, ownerID, counterpartID, counterpartName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockChatService) ListSessions(ctx context.Context, ownerID utils.SixID) ([]models.ChatSession, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSession), args.Error(1)
}

func (m *MockChatService) FindSessionByID(ctx context.Context, sessionID utils.SixID) (*models.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, sessionID utils.SixID, text string) (*models.ChatSession, error) {
	args := m.Called(ctx, sessionID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockChatService) IssueContractOffer(ctx context.Context, sessionID utils.SixID, senderID string, snapshot models.ListingSnapshot) (*models.ChatSession, *models.Deal, error) {
	args := m.Called(ctx, sessionID, senderID, snapshot)
	var session *models.ChatSession
	var deal *models.Deal
	if args.Get(0) != nil {
		session = args.Get(0).(*models.ChatSession)
	}
	if args.Get(1) != nil {
		deal = args.Get(1).(*models.Deal)
	}
	return session, deal, args.Error(2)
}

// --- Tests ---

func TestHandleDealNotificationTask_Signed(t *testing.T) {
	mockSender := new(MockEmailSender)
	cfg := &config.Config{SmtpFromAddress: "noreply@campusroom.test"}
	p := tasks.NewTaskProcessor(cfg, mockSender, nil, nil, nil, nil, nil)

	task, err := tasks.NewDealNotificationTask(tasks.DealNotificationPayload{
		To:           "josue@gmail.com",
		Kind:         email.KindDealSigned,
		ContractCode: "CTR-4821",
		PaymentCode:  "PAY-7310",
		ListingTitle: "Minidepa Estudiantil en Surco",
		Price:        850,
	})
	require.NoError(t, err)

	mockSender.On("Send", mock.Anything, []string{"josue@gmail.com"},
		"Contrato firmado: CTR-4821", mock.Anything).Return(nil)

	err = p.HandleDealNotificationTask(context.Background(), task)
	assert.NoError(t, err)
	mockSender.AssertExpectations(t)

	raw := string(mockSender.Calls[0].Arguments.Get(3).([]byte))
	assert.Contains(t, raw, "To: josue@gmail.com\r\n")
	assert.Contains(t, raw, "From: noreply@campusroom.test\r\n")
	assert.Contains(t, raw, "PAY-7310")
}

func TestHandleDealNotificationTask_Offer(t *testing.T) {
	mockSender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(&config.Config{}, mockSender, nil, nil, nil, nil, nil)

	task, err := tasks.NewDealNotificationTask(tasks.DealNotificationPayload{
		To:           "ana@gmail.com",
		Kind:         email.KindContractOffer,
		ContractCode: "CTR-1234",
		ListingTitle: "Cuarto en Barranco",
		Price:        700,
	})
	require.NoError(t, err)

	mockSender.On("Send", mock.Anything, []string{"ana@gmail.com"},
		mock.MatchedBy(func(subject string) bool {
			return strings.HasPrefix(subject, "Propuesta de contrato")
		}), mock.Anything).Return(nil)

	assert.NoError(t, p.HandleDealNotificationTask(context.Background(), task))
	mockSender.AssertExpectations(t)
}

func TestHandleDealNotificationTask_UnknownKind(t *testing.T) {
	mockSender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(&config.Config{}, mockSender, nil, nil, nil, nil, nil)

	task, err := tasks.NewDealNotificationTask(tasks.DealNotificationPayload{
		To:   "ana@gmail.com",
		Kind: "nonsense",
	})
	require.NoError(t, err)

	err = p.HandleDealNotificationTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	mockSender.AssertNotCalled(t, "Send")
}

func TestHandleChatAutoReplyTask(t *testing.T) {
	mockChatSvc := new(MockChatService)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, nil, mockChatSvc, nil, nil, nil)

	sessionID := utils.NewSixID()
	session := &models.ChatSession{
		Base:            models.Base{ID: sessionID},
		OwnerID:         utils.NewSixID(),
		CounterpartID:   "landlord-1",
		CounterpartName: "Carlos Mendoza",
	}
	deal := &models.Deal{
		Base:         models.NewBase(),
		ContractCode: "CTR-9999",
		ListingTitle: "Minidepa Estudiantil en Surco",
		Price:        850,
	}

	mockChatSvc.On("FindSessionByID", mock.Anything, sessionID).Return(session, nil)
	mockChatSvc.On("IssueContractOffer", mock.Anything, sessionID, "landlord-1",
		mock.MatchedBy(func(s models.ListingSnapshot) bool {
			return s.Title == "Minidepa Estudiantil en Surco" && s.Price == 850
		})).Return(session, deal, nil)

	task, err := tasks.NewChatAutoReplyTask(sessionID.String())
	require.NoError(t, err)

	assert.NoError(t, p.HandleChatAutoReplyTask(context.Background(), task))
	mockChatSvc.AssertExpectations(t)
}

func TestHandleChatAutoReplyTask_SessionGone(t *testing.T) {
	mockChatSvc := new(MockChatService)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, nil, mockChatSvc, nil, nil, nil)

	sessionID := utils.NewSixID()
	mockChatSvc.On("FindSessionByID", mock.Anything, sessionID).Return(nil, services.ErrSessionNotFound)

	task, err := tasks.NewChatAutoReplyTask(sessionID.String())
	require.NoError(t, err)

	// A vanished session drops the reply without erroring, so asynq
	// never retries it.
	assert.NoError(t, p.HandleChatAutoReplyTask(context.Background(), task))
	mockChatSvc.AssertNotCalled(t, "IssueContractOffer")
}
