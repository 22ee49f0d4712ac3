package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

func setupTestDBChat(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "chat_sessions", "deals")
}

func newTestChatService(db *mongo.Database) IChatService {
	cfg := &config.Config{
		DealCodeMaxRetries:  5,
		ContractDocumentURL: "https://docs.example.com/contract",
	}
	return NewChatService(db, cfg, NewDealService(db, cfg))
}

func TestChatService_OpenChatWith(t *testing.T) {
	db := setupTestDBChat(t, "testdb_chat_open")
	svc := newTestChatService(db)
	ctx := context.Background()

	ownerID := utils.NewSixID()
	session, err := svc.OpenChatWith(ctx, ownerID, "landlord-1", "Carlos Mendoza")
	require.NoError(t, err)
	assert.Equal(t, ownerID, session.OwnerID)
	assert.Equal(t, "landlord-1", session.CounterpartID)
	assert.Equal(t, "Carlos Mendoza", session.CounterpartName)
	assert.Empty(t, session.Messages)

	// Opening again with the same counterpart reuses the session.
	again, err := svc.OpenChatWith(ctx, ownerID, "landlord-1", "Carlos Mendoza")
	require.NoError(t, err)
	assert.Equal(t, session.ID, again.ID)

	// A different counterpart gets its own session.
	other, err := svc.OpenChatWith(ctx, ownerID, "student-ana", "Ana García")
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, other.ID)

	sessions, err := svc.ListSessions(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// Sessions belong to their owner.
	sessions, err = svc.ListSessions(ctx, utils.NewSixID())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestChatService_SendMessage(t *testing.T) {
	db := setupTestDBChat(t, "testdb_chat_send")
	svc := newTestChatService(db)
	ctx := context.Background()

	session, err := svc.OpenChatWith(ctx, utils.NewSixID(), "landlord-1", "Carlos Mendoza")
	require.NoError(t, err)

	updated, err := svc.SendMessage(ctx, session.ID, "Hola, ¿sigue disponible?")
	require.NoError(t, err)
	require.Len(t, updated.Messages, 1)

	updated, err = svc.SendMessage(ctx, session.ID, "¿Puedo visitar mañana?")
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)

	first, second := updated.Messages[0], updated.Messages[1]
	assert.Equal(t, "Hola, ¿sigue disponible?", first.Text)
	assert.Equal(t, "¿Puedo visitar mañana?", second.Text)
	assert.Equal(t, models.SenderMe, first.SenderID)
	assert.Equal(t, models.MessageTypeText, first.Type)
	assert.False(t, second.Timestamp.Before(first.Timestamp))
	assert.Equal(t, second.Timestamp, updated.UpdatedAt)

	_, err = svc.SendMessage(ctx, utils.NewSixID(), "nadie escucha")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChatService_IssueContractOffer(t *testing.T) {
	db := setupTestDBChat(t, "testdb_chat_offer")
	svc := newTestChatService(db)
	ctx := context.Background()

	session, err := svc.OpenChatWith(ctx, utils.NewSixID(), "landlord-1", "Carlos Mendoza")
	require.NoError(t, err)

	snapshot := models.ListingSnapshot{
		ID:      utils.NewSixID(),
		Title:   "Minidepa Estudiantil en Surco",
		Address: "Av. Principal 656, Surco",
		Price:   850,
	}

	updated, deal, err := svc.IssueContractOffer(ctx, session.ID, session.CounterpartID, snapshot)
	require.NoError(t, err)
	require.NotNil(t, deal)
	require.Len(t, updated.Messages, 1)

	msg := updated.Messages[0]
	assert.Equal(t, models.MessageTypeContractOffer, msg.Type)
	assert.Equal(t, "landlord-1", msg.SenderID)
	assert.Equal(t, deal.ContractCode, msg.ContractCode)
	assert.Equal(t, "https://docs.example.com/contract", msg.ContractLink)
	assert.Equal(t, snapshot.Title, msg.ContractTitle)
	assert.Contains(t, msg.Text, deal.ContractCode)
	assert.Contains(t, msg.Text, snapshot.Title)
	assert.Contains(t, msg.Text, "propuesta de contrato")

	// The deal is registered and resolvable by its contract code.
	found, err := NewDealService(db, &config.Config{}).FindByContractCode(ctx, deal.ContractCode)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Title, found.ListingTitle)
	assert.False(t, found.IsSigned)

	// An offer sent by the session owner uses the landlord wording.
	updated, deal2, err := svc.IssueContractOffer(ctx, session.ID, models.SenderMe, snapshot)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Contains(t, updated.Messages[1].Text, "contrato digital")
	assert.Contains(t, updated.Messages[1].Text, deal2.ContractCode)
	assert.NotEqual(t, deal.ContractCode, deal2.ContractCode)

	_, _, err = svc.IssueContractOffer(ctx, utils.NewSixID(), models.SenderMe, snapshot)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChatService_FindSessionByID(t *testing.T) {
	db := setupTestDBChat(t, "testdb_chat_find")
	svc := newTestChatService(db)
	ctx := context.Background()

	session, err := svc.OpenChatWith(ctx, utils.NewSixID(), "landlord-1", "Carlos Mendoza")
	require.NoError(t, err)

	found, err := svc.FindSessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	_, err = svc.FindSessionByID(ctx, utils.NewSixID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
