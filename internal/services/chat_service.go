package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// ErrSessionNotFound signals a chat session id that matches no session.
// The auto-reply task treats it as a signal to drop the reply.
var ErrSessionNotFound = errors.New("chat session not found")

const chatSessionsCollection = "chat_sessions"

// IChatService manages chat sessions and their embedded messages.
// Messages are append-only; a session is never deleted.
type IChatService interface {
	OpenChatWith(ctx context.Context, ownerID utils.SixID, counterpartID, counterpartName string) (*models.ChatSession, error)
	ListSessions(ctx context.Context, ownerID utils.SixID) ([]models.ChatSession, error)
	FindSessionByID(ctx context.Context, sessionID utils.SixID) (*models.ChatSession, error)
	SendMessage(ctx context.Context, sessionID utils.SixID, text string) (*models.ChatSession, error)
	IssueContractOffer(ctx context.Context, sessionID utils.SixID, senderID string, snapshot models.ListingSnapshot) (*models.ChatSession, *models.Deal, error)
}

type chatService struct {
	db          *mongo.Database
	cfg         *config.Config
	dealService IDealService
}

// NewChatService creates a new ChatService.
func NewChatService(db *mongo.Database, cfg *config.Config, dealService IDealService) IChatService {
	return &chatService{db: db, cfg: cfg, dealService: dealService}
}

// OpenChatWith returns the session between owner and counterpart,
// creating it on first contact.
func (s *chatService) OpenChatWith(ctx context.Context, ownerID utils.SixID, counterpartID, counterpartName string) (*models.ChatSession, error) {
	collection := s.db.Collection(chatSessionsCollection)

	var session models.ChatSession
	err := collection.FindOne(ctx, bson.M{
		"owner_id":       ownerID,
		"counterpart_id": counterpartID,
	}).Decode(&session)
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("database error finding chat session: %w", err)
	}

	now := time.Now().UTC()
	session = models.ChatSession{
		Base:            models.NewBase(),
		OwnerID:         ownerID,
		CounterpartID:   counterpartID,
		CounterpartName: counterpartName,
		Messages:        []models.Message{},
		Unread:          0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := collection.InsertOne(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to create chat session with %s: %w", counterpartID, err)
	}
	return &session, nil
}

// ListSessions returns the owner's sessions, most recently active first.
func (s *chatService) ListSessions(ctx context.Context, ownerID utils.SixID) ([]models.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.db.Collection(chatSessionsCollection).Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("database error listing chat sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.ChatSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode chat sessions: %w", err)
	}
	return sessions, nil
}

// FindSessionByID retrieves a session by its id.
func (s *chatService) FindSessionByID(ctx context.Context, sessionID utils.SixID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Collection(chatSessionsCollection).
		FindOne(ctx, bson.M{"_id": sessionID}).
		Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database error finding chat session: %w", err)
	}
	return &session, nil
}

// appendMessage pushes a message onto the session and returns the
// updated session. A vanished session yields ErrSessionNotFound.
func (s *chatService) appendMessage(ctx context.Context, sessionID utils.SixID, msg models.Message) (*models.ChatSession, error) {
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.Timestamp},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.ChatSession
	err := s.db.Collection(chatSessionsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": sessionID}, update, opts).
		Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to append message to session %s: %w", sessionID.String(), err)
	}
	return &session, nil
}

// SendMessage appends a plain text message authored by the session
// owner. Whether the counterpart auto-replies is decided by the caller.
func (s *chatService) SendMessage(ctx context.Context, sessionID utils.SixID, text string) (*models.ChatSession, error) {
	msg := models.Message{
		ID:        utils.NewSixID(),
		Text:      text,
		SenderID:  models.SenderMe,
		Timestamp: time.Now().UTC(),
		Type:      models.MessageTypeText,
	}
	return s.appendMessage(ctx, sessionID, msg)
}

// IssueContractOffer registers a new deal for the listing and appends a
// contract_offer message carrying its contract code. The rendered text
// names the code; the document link rides on the message payload only.
func (s *chatService) IssueContractOffer(ctx context.Context, sessionID utils.SixID, senderID string, snapshot models.ListingSnapshot) (*models.ChatSession, *models.Deal, error) {
	deal, err := s.dealService.CreateDeal(ctx, snapshot)
	if err != nil {
		return nil, nil, err
	}

	var text string
	if senderID == models.SenderMe {
		text = fmt.Sprintf("He generado el contrato digital para %q.\n\nPor favor, ve a la sección \"Contrato\" e ingresa este código para leer y firmar el documento:\n\n🔑 CÓDIGO DE CONTRATO: %s", snapshot.Title, deal.ContractCode)
	} else {
		text = fmt.Sprintf("Hola, he generado la propuesta de contrato para %q.\n\nSi estás de acuerdo, ve a la sección \"Contrato\" e ingresa este código para firmar:\n\n🔑 CÓDIGO: %s", snapshot.Title, deal.ContractCode)
	}

	msg := models.Message{
		ID:            utils.NewSixID(),
		Text:          text,
		SenderID:      senderID,
		Timestamp:     time.Now().UTC(),
		Type:          models.MessageTypeContractOffer,
		ContractCode:  deal.ContractCode,
		ContractLink:  s.cfg.ContractDocumentURL,
		ContractTitle: snapshot.Title,
	}

	session, err := s.appendMessage(ctx, sessionID, msg)
	if err != nil {
		return nil, nil, err
	}
	return session, deal, nil
}
