package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/email"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypeChatAutoReply    = "chat:auto_reply"
	TypeDealNotification = "deal:notify"
	TypeImageProcess     = "image:process"
)

// The simulated landlord always offers the same unit.
const (
	autoReplyListingTitle   = "Minidepa Estudiantil en Surco"
	autoReplyListingAddress = "Av. Principal 656, Surco"
	autoReplyListingPrice   = 850
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// ChatAutoReplyPayload identifies the session awaiting the simulated
// landlord reply.
type ChatAutoReplyPayload struct {
	SessionID string `json:"session_id"`
}

// NewChatAutoReplyTask builds the delayed auto-reply task for a session.
func NewChatAutoReplyTask(sessionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ChatAutoReplyPayload{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auto-reply payload: %w", err)
	}
	return asynq.NewTask(TypeChatAutoReply, payload), nil
}

// DealNotificationPayload carries everything needed to compose a deal
// lifecycle email without another database round trip.
type DealNotificationPayload struct {
	To           string  `json:"to"`
	Kind         string  `json:"kind"` // email.KindContractOffer etc.
	ContractCode string  `json:"contract_code"`
	PaymentCode  string  `json:"payment_code,omitempty"`
	ListingTitle string  `json:"listing_title"`
	Price        float64 `json:"price"`
}

// NewDealNotificationTask builds a deal lifecycle notification task.
func NewDealNotificationTask(p DealNotificationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deal notification payload: %w", err)
	}
	return asynq.NewTask(TypeDealNotification, payload), nil
}

// ImageTaskPayload identifies an uploaded listing photo to normalize.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID string `json:"listing_id"`
}

// NewImageProcessTask builds an image normalization task.
func NewImageProcessTask(s3Key, listingID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ListingID: listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue("images")), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	listingService services.IListingService
	chatService    services.IChatService
	userService    services.IUserService
	s3Client       *s3.Client
	taskClient     *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	listingService services.IListingService,
	chatService services.IChatService,
	userService services.IUserService,
	s3Client *s3.Client,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		listingService: listingService,
		chatService:    chatService,
		userService:    userService,
		s3Client:       s3Client,
		taskClient:     taskClient,
	}
}

// SetupServer configures and runs an Asynq server instance.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) *asynq.Server {
	opts := rdb.Options()
	serverOpt := asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeChatAutoReply, processor.HandleChatAutoReplyTask)
		mux.HandleFunc(TypeDealNotification, processor.HandleDealNotificationTask)
		fmt.Println("Registered background task handlers (chat & notifications).")
	}

	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		fmt.Println("Registered image processing task handlers.")
	}

	if !isBgWorker && !isImageWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil
	}

	if err := srv.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	return srv
}

// --- Task Handlers ---

// HandleChatAutoReplyTask delivers the simulated landlord response: a
// contract offer for the fixed demo unit, backed by a fresh deal. A
// session that no longer exists makes the task a silent no-op.
func (p *TaskProcessor) HandleChatAutoReplyTask(ctx context.Context, t *asynq.Task) error {
	var payload ChatAutoReplyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal auto-reply payload: %v: %w", err, asynq.SkipRetry)
	}

	sessionID, err := utils.ParseSixID(payload.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID in payload: %w", asynq.SkipRetry)
	}

	session, err := p.chatService.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			log.Printf("Auto-reply session %s gone, dropping reply.", payload.SessionID)
			return nil
		}
		return fmt.Errorf("failed to load session for auto-reply: %w", err)
	}

	snapshot := models.ListingSnapshot{
		Title:   autoReplyListingTitle,
		Address: autoReplyListingAddress,
		Price:   autoReplyListingPrice,
	}

	_, deal, err := p.chatService.IssueContractOffer(ctx, sessionID, session.CounterpartID, snapshot)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to issue auto-reply offer: %w", err)
	}

	// Notify the session owner by email, best effort.
	if p.taskClient == nil {
		return nil
	}
	owner, err := p.userService.FindUserByID(ctx, session.OwnerID)
	if err != nil {
		log.Printf("Auto-reply: owner %s not found, skipping notification.", session.OwnerID.String())
		return nil
	}

	notifyTask, err := NewDealNotificationTask(DealNotificationPayload{
		To:           owner.Email,
		Kind:         email.KindContractOffer,
		ContractCode: deal.ContractCode,
		ListingTitle: deal.ListingTitle,
		Price:        deal.Price,
	})
	if err != nil {
		return err
	}
	if _, err := p.taskClient.EnqueueContext(ctx, notifyTask); err != nil {
		log.Printf("Failed to enqueue offer notification for %s: %v", owner.Email, err)
	}
	return nil
}

// HandleDealNotificationTask composes and sends a deal lifecycle email.
func (p *TaskProcessor) HandleDealNotificationTask(ctx context.Context, t *asynq.Task) error {
	var payload DealNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal deal notification payload: %v: %w", err, asynq.SkipRetry)
	}

	var subject, body string
	switch payload.Kind {
	case email.KindContractOffer:
		subject = fmt.Sprintf("Propuesta de contrato para %q", payload.ListingTitle)
		body = fmt.Sprintf("Tienes una propuesta de contrato para %q (S/ %.0f al mes).\n\nIngresa el código %s en la sección Contrato para leer y firmar el documento.\n",
			payload.ListingTitle, payload.Price, payload.ContractCode)
	case email.KindDealSigned:
		subject = fmt.Sprintf("Contrato firmado: %s", payload.ContractCode)
		body = fmt.Sprintf("El contrato %s para %q ha sido firmado.\n\nUsa el código de pago %s en la sección Pago para completar el alquiler.\n",
			payload.ContractCode, payload.ListingTitle, payload.PaymentCode)
	case email.KindDealPaid:
		subject = fmt.Sprintf("Pago confirmado: %s", payload.PaymentCode)
		body = fmt.Sprintf("El pago del alquiler de %q ha sido confirmado. ¡Bienvenido a tu nuevo hogar!\n", payload.ListingTitle)
	default:
		return fmt.Errorf("unknown deal notification kind %q: %w", payload.Kind, asynq.SkipRetry)
	}

	fromAddress := p.cfg.SmtpFromAddress
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, []byte(sb.String())); err != nil {
		fmt.Printf("Deal notification sending failed (will retry): %v\n", err)
		return err
	}
	return nil
}

// HandleImageProcessTask normalizes an uploaded listing photo: it is
// downloaded from S3, resized to fit the configured bounds, re-encoded
// as JPEG when resized, written back, and attached to the listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	listingID, err := utils.ParseSixID(payload.ListingID)
	if err != nil {
		log.Printf("Invalid ListingID in image task payload: %s", payload.ListingID)
		return fmt.Errorf("invalid listing ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, ListingID=%s", payload.S3Key, payload.ListingID)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxWidth := uint(p.cfg.ImageMaxDimension)
	maxHeight := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxWidth || uint(img.Bounds().Dy()) > maxHeight

	processedImageData := imgData
	contentType := aws.ToString(getObjectOutput.ContentType)

	if needsResize {
		resizedImg := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedImageData = buf.Bytes()
		contentType = "image/jpeg"
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		if int64(len(processedImageData)) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	}

	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedImageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	if err := p.listingService.SetListingImage(ctx, listingID, payload.S3Key); err != nil {
		return fmt.Errorf("failed to update listing with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, ListingID=%s", payload.S3Key, payload.ListingID)
	return nil
}
