package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/db"
	"github.com/FabricioLanche/campus-room/internal/models"
)

// Counterpart display names recorded on deals. The demo marketplace has
// one landlord persona; the student side is generic.
const (
	DefaultStudentName  = "Estudiante"
	DefaultLandlordName = "Carlos Mendoza"
)

var (
	// ErrDealNotFound signals a contract or payment code that matches no deal.
	ErrDealNotFound = errors.New("deal not found")
	// ErrDealNotSigned signals a payment attempt against an unsigned deal.
	ErrDealNotSigned = errors.New("deal is not signed yet")
)

// DealCodeHookFunc is the signature of the code-generation test hook.
// It returns a contract code, a payment code, and whether to override
// the default random generation.
type DealCodeHookFunc func() (contractCode, paymentCode string, override bool)

// DealCodeHook is a package-level variable tests can set to pin the
// generated deal codes, mirroring utils.NewSixIDHook.
var DealCodeHook DealCodeHookFunc

// IDealService is the authoritative registry of deals and the single
// source of truth for sign/pay state.
type IDealService interface {
	EnsureIndexes(ctx context.Context) error
	SeedFromListings(ctx context.Context, listings []models.Listing) error
	Reset(ctx context.Context, listings []models.Listing) error
	CreateDeal(ctx context.Context, snapshot models.ListingSnapshot) (*models.Deal, error)
	FindByContractCode(ctx context.Context, code string) (*models.Deal, error)
	FindByPaymentCode(ctx context.Context, code string) (*models.Deal, error)
	Sign(ctx context.Context, contractCode string) (string, error)
	MarkPaid(ctx context.Context, paymentCode string) error
}

const dealsCollection = "deals"

// dealService implements IDealService.
type dealService struct {
	db  *mongo.Database
	cfg *config.Config
	rng *rand.Rand
}

// NewDealService creates a new DealService.
func NewDealService(db *mongo.Database, cfg *config.Config) IDealService {
	return &dealService{
		db:  db,
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EnsureIndexes creates the unique indexes backing code uniqueness.
// Collisions surface as duplicate-key errors, which CreateDeal turns
// into code regeneration.
func (s *dealService) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(dealsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "contract_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "payment_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create deal indexes: %w", err)
	}
	return nil
}

// SeedFromListings creates one deal per listing: the listing's fixed
// contract code when present, else CTR-<n> from the listing's seed
// position, with a payment code PAY-<n><0-99>. The seeding is guarded
// by a count check, so re-running it against an already-seeded database
// is a no-op rather than a source of duplicate records.
func (s *dealService) SeedFromListings(ctx context.Context, listings []models.Listing) error {
	collection := s.db.Collection(dealsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count deals for seeding: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for i, listing := range listings {
		contractCode := listing.ContractCode
		if contractCode == "" {
			contractCode = fmt.Sprintf("CTR-%d", i)
		}

		// First-writer-wins on caller-supplied codes: an existing
		// deal with this contract code is left untouched.
		existing := collection.FindOne(ctx, bson.M{"contract_code": contractCode})
		if existing.Err() == nil {
			continue
		}

		deal := &models.Deal{
			Base:           models.NewBase(),
			ContractCode:   contractCode,
			ListingID:      listing.ID,
			ListingTitle:   listing.Title,
			ListingAddress: listing.Address,
			Price:          listing.Price,
			StudentName:    DefaultStudentName,
			LandlordName:   DefaultLandlordName,
			IsSigned:       false,
			IsPaid:         false,
			CreatedAt:      now,
		}

		// Seed payment codes are short enough to collide across
		// listings; regenerate on duplicate-key until they don't.
		seedIndex := i
		err := db.Try(func() error {
			deal.PaymentCode = fmt.Sprintf("PAY-%d%d", seedIndex, s.rng.Intn(100))
			_, insertErr := collection.InsertOne(ctx, deal)
			return insertErr
		})
		if err != nil {
			return fmt.Errorf("failed to seed deal for listing %s: %w", listing.ID.String(), err)
		}
	}
	fmt.Printf("Seeded %d deals from listings.\n", len(listings))
	return nil
}

// Reset drops the registry and reseeds it from the given listings.
func (s *dealService) Reset(ctx context.Context, listings []models.Listing) error {
	if err := s.db.Collection(dealsCollection).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop deals for reset: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return err
	}
	return s.SeedFromListings(ctx, listings)
}

// generateCodes produces a contract/payment code pair, honoring the
// test hook when set.
func (s *dealService) generateCodes() (string, string) {
	if DealCodeHook != nil {
		if contractCode, paymentCode, override := DealCodeHook(); override {
			return contractCode, paymentCode
		}
	}
	return fmt.Sprintf("CTR-%d", 1000+s.rng.Intn(9000)),
		fmt.Sprintf("PAY-%d", 1000+s.rng.Intn(9000))
}

// CreateDeal registers a new deal for the given listing snapshot with
// freshly generated 4-digit codes. A colliding code is regenerated and
// the insert retried a bounded number of times; an existing deal is
// never overwritten or dropped.
func (s *dealService) CreateDeal(ctx context.Context, snapshot models.ListingSnapshot) (*models.Deal, error) {
	collection := s.db.Collection(dealsCollection)

	maxRetries := s.cfg.DealCodeMaxRetries
	if maxRetries <= 0 {
		maxRetries = db.DefaultMaxRetries
	}

	var deal *models.Deal
	err := db.WithRetries(func() error {
		contractCode, paymentCode := s.generateCodes()
		deal = &models.Deal{
			Base:           models.NewBase(),
			ContractCode:   contractCode,
			PaymentCode:    paymentCode,
			ListingID:      snapshot.ID,
			ListingTitle:   snapshot.Title,
			ListingAddress: snapshot.Address,
			Price:          snapshot.Price,
			StudentName:    DefaultStudentName,
			LandlordName:   DefaultLandlordName,
			IsSigned:       false,
			IsPaid:         false,
			CreatedAt:      time.Now().UTC(),
		}
		_, insertErr := collection.InsertOne(ctx, deal)
		return insertErr
	}, maxRetries, db.IsMongoDuplicateKeyError)
	if err != nil {
		return nil, fmt.Errorf("failed to create deal for listing %s: %w", snapshot.ID.String(), err)
	}
	return deal, nil
}

// findByCode resolves a deal by an exact code match after trimming
// surrounding whitespace. Lookups fail softly with ErrDealNotFound; the
// caller owns user-facing messaging.
func (s *dealService) findByCode(ctx context.Context, field, code string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Collection(dealsCollection).
		FindOne(ctx, bson.M{field: strings.TrimSpace(code)}).
		Decode(&deal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("database error finding deal by %s: %w", field, err)
	}
	return &deal, nil
}

// FindByContractCode retrieves the deal a contract code refers to.
func (s *dealService) FindByContractCode(ctx context.Context, code string) (*models.Deal, error) {
	return s.findByCode(ctx, "contract_code", code)
}

// FindByPaymentCode retrieves the deal a payment code refers to.
func (s *dealService) FindByPaymentCode(ctx context.Context, code string) (*models.Deal, error) {
	return s.findByCode(ctx, "payment_code", code)
}

// Sign marks the deal identified by the contract code as signed and
// returns its payment code. Signing is idempotent and monotonic: a
// second call changes nothing and returns the same payment code.
func (s *dealService) Sign(ctx context.Context, contractCode string) (string, error) {
	deal, err := s.FindByContractCode(ctx, contractCode)
	if err != nil {
		return "", err
	}
	if deal.IsSigned {
		return deal.PaymentCode, nil
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"is_signed": true, "signed_at": now}}
	// Filter on is_signed so a concurrent first signer keeps its
	// signed_at timestamp; either way the deal ends up signed.
	_, err = s.db.Collection(dealsCollection).
		UpdateOne(ctx, bson.M{"_id": deal.ID, "is_signed": false}, update)
	if err != nil {
		return "", fmt.Errorf("failed to sign deal %s: %w", deal.ContractCode, err)
	}
	return deal.PaymentCode, nil
}

// MarkPaid marks the deal identified by the payment code as paid. The
// deal must already be signed; paying twice has no additional effect.
func (s *dealService) MarkPaid(ctx context.Context, paymentCode string) error {
	deal, err := s.FindByPaymentCode(ctx, paymentCode)
	if err != nil {
		return err
	}
	if !deal.IsSigned {
		return ErrDealNotSigned
	}
	if deal.IsPaid {
		return nil
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"is_paid": true, "paid_at": now}}
	_, err = s.db.Collection(dealsCollection).
		UpdateOne(ctx, bson.M{"_id": deal.ID, "is_paid": false}, update)
	if err != nil {
		return fmt.Errorf("failed to mark deal %s paid: %w", deal.PaymentCode, err)
	}
	return nil
}
