package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/db"
	"github.com/FabricioLanche/campus-room/internal/geo"
	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

var (
	// ErrListingNotFound signals an id that matches no visible listing.
	ErrListingNotFound = errors.New("listing not found")
	// ErrListingNotOwned signals a mutation against someone else's listing.
	ErrListingNotOwned = errors.New("listing belongs to another landlord")
)

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	EnsureSeedData(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error)
	CreateListing(ctx context.Context, landlordID utils.SixID, title, description, address, image string, price float64, lat, lng float64, specs models.ListingSpecs) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID utils.SixID) (*models.Listing, error)
	FindListingsByUser(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error)
	DeleteListing(ctx context.Context, listingID, landlordID utils.SixID) error
	ResetData(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error)
	SearchListings(ctx context.Context, term string) ([]models.Listing, error)
	SetListingImage(ctx context.Context, listingID utils.SixID, imageKey string) error
}

const listingsCollection = "listings"

// listingService implements IListingService.
type listingService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewListingService creates a new ListingService.
func NewListingService(db *mongo.Database, cfg *config.Config) IListingService {
	return &listingService{db: db, cfg: cfg}
}

// EnsureSeedData populates the listings collection from the mock seed
// generator when it is empty, and persists the result immediately. On a
// non-empty collection it is a no-op returning the stored listings, so
// restarting the process never duplicates seed records.
func (s *listingService) EnsureSeedData(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error) {
	collection := s.db.Collection(listingsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count listings for seeding: %w", err)
	}
	if count > 0 {
		return s.allListings(ctx)
	}

	seeded := GenerateSeedListings(s.cfg.SeedListingCount, landlordID, nil)
	docs := make([]interface{}, len(seeded))
	for i := range seeded {
		docs[i] = seeded[i]
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to insert seed listings: %w", err)
	}
	fmt.Printf("Seeded %d mock listings.\n", len(seeded))
	return seeded, nil
}

// ResetData drops all listings and reseeds from the generator.
func (s *listingService) ResetData(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error) {
	if err := s.db.Collection(listingsCollection).Drop(ctx); err != nil {
		return nil, fmt.Errorf("failed to drop listings for reset: %w", err)
	}
	return s.EnsureSeedData(ctx, landlordID)
}

// CreateListing persists a user-published listing. Listings are
// immutable once created; there is no update path.
func (s *listingService) CreateListing(ctx context.Context, landlordID utils.SixID, title, description, address, image string, price float64, lat, lng float64, specs models.ListingSpecs) (*models.Listing, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("listing title is required")
	}
	if price < 0 {
		return nil, fmt.Errorf("listing price cannot be negative")
	}

	landlord := landlordID
	doc, err := db.InsertOne(ctx, s.db.Collection(listingsCollection), &models.Listing{
		Title:         title,
		Description:   description,
		Price:         price,
		Location:      models.NewGeoPoint(lat, lng),
		Image:         image,
		Address:       address,
		Specs:         specs,
		IsUserCreated: true,
		LandlordID:    &landlord,
		CreatedAt:     time.Now().UTC(),
		Deleted:       false,
	})
	if err != nil {
		return nil, err
	}
	return doc.(*models.Listing), nil
}

// FindListingByID retrieves a single visible listing.
func (s *listingService) FindListingByID(ctx context.Context, listingID utils.SixID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(listingsCollection).
		FindOne(ctx, bson.M{"_id": listingID, "deleted": false}).
		Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID.String(), err)
	}
	return &listing, nil
}

// FindListingsByUser returns the listings a landlord created themselves.
func (s *listingService) FindListingsByUser(ctx context.Context, landlordID utils.SixID) ([]models.Listing, error) {
	filter := bson.M{
		"landlord_id":     landlordID,
		"is_user_created": true,
		"deleted":         false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(listingsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for user %s: %w", landlordID.String(), err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode user listings: %w", err)
	}
	return listings, nil
}

// DeleteListing performs a soft delete of a listing owned by the user.
func (s *listingService) DeleteListing(ctx context.Context, listingID, landlordID utils.SixID) error {
	filter := bson.M{
		"_id":         listingID,
		"landlord_id": landlordID,
		"deleted":     false,
	}
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": time.Now().UTC()}}

	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error deleting listing %s: %w", listingID.String(), err)
	}
	if result.MatchedCount == 0 {
		var listing models.Listing
		checkErr := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return ErrListingNotFound
		}
		if listing.LandlordID == nil || *listing.LandlordID != landlordID {
			return ErrListingNotOwned
		}
		// Already soft-deleted; deleting twice is not an error worth
		// distinguishing for callers.
		return nil
	}
	return nil
}

// SetListingImage replaces the listing's image reference, used by the
// image worker after a processed photo lands in S3.
func (s *listingService) SetListingImage(ctx context.Context, listingID utils.SixID, imageKey string) error {
	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx,
		bson.M{"_id": listingID, "deleted": false},
		bson.M{"$set": bson.M{"image": imageKey}})
	if err != nil {
		return fmt.Errorf("db error setting image on listing %s: %w", listingID.String(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SearchListings filters visible listings by a free-text term. A term
// matching the gazetteer keeps listings within the proximity radius of
// the place; any other term is a case-insensitive substring match on
// address or title. An empty term returns everything.
func (s *listingService) SearchListings(ctx context.Context, term string) ([]models.Listing, error) {
	listings, err := s.allListings(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return listings, nil
	}

	if place, ok := geo.Lookup(term); ok {
		radius := s.cfg.ProximityRadiusKm
		if radius <= 0 {
			radius = 3
		}
		matched := make([]models.Listing, 0, len(listings))
		for _, listing := range listings {
			if listing.Location == nil {
				continue
			}
			dist := geo.DistanceKm(place.Lat, place.Lng, listing.Location.Lat(), listing.Location.Lng())
			if dist <= radius {
				matched = append(matched, listing)
			}
		}
		return matched, nil
	}

	matched := make([]models.Listing, 0, len(listings))
	for _, listing := range listings {
		if strings.Contains(strings.ToLower(listing.Address), term) ||
			strings.Contains(strings.ToLower(listing.Title), term) {
			matched = append(matched, listing)
		}
	}
	return matched, nil
}

// allListings returns every non-deleted listing, newest first. The
// collection holds tens of records, so search filters in memory rather
// than pushing geo predicates into Mongo.
func (s *listingService) allListings(ctx context.Context) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(listingsCollection).Find(ctx, bson.M{"deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}
