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

func setupTestDBListing(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "listings")
}

func testListingConfig() *config.Config {
	return &config.Config{SeedListingCount: 50, ProximityRadiusKm: 3}
}

func TestListingService_EnsureSeedData(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_seed")
	svc := NewListingService(db, testListingConfig())
	ctx := context.Background()

	landlordID := utils.NewSixID()
	listings, err := svc.EnsureSeedData(ctx, landlordID)
	require.NoError(t, err)
	assert.Len(t, listings, 50)

	for _, listing := range listings {
		assert.NotEmpty(t, listing.Title)
		assert.NotEmpty(t, listing.Address)
		assert.Greater(t, listing.Price, 0.0)
		assert.NotEmpty(t, listing.ContractCode)
		assert.False(t, listing.IsUserCreated)
		require.NotNil(t, listing.LandlordID)
		assert.Equal(t, landlordID, *listing.LandlordID)
		assert.NotNil(t, listing.Location)
	}

	// A second call returns the stored data instead of reseeding.
	again, err := svc.EnsureSeedData(ctx, landlordID)
	require.NoError(t, err)
	assert.Len(t, again, 50)

	count, err := db.Collection(listingsCollection).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestListingService_CreateAndDelete(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_crud")
	svc := NewListingService(db, testListingConfig())
	ctx := context.Background()

	landlordID := utils.NewSixID()
	listing, err := svc.CreateListing(ctx, landlordID,
		"Cuarto amoblado", "Con baño propio", "Av. Grau 300, Barranco", "", 650,
		-12.1416, -77.0195, models.ListingSpecs{Bedrooms: 1, Bathrooms: 1, Area: 20})
	require.NoError(t, err)
	assert.True(t, listing.IsUserCreated)

	found, err := svc.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cuarto amoblado", found.Title)

	// Another landlord cannot delete it.
	err = svc.DeleteListing(ctx, listing.ID, utils.NewSixID())
	assert.ErrorIs(t, err, ErrListingNotOwned)

	require.NoError(t, svc.DeleteListing(ctx, listing.ID, landlordID))

	// Soft-deleted listings vanish from lookups and searches.
	_, err = svc.FindListingByID(ctx, listing.ID)
	assert.Error(t, err)
	results, err := svc.SearchListings(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleting an unknown id reports not found.
	err = svc.DeleteListing(ctx, utils.NewSixID(), landlordID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_CreateValidation(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_validation")
	svc := NewListingService(db, testListingConfig())
	ctx := context.Background()

	landlordID := utils.NewSixID()
	_, err := svc.CreateListing(ctx, landlordID, "", "", "Av. X", "", 650, 0, 0, models.ListingSpecs{})
	assert.Error(t, err)

	_, err = svc.CreateListing(ctx, landlordID, "Titulo", "", "Av. X", "", -5, 0, 0, models.ListingSpecs{})
	assert.Error(t, err)
}

func TestListingService_SearchListings(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_search")
	svc := NewListingService(db, testListingConfig())
	ctx := context.Background()

	landlordID := utils.NewSixID()

	// One listing at the Barranco gazetteer point, one in San Isidro
	// well beyond the 3 km radius, one with a matching title.
	nearBarranco, err := svc.CreateListing(ctx, landlordID,
		"Depa cerca al malecon", "", "Jr. Colina 100, Barranco", "", 900,
		-12.1416, -77.0195, models.ListingSpecs{})
	require.NoError(t, err)

	_, err = svc.CreateListing(ctx, landlordID,
		"Habitacion ejecutiva", "", "Calle Las Begonias 400, San Isidro", "", 1200,
		-12.0983, -77.0352, models.ListingSpecs{})
	require.NoError(t, err)

	titled, err := svc.CreateListing(ctx, landlordID,
		"Minidepa Barranco Bohemio", "", "Av. Pedro de Osma 20", "", 800,
		-12.1450, -77.0210, models.ListingSpecs{})
	require.NoError(t, err)

	// Empty term returns everything.
	all, err := svc.SearchListings(ctx, "   ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Gazetteer term: proximity filter, not substring. Both Barranco
	// points sit within the radius; San Isidro does not.
	results, err := svc.SearchListings(ctx, "Barranco")
	require.NoError(t, err)
	ids := make([]utils.SixID, 0, len(results))
	for _, l := range results {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []utils.SixID{nearBarranco.ID, titled.ID}, ids)

	// Non-gazetteer term: case-insensitive substring on title/address.
	results, err = svc.SearchListings(ctx, "begonias")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Habitacion ejecutiva", results[0].Title)

	results, err = svc.SearchListings(ctx, "MALECON")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, nearBarranco.ID, results[0].ID)

	// Unknown term with no matches.
	results, err = svc.SearchListings(ctx, "cusco")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListingService_FindListingsByUser(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_byuser")
	svc := NewListingService(db, testListingConfig())
	ctx := context.Background()

	owner := utils.NewSixID()
	other := utils.NewSixID()

	_, err := svc.CreateListing(ctx, owner, "Uno", "", "Av. A", "", 500, 0, 0, models.ListingSpecs{})
	require.NoError(t, err)
	_, err = svc.CreateListing(ctx, owner, "Dos", "", "Av. B", "", 600, 0, 0, models.ListingSpecs{})
	require.NoError(t, err)
	_, err = svc.CreateListing(ctx, other, "Ajeno", "", "Av. C", "", 700, 0, 0, models.ListingSpecs{})
	require.NoError(t, err)

	mine, err := svc.FindListingsByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestListingService_ResetData(t *testing.T) {
	db := setupTestDBListing(t, "testdb_listing_reset")
	svc := NewListingService(db, &config.Config{SeedListingCount: 10, ProximityRadiusKm: 3})
	ctx := context.Background()

	landlordID := utils.NewSixID()
	_, err := svc.EnsureSeedData(ctx, landlordID)
	require.NoError(t, err)

	// Add a user listing, then reset: only fresh seed data remains.
	_, err = svc.CreateListing(ctx, landlordID, "Extra", "", "Av. D", "", 500, 0, 0, models.ListingSpecs{})
	require.NoError(t, err)

	listings, err := svc.ResetData(ctx, landlordID)
	require.NoError(t, err)
	assert.Len(t, listings, 10)

	count, err := db.Collection(listingsCollection).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}
