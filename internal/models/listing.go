package models

import (
	"time"

	"github.com/FabricioLanche/campus-room/internal/utils"
)

// GeoJSON represents a GeoJSON Point for MongoDB.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`               // Should be "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a GeoJSON point from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) *GeoJSON {
	return &GeoJSON{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Lat returns the latitude of the point, or 0 for a malformed document.
func (g *GeoJSON) Lat() float64 {
	if g == nil || len(g.Coordinates) != 2 {
		return 0
	}
	return g.Coordinates[1]
}

// Lng returns the longitude of the point, or 0 for a malformed document.
func (g *GeoJSON) Lng() float64 {
	if g == nil || len(g.Coordinates) != 2 {
		return 0
	}
	return g.Coordinates[0]
}

// ListingSpecs holds the physical characteristics of a rentable unit.
type ListingSpecs struct {
	Bedrooms  int `bson:"bedrooms" json:"bedrooms"`
	Bathrooms int `bson:"bathrooms" json:"bathrooms"`
	Area      int `bson:"area" json:"area"` // m²
}

// Review is a display-only tenant review attached to a listing.
type Review struct {
	ID       string `bson:"id" json:"id"`
	UserName string `bson:"user_name" json:"user_name"`
	Rating   int    `bson:"rating" json:"rating"`
	Date     string `bson:"date" json:"date"` // Relative display string, e.g. "3 meses atrás"
	Comment  string `bson:"comment" json:"comment"`
}

// Listing represents a rentable unit advertised in the marketplace.
// Listings are immutable once created; they are only ever soft-deleted
// or wiped wholesale by a data reset.
type Listing struct {
	Base          `bson:",inline"`
	Title         string       `bson:"title" json:"title"`
	Description   string       `bson:"description" json:"description"`
	Price         float64      `bson:"price" json:"price"`
	Location      *GeoJSON     `bson:"location" json:"location"`
	Image         string       `bson:"image" json:"image"` // S3 key or external URL
	Address       string       `bson:"address" json:"address"`
	Specs         ListingSpecs `bson:"specs" json:"specs"`
	IsUserCreated bool         `bson:"is_user_created" json:"is_user_created"`
	LandlordID    *utils.SixID `bson:"landlord_id,omitempty" json:"landlord_id,omitempty"`
	ContractCode  string       `bson:"contract_code,omitempty" json:"contract_code,omitempty"` // Fixed per-listing code for seeded listings
	Reviews       []Review     `bson:"reviews,omitempty" json:"reviews,omitempty"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
	Deleted       bool         `bson:"deleted" json:"-"` // Soft delete flag
}

// ListingSnapshot carries exactly the listing fields the deal registry
// needs, decoupling deal creation from the full Listing entity.
type ListingSnapshot struct {
	ID      utils.SixID `json:"id"`
	Title   string      `json:"title"`
	Address string      `json:"address"`
	Price   float64     `json:"price"`
}

// Snapshot projects a listing down to the fields a deal records.
func (l *Listing) Snapshot() ListingSnapshot {
	return ListingSnapshot{
		ID:      l.ID,
		Title:   l.Title,
		Address: l.Address,
		Price:   l.Price,
	}
}
