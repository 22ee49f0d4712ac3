package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/FabricioLanche/campus-room/internal/models"
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// Seed data for the demo marketplace. Districts carry the same
// coordinates the gazetteer knows them by, so seeded listings land
// inside their district's proximity radius.

type seedDistrict struct {
	name      string
	lat, lng  float64
	priceBase float64
}

type seedUnit struct {
	title string
	specs models.ListingSpecs
}

var seedDistricts = []seedDistrict{
	{name: "Barranco", lat: -12.1416, lng: -77.0195, priceBase: 900},
	{name: "Miraflores", lat: -12.1111, lng: -77.0316, priceBase: 1200},
	{name: "San Isidro", lat: -12.0983, lng: -77.0352, priceBase: 1400},
	{name: "Surco", lat: -12.1333, lng: -76.9856, priceBase: 800},
}

var seedUnits = []seedUnit{
	{title: "Habitación privada", specs: models.ListingSpecs{Bedrooms: 1, Bathrooms: 1, Area: 15}},
	{title: "Minidepa Estudiantil", specs: models.ListingSpecs{Bedrooms: 1, Bathrooms: 1, Area: 35}},
	{title: "Loft cerca a universidad", specs: models.ListingSpecs{Bedrooms: 1, Bathrooms: 1, Area: 40}},
}

var seedImages = []string{
	"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?auto=format&fit=crop&w=800&q=80",
	"https://images.unsplash.com/photo-1555854877-bab0e564b8d5?auto=format&fit=crop&w=800&q=80",
	"https://images.unsplash.com/photo-1493809842364-78817add7ffb?auto=format&fit=crop&w=800&q=80",
}

var seedReviewerNames = []string{
	"Andrea P.", "Luis M.", "Sofia R.", "Jorge T.", "Valentina C.", "Mateo L.", "Camila S.", "Diego B.",
}

var seedPositiveComments = []string{
	"Muy buena ubicación, llego caminando a la UTEC en 10 minutos.",
	"El señor Carlos es muy amable y atento con todo.",
	"Internet rápido, perfecto para las clases virtuales.",
	"La zona es súper tranquila y segura para caminar de noche.",
	"El departamento es tal cual las fotos, muy limpio.",
	"Buen precio para la zona, recomendado.",
}

var seedNeutralComments = []string{
	"Todo bien, aunque a veces se escucha un poco de ruido de la calle.",
	"El lugar es cómodo pero el wifi falló un par de veces.",
	"Es pequeño pero acogedor, ideal si solo vas a dormir y estudiar.",
	"La presión del agua podría ser mejor, pero aceptable.",
}

// seedReviews generates count pseudo-random reviews.
func seedReviews(count int, rng *rand.Rand) []models.Review {
	reviews := make([]models.Review, 0, count)
	for i := 0; i < count; i++ {
		positive := rng.Float64() > 0.3
		pool := seedNeutralComments
		rating := 3
		if positive {
			pool = seedPositiveComments
			rating = 4 + rng.Intn(2)
		}
		reviews = append(reviews, models.Review{
			ID:       fmt.Sprintf("rev-%d", rng.Int63()),
			UserName: seedReviewerNames[rng.Intn(len(seedReviewerNames))],
			Rating:   rating,
			Date:     fmt.Sprintf("%d meses atrás", rng.Intn(6)+1),
			Comment:  pool[rng.Intn(len(pool))],
		})
	}
	return reviews
}

// randomOffset jitters a coordinate within roughly ±0.0075 degrees so
// seeded listings spread around their district's centre.
func randomOffset(base float64, rng *rand.Rand) float64 {
	return base + (rng.Float64()-0.5)*0.015
}

// GenerateSeedListings produces count mock listings spread over the
// seed districts, each with a fixed contract code CTR-<1000+i>. The rng
// is injected so tests can pin the generated data.
func GenerateSeedListings(count int, landlordID utils.SixID, rng *rand.Rand) []models.Listing {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := time.Now().UTC()

	listings := make([]models.Listing, 0, count)
	for i := 0; i < count; i++ {
		district := seedDistricts[rng.Intn(len(seedDistricts))]
		unit := seedUnits[rng.Intn(len(seedUnits))]
		price := float64((int(district.priceBase+rng.Float64()*500) + 9) / 10 * 10)

		landlord := landlordID
		listings = append(listings, models.Listing{
			Base:  models.NewBase(),
			Title: fmt.Sprintf("%s en %s", unit.title, district.name),
			Description: fmt.Sprintf(
				"Alojamiento ideal para estudiantes en %s. Incluye servicios básicos y wifi de alta velocidad.",
				district.name),
			Price:         price,
			Location:      models.NewGeoPoint(randomOffset(district.lat, rng), randomOffset(district.lng, rng)),
			Image:         seedImages[rng.Intn(len(seedImages))],
			Address:       fmt.Sprintf("Av. Principal %d, %s", rng.Intn(900), district.name),
			Specs:         unit.specs,
			IsUserCreated: false,
			LandlordID:    &landlord,
			ContractCode:  fmt.Sprintf("CTR-%d", 1000+i),
			Reviews:       seedReviews(rng.Intn(4)+3, rng),
			CreatedAt:     now,
		})
	}
	return listings
}
