// Package geo provides the fixed gazetteer of known places and the
// great-circle distance math used by proximity search.
package geo

import (
	"math"
	"sort"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// PlaceLabel categorizes a gazetteer entry.
type PlaceLabel string

const (
	LabelUniversity PlaceLabel = "UNIVERSIDAD"
	LabelDistrict   PlaceLabel = "DISTRITO"
)

// Place is one gazetteer entry: a named point with a category label.
type Place struct {
	Name  string     `json:"name"`
	Lat   float64    `json:"lat"`
	Lng   float64    `json:"lng"`
	Label PlaceLabel `json:"label"`
}

// knownPlaces maps lower-cased place names to coordinates. The table is
// fixed; proximity search only understands these places.
var knownPlaces = map[string]Place{
	// Universities
	"utec":                {Name: "utec", Lat: -12.1354, Lng: -77.0225, Label: LabelUniversity},
	"universidad de lima": {Name: "universidad de lima", Lat: -12.0850, Lng: -76.9708, Label: LabelUniversity},
	"pucp":                {Name: "pucp", Lat: -12.0706, Lng: -77.0805, Label: LabelUniversity},
	"upc":                 {Name: "upc", Lat: -12.1041, Lng: -76.9629, Label: LabelUniversity},
	"pacifico":            {Name: "pacifico", Lat: -12.0863, Lng: -77.0526, Label: LabelUniversity},

	// Districts
	"barranco":     {Name: "barranco", Lat: -12.1416, Lng: -77.0195, Label: LabelDistrict},
	"miraflores":   {Name: "miraflores", Lat: -12.1111, Lng: -77.0316, Label: LabelDistrict},
	"san isidro":   {Name: "san isidro", Lat: -12.0983, Lng: -77.0352, Label: LabelDistrict},
	"surco":        {Name: "surco", Lat: -12.1333, Lng: -76.9856, Label: LabelDistrict},
	"lince":        {Name: "lince", Lat: -12.0864, Lng: -77.0358, Label: LabelDistrict},
	"jesus maria":  {Name: "jesus maria", Lat: -12.0782, Lng: -77.0476, Label: LabelDistrict},
	"magdalena":    {Name: "magdalena", Lat: -12.0927, Lng: -77.0690, Label: LabelDistrict},
	"pueblo libre": {Name: "pueblo libre", Lat: -12.0769, Lng: -77.0644, Label: LabelDistrict},
	"san borja":    {Name: "san borja", Lat: -12.1070, Lng: -76.9996, Label: LabelDistrict},
	"san miguel":   {Name: "san miguel", Lat: -12.0837, Lng: -77.0890, Label: LabelDistrict},
	"surquillo":    {Name: "surquillo", Lat: -12.1126, Lng: -77.0123, Label: LabelDistrict},
}

// Lookup resolves a free-text term against the gazetteer. Matching is
// exact after trimming and lower-casing.
func Lookup(term string) (Place, bool) {
	place, ok := knownPlaces[strings.ToLower(strings.TrimSpace(term))]
	return place, ok
}

// Places returns all gazetteer entries whose name contains the given
// term (case-insensitive). An empty term returns the full table.
func Places(term string) []Place {
	term = strings.ToLower(strings.TrimSpace(term))
	results := make([]Place, 0, len(knownPlaces))
	for name, place := range knownPlaces {
		if term == "" || strings.Contains(name, term) {
			results = append(results, place)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// DistanceKm computes the haversine great-circle distance in
// kilometres between two coordinate pairs.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
