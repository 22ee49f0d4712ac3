package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Same point.
	assert.Equal(t, 0.0, DistanceKm(-12.1416, -77.0195, -12.1416, -77.0195))

	// Barranco to Miraflores is a little under 3.6 km.
	d := DistanceKm(-12.1416, -77.0195, -12.1111, -77.0316)
	assert.InDelta(t, 3.6, d, 0.3)

	// Barranco to San Isidro is well outside the search radius.
	d = DistanceKm(-12.1416, -77.0195, -12.0983, -77.0352)
	assert.Greater(t, d, 3.0)

	// Symmetric.
	assert.InDelta(t,
		DistanceKm(-12.1354, -77.0225, -12.0706, -77.0805),
		DistanceKm(-12.0706, -77.0805, -12.1354, -77.0225),
		1e-9)
}

func TestLookup(t *testing.T) {
	place, ok := Lookup("barranco")
	require.True(t, ok)
	assert.Equal(t, "barranco", place.Name)
	assert.Equal(t, LabelDistrict, place.Label)

	// Trim and case insensitive.
	place, ok = Lookup("  UTEC ")
	require.True(t, ok)
	assert.Equal(t, LabelUniversity, place.Label)

	// Multi-word names resolve too.
	_, ok = Lookup("San Isidro")
	assert.True(t, ok)

	// Substrings do not: lookup is exact.
	_, ok = Lookup("barran")
	assert.False(t, ok)
	_, ok = Lookup("cusco")
	assert.False(t, ok)
}

func TestPlaces(t *testing.T) {
	all := Places("")
	assert.Len(t, all, 16)

	// Sorted by name for stable responses.
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}

	san := Places("san")
	names := make([]string, 0, len(san))
	for _, p := range san {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"san borja", "san isidro", "san miguel"}, names)

	assert.Empty(t, Places("cusco"))
}
