package delivery

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery_router/pkg/geo"
)

const sampleDeliveries = `34.0625329 -118.4470263
34.0712323 -118.4505969:Chicken tenders (Sproul Landing)

34.0687443 -118.4449195:B-Plate salmon (Eng IV)
34.0685657 -118.4489289:Pabst Blue Ribbon beer (Beta Theta Pi)
`

func TestParseRequests(t *testing.T) {
	depot, reqs, err := ParseRequests(strings.NewReader(sampleDeliveries))
	require.NoError(t, err)

	assert.Equal(t, geo.Coord{Lat: 34.0625329, Lng: -118.4470263}, depot)
	require.Len(t, reqs, 3)
	assert.Equal(t, Request{
		Location: geo.Coord{Lat: 34.0712323, Lng: -118.4505969},
		Item:     "Chicken tenders (Sproul Landing)",
	}, reqs[0])
	assert.Equal(t, "Pabst Blue Ribbon beer (Beta Theta Pi)", reqs[2].Item)
}

func TestParseRequestsDepotOnly(t *testing.T) {
	depot, reqs, err := ParseRequests(strings.NewReader("34.1 -118.2\n"))
	require.NoError(t, err)
	assert.Equal(t, geo.Coord{Lat: 34.1, Lng: -118.2}, depot)
	assert.Empty(t, reqs)
}

func TestParseRequestsItemWithColon(t *testing.T) {
	_, reqs, err := ParseRequests(strings.NewReader("1 2\n3 4:Box: fragile\n"))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Box: fragile", reqs[0].Item)
}

func TestParseRequestsErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{"empty", "", "no depot"},
		{"blank only", "\n\n", "no depot"},
		{"bad depot", "north pole\n", "line 1"},
		{"depot one number", "34.1\n", "line 1"},
		{"missing item separator", "1 2\n\n3 4\n", "line 3"},
		{"bad stop coord", "1 2\n3 x:pizza\n", "line 2"},
		{"stop out of range", "1 2\n95 4:pizza\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseRequests(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantLine)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deliveries.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDeliveries), 0o644))

	_, reqs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, reqs, 3)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
