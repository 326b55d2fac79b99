package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodingClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "Carrera 43A, Medellín", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name": "Carrera 43A, El Poblado, Medellín", "lat": "6.2088", "lon": "-75.5679", "importance": 0.42},
			{"display_name": "Carrera 43A, Envigado", "lat": "6.1700", "lon": "-75.5850", "importance": 0.61},
			{"display_name": "sin coordenadas", "lat": "n/a", "lon": "n/a", "importance": 0.9}
		]`))
	}))
	defer server.Close()

	t.Setenv("GEOCODER_URL", server.URL)

	client := NewGeocodingClient()
	suggestions, err := client.Search("Carrera 43A, Medellín", 5)
	require.NoError(t, err)

	// Unparseable rows are dropped, the rest sorted by importance descending
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Carrera 43A, Envigado", suggestions[0].DisplayName)
	assert.InDelta(t, 6.1700, suggestions[0].Lat, 0.0001)
	assert.Equal(t, "Carrera 43A, El Poblado, Medellín", suggestions[1].DisplayName)
}

func TestGeocodingClientSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	t.Setenv("GEOCODER_URL", server.URL)

	client := NewGeocodingClient()
	_, err := client.Search("Medellín", 5)
	assert.Error(t, err)
}
