package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"
)

const defaultGeocoderURL = "https://nominatim.openstreetmap.org"

// AddressSuggestion is one ranked geocoder result for a free-text query.
type AddressSuggestion struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Importance  float64 `json:"importance"`
}

// GeocodingClient talks to a Nominatim-compatible search endpoint. Used by
// the registration/address forms to validate addresses.
type GeocodingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGeocodingClient() *GeocodingClient {
	baseURL := os.Getenv("GEOCODER_URL")
	if baseURL == "" {
		baseURL = defaultGeocoderURL
	}
	return &GeocodingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns up to limit suggestions ranked by importance descending.
func (g *GeocodingClient) Search(query string, limit int) ([]AddressSuggestion, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=%d&q=%s",
		g.baseURL, limit, url.QueryEscape(query))

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	// Nominatim usage policy requires an identifying UA
	req.Header.Set("User-Agent", "festival-natur-server")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("geocoder returned status %d", res.StatusCode)
	}

	var raw []struct {
		DisplayName string  `json:"display_name"`
		Lat         string  `json:"lat"`
		Lon         string  `json:"lon"`
		Importance  float64 `json:"importance"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}

	suggestions := make([]AddressSuggestion, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		suggestions = append(suggestions, AddressSuggestion{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lng:         lng,
			Importance:  r.Importance,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Importance > suggestions[j].Importance
	})

	return suggestions, nil
}
