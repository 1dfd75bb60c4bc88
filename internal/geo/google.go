package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleGeocoder resolves addresses through the Google Maps geocoding API.
type GoogleGeocoder struct {
	client   *maps.Client
	language string
}

func NewGoogleGeocoder(apiKey, language string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return &GoogleGeocoder{client: client, language: language}, nil
}

// ReverseGeocode returns the formatted address of the first result.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.language,
	}
	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return "", nil
	}
	return resp[0].FormattedAddress, nil
}
