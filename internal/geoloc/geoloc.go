// Package geoloc resolves client IPs to coordinates and country codes
// through the ip-api.com line endpoint, with results memoized in memory.
package geoloc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/osukon/banchod/internal/model"
)

const lookupURL = "http://ip-api.com/line/%s?fields=status,countryCode,lat,lon"

// Resolver looks up IPs over HTTP and caches the results.
type Resolver struct {
	client *http.Client
	cache  *gocache.Cache
}

// New creates a Resolver with a bounded request timeout.
func New() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 5 * time.Second},
		cache:  gocache.New(24*time.Hour, time.Hour),
	}
}

// Lookup resolves an IP. Private and loopback addresses resolve to the
// zero Geolocation without a network round-trip.
func (r *Resolver) Lookup(ip string) (model.Geolocation, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return model.Geolocation{}, fmt.Errorf("invalid ip %q", ip)
	}
	if parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() {
		return model.Geolocation{}, nil
	}

	if cached, ok := r.cache.Get(ip); ok {
		return cached.(model.Geolocation), nil
	}

	geo, err := r.fetch(ip)
	if err != nil {
		return model.Geolocation{}, err
	}
	r.cache.SetDefault(ip, geo)
	return geo, nil
}

func (r *Resolver) fetch(ip string) (model.Geolocation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(lookupURL, ip), nil)
	if err != nil {
		return model.Geolocation{}, fmt.Errorf("building geoloc request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return model.Geolocation{}, fmt.Errorf("fetching geolocation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Geolocation{}, fmt.Errorf("reading geolocation response: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) < 4 || lines[0] != "success" {
		return model.Geolocation{}, fmt.Errorf("geolocation lookup failed for %s", ip)
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(lines[2], "%f", &lat); err != nil {
		return model.Geolocation{}, fmt.Errorf("parsing latitude: %w", err)
	}
	if _, err := fmt.Sscanf(lines[3], "%f", &lon); err != nil {
		return model.Geolocation{}, fmt.Errorf("parsing longitude: %w", err)
	}

	acronym := strings.ToLower(lines[1])
	return model.Geolocation{
		Latitude:  lat,
		Longitude: lon,
		Country: model.Country{
			Acronym: acronym,
			Numeric: CountryCode(acronym),
		},
	}, nil
}
