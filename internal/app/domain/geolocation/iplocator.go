package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

const DefaultIPAPIURL = "http://ip-api.com/json"

var ErrPrivateAddress = errors.New("geolocation: invalid or private IP address")

// IPLocation is the coarse position of a client address.
type IPLocation struct {
	Country string          `json:"country"`
	Region  string          `json:"region"`
	City    string          `json:"city"`
	Point   models.GeoPoint `json:"point"`
}

// IPLocator resolves client addresses through ip-api.com, caching each
// address for an hour.
type IPLocator struct {
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
	logger  *zap.Logger
}

func NewIPLocator(baseURL string, httpClient *http.Client, logger *zap.Logger) *IPLocator {
	if baseURL == "" {
		baseURL = DefaultIPAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPLocator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   gocache.New(time.Hour, 10*time.Minute),
		logger:  logger,
	}
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// ClientIP picks the caller address from proxy headers, falling back to remote.
func ClientIP(forwardedFor, realIP, remote string) string {
	if forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().String()
	}
	return remote
}

func (l *IPLocator) Locate(ctx context.Context, ip string) (IPLocation, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return IPLocation{}, ErrPrivateAddress
	}
	if v, ok := l.cache.Get(addr.String()); ok {
		return v.(IPLocation), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		l.baseURL+"/"+addr.String()+"?fields=status,message,country,regionName,city,lat,lon", nil)
	if err != nil {
		return IPLocation{}, fmt.Errorf("failed to create ip lookup request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return IPLocation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return IPLocation{}, fmt.Errorf("%w: ip lookup returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return IPLocation{}, fmt.Errorf("failed to decode ip lookup: %w", err)
	}
	if body.Status == "fail" {
		return IPLocation{}, fmt.Errorf("%w: %s", ErrPosition, body.Message)
	}

	loc := IPLocation{
		Country: body.Country,
		Region:  body.RegionName,
		City:    body.City,
		Point:   models.GeoPoint{Lat: body.Lat, Lng: body.Lon},
	}
	l.cache.SetDefault(addr.String(), loc)
	l.logger.Debug("Resolved client location", zap.String("city", loc.City))
	return loc, nil
}
