package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"devforum/internal/metrics"
	"devforum/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrUnroutableAddress is returned for loopback, private and malformed addresses.
var ErrUnroutableAddress = errors.New("address cannot be geolocated")

const geoCachePrefix = "devforum:geoip:"

// GeoIP resolves visitor addresses to ISO country codes through an
// ip-api.com compatible endpoint. Answers are cached in Redis when a client
// is configured.
type GeoIP struct {
	baseURL    string
	httpClient *http.Client
	cache      redis.UniversalClient
	ttl        time.Duration
}

func NewGeoIP(baseURL string, cache redis.UniversalClient, ttl time.Duration) *GeoIP {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeoIP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		ttl:        ttl,
	}
}

type geoResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// Country returns the country code of ip.
func (g *GeoIP) Country(ctx context.Context, ip string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return "", ErrUnroutableAddress
	}
	key := geoCachePrefix + parsed.String()

	if g.cache != nil {
		code, err := g.cache.Get(ctx, key).Result()
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, redis.Nil):
		default:
			logrus.WithError(err).Warn("geoip cache read failed")
		}
	}

	code, err := g.lookup(ctx, parsed.String())
	if err != nil {
		return "", err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, code, g.ttl).Err(); err != nil {
			logrus.WithError(err).Warn("geoip cache write failed")
		}
	}
	return code, nil
}

func (g *GeoIP) lookup(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode", g.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("geoip create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geoip request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("geoip read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("geoip http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out geoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("geoip decode: %w", err)
	}
	if !strings.EqualFold(out.Status, "success") || out.CountryCode == "" {
		return "", fmt.Errorf("geoip lookup failed: %s", out.Message)
	}
	return out.CountryCode, nil
}

// GeolocateHandler counts the visitor's country.
func GeolocateHandler(g *GeoIP, m *metrics.Metrics) notify.Handler {
	return notify.HandlerFunc(func(ctx context.Context, msg notify.Message) error {
		if msg.Geolocate == nil {
			return errors.New("geolocate payload missing")
		}
		code, err := g.Country(ctx, msg.Geolocate.IP)
		if errors.Is(err, ErrUnroutableAddress) {
			m.Visitor("")
			return nil
		}
		if err != nil {
			return err
		}
		m.Visitor(code)
		return nil
	})
}
