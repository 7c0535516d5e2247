package places

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

var _ Provider = (*CachedProvider)(nil)

// CachedProvider memoizes suggestion lists per input and country allow-list.
// Details are never cached so every search still ends with a billed
// details call carrying its session token.
type CachedProvider struct {
	next  Provider
	cache *gocache.Cache
}

func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	key := strings.ToLower(strings.TrimSpace(req.Input)) + "|" + strings.Join(req.Countries, ",")
	if v, ok := p.cache.Get(key); ok {
		return v.([]Suggestion), nil
	}
	out, err := p.next.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		p.cache.SetDefault(key, out)
	}
	return out, nil
}

func (p *CachedProvider) Details(ctx context.Context, placeID string, token SessionToken) (models.GeoPoint, error) {
	return p.next.Details(ctx, placeID, token)
}
