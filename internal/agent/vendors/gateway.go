package vendors

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/retryx"
	logx "github.com/cartpilot/server/pkg/logger"
)

// ErrNoOffers signals that every source returned empty or failed. Callers
// never receive a silently empty success.
var ErrNoOffers = errors.New("no offers available from any source")

const defaultCacheSize = 128

// Gateway fans a product query out to the fixed set of offer sources,
// guarding each call with the retry layer, and merges the survivors.
// Aggregated results are kept in a bounded LRU cache; fresh fetches bypass
// and replace cached entries.
type Gateway struct {
	sources []OfferSource
	retry   retryx.Config
	cache   *lru.Cache[string, []model.Offer]
}

// NewGateway builds a gateway over the given sources.
func NewGateway(sources []OfferSource, retry retryx.Config, cacheSize int) (*Gateway, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one offer source is required")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []model.Offer](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Gateway{sources: sources, retry: retry, cache: cache}, nil
}

// SourceNames returns the names of the configured sources, in gateway order.
func (g *Gateway) SourceNames() []string {
	names := make([]string, 0, len(g.sources))
	for _, s := range g.sources {
		names = append(names, s.Name())
	}
	return names
}

// FetchBySource queries every source for one product. Calls run concurrently
// and write into disjoint slots; a failure on one source never aborts the
// others, and the gateway waits for all of them before returning. The result
// contains only sources that returned at least one offer.
func (g *Gateway) FetchBySource(ctx context.Context, productKey string) map[string][]model.Offer {
	results := make([][]model.Offer, len(g.sources))

	eg, ctx := errgroup.WithContext(ctx)
	for i, src := range g.sources {
		eg.Go(func() error {
			resp, err := retryx.Do(ctx, g.retry, src.Name()+" search", func(ctx context.Context) (*model.SourceResponse, error) {
				resp, err := src.Search(ctx, productKey)
				if err != nil {
					return nil, retryx.Transient(src.Name(), err)
				}
				if verr := validateResponse(resp, src.Name()); verr != nil {
					return nil, verr
				}
				return resp, nil
			})
			if err != nil {
				logx.Warn().Err(err).Str("source", src.Name()).Str("product", productKey).Msg("source fetch failed")
				return nil
			}
			if len(resp.Offers) > 0 {
				results[i] = resp.Offers
			}
			return nil
		})
	}
	// Workers swallow their own failures, so Wait acts purely as the barrier.
	_ = eg.Wait()

	bySource := make(map[string][]model.Offer, len(g.sources))
	for i, src := range g.sources {
		if len(results[i]) > 0 {
			bySource[src.Name()] = results[i]
		}
	}

	logx.Info().
		Str("product", productKey).
		Int("sources_total", len(g.sources)).
		Int("sources_with_offers", len(bySource)).
		Msg("multi-source fetch complete")

	return bySource
}

// FetchOffers returns the union of all sources' offers for one product, in
// fixed source order. With fresh set the cache is bypassed and overwritten;
// otherwise a cached aggregate is served when present. ErrNoOffers is
// returned when nothing usable came back.
func (g *Gateway) FetchOffers(ctx context.Context, productKey string, fresh bool) ([]model.Offer, error) {
	if !fresh {
		if cached, ok := g.cache.Get(productKey); ok {
			out := make([]model.Offer, len(cached))
			copy(out, cached)
			return out, nil
		}
	}

	bySource := g.FetchBySource(ctx, productKey)

	var union []model.Offer
	for _, src := range g.sources {
		union = append(union, bySource[src.Name()]...)
	}
	if len(union) == 0 {
		return nil, ErrNoOffers
	}

	g.cache.Add(productKey, union)

	out := make([]model.Offer, len(union))
	copy(out, union)
	return out, nil
}
