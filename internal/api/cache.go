package api

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// cityCache caches single-city lookups by id. A nil *cityCache is a valid,
// disabled cache.
type cityCache struct {
	c       *cache.Cache
	metrics *metrics
}

func newCityCache(ttl time.Duration, m *metrics) *cityCache {
	if ttl <= 0 {
		return nil
	}
	return &cityCache{c: cache.New(ttl, 2*ttl), metrics: m}
}

// cacheKey normalizes numeric ids so "05" and "5" share an entry.
func cacheKey(id types.CityID) string {
	if n, ok := id.Int(); ok {
		return strconv.FormatInt(n, 10)
	}
	return id.String()
}

func (cc *cityCache) get(id types.CityID) (types.City, bool) {
	if cc == nil {
		return types.City{}, false
	}
	v, ok := cc.c.Get(cacheKey(id))
	cc.metrics.cacheResult(ok)
	if !ok {
		return types.City{}, false
	}
	return v.(types.City), true
}

func (cc *cityCache) set(city types.City) {
	if cc == nil || city.ID.IsZero() {
		return
	}
	cc.c.Set(cacheKey(city.ID), city, cache.DefaultExpiration)
}

func (cc *cityCache) delete(id types.CityID) {
	if cc == nil {
		return
	}
	cc.c.Delete(cacheKey(id))
}
