package fetch

import (
	"context"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/localize/cache"
)

// CachingReader serves repeated reads of the same URL from a cache.
type CachingReader struct {
	next  Reader
	cache cache.RawCache
	ttl   time.Duration
}

// NewCachingReader wraps next with c. A zero ttl keeps documents until the
// cache is flushed.
func NewCachingReader(next Reader, c cache.RawCache, ttl time.Duration) *CachingReader {
	return &CachingReader{next: next, cache: c, ttl: ttl}
}

func (r *CachingReader) Read(ctx context.Context, rawURL string) ([]byte, error) {
	log := util.Log(ctx).WithField("url", rawURL)

	data, found, err := r.cache.Get(ctx, rawURL)
	if err != nil {
		log.WithError(err).Warn("dictionary cache read failed")
	} else if found {
		log.Debug("dictionary document served from cache")
		return data, nil
	}

	data, err = r.next.Read(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if setErr := r.cache.Set(ctx, rawURL, data, r.ttl); setErr != nil {
		log.WithError(setErr).Warn("dictionary cache write failed")
	}
	return data, nil
}
