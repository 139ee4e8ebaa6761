// Package artifact resolves match replay metadata through a layered
// cascade: cache object store, primary object store, then an upstream CDN
// fetch driven by coordinator-resolved salts. Each layer short-circuits on
// success and every resolution is single-flighted per match.
package artifact

import (
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/blob"
	"github.com/matchops/arena-api/common/logger"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/monitor"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/ratelimit"
	"github.com/matchops/arena-api/steamproto"
)

// fetchBucketKey names the cheap rate gate in front of the primary store.
const fetchBucketKey = "metadata_fetch"

// fetchGateQuotas protect the primary store and upstream from scripted
// scraping while staying far above organic traffic.
var fetchGateQuotas = []ratelimit.Quota{
	ratelimit.PerIP(1000, 10*time.Second),
	ratelimit.Global(700, time.Second),
}

// Resolver is the match-artifact resolution pipeline.
type Resolver struct {
	cacheStore   blob.Store
	primaryStore blob.Store
	proxy        *proxy.Client
	http         *http.Client
	limiter      *ratelimit.Limiter

	saltsCache *cache.Cache
	// flights coalesces concurrent raw-blob resolutions of one match.
	flights singleflight.Group
}

// NewResolver wires the pipeline.
func NewResolver(cacheStore, primaryStore blob.Store, proxyClient *proxy.Client, httpClient *http.Client, limiter *ratelimit.Limiter) *Resolver {
	return &Resolver{
		cacheStore:   cacheStore,
		primaryStore: primaryStore,
		proxy:        proxyClient,
		http:         httpClient,
		limiter:      limiter,
		saltsCache:   cache.New("match_salts", time.Hour),
	}
}

func cacheGetSalts(ctx context.Context, r *Resolver, key string, producer func(context.Context) (*model.MatchSalts, error)) (*model.MatchSalts, error) {
	return cache.GetOrCompute(ctx, r.saltsCache, key, 0, producer)
}

// GetMetadataRaw returns the bzip2-compressed metadata blob for a match,
// walking the cascade until a layer produces bytes.
func (r *Resolver) GetMetadataRaw(ctx context.Context, ident ratelimit.Identity, matchID uint64) ([]byte, error) {
	v, err, _ := r.flights.Do(fmt.Sprintf("meta:%d", matchID), func() (any, error) {
		return r.resolveRaw(ctx, ident, matchID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *Resolver) resolveRaw(ctx context.Context, ident ratelimit.Identity, matchID uint64) ([]byte, error) {
	// Layer 1: cache object store.
	for _, key := range []string{MetadataKey(matchID), MetadataHltvKey(matchID)} {
		body, err := r.cacheStore.Get(ctx, key)
		if err == nil {
			monitor.ArtifactCascadeHits.WithLabelValues("cache_store").Inc()
			return body, nil
		}
		if !errors.Is(err, blob.ErrNotFound) {
			logger.Logger.Warn("cache store read failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	// Layer 2 is guarded by a cheap rate gate.
	if _, err := r.limiter.Apply(ctx, ident, fetchBucketKey, fetchGateQuotas); err != nil {
		return nil, err
	}

	// Layer 2: primary object store.
	for _, key := range []string{PrimaryMetadataKey(matchID), PrimaryMetadataHltvKey(matchID)} {
		body, err := r.primaryStore.Get(ctx, key)
		if err == nil {
			monitor.ArtifactCascadeHits.WithLabelValues("primary_store").Inc()
			return body, nil
		}
		if !errors.Is(err, blob.ErrNotFound) {
			logger.Logger.Warn("primary store read failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	// Layer 3: salts-driven upstream fetch.
	salts, err := r.GetSalts(ctx, ident, matchID, false)
	if err != nil {
		return nil, err
	}
	body, err := r.fetchUpstream(ctx, MetadataURL(salts.ClusterID, matchID, salts.MetadataSalt))
	if err != nil {
		return nil, err
	}
	monitor.ArtifactCascadeHits.WithLabelValues("upstream").Inc()

	// Repopulating the cache store is an enrichment; the caller already has
	// its bytes. Skip the write when another instance already landed the
	// key between our miss and now.
	if exists, err := r.cacheStore.Head(ctx, MetadataKey(matchID)); err == nil && exists {
		return body, nil
	}
	if err := r.cacheStore.Put(ctx, MetadataKey(matchID), body, "application/octet-stream"); err != nil {
		logger.Logger.Warn("cache store write failed",
			zap.Uint64("match_id", matchID), zap.Error(err))
	}
	return body, nil
}

// fetchUpstream GETs the metadata blob from the replay CDN with the standard
// retry policy.
func (r *Resolver) fetchUpstream(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build upstream request")
		}
		resp, err := r.http.Do(req)
		if err != nil {
			return errors.Wrapf(err, "fetch %s", url)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return apierr.NotFound("upstream has no metadata at %s", url)
		}
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("upstream returned %d for %s", resp.StatusCode, url)
		}
		body, err = io.ReadAll(resp.Body)
		return errors.Wrapf(err, "read %s", url)
	})
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, apierr.Internal(err, "upstream metadata fetch failed")
	}
	return body, nil
}

// GetMetadata resolves and decodes a match's metadata: bzip2 decompression,
// then the MatchMetadata envelope whose match_details field carries the
// contents.
func (r *Resolver) GetMetadata(ctx context.Context, ident ratelimit.Identity, matchID uint64) (*steamproto.MatchMetadataContents, error) {
	raw, err := r.GetMetadataRaw(ctx, ident, matchID)
	if err != nil {
		return nil, err
	}

	decompressed, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, apierr.Internal(err, "bzip2 decompress metadata")
	}

	var envelope steamproto.MatchMetadata
	if err := envelope.UnmarshalProto(decompressed); err != nil {
		return nil, apierr.Internal(err, "decode metadata envelope")
	}
	if envelope.MatchDetails == nil {
		return nil, apierr.Internal(nil, "metadata envelope has no match details")
	}
	return envelope.MatchDetails, nil
}
