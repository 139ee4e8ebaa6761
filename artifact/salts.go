package artifact

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Laisky/zap"

	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/logger"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/ratelimit"
	"github.com/matchops/arena-api/steamproto"
)

// saltsBucketKey names the quota bucket protecting coordinator salt lookups.
const saltsBucketKey = "salts_resolve"

// saltsResolveQuotas gate the proxy call behind tight windows; the
// coordinator tolerates very little traffic on this message.
var saltsResolveQuotas = []ratelimit.Quota{
	ratelimit.PerIP(5, time.Minute),
	ratelimit.PerKey(100, 10*time.Second),
	ratelimit.Global(100, time.Second),
}

// apiIngestUsername tags salts rows resolved through the coordinator rather
// than contributed by users.
const apiIngestUsername = "api"

// GetSalts resolves the salts triple for a match. The lookup is cached for
// an hour and single-flighted per (match, needs_demo) so concurrent
// resolutions cannot race against the proxy.
func (r *Resolver) GetSalts(ctx context.Context, ident ratelimit.Identity, matchID uint64, needsDemo bool) (*model.MatchSalts, error) {
	if matchID < config.SaltsCollectionWatermark {
		// Salts were not collected before the watermark; reject without
		// consuming quota or touching any backend.
		return nil, apierr.NotFound("salts were never collected for match %d", matchID)
	}

	cacheKey := fmt.Sprintf("salts:%d:%t", matchID, needsDemo)
	return cacheGetSalts(ctx, r, cacheKey, func(ctx context.Context) (*model.MatchSalts, error) {
		return r.resolveSalts(ctx, ident, matchID, needsDemo)
	})
}

func (r *Resolver) resolveSalts(ctx context.Context, ident ratelimit.Identity, matchID uint64, needsDemo bool) (*model.MatchSalts, error) {
	row, err := model.GetMatchSalts(ctx, matchID)
	if err != nil {
		return nil, apierr.Internal(err, "salts lookup failed")
	}
	if row.HasMetadataSalt() && (!needsDemo || row.HasReplaySalt()) {
		return row, nil
	}

	// Metadata already ingested but salts absent means they can never be
	// recovered; do not burn a coordinator call on them.
	ingested, err := model.HasMatchMetadata(ctx, matchID)
	if err != nil {
		return nil, apierr.Internal(err, "metadata presence check failed")
	}
	if ingested {
		return nil, apierr.NotFound("salts permanently unavailable for match %d", matchID)
	}

	if _, err := r.limiter.Apply(ctx, ident, saltsBucketKey, saltsResolveQuotas); err != nil {
		return nil, err
	}

	var resp steamproto.GetMatchMetaDataResponse
	err = proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
		_, callErr := r.proxy.Call(ctx, proxy.Request{
			MsgType:        steamproto.KindGetMatchMetaData,
			Msg:            &steamproto.GetMatchMetaDataRequest{MatchID: matchID},
			Cooldown:       10 * time.Second,
			RequestTimeout: 2 * time.Second,
		}, &resp)
		return callErr
	})
	if err != nil {
		return nil, apierr.Internal(err, "coordinator salts fetch failed")
	}

	if resp.Result != steamproto.ResultSuccess || resp.ClusterID == 0 || resp.MetadataSalt == 0 {
		return nil, apierr.NotFound("coordinator has no salts for match %d", matchID)
	}

	username := apiIngestUsername
	row = &model.MatchSalts{
		MatchID:           matchID,
		ClusterID:         resp.ClusterID,
		MetadataSalt:      resp.MetadataSalt,
		ReplaySalt:        resp.ReplaySalt,
		IngestingUsername: &username,
	}
	if err := model.InsertMatchSalts(ctx, []model.MatchSalts{*row}); err != nil {
		// The caller still gets the salts; persistence is an enrichment.
		logger.Logger.Warn("failed to persist resolved salts",
			zap.Uint64("match_id", matchID), zap.Error(err))
	}

	if needsDemo && !row.HasReplaySalt() {
		return nil, apierr.NotFound("no replay salt for match %d", matchID)
	}
	return row, nil
}

// IngestRow is one user-contributed salts entry.
type IngestRow struct {
	MatchID      uint64 `json:"match_id" binding:"required"`
	ClusterID    uint32 `json:"cluster_id" binding:"required"`
	MetadataSalt uint32 `json:"metadata_salt"`
	ReplaySalt   uint32 `json:"replay_salt"`
	Username     string `json:"username"`
}

// IngestSalts appends user-contributed salts. Unless trusted (internal
// secret presented), each row is probed with a HEAD against the computed
// metadata URL and silently dropped when the probe does not succeed.
func (r *Resolver) IngestSalts(ctx context.Context, rows []IngestRow, trusted bool) error {
	var accepted []model.MatchSalts
	for _, row := range rows {
		if !trusted && !r.probeSalts(ctx, row) {
			logger.Logger.Debug("dropping unverifiable salts row",
				zap.Uint64("match_id", row.MatchID))
			continue
		}
		record := model.MatchSalts{
			MatchID:      row.MatchID,
			ClusterID:    row.ClusterID,
			MetadataSalt: row.MetadataSalt,
			ReplaySalt:   row.ReplaySalt,
		}
		if row.Username != "" {
			username := row.Username
			record.IngestingUsername = &username
		}
		accepted = append(accepted, record)
	}

	if err := model.InsertMatchSalts(ctx, accepted); err != nil {
		return apierr.Internal(err, "persist ingested salts")
	}
	return nil
}

// probeSalts verifies a contributed row by HEADing the metadata URL it
// implies; anything but a 2xx disqualifies the row.
func (r *Resolver) probeSalts(ctx context.Context, row IngestRow) bool {
	url := MetadataURL(row.ClusterID, row.MatchID, row.MetadataSalt)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := r.http.Do(req)
	if err != nil {
		logger.Logger.Debug("salts HEAD probe failed",
			zap.String("url", url), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
