package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/common/logger"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/monitor"
)

// windowRetention is how long timeline entries survive in Redis. Quota
// periods must not exceed it.
const windowRetention = time.Hour

// Identity is the request's resolved client identity. APIKey is empty when
// absent or invalid; validation happens before Apply.
type Identity struct {
	IP     string
	APIKey string
}

// Limiter enforces sliding-window quotas against a shared Redis timeline.
type Limiter struct {
	rdb *redis.Client
}

// New builds a limiter over the given Redis client.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// Apply records the request in the scoped and global timelines, resolves the
// effective quotas (custom overrides replace declared key-scope quotas), and
// returns the most constrained status. A nil status with nil error means
// rate limiting degraded open because Redis was unavailable.
//
// The increment happens whether or not the window check fails; limits are
// advisory over the bounded skew between the pipelined write and the
// subsequent window read.
func (l *Limiter) Apply(ctx context.Context, ident Identity, bucketKey string, declared []Quota) (*Status, error) {
	hasKeyQuota, hasIPQuota := false, false
	for _, q := range declared {
		switch q.Scope {
		case ScopeKey:
			hasKeyQuota = true
		case ScopeIP:
			hasIPQuota = true
		}
	}

	if hasKeyQuota && !hasIPQuota && ident.APIKey == "" {
		return nil, ErrAuthRequired
	}
	if config.EmergencyMode && ident.APIKey == "" {
		return nil, ErrEmergencyMode
	}

	prefix := ident.APIKey
	if prefix == "" {
		prefix = ident.IP
	}
	scopedSet := fmt.Sprintf("%s:%s", prefix, bucketKey)
	globalSet := bucketKey

	now := time.Now()
	if err := l.record(ctx, now, scopedSet, globalSet); err != nil {
		logger.Logger.Warn("rate limiter degraded open on redis write",
			zap.String("bucket", bucketKey), zap.Error(err))
		return nil, nil
	}

	effective := l.effectiveQuotas(ctx, ident, bucketKey, declared, hasKeyQuota)

	var most *Status
	for _, quota := range effective {
		set := scopedSet
		if quota.Scope == ScopeGlobal {
			set = globalSet
		}
		status, err := l.window(ctx, now, set, quota)
		if err != nil {
			logger.Logger.Warn("rate limiter degraded open on redis read",
				zap.String("bucket", bucketKey), zap.Error(err))
			return nil, nil
		}
		if status.Exceeded() {
			monitor.RateLimitDenials.WithLabelValues(bucketKey).Inc()
			return nil, &ExceededError{Status: status, Now: now}
		}
		if most == nil || status.Remaining() < most.Remaining() {
			s := status
			most = &s
		}
	}
	return most, nil
}

// record appends the request timestamp to both timelines in one pipeline:
// prune entries older than the retention window, add the new entry, refresh
// the TTL. Concurrent requests for a prefix are serialized by the pipeline,
// so two of them cannot both observe an empty window.
func (l *Limiter) record(ctx context.Context, now time.Time, sets ...string) error {
	cutoff := strconv.FormatInt(now.Add(-windowRetention).Unix(), 10)
	// Members must be unique within the window or ZADD would collapse two
	// requests landing in the same second into one entry.
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := l.rdb.TxPipeline()
	for _, set := range sets {
		pipe.ZRemRangeByScore(ctx, set, "0", cutoff)
		pipe.ZAdd(ctx, set, &redis.Z{Score: float64(now.Unix()), Member: member})
		pipe.Expire(ctx, set, windowRetention)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// window reads the quota's window [now-period, now] from the given set and
// builds its status. The set already contains the current request, so the
// observed length is reduced by one before the remaining arithmetic.
func (l *Limiter) window(ctx context.Context, now time.Time, set string, quota Quota) (Status, error) {
	entries, err := l.rdb.ZRangeByScoreWithScores(ctx, set, &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Add(-quota.Period).Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return Status{}, err
	}

	status := Status{Quota: quota, RequestsInWindow: int64(len(entries)) - 1}
	if status.RequestsInWindow < 0 {
		status.RequestsInWindow = 0
	}
	if len(entries) > 0 {
		status.OldestRequest = time.Unix(int64(entries[0].Score), 0)
	}
	return status, nil
}

// effectiveQuotas resolves which quotas constrain this request:
//   - custom overrides for (key, bucket) replace the declared key-scope set;
//   - IP-scope quotas are dropped when the declaration carried any key-scope
//     quota and a valid key was presented;
//   - global quotas always apply.
func (l *Limiter) effectiveQuotas(ctx context.Context, ident Identity, bucketKey string, declared []Quota, hasKeyQuota bool) []Quota {
	if ident.APIKey == "" {
		// Without a key the key-scope quotas cannot apply.
		var out []Quota
		for _, q := range declared {
			if q.Scope != ScopeKey {
				out = append(out, q)
			}
		}
		return out
	}

	custom, err := model.GetCustomQuotas(ctx, ident.APIKey, bucketKey)
	if err != nil {
		logger.Logger.Warn("custom quota lookup failed, using declared quotas",
			zap.String("bucket", bucketKey), zap.Error(err))
		custom = nil
	}

	var out []Quota
	for _, q := range declared {
		switch q.Scope {
		case ScopeIP:
			if !hasKeyQuota {
				out = append(out, q)
			}
		case ScopeKey:
			if len(custom) == 0 {
				out = append(out, q)
			}
		default:
			out = append(out, q)
		}
	}
	for _, c := range custom {
		out = append(out, PerKey(c.LimitCount, time.Duration(c.PeriodS)*time.Second))
	}
	return out
}
