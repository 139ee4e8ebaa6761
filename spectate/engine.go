// Package spectate turns live matches into watchable streams: it instructs
// the bot fleet to join a match as a spectator, waits for the HTTP demo
// broadcast to exist, and relays it to clients as raw bytes or decoded
// entity events.
package spectate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/model"
	"github.com/matchops/arena-api/monitor"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/steamproto"
)

const (
	// demoPollAttempts × demoPollInterval bounds how long a request waits
	// for the broadcast to appear after the spectate instruction.
	demoPollAttempts = 60
	demoPollInterval = 500 * time.Millisecond

	// liveWindowAge: a match is provably not live once a newer match has
	// been over for this long.
	liveWindowAge = 4 * time.Hour
)

// Engine coordinates spectator sessions and the custom-match lifecycle.
type Engine struct {
	proxy     *proxy.Client
	rdb       *redis.Client
	streaming *http.Client
	impatient *http.Client

	// spectateCache coalesces SpectateLobby calls per match for an hour.
	spectateCache *cache.Cache
	// watermarkCache briefly memoizes the liveness watermark query.
	watermarkCache *cache.Cache
}

// New wires the engine.
func New(proxyClient *proxy.Client, rdb *redis.Client, streaming, impatient *http.Client) *Engine {
	return &Engine{
		proxy:          proxyClient,
		rdb:            rdb,
		streaming:      streaming,
		impatient:      impatient,
		spectateCache:  cache.New("spectate_lobby", time.Hour),
		watermarkCache: cache.New("live_watermark", 5*time.Minute),
	}
}

// GuardLive rejects matches that precede the most recent match at least
// four hours old; such matches cannot still be in progress.
func (e *Engine) GuardLive(ctx context.Context, matchID uint64) error {
	watermark, err := cache.GetOrCompute(ctx, e.watermarkCache, "watermark", 0, func(ctx context.Context) (uint64, error) {
		return model.LatestMatchIDBefore(ctx, int64(liveWindowAge.Seconds()))
	})
	if err != nil {
		return apierr.Internal(err, "liveness watermark query failed")
	}
	if matchID <= watermark {
		return apierr.BadRequest("match %d is not live", matchID)
	}
	return nil
}

// syncURL is the broadcast's availability probe endpoint.
func (e *Engine) syncURL(matchID uint64) string {
	return fmt.Sprintf("%s/%d/sync", config.DemoBroadcastURL, matchID)
}

// streamURL is the broadcast's full-stream endpoint.
func (e *Engine) streamURL(matchID uint64) string {
	return fmt.Sprintf("%s/%d/full", config.DemoBroadcastURL, matchID)
}

// demoAvailable probes whether the live demo broadcast exists.
func (e *Engine) demoAvailable(ctx context.Context, matchID uint64) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.syncURL(matchID), nil)
	if err != nil {
		return false
	}
	resp, err := e.impatient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode == http.StatusOK
}

// EnsureSpectated makes the match known to the bot fleet. The spectate call
// is cached for an hour per match so concurrent first requests coalesce into
// one lobby join; the bot leaves on its own after the lobby duration.
func (e *Engine) EnsureSpectated(ctx context.Context, matchID uint64) error {
	_, err := cache.GetOrCompute(ctx, e.spectateCache, fmt.Sprintf("spectate:%d", matchID), 0, func(ctx context.Context) (bool, error) {
		if e.demoAvailable(ctx, matchID) {
			return true, nil
		}

		var resp steamproto.SpectateLobbyResponse
		err := proxy.Retry(ctx, 3, 10*time.Millisecond, func(ctx context.Context) error {
			_, callErr := e.proxy.Call(ctx, proxy.Request{
				MsgType: steamproto.KindSpectateLobby,
				Msg: &steamproto.SpectateLobbyRequest{
					MatchID:        matchID,
					ClientVersion:  uint32(config.ClientVersion),
					ClientPlatform: int32(config.ClientPlatform),
				},
				Cooldown:       time.Minute,
				InAnyGroups:    []string{"spectate"},
				RequestTimeout: 5 * time.Second,
			}, &resp)
			return callErr
		})
		if err != nil {
			return false, apierr.Internal(err, "spectate instruction failed")
		}
		if resp.Result != steamproto.ResultSuccess {
			return false, apierr.NotFound("bot fleet could not spectate match %d", matchID)
		}
		return true, nil
	})
	return err
}

// WaitForDemo polls availability until the broadcast exists or the budget
// runs out.
func (e *Engine) WaitForDemo(ctx context.Context, matchID uint64) error {
	for i := 0; i < demoPollAttempts; i++ {
		if e.demoAvailable(ctx, matchID) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(demoPollInterval):
		}
	}
	return apierr.NotFound("demo for match %d did not become available", matchID)
}

// OpenDemoStream opens the broadcast HTTP stream. The caller must close the
// returned body; cancellation of ctx aborts the read.
func (e *Engine) OpenDemoStream(ctx context.Context, matchID uint64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.streamURL(matchID), nil)
	if err != nil {
		return nil, apierr.Internal(err, "build demo stream request")
	}
	resp, err := e.streaming.Do(req)
	if err != nil {
		return nil, apierr.Internal(err, "open demo stream")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apierr.NotFound("demo broadcast returned %d for match %d", resp.StatusCode, matchID)
	}
	return resp.Body, nil
}

// RelayDemo copies the broadcast to w chunk by chunk, flushing as it goes.
// A client disconnect cancels ctx, which aborts the upstream read.
func (e *Engine) RelayDemo(ctx context.Context, matchID uint64, w io.Writer, flush func()) error {
	body, err := e.OpenDemoStream(ctx, matchID)
	if err != nil {
		return err
	}
	defer body.Close()

	monitor.SpectateSessions.Inc()
	defer monitor.SpectateSessions.Dec()

	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return nil // client went away
			}
			if flush != nil {
				flush()
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return apierr.Internal(readErr, "demo stream read failed")
		}
	}
}
