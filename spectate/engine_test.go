package spectate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/common/apierr"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/proxy"
	"github.com/matchops/arena-api/steamproto"
)

// proxyEnvelope mirrors the dispatcher's transport frame for test decoding.
type proxyEnvelope struct {
	MessageKind int32  `json:"message_kind"`
	Data        string `json:"data"`
	BotUsername string `json:"bot_username"`
}

// proxyReply encodes a typed message the way the dispatcher answers.
func proxyReply(t *testing.T, w http.ResponseWriter, msg steamproto.Message, username string) {
	t.Helper()
	payload, err := msg.MarshalProto()
	require.NoError(t, err)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"data":     base64.StdEncoding.EncodeToString(payload),
		"username": username,
	})
}

func newProxyClient(srv *httptest.Server) *proxy.Client {
	return proxy.New(srv.URL, "test-token", srv.Client())
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// newBroadcast serves the demo CDN surface and points the engine at it.
func newBroadcast(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	original := config.DemoBroadcastURL
	config.DemoBroadcastURL = srv.URL
	t.Cleanup(func() { config.DemoBroadcastURL = original })
	return srv
}

// seedWatermark pins the liveness watermark without touching the analytics
// store.
func seedWatermark(t *testing.T, e *Engine, watermark uint64) {
	t.Helper()
	_, err := cache.GetOrCompute(context.Background(), e.watermarkCache, "watermark", 0,
		func(context.Context) (uint64, error) { return watermark, nil })
	require.NoError(t, err)
}

func TestGuardLive(t *testing.T) {
	e := New(nil, nil, nil, nil)
	seedWatermark(t, e, 1000)

	err := e.GuardLive(context.Background(), 1000)
	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	require.NoError(t, e.GuardLive(context.Background(), 1001))
}

func TestEnsureSpectatedSkipsProxyWhenDemoExists(t *testing.T) {
	newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var proxyCalls int32
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyCalls, 1)
		proxyReply(t, w, &steamproto.SpectateLobbyResponse{Result: steamproto.ResultSuccess}, "bot-1")
	}))
	defer proxySrv.Close()

	e := New(newProxyClient(proxySrv), nil, proxySrv.Client(), proxySrv.Client())
	require.NoError(t, e.EnsureSpectated(context.Background(), 101))
	assert.Equal(t, int32(0), atomic.LoadInt32(&proxyCalls))
}

func TestEnsureSpectatedCoalescesLobbyJoins(t *testing.T) {
	newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	var proxyCalls int32
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyCalls, 1)
		var env proxyEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		assert.Equal(t, steamproto.KindSpectateLobby, env.MessageKind)
		proxyReply(t, w, &steamproto.SpectateLobbyResponse{Result: steamproto.ResultSuccess}, "bot-1")
	}))
	defer proxySrv.Close()

	e := New(newProxyClient(proxySrv), nil, proxySrv.Client(), proxySrv.Client())
	require.NoError(t, e.EnsureSpectated(context.Background(), 102))
	require.NoError(t, e.EnsureSpectated(context.Background(), 102))
	assert.Equal(t, int32(1), atomic.LoadInt32(&proxyCalls))
}

func TestEnsureSpectatedBotRefusal(t *testing.T) {
	newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxyReply(t, w, &steamproto.SpectateLobbyResponse{Result: 2}, "bot-1")
	}))
	defer proxySrv.Close()

	e := New(newProxyClient(proxySrv), nil, proxySrv.Client(), proxySrv.Client())
	err := e.EnsureSpectated(context.Background(), 103)
	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestWaitForDemoReturnsOnceAvailable(t *testing.T) {
	var probes int32
	srv := newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&probes, 1) < 3 {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	e := New(nil, nil, srv.Client(), srv.Client())
	require.NoError(t, e.WaitForDemo(context.Background(), 104))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&probes), int32(3))
}

func TestWaitForDemoHonorsCancellation(t *testing.T) {
	srv := newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e := New(nil, nil, srv.Client(), srv.Client())
	err := e.WaitForDemo(ctx, 105)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelayDemoCopiesStream(t *testing.T) {
	payload := bytes.Repeat([]byte("demo-bytes "), 1000)
	srv := newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/106/full", r.URL.Path)
		_, _ = w.Write(payload)
	})

	e := New(nil, nil, srv.Client(), srv.Client())

	var out bytes.Buffer
	var flushes int32
	err := e.RelayDemo(context.Background(), 106, &out, func() { atomic.AddInt32(&flushes, 1) })
	require.NoError(t, err)
	assert.Equal(t, payload, out.Bytes())
	assert.Greater(t, atomic.LoadInt32(&flushes), int32(0))
}

func TestOpenDemoStreamMissingBroadcast(t *testing.T) {
	srv := newBroadcast(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	e := New(nil, nil, srv.Client(), srv.Client())
	_, err := e.OpenDemoStream(context.Background(), 107)
	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCreateCustomMatchLifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)

	var kinds []int32
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env proxyEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		kinds = append(kinds, env.MessageKind)

		switch env.MessageKind {
		case steamproto.KindPartyCreate:
			// The bot publishes the join code out of band once the lobby
			// exists.
			mr.Set("55", "bot-1:123:JKLM")
			proxyReply(t, w, &steamproto.PartyCreateResponse{Result: steamproto.ResultSuccess, PartyID: 55}, "bot-1")
		case steamproto.KindPartyJoinSpectatorSlot, steamproto.KindPartySetReady:
			// Lobby transitions stay pinned to the owning bot.
			assert.Equal(t, "bot-1", env.BotUsername)
			proxyReply(t, w, &steamproto.PartyActionResponse{Result: steamproto.ResultSuccess}, "bot-1")
		default:
			t.Errorf("unexpected message kind %d", env.MessageKind)
		}
	}))
	defer proxySrv.Close()

	e := New(newProxyClient(proxySrv), rdb, proxySrv.Client(), proxySrv.Client())
	match, err := e.CreateCustomMatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(55), match.PartyID)
	assert.Equal(t, "JKLM", match.PartyCode)
	assert.Equal(t, uint32(123), match.AccountID)
	assert.Equal(t, "bot-1", match.BotUsername)
	assert.Equal(t, []int32{
		steamproto.KindPartyCreate,
		steamproto.KindPartyJoinSpectatorSlot,
		steamproto.KindPartySetReady,
	}, kinds)
}

func TestWaitForPartyCodeMalformedRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Set("77", "not-a-party-record")

	e := New(nil, rdb, nil, nil)
	_, err := e.waitForPartyCode(context.Background(), 77)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestGetCustomMatchID(t *testing.T) {
	mr, rdb := newTestRedis(t)
	e := New(nil, rdb, nil, nil)

	_, err := e.GetCustomMatchID(context.Background(), 55)
	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	mr.Set("55:match-id", "987654")
	matchID, err := e.GetCustomMatchID(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, uint64(987654), matchID)

	mr.Set(fmt.Sprintf("%d:match-id", uint64(56)), "garbage")
	_, err = e.GetCustomMatchID(context.Background(), 56)
	require.Error(t, err)
}
