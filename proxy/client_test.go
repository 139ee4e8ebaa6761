package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchops/arena-api/steamproto"
)

// proxyHandler answers with a valid envelope carrying the given message,
// recording the request envelope it received.
func proxyHandler(t *testing.T, reply steamproto.Message, got *envelope) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		payload, err := reply.MarshalProto()
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(rawResponse{
			Data:     base64.StdEncoding.EncodeToString(payload),
			Username: "bot-7",
		})
	}
}

func TestCallEnvelopeShape(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(proxyHandler(t,
		&steamproto.GetMatchMetaDataResponse{Result: steamproto.ResultSuccess, ClusterID: 134, MetadataSalt: 999},
		&got))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())

	var resp steamproto.GetMatchMetaDataResponse
	username, err := client.Call(context.Background(), Request{
		MsgType:     steamproto.KindGetMatchMetaData,
		Msg:         &steamproto.GetMatchMetaDataRequest{MatchID: 42},
		Cooldown:    10 * time.Second,
		InAnyGroups: []string{"salts"},
	}, &resp)
	require.NoError(t, err)

	assert.Equal(t, "bot-7", username)
	assert.Equal(t, steamproto.ResultSuccess, resp.Result)
	assert.Equal(t, uint32(134), resp.ClusterID)

	assert.Equal(t, steamproto.KindGetMatchMetaData, got.MessageKind)
	assert.Equal(t, int64(10_000), got.JobCooldownMillis)
	// The proxy-side rate-limit cooldown is always double the job cooldown.
	assert.Equal(t, int64(20_000), got.RateLimitCooldownMillis)
	assert.Equal(t, []string{"salts"}, got.BotInAnyGroups)

	payload, err := base64.StdEncoding.DecodeString(got.Data)
	require.NoError(t, err)
	var sent steamproto.GetMatchMetaDataRequest
	require.NoError(t, sent.UnmarshalProto(payload))
	assert.Equal(t, uint64(42), sent.MatchID)
}

func TestCallPinsBotUsername(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(proxyHandler(t, &steamproto.PartyActionResponse{Result: 1}, &got))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())
	var resp steamproto.PartyActionResponse
	_, err := client.Call(context.Background(), Request{
		MsgType:  steamproto.KindPartySetReady,
		Msg:      &steamproto.PartyActionRequest{PartyID: 7, Ready: true},
		Cooldown: time.Second,
		Username: "bot-3",
	}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "bot-3", got.BotUsername)
}

func TestCallRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no bots available", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())
	var resp steamproto.PartyActionResponse
	_, err := client.Call(context.Background(), Request{
		MsgType: steamproto.KindPartyLeave,
		Msg:     &steamproto.PartyActionRequest{PartyID: 7},
	}, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCallTimeoutAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection
		// read; without it the request context is never canceled on
		// client abort and Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())
	var resp steamproto.PartyActionResponse
	_, err := client.Call(context.Background(), Request{
		MsgType:        steamproto.KindPartyLeave,
		Msg:            &steamproto.PartyActionRequest{PartyID: 7},
		RequestTimeout: 50 * time.Millisecond,
	}, &resp)
	require.Error(t, err)
	<-started
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var attempts int32
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var attempts int32
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always")
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryRetriesPerCallTimeouts(t *testing.T) {
	// A per-call deadline inside fn is a transient failure, not a reason
	// to stop early; only the parent context ends the loop.
	var attempts int32
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.Wrap(context.DeadlineExceeded, "dispatch proxy request")
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryRedispatchesSlowCalls(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
			return
		}
		payload, err := (&steamproto.PartyActionResponse{Result: steamproto.ResultSuccess}).MarshalProto()
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(rawResponse{
			Data:     base64.StdEncoding.EncodeToString(payload),
			Username: "bot-2",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())
	var resp steamproto.PartyActionResponse
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		_, callErr := client.Call(ctx, Request{
			MsgType:        steamproto.KindPartyLeave,
			Msg:            &steamproto.PartyActionRequest{PartyID: 7},
			RequestTimeout: 100 * time.Millisecond,
		}, &resp)
		return callErr
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, steamproto.ResultSuccess, resp.Result)
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int32
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := Retry(ctx, 1000, 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("keep going")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, atomic.LoadInt32(&attempts), int32(10))
}
