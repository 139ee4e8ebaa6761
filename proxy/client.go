// Package proxy bridges typed coordinator messages onto the external
// bot-fleet dispatcher: protobuf in, protobuf out, with the JSON+base64
// envelope invisible to callers.
package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/matchops/arena-api/cache"
	"github.com/matchops/arena-api/monitor"
	"github.com/matchops/arena-api/steamproto"
)

// Request describes one dispatch to the bot fleet.
type Request struct {
	// MsgType is the coordinator message kind (see steamproto.Kind*).
	MsgType int32
	// Msg is the typed payload.
	Msg steamproto.Message
	// Cooldown is the per-bot job cooldown; the proxy's rate-limit cooldown
	// is announced as twice this value.
	Cooldown time.Duration
	// InAllGroups / InAnyGroups constrain which bots may pick up the job.
	InAllGroups []string
	InAnyGroups []string
	// RequestTimeout bounds the whole dispatch; typical values are
	// seconds-scale (2 s).
	RequestTimeout time.Duration
	// Username pins the job to a specific bot when set.
	Username string
}

// Response carries the raw decoded payload plus the bot that served it.
// Callers decode Data into a typed message via Call.
type Response struct {
	Data     []byte
	Username string
}

// envelope is the proxy's transport frame.
type envelope struct {
	MessageKind             int32    `json:"message_kind"`
	JobCooldownMillis       int64    `json:"job_cooldown_millis"`
	RateLimitCooldownMillis int64    `json:"rate_limit_cooldown_millis"`
	BotInAllGroups          []string `json:"bot_in_all_groups,omitempty"`
	BotInAnyGroups          []string `json:"bot_in_any_groups,omitempty"`
	Data                    string   `json:"data"`
	BotUsername             string   `json:"bot_username,omitempty"`
}

type rawResponse struct {
	Data     string `json:"data"`
	Username string `json:"username"`
}

// Client dispatches typed requests to the coordinator proxy. It never
// retries; callers wrap dispatches in Retry when the operation allows it.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	// rawCache memoizes raw responses for endpoints that deliberately
	// rate-limit the upstream (active matches, spectate coalescing).
	rawCache *cache.Cache
}

// New builds a proxy client.
func New(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:  baseURL,
		token:    token,
		http:     httpClient,
		rawCache: cache.New("proxy_raw", time.Minute),
	}
}

// Call dispatches req and decodes the response payload into out.
// The caller-supplied timeout bounds the in-flight HTTP request; on expiry
// it is aborted.
func (c *Client) Call(ctx context.Context, req Request, out steamproto.Message) (string, error) {
	resp, err := c.CallRaw(ctx, req)
	if err != nil {
		return "", err
	}
	if err := out.UnmarshalProto(resp.Data); err != nil {
		return "", errors.Wrapf(err, "decode proxy response for kind %d", req.MsgType)
	}
	return resp.Username, nil
}

// CallCached is Call with an opaque raw-response cache in front, keyed by the
// tuple of meaningful inputs. Concurrent identical calls coalesce.
func (c *Client) CallCached(ctx context.Context, cacheKey string, ttl time.Duration, req Request, out steamproto.Message) (string, error) {
	resp, err := cache.GetOrCompute(ctx, c.rawCache, cacheKey, ttl, func(ctx context.Context) (*Response, error) {
		return c.CallRaw(ctx, req)
	})
	if err != nil {
		return "", err
	}
	if err := out.UnmarshalProto(resp.Data); err != nil {
		return "", errors.Wrapf(err, "decode proxy response for kind %d", req.MsgType)
	}
	return resp.Username, nil
}

// CallRaw dispatches req and returns the base64-decoded payload without
// typed decoding.
func (c *Client) CallRaw(ctx context.Context, req Request) (*Response, error) {
	kind := fmt.Sprintf("%d", req.MsgType)

	payload, err := req.Msg.MarshalProto()
	if err != nil {
		return nil, errors.Wrapf(err, "encode proxy request for kind %d", req.MsgType)
	}

	env := envelope{
		MessageKind:             req.MsgType,
		JobCooldownMillis:       req.Cooldown.Milliseconds(),
		RateLimitCooldownMillis: 2 * req.Cooldown.Milliseconds(),
		BotInAllGroups:          req.InAllGroups,
		BotInAnyGroups:          req.InAnyGroups,
		Data:                    base64.StdEncoding.EncodeToString(payload),
		BotUsername:             req.Username,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "encode proxy envelope")
	}

	timeout := req.RequestTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build proxy request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		monitor.ProxyCalls.WithLabelValues(kind, "error").Inc()
		return nil, errors.Wrapf(err, "dispatch proxy request for kind %d", req.MsgType)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		monitor.ProxyCalls.WithLabelValues(kind, "error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, errors.Errorf("proxy returned %d for kind %d: %s",
			httpResp.StatusCode, req.MsgType, snippet)
	}

	var raw rawResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&raw); err != nil {
		monitor.ProxyCalls.WithLabelValues(kind, "error").Inc()
		return nil, errors.Wrap(err, "decode proxy response envelope")
	}
	data, err := base64.StdEncoding.DecodeString(raw.Data)
	if err != nil {
		monitor.ProxyCalls.WithLabelValues(kind, "error").Inc()
		return nil, errors.Wrap(err, "base64 decode proxy response data")
	}

	monitor.ProxyCalls.WithLabelValues(kind, "ok").Inc()
	return &Response{Data: data, Username: raw.Username}, nil
}
