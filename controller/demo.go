package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/matchops/arena-api/common"
	"github.com/matchops/arena-api/common/helper"
	"github.com/matchops/arena-api/middleware"
	"github.com/matchops/arena-api/spectate/demoparse"
)

// sseEventNames are every event name a demo event stream can emit, announced
// on the initial connected event.
var sseEventNames = []string{"connected", "entity_update", "tick_end", "end"}

// demoEventChanSize bounds the parser-to-writer channel; back-pressure from
// a slow client propagates into the parser's read loop.
const demoEventChanSize = 1024

// LiveDemoStream handles GET /v1/matches/:match_id/demo/live: the broadcast
// demo relayed as a raw chunked body.
func LiveDemoStream(c *gin.Context) {
	matchID, err := parseMatchID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := Spectator.GuardLive(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	if err := Spectator.EnsureSpectated(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	if err := Spectator.WaitForDemo(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)
	flush := func() {}
	if flusher != nil {
		flush = flusher.Flush
	}

	if err := Spectator.RelayDemo(ctx, matchID, c.Writer, flush); err != nil {
		// Headers are gone; all that is left is logging and closing.
		gmw.GetLogger(c).Warn("demo relay failed",
			zap.Uint64("match_id", matchID), zap.Error(err))
	}
}

// sseEvent is the JSON shape of every demo event.
type sseEvent struct {
	Event      string   `json:"event"`
	Tick       uint32   `json:"tick,omitempty"`
	EntityType string   `json:"entity_type,omitempty"`
	EntityID   uint32   `json:"entity_id,omitempty"`
	Op         string   `json:"op,omitempty"`
	Events     []string `json:"events,omitempty"`
}

// LiveDemoEvents handles GET /v1/matches/:match_id/demo/events: the broadcast
// demo parsed into entity-delta events and relayed as SSE. Deltas are
// forwarded only for entity types listed in subscribed_entities; an empty
// subscription keeps just the connected, tick_end and end events.
func LiveDemoEvents(c *gin.Context) {
	matchID, err := parseMatchID(c)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	subscribed := map[string]struct{}{}
	for _, name := range helper.ParseStringList(c.Query("subscribed_entities")) {
		subscribed[name] = struct{}{}
	}

	ctx := c.Request.Context()
	if err := Spectator.GuardLive(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	if err := Spectator.EnsureSpectated(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	if err := Spectator.WaitForDemo(ctx, matchID); err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}

	body, err := Spectator.OpenDemoStream(ctx, matchID)
	if err != nil {
		middleware.AbortWithMappedError(c, err)
		return
	}
	defer body.Close()

	common.SetEventStreamHeaders(c)
	c.Status(http.StatusOK)

	events := make(chan demoparse.Event, demoEventChanSize)
	parseDone := make(chan error, 1)
	go func() {
		parseDone <- demoparse.Parse(ctx, body, events)
	}()

	writeEvent(c, sseEvent{Event: "connected", Events: sseEventNames})

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-parseDone:
			// Drain what the parser already queued, then stop. A parse
			// error terminates the stream without a terminal event.
			for {
				select {
				case ev := <-events:
					if done := relayEvent(c, ev, subscribed); done {
						return
					}
				default:
					if err != nil && ctx.Err() == nil {
						gmw.GetLogger(c).Warn("demo parse failed",
							zap.Uint64("match_id", matchID), zap.Error(err))
					}
					return
				}
			}
		case ev := <-events:
			if done := relayEvent(c, ev, subscribed); done {
				return
			}
		}
	}
}

// relayEvent writes one parsed event, applying the subscription filter.
// It reports whether the stream is finished.
func relayEvent(c *gin.Context, ev demoparse.Event, subscribed map[string]struct{}) bool {
	switch ev.Kind {
	case demoparse.KindDelta:
		if _, ok := subscribed[ev.EntityType]; !ok {
			return false
		}
		writeEvent(c, sseEvent{
			Event:      "entity_update",
			Tick:       ev.Tick,
			EntityType: ev.EntityType,
			EntityID:   ev.EntityID,
			Op:         ev.Op.String(),
		})
	case demoparse.KindTickEnd:
		writeEvent(c, sseEvent{Event: "tick_end", Tick: ev.Tick})
	case demoparse.KindEnd:
		writeEvent(c, sseEvent{Event: "end", Tick: ev.Tick})
		return true
	}
	return false
}

func writeEvent(c *gin.Context, ev sseEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	c.Writer.Flush()
}
