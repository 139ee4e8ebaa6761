// Package demoparse turns a live broadcast demo stream into a sequence of
// per-tick entity-delta events. The broadcast is a framed binary protocol:
// each frame carries a little-endian payload size, the network tick, a
// command byte, and (for entity frames) a snappy-compressed block of
// protobuf-encoded entity deltas.
package demoparse

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/klauspost/compress/snappy"
	"google.golang.org/protobuf/encoding/protowire"
)

// Frame commands.
const (
	cmdEntities byte = 1
	cmdStop     byte = 2
)

// Op is the kind of change a delta describes.
type Op int32

const (
	// OpCreated means the entity entered the snapshot this tick.
	OpCreated Op = 0
	// OpUpdated means the entity changed this tick.
	OpUpdated Op = 1
	// OpDeleted means the entity left the snapshot this tick.
	OpDeleted Op = 2
)

func (o Op) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpUpdated:
		return "updated"
	case OpDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Kind distinguishes the events the parser emits.
type Kind int

const (
	// KindDelta is one entity change.
	KindDelta Kind = iota
	// KindTickEnd marks the end of a tick's deltas.
	KindTickEnd
	// KindEnd marks the end of the demo.
	KindEnd
)

// Event is one parsed item, ordered by tick within a session.
type Event struct {
	Kind       Kind
	Tick       uint32
	Op         Op
	EntityType string
	EntityID   uint32
}

// Parse reads frames from r until the stop frame, stream end, or context
// cancellation, sending events to out. The channel should be bounded
// (~1024); back-pressure from a slow consumer propagates into the read loop.
// Parse closes nothing; the caller owns r and out.
func Parse(ctx context.Context, r io.Reader, out chan<- Event) error {
	var header [9]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return emit(ctx, out, Event{Kind: KindEnd})
			}
			return errors.Wrap(err, "read frame header")
		}
		size := binary.LittleEndian.Uint32(header[0:4])
		tick := binary.LittleEndian.Uint32(header[4:8])
		cmd := header[8]

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return errors.Wrapf(err, "read frame payload at tick %d", tick)
		}

		switch cmd {
		case cmdStop:
			return emit(ctx, out, Event{Kind: KindEnd, Tick: tick})
		case cmdEntities:
			if err := parseEntities(ctx, tick, payload, out); err != nil {
				return errors.Wrapf(err, "parse entities at tick %d", tick)
			}
			if err := emit(ctx, out, Event{Kind: KindTickEnd, Tick: tick}); err != nil {
				return err
			}
		default:
			// Unknown commands (string tables, voice) are skipped.
		}
	}
}

// parseEntities decompresses and walks a tick's delta block.
func parseEntities(ctx context.Context, tick uint32, payload []byte, out chan<- Event) error {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return errors.Wrap(err, "snappy decode entity block")
	}

	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "consume delta tag")
		}
		raw = raw[n:]

		if num != 1 || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "skip delta field")
			}
			raw = raw[n:]
			continue
		}

		body, n := protowire.ConsumeBytes(raw)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "consume delta body")
		}
		raw = raw[n:]

		delta, err := decodeDelta(tick, body)
		if err != nil {
			return err
		}
		if err := emit(ctx, out, delta); err != nil {
			return err
		}
	}
	return nil
}

// decodeDelta reads one entity delta: 1=entity id, 2=class name, 3=op.
func decodeDelta(tick uint32, b []byte) (Event, error) {
	ev := Event{Kind: KindDelta, Tick: tick}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ev, errors.Wrap(protowire.ParseError(n), "consume delta field tag")
		}
		b = b[n:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ev, protowire.ParseError(n)
			}
			ev.EntityID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return ev, protowire.ParseError(n)
			}
			ev.EntityType = v
			b = b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ev, protowire.ParseError(n)
			}
			ev.Op = Op(v)
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ev, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return ev, nil
}

func emit(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
