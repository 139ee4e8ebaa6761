// Package steamproto holds the wire types exchanged with the game
// coordinator through the bot-fleet proxy. Messages are encoded with
// protobuf wire format via protowire; only the fields this service reads
// are modeled, unknown fields are skipped.
package steamproto

import (
	"github.com/Laisky/errors/v2"
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is satisfied by every coordinator message. The proxy layer stays
// generic over it: typed in, typed out, framing invisible to callers.
type Message interface {
	MarshalProto() ([]byte, error)
	UnmarshalProto(b []byte) error
}

// Coordinator message kinds dispatched through the proxy envelope.
const (
	KindGetMatchMetaData         int32 = 9770
	KindGetMatchMetaDataResponse int32 = 9771
	KindSpectateLobby            int32 = 9118
	KindGetActiveMatches         int32 = 9122
	KindPartyCreate              int32 = 9123
	KindPartyJoinSpectatorSlot   int32 = 9124
	KindPartySetReady            int32 = 9125
	KindPartyLeave               int32 = 9126
	KindGetMatchHistory          int32 = 9128
	KindGetMatchHistoryResponse  int32 = 9129
)

// ResultSuccess is the coordinator's success code.
const ResultSuccess int32 = 1

type fieldHandler func(b []byte, wireType protowire.Type) (int, error)

// unmarshalFields drives a decode loop, dispatching known field numbers to
// handlers and skipping everything else.
func unmarshalFields(b []byte, handlers map[protowire.Number]fieldHandler) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "consume tag")
		}
		b = b[n:]

		if h, ok := handlers[num]; ok {
			n, err := h(b, typ)
			if err != nil {
				return errors.Wrapf(err, "field %d", num)
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "skip field %d", num)
		}
		b = b[n:]
	}
	return nil
}

func varintField(dst *uint64) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		if typ != protowire.VarintType {
			return 0, errors.Errorf("unexpected wire type %d for varint field", typ)
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = v
		return n, nil
	}
}

func uint32Field(dst *uint32) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		var v uint64
		n, err := varintField(&v)(b, typ)
		if err != nil {
			return 0, err
		}
		*dst = uint32(v)
		return n, nil
	}
}

func int32Field(dst *int32) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		var v uint64
		n, err := varintField(&v)(b, typ)
		if err != nil {
			return 0, err
		}
		*dst = int32(v)
		return n, nil
	}
}

func boolField(dst *bool) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		var v uint64
		n, err := varintField(&v)(b, typ)
		if err != nil {
			return 0, err
		}
		*dst = v != 0
		return n, nil
	}
}

func stringField(dst *string) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		if typ != protowire.BytesType {
			return 0, errors.Errorf("unexpected wire type %d for string field", typ)
		}
		v, n := protowire.ConsumeString(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = v
		return n, nil
	}
}

func bytesField(fn func(b []byte) error) fieldHandler {
	return func(b []byte, typ protowire.Type) (int, error) {
		if typ != protowire.BytesType {
			return 0, errors.Errorf("unexpected wire type %d for bytes field", typ)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		return n, fn(v)
	}
}
