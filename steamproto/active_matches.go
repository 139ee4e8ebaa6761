package steamproto

import (
	"github.com/Laisky/errors/v2"
	"github.com/klauspost/compress/snappy"
	"google.golang.org/protobuf/encoding/protowire"
)

// activeMatchesHeaderLen is the fixed framing prefix the coordinator puts in
// front of the snappy-compressed snapshot payload.
const activeMatchesHeaderLen = 7

// GetActiveMatchesRequest asks for the coordinator's watch list. The request
// carries no fields.
type GetActiveMatchesRequest struct{}

// MarshalProto encodes the request.
func (m *GetActiveMatchesRequest) MarshalProto() ([]byte, error) { return nil, nil }

// UnmarshalProto decodes the request.
func (m *GetActiveMatchesRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, nil)
}

// ActiveMatch is one entry of the coordinator's top-N watch list.
type ActiveMatch struct {
	MatchID        uint64
	StartTime      uint64
	WinningTeam    int32
	NetWorthTeam0  uint32
	NetWorthTeam1  uint32
	SpectatorCount uint32
}

// MarshalProto encodes the entry.
func (m *ActiveMatch) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.MatchID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.StartTime)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.WinningTeam))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.NetWorthTeam0))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.NetWorthTeam1))
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.SpectatorCount))
	return b, nil
}

// UnmarshalProto decodes the entry.
func (m *ActiveMatch) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: varintField(&m.MatchID),
		2: varintField(&m.StartTime),
		3: int32Field(&m.WinningTeam),
		4: uint32Field(&m.NetWorthTeam0),
		5: uint32Field(&m.NetWorthTeam1),
		6: uint32Field(&m.SpectatorCount),
	})
}

// ActiveMatchesSnapshot is the full watch list.
type ActiveMatchesSnapshot struct {
	Matches []ActiveMatch
}

// MarshalProto encodes the snapshot.
func (m *ActiveMatchesSnapshot) MarshalProto() ([]byte, error) {
	var b []byte
	for i := range m.Matches {
		inner, err := m.Matches[i].MarshalProto()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

// UnmarshalProto decodes the snapshot.
func (m *ActiveMatchesSnapshot) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: bytesField(func(v []byte) error {
			var am ActiveMatch
			if err := am.UnmarshalProto(v); err != nil {
				return err
			}
			m.Matches = append(m.Matches, am)
			return nil
		}),
	})
}

// DecodeActiveMatchesFrame unwraps the coordinator's snapshot framing: a
// 7-byte header is skipped, the remainder is raw snappy holding the
// protobuf-encoded snapshot.
func DecodeActiveMatchesFrame(frame []byte) (*ActiveMatchesSnapshot, error) {
	if len(frame) <= activeMatchesHeaderLen {
		return nil, errors.Errorf("active matches frame too short: %d bytes", len(frame))
	}
	raw, err := snappy.Decode(nil, frame[activeMatchesHeaderLen:])
	if err != nil {
		return nil, errors.Wrap(err, "snappy decode active matches frame")
	}
	var snapshot ActiveMatchesSnapshot
	if err := snapshot.UnmarshalProto(raw); err != nil {
		return nil, errors.Wrap(err, "decode active matches snapshot")
	}
	return &snapshot, nil
}

// EncodeActiveMatchesFrame is the inverse framing, used by tests and fixtures.
func EncodeActiveMatchesFrame(snapshot *ActiveMatchesSnapshot) ([]byte, error) {
	raw, err := snapshot.MarshalProto()
	if err != nil {
		return nil, errors.Wrap(err, "encode active matches snapshot")
	}
	frame := make([]byte, activeMatchesHeaderLen)
	return append(frame, snappy.Encode(nil, raw)...), nil
}
