package steamproto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// GetMatchHistoryRequest asks the coordinator for a player's recent matches.
type GetMatchHistoryRequest struct {
	AccountID uint32
}

// MarshalProto encodes the request.
func (m *GetMatchHistoryRequest) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.AccountID))
	return b, nil
}

// UnmarshalProto decodes the request.
func (m *GetMatchHistoryRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: uint32Field(&m.AccountID),
	})
}

// MatchHistoryEntry is one recent match as the coordinator reports it.
type MatchHistoryEntry struct {
	MatchID        uint64
	HeroID         uint32
	MatchResult    uint32
	PlayerTeam     uint32
	PlayerKills    uint32
	PlayerDeaths   uint32
	PlayerAssists  uint32
	NetWorth       uint32
	MatchDurationS uint32
	StartTime      uint64
}

// MarshalProto encodes the entry.
func (m *MatchHistoryEntry) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.MatchID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.HeroID))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MatchResult))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PlayerTeam))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PlayerKills))
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PlayerDeaths))
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PlayerAssists))
	b = protowire.AppendTag(b, 8, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.NetWorth))
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MatchDurationS))
	b = protowire.AppendTag(b, 10, protowire.VarintType)
	b = protowire.AppendVarint(b, m.StartTime)
	return b, nil
}

// UnmarshalProto decodes the entry.
func (m *MatchHistoryEntry) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1:  varintField(&m.MatchID),
		2:  uint32Field(&m.HeroID),
		3:  uint32Field(&m.MatchResult),
		4:  uint32Field(&m.PlayerTeam),
		5:  uint32Field(&m.PlayerKills),
		6:  uint32Field(&m.PlayerDeaths),
		7:  uint32Field(&m.PlayerAssists),
		8:  uint32Field(&m.NetWorth),
		9:  uint32Field(&m.MatchDurationS),
		10: varintField(&m.StartTime),
	})
}

// GetMatchHistoryResponse lists the player's recent matches, newest first.
type GetMatchHistoryResponse struct {
	Result  int32
	Matches []MatchHistoryEntry
}

// MarshalProto encodes the response.
func (m *GetMatchHistoryResponse) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Result))
	for i := range m.Matches {
		inner, err := m.Matches[i].MarshalProto()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

// UnmarshalProto decodes the response.
func (m *GetMatchHistoryResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: int32Field(&m.Result),
		2: bytesField(func(v []byte) error {
			var entry MatchHistoryEntry
			if err := entry.UnmarshalProto(v); err != nil {
				return err
			}
			m.Matches = append(m.Matches, entry)
			return nil
		}),
	})
}
