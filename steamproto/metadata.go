package steamproto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// MatchMetadata is the outer envelope stored as {match_id}.meta.bz2; its
// match_details field carries the actual contents.
type MatchMetadata struct {
	MatchDetails *MatchMetadataContents
}

// MarshalProto encodes the envelope.
func (m *MatchMetadata) MarshalProto() ([]byte, error) {
	var b []byte
	if m.MatchDetails != nil {
		inner, err := m.MatchDetails.MarshalProto()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

// UnmarshalProto decodes the envelope.
func (m *MatchMetadata) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: bytesField(func(v []byte) error {
			m.MatchDetails = &MatchMetadataContents{}
			return m.MatchDetails.UnmarshalProto(v)
		}),
	})
}

// MatchMetadataContents is the decoded per-match record.
type MatchMetadataContents struct {
	MatchID     uint64
	StartTime   uint64
	DurationS   uint32
	WinningTeam int32
	Players     []MatchPlayer
}

// MarshalProto encodes the contents.
func (m *MatchMetadataContents) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.MatchID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.StartTime)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.DurationS))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.WinningTeam))
	for i := range m.Players {
		inner, err := m.Players[i].MarshalProto()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

// UnmarshalProto decodes the contents.
func (m *MatchMetadataContents) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: varintField(&m.MatchID),
		2: varintField(&m.StartTime),
		3: uint32Field(&m.DurationS),
		4: int32Field(&m.WinningTeam),
		5: bytesField(func(v []byte) error {
			var p MatchPlayer
			if err := p.UnmarshalProto(v); err != nil {
				return err
			}
			m.Players = append(m.Players, p)
			return nil
		}),
	})
}

// MatchPlayer is one participant's line in the metadata record.
type MatchPlayer struct {
	AccountID uint32
	HeroID    uint32
	Team      int32
	Kills     uint32
	Deaths    uint32
	Assists   uint32
	NetWorth  uint32
}

// MarshalProto encodes the player record.
func (p *MatchPlayer) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.AccountID))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.HeroID))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Team))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Kills))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Deaths))
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Assists))
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.NetWorth))
	return b, nil
}

// UnmarshalProto decodes the player record.
func (p *MatchPlayer) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: uint32Field(&p.AccountID),
		2: uint32Field(&p.HeroID),
		3: int32Field(&p.Team),
		4: uint32Field(&p.Kills),
		5: uint32Field(&p.Deaths),
		6: uint32Field(&p.Assists),
		7: uint32Field(&p.NetWorth),
	})
}
