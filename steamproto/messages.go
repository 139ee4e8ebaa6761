package steamproto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// GetMatchMetaDataRequest asks the coordinator for a match's replay salts.
type GetMatchMetaDataRequest struct {
	MatchID uint64
}

// MarshalProto encodes the request.
func (m *GetMatchMetaDataRequest) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.MatchID)
	return b, nil
}

// UnmarshalProto decodes the request.
func (m *GetMatchMetaDataRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: varintField(&m.MatchID),
	})
}

// GetMatchMetaDataResponse carries the salts triple. The call succeeded iff
// Result == ResultSuccess and both ClusterID and MetadataSalt are non-zero.
type GetMatchMetaDataResponse struct {
	Result       int32
	ClusterID    uint32
	MetadataSalt uint32
	ReplaySalt   uint32
}

// MarshalProto encodes the response.
func (m *GetMatchMetaDataResponse) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Result))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ClusterID))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MetadataSalt))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ReplaySalt))
	return b, nil
}

// UnmarshalProto decodes the response.
func (m *GetMatchMetaDataResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: int32Field(&m.Result),
		2: uint32Field(&m.ClusterID),
		3: uint32Field(&m.MetadataSalt),
		4: uint32Field(&m.ReplaySalt),
	})
}

// SpectateLobbyRequest instructs a bot to join a live match as a spectator,
// which makes the HTTP broadcast of its demo available.
type SpectateLobbyRequest struct {
	MatchID        uint64
	ClientVersion  uint32
	ClientPlatform int32
}

// MarshalProto encodes the request.
func (m *SpectateLobbyRequest) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.MatchID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ClientVersion))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ClientPlatform))
	return b, nil
}

// UnmarshalProto decodes the request.
func (m *SpectateLobbyRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: varintField(&m.MatchID),
		2: uint32Field(&m.ClientVersion),
		3: int32Field(&m.ClientPlatform),
	})
}

// SpectateLobbyResponse acknowledges the spectate instruction.
type SpectateLobbyResponse struct {
	Result int32
}

// MarshalProto encodes the response.
func (m *SpectateLobbyResponse) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Result))
	return b, nil
}

// UnmarshalProto decodes the response.
func (m *SpectateLobbyResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: int32Field(&m.Result),
	})
}

// PartyCreateRequest opens a custom-match party hosted by a bot.
type PartyCreateRequest struct {
	ClientVersion uint32
}

// MarshalProto encodes the request.
func (m *PartyCreateRequest) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ClientVersion))
	return b, nil
}

// UnmarshalProto decodes the request.
func (m *PartyCreateRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: uint32Field(&m.ClientVersion),
	})
}

// PartyCreateResponse returns the party the bot opened. The join code is
// delivered asynchronously through the KV store once the lobby exists.
type PartyCreateResponse struct {
	Result  int32
	PartyID uint64
}

// MarshalProto encodes the response.
func (m *PartyCreateResponse) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Result))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.PartyID)
	return b, nil
}

// UnmarshalProto decodes the response.
func (m *PartyCreateResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: int32Field(&m.Result),
		2: varintField(&m.PartyID),
	})
}

// PartyActionRequest drives the remaining party transitions: switch to the
// spectator slot, mark ready, leave.
type PartyActionRequest struct {
	PartyID uint64
	Ready   bool
}

// MarshalProto encodes the request.
func (m *PartyActionRequest) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.PartyID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(m.Ready))
	return b, nil
}

// UnmarshalProto decodes the request.
func (m *PartyActionRequest) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: varintField(&m.PartyID),
		2: boolField(&m.Ready),
	})
}

// PartyActionResponse acknowledges a party transition.
type PartyActionResponse struct {
	Result int32
}

// MarshalProto encodes the response.
func (m *PartyActionResponse) MarshalProto() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Result))
	return b, nil
}

// UnmarshalProto decodes the response.
func (m *PartyActionResponse) UnmarshalProto(b []byte) error {
	return unmarshalFields(b, map[protowire.Number]fieldHandler{
		1: int32Field(&m.Result),
	})
}
