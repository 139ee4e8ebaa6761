package steamproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataEnvelopeRoundTrip(t *testing.T) {
	original := MatchMetadata{MatchDetails: &MatchMetadataContents{
		MatchID:     42_000_000,
		StartTime:   1_700_000_000,
		DurationS:   2400,
		WinningTeam: 1,
		Players: []MatchPlayer{
			{AccountID: 101, HeroID: 7, Team: 0, Kills: 12, Deaths: 3, Assists: 9, NetWorth: 48_000},
			{AccountID: 202, HeroID: 15, Team: 1, Kills: 1, Deaths: 11, Assists: 2, NetWorth: 21_500},
		},
	}}

	raw, err := original.MarshalProto()
	require.NoError(t, err)

	var decoded MatchMetadata
	require.NoError(t, decoded.UnmarshalProto(raw))
	require.NotNil(t, decoded.MatchDetails)
	assert.Equal(t, original.MatchDetails.MatchID, decoded.MatchDetails.MatchID)
	assert.Equal(t, original.MatchDetails.WinningTeam, decoded.MatchDetails.WinningTeam)
	assert.Equal(t, original.MatchDetails.Players, decoded.MatchDetails.Players)
}

func TestSaltsResponseDecodeSkipsUnknownFields(t *testing.T) {
	full := GetMatchMetaDataResponse{Result: ResultSuccess, ClusterID: 134, MetadataSalt: 999, ReplaySalt: 555}
	raw, err := full.MarshalProto()
	require.NoError(t, err)

	// Append an unknown varint field; the decode loop must skip it.
	raw = append(raw, 0x58, 0x2A) // field 11, varint 42

	var decoded GetMatchMetaDataResponse
	require.NoError(t, decoded.UnmarshalProto(raw))
	assert.Equal(t, full, decoded)
}

func TestActiveMatchesFrameRoundTrip(t *testing.T) {
	snapshot := &ActiveMatchesSnapshot{Matches: []ActiveMatch{
		{MatchID: 1, StartTime: 1_700_000_000, WinningTeam: -1, NetWorthTeam0: 10, NetWorthTeam1: 20, SpectatorCount: 3},
		{MatchID: 2, StartTime: 1_700_000_100, SpectatorCount: 0},
	}}

	frame, err := EncodeActiveMatchesFrame(snapshot)
	require.NoError(t, err)

	decoded, err := DecodeActiveMatchesFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Matches, decoded.Matches)
}

func TestActiveMatchesFrameTooShort(t *testing.T) {
	_, err := DecodeActiveMatchesFrame([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestPartyActionRoundTrip(t *testing.T) {
	req := PartyActionRequest{PartyID: 77, Ready: true}
	raw, err := req.MarshalProto()
	require.NoError(t, err)

	var decoded PartyActionRequest
	require.NoError(t, decoded.UnmarshalProto(raw))
	assert.Equal(t, req, decoded)
}

func TestMatchHistoryResponseRoundTrip(t *testing.T) {
	resp := GetMatchHistoryResponse{
		Result: ResultSuccess,
		Matches: []MatchHistoryEntry{
			{MatchID: 9, HeroID: 3, MatchResult: 1, PlayerKills: 5, StartTime: 1_700_000_000},
			{MatchID: 8, HeroID: 4, PlayerDeaths: 7, MatchDurationS: 1800},
		},
	}
	raw, err := resp.MarshalProto()
	require.NoError(t, err)

	var decoded GetMatchHistoryResponse
	require.NoError(t, decoded.UnmarshalProto(raw))
	assert.Equal(t, resp, decoded)
}
