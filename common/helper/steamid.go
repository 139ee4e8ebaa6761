package helper

import (
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
)

// steamID64Base is the offset between a 32-bit SteamID3 account id and its
// 64-bit SteamID64 representation.
const steamID64Base uint64 = 76561197960265728

// ParseAccountID parses an account id given either as a 32-bit SteamID3 or a
// 64-bit SteamID64. SteamID3 is preferred internally; SteamID64 inputs
// (anything above 2^56) are converted down.
func ParseAccountID(raw string) (uint32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty account id")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse account id %q", raw)
	}

	if id > 1<<56 {
		if id < steamID64Base {
			return 0, errors.Errorf("account id %d is not a valid SteamID64", id)
		}
		id -= steamID64Base
	}
	if id > 1<<32-1 {
		return 0, errors.Errorf("account id %d out of range", id)
	}

	return uint32(id), nil
}

// ParseAccountIDList parses a comma-separated list of account ids, tolerating
// empty tokens. Some clients send trailing commas; those are skipped rather
// than rejected.
func ParseAccountIDList(raw string) ([]uint32, error) {
	var ids []uint32
	for token := range strings.SplitSeq(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := ParseAccountID(token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseStringList splits a comma-separated list, dropping empty tokens.
func ParseStringList(raw string) []string {
	var out []string
	for token := range strings.SplitSeq(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}
