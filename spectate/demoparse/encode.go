package demoparse

import (
	"encoding/binary"

	"github.com/klauspost/compress/snappy"
	"google.golang.org/protobuf/encoding/protowire"
)

// EncodeEntitiesFrame builds one entity frame; used by tests and fixtures.
func EncodeEntitiesFrame(tick uint32, deltas []Event) []byte {
	var block []byte
	for _, d := range deltas {
		var body []byte
		body = protowire.AppendTag(body, 1, protowire.VarintType)
		body = protowire.AppendVarint(body, uint64(d.EntityID))
		body = protowire.AppendTag(body, 2, protowire.BytesType)
		body = protowire.AppendString(body, d.EntityType)
		body = protowire.AppendTag(body, 3, protowire.VarintType)
		body = protowire.AppendVarint(body, uint64(d.Op))

		block = protowire.AppendTag(block, 1, protowire.BytesType)
		block = protowire.AppendBytes(block, body)
	}

	payload := snappy.Encode(nil, block)
	return appendFrame(tick, cmdEntities, payload)
}

// EncodeStopFrame builds the terminal frame.
func EncodeStopFrame(tick uint32) []byte {
	return appendFrame(tick, cmdStop, nil)
}

func appendFrame(tick uint32, cmd byte, payload []byte) []byte {
	frame := make([]byte, 9, 9+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[4:8], tick)
	frame[8] = cmd
	return append(frame, payload...)
}
