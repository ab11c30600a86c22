package store

import (
	"encoding/json"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Metadata encoding: nodes/edges carry a free-form map so extractors can
// enrich without schema changes. Larger files produce large decorator /
// parameter-list / docstring payloads, so the JSON document is zstd-compressed
// before it's stored in the BLOB column.
var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func getEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// encodeMetadata serializes a metadata map to a compressed blob. A nil or
// empty map encodes to a nil blob so the column stays NULL.
func encodeMetadata(meta map[string]interface{}) ([]byte, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return getEncoder().EncodeAll(raw, nil), nil
}

// decodeMetadata reverses encodeMetadata. A nil/empty blob decodes to nil.
func decodeMetadata(blob []byte) (map[string]interface{}, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := getDecoder().DecodeAll(blob, nil)
	if err != nil {
		return nil, err
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
