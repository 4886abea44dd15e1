// Package codec provides the deterministic value encoding used for cache
// entries and cache keys. Values are encoded as CBOR with Core Deterministic
// Encoding (RFC 8949 §4.2): map keys are sorted, so two logically equal
// argument sets always produce the same bytes and therefore the same digest.
package codec

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	// Untyped targets (parameters, schemas) decode to map[string]any so
	// they stay interchangeable with values produced by encoding/json.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Digest returns a stable hex BLAKE3 digest of the deterministic encoding of values
func Digest(values ...any) (string, error) {
	data, err := encMode.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode digest input: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}
