package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// digestThreshold is the argument length above which the serializer switches
// to a digest. Long arguments are almost always opaque credentials or payloads
// whose raw value must not leak into cache keys or logs.
const digestThreshold = 64

// defaultKeySerializer builds keys from a method name and a small set of
// scalar arguments. Keys are stable across runs and processes for the types
// this module caches under: strings, integers, times and durations.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from method name and args.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		if len(val) > digestThreshold {
			return "x:" + Digest(val)
		}
		return val
	case time.Time:
		return strconv.FormatInt(val.UnixNano(), 10)
	case time.Duration:
		return val.String()
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		bool, float32, float64:
		return fmt.Sprintf("%v", val)
	case fmt.Stringer:
		return s.serializeValue(val.String())
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Digest returns a short, stable hex digest of s. It is the key derivation
// used for opaque credentials: identical inputs always map to the same key,
// and the input cannot be recovered from the output.
func Digest(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
