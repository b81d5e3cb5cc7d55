// Package hasher provides the canonical encoding and digest support used to
// link blocks together and to score proof of work attempts.
package hasher

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is returned when a value
// can't be canonically encoded.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Object is the canonical representation of a structured value. Keys are
// always written in ascending order regardless of map iteration.
type Object map[string]any

// Canonicaler is implemented by types that know how to describe themselves
// as a canonical object.
type Canonicaler interface {
	Canonical() Object
}

// =============================================================================

// Hash returns the lowercase hex SHA-256 digest of the canonical encoding
// of the value.
func Hash(value any) string {
	data, err := Encode(value)
	if err != nil {
		return ZeroHash
	}

	return Sum(data)
}

// Sum returns the lowercase hex SHA-256 digest of the raw data.
func Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return strings.TrimPrefix(hexutil.Encode(hash[:]), "0x")
}

// Encode produces the canonical byte form of the value. Objects are written
// with sorted keys and the same separators Python's json.dumps uses, so two
// nodes holding the same field values produce the same bytes.
func Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, value); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// =============================================================================

func encode(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")

	case Canonicaler:
		return encodeObject(buf, v.Canonical())

	case Object:
		return encodeObject(buf, v)

	case map[string]any:
		return encodeObject(buf, v)

	case []any:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case string:
		encodeString(buf, v)

	case bool:
		if v {
			buf.WriteString("true")
			break
		}
		buf.WriteString("false")

	case int:
		fmt.Fprintf(buf, "%d", v)

	case int64:
		fmt.Fprintf(buf, "%d", v)

	case uint64:
		fmt.Fprintf(buf, "%d", v)

	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("unsupported float value %v", v)
		}

		buf.WriteString(formatFloat(v))

	default:
		return fmt.Errorf("unsupported type %T", value)
	}

	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		encodeString(buf, key)
		buf.WriteString(": ")
		if err := encode(buf, obj[key]); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	buf.WriteByte('}')

	return nil
}

// formatFloat writes the shortest digits that round trip. Like Python's
// float repr, exponent notation is used when the decimal exponent is below
// -4 or at least 16, with a sign and at least two exponent digits. Integral
// values in the fixed range are written without a fractional part.
func formatFloat(f float64) string {
	sci := strconv.FormatFloat(f, 'e', -1, 64)

	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// encodeString writes an ASCII only JSON string. Anything outside of the
// printable ASCII range is written as a \u escape, with surrogate pairs for
// runes above the basic multilingual plane.
func encodeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r >= 0x20 && r < 0x7f:
			buf.WriteByte(byte(r))
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			for _, u := range []rune{r1, r2} {
				buf.WriteString(`\u`)
				buf.WriteByte(hex[u>>12&0xf])
				buf.WriteByte(hex[u>>8&0xf])
				buf.WriteByte(hex[u>>4&0xf])
				buf.WriteByte(hex[u&0xf])
			}
		default:
			buf.WriteString(`\u`)
			buf.WriteByte(hex[r>>12&0xf])
			buf.WriteByte(hex[r>>8&0xf])
			buf.WriteByte(hex[r>>4&0xf])
			buf.WriteByte(hex[r&0xf])
		}
	}
	buf.WriteByte('"')
}
