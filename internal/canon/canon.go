// Package canon implements the canonical JSON serialization shared by the
// attestor's raw-signature path, its JWS path, and proof_id computation.
// Sorted keys, compact separators, deterministic numeric formatting and
// second-resolution timestamps must hold across all three call sites or a
// certificate silently stops verifying.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Marshal returns the canonical JSON encoding of v: v is round-tripped
// through encoding/json first (so struct tags and custom marshalers apply),
// then every object in the resulting tree is re-emitted with lexicographically
// sorted keys and no insignificant whitespace. Arrays keep their order.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal input: %w", err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decode for canonicalization: %w", err)
	}
	var buf bytes.Buffer
	if err := encodeValue(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch vv := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if vv {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		return encodeNumber(buf, vv)
	case string:
		encodeString(buf, vv)
	case []any:
		buf.WriteByte('[')
		for i, e := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encodeValue(buf, vv[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canon: unsupported value type %T", v)
	}
	return nil
}

// encodeNumber re-emits a json.Number deterministically: integers without a
// decimal point or exponent, floats via the shortest round-trippable form.
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("canon: invalid number %q: %w", n.String(), err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canon: non-finite number %q", n.String())
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// encodeString mirrors encoding/json's default string escaping, which is
// already stable and HTML-unsafe-char-free enough for our purposes; we only
// need it to not insert arbitrary whitespace, which json.Marshal guarantees.
func encodeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// Digest returns the SHA-256 hex digest of v's canonical encoding, along with
// the canonical bytes themselves so callers needing both (the attestor's
// sign-bundle response) don't canonicalize twice.
func Digest(v any) (canonical []byte, digestHex string, err error) {
	canonical, err = Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return canonical, sha256Hex(canonical), nil
}
