// Copyright 2025 Certen Protocol

package codec

import (
	"encoding/binary"
	"fmt"
)

// DecodeError reports a structural decoding failure. The codec never
// panics on untrusted input; every malformed byte sequence surfaces as
// a DecodeError instead.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string { return "codec: decode error: " + e.Message }

func decodeErrf(format string, args ...interface{}) error {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}

// Encode is total on well-typed values: it never returns an error.
// Fixed-width primitives (Bool, Int) encode little-endian at their
// natural width. Variable-length containers (Symbol, Bytes) are
// preceded by a 4-byte little-endian length. Kind is a 1-byte
// discriminant prefixing every encoding.
func Encode(v *Value) []byte {
	if v == nil {
		return []byte{byte(KindUnit)}
	}
	out := []byte{byte(v.Kind)}
	switch v.Kind {
	case KindUnit:
		// no payload
	case KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		out = append(out, b)
	case KindInt:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Int))
		out = append(out, buf[:]...)
	case KindSymbol:
		out = append(out, lengthPrefixed([]byte(v.Symbol))...)
	case KindBytes:
		out = append(out, lengthPrefixed(v.Bytes)...)
	case KindProduct:
		out = append(out, Encode(v.Left)...)
		out = append(out, Encode(v.Right)...)
	case KindSum:
		out = append(out, byte(v.Tag))
		out = append(out, Encode(v.Left)...)
	}
	return out
}

func lengthPrefixed(b []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	out := make([]byte, 0, 4+len(b))
	out = append(out, lenBuf[:]...)
	out = append(out, b...)
	return out
}

// DecodeWithRemainder is total on any byte sequence: it returns either a
// decoded value and the trailing bytes, or a typed DecodeError. It
// never panics.
func DecodeWithRemainder(b []byte) (*Value, []byte, error) {
	if len(b) < 1 {
		return nil, nil, decodeErrf("empty input, expected a kind discriminant")
	}
	kind := Kind(b[0])
	rest := b[1:]
	switch kind {
	case KindUnit:
		return &Value{Kind: KindUnit}, rest, nil
	case KindBool:
		if len(rest) < 1 {
			return nil, nil, decodeErrf("truncated bool")
		}
		switch rest[0] {
		case 0:
			return &Value{Kind: KindBool, Bool: false}, rest[1:], nil
		case 1:
			return &Value{Kind: KindBool, Bool: true}, rest[1:], nil
		default:
			return nil, nil, decodeErrf("invalid bool byte %d", rest[0])
		}
	case KindInt:
		if len(rest) < 8 {
			return nil, nil, decodeErrf("truncated int, need 8 bytes have %d", len(rest))
		}
		i := int64(binary.LittleEndian.Uint64(rest[:8]))
		return &Value{Kind: KindInt, Int: i}, rest[8:], nil
	case KindSymbol:
		payload, tail, err := decodeLengthPrefixed(rest)
		if err != nil {
			return nil, nil, err
		}
		return &Value{Kind: KindSymbol, Symbol: string(payload)}, tail, nil
	case KindBytes:
		payload, tail, err := decodeLengthPrefixed(rest)
		if err != nil {
			return nil, nil, err
		}
		return &Value{Kind: KindBytes, Bytes: payload}, tail, nil
	case KindProduct:
		left, tail, err := DecodeWithRemainder(rest)
		if err != nil {
			return nil, nil, err
		}
		right, tail2, err := DecodeWithRemainder(tail)
		if err != nil {
			return nil, nil, err
		}
		return &Value{Kind: KindProduct, Left: left, Right: right}, tail2, nil
	case KindSum:
		if len(rest) < 1 {
			return nil, nil, decodeErrf("truncated sum tag")
		}
		tag := SumTag(rest[0])
		if tag != TagInl && tag != TagInr {
			return nil, nil, decodeErrf("invalid sum tag %d", rest[0])
		}
		inner, tail, err := DecodeWithRemainder(rest[1:])
		if err != nil {
			return nil, nil, err
		}
		return &Value{Kind: KindSum, Tag: tag, Left: inner}, tail, nil
	default:
		return nil, nil, decodeErrf("invalid kind discriminant %d", b[0])
	}
}

func decodeLengthPrefixed(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, decodeErrf("truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, decodeErrf("truncated payload: declared %d, have %d", n, len(b))
	}
	return b[:n], b[n:], nil
}

// Decode decodes a value and requires the entire input to be consumed.
func Decode(b []byte) (*Value, error) {
	v, rest, err := DecodeWithRemainder(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, decodeErrf("%d trailing bytes after decode", len(rest))
	}
	return v, nil
}
