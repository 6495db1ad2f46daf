// Package abi implements the small slice of contract ABI encoding the
// health-check binding needs: 4-byte selectors, static words, dynamic
// bytes arguments, and decoding of dynamic uint/string arrays.
package abi

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// WordSize is the ABI slot width in bytes.
const WordSize = 32

// Word is one 32-byte ABI slot.
type Word [WordSize]byte

// Selector returns the 4-byte function selector for a canonical
// signature like "submitCheck(uint8,bytes32,bytes)".
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// Arg is one encoded call argument: either a static word or a dynamic
// byte payload referenced through an offset slot.
type Arg struct {
	word    Word
	dynamic []byte
	isDyn   bool
}

// Uint64Arg encodes an unsigned integer argument (covers uint8..uint256
// for values the workflow uses).
func Uint64Arg(v uint64) Arg {
	var w Word
	binary.BigEndian.PutUint64(w[WordSize-8:], v)
	return Arg{word: w}
}

// Bytes32Arg encodes a fixed 32-byte argument.
func Bytes32Arg(v [32]byte) Arg {
	return Arg{word: Word(v)}
}

// BytesArg encodes a dynamic bytes argument.
func BytesArg(v []byte) Arg {
	return Arg{dynamic: v, isDyn: true}
}

// Pack encodes a full call: selector followed by the head/tail layout
// of the arguments.
func Pack(signature string, args ...Arg) []byte {
	head := make([]byte, 0, len(args)*WordSize)
	tail := make([]byte, 0)
	tailBase := len(args) * WordSize

	for _, a := range args {
		if !a.isDyn {
			head = append(head, a.word[:]...)
			continue
		}
		// Offset slot points into the tail, relative to the start of
		// the argument block.
		var off Word
		binary.BigEndian.PutUint64(off[WordSize-8:], uint64(tailBase+len(tail)))
		head = append(head, off[:]...)

		var length Word
		binary.BigEndian.PutUint64(length[WordSize-8:], uint64(len(a.dynamic)))
		tail = append(tail, length[:]...)
		tail = append(tail, padRight(a.dynamic)...)
	}

	out := make([]byte, 0, 4+len(head)+len(tail))
	out = append(out, Selector(signature)...)
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

// PackHex is Pack with a 0x-prefixed hex result, ready for eth_call.
func PackHex(signature string, args ...Arg) string {
	return "0x" + hex.EncodeToString(Pack(signature, args...))
}

func padRight(b []byte) []byte {
	if rem := len(b) % WordSize; rem != 0 {
		return append(b, make([]byte, WordSize-rem)...)
	}
	return b
}

// Decoder reads ABI-encoded return data.
type Decoder struct {
	data []byte
}

// NewDecoder parses 0x-prefixed hex return data.
func NewDecoder(hexData string) (*Decoder, error) {
	raw, err := DecodeHex(hexData)
	if err != nil {
		return nil, err
	}
	if len(raw)%WordSize != 0 {
		return nil, fmt.Errorf("return data length %d not word aligned", len(raw))
	}
	return &Decoder{data: raw}, nil
}

// Words returns the number of 32-byte slots.
func (d *Decoder) Words() int {
	return len(d.data) / WordSize
}

// WordAt returns slot i.
func (d *Decoder) WordAt(i int) (Word, error) {
	var w Word
	off := i * WordSize
	if off+WordSize > len(d.data) {
		return w, fmt.Errorf("slot %d out of range (%d words)", i, d.Words())
	}
	copy(w[:], d.data[off:off+WordSize])
	return w, nil
}

// Uint64At decodes slot i as an unsigned integer.
func (d *Decoder) Uint64At(i int) (uint64, error) {
	w, err := d.WordAt(i)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(w[:])
	if !n.IsUint64() {
		return 0, fmt.Errorf("slot %d does not fit uint64", i)
	}
	return n.Uint64(), nil
}

// UintArrayAt decodes the dynamic uint array whose offset lives in head
// slot i.
func (d *Decoder) UintArrayAt(i int) ([]uint64, error) {
	base, length, err := d.dynHeader(i)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, length)
	for j := 0; j < length; j++ {
		v, err := d.uint64AtOffset(base + (j+1)*WordSize)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// StringArrayAt decodes the dynamic string array whose offset lives in
// head slot i. Each element is itself offset-addressed relative to the
// array body.
func (d *Decoder) StringArrayAt(i int) ([]string, error) {
	base, length, err := d.dynHeader(i)
	if err != nil {
		return nil, err
	}
	body := base + WordSize // element offsets are relative to here
	out := make([]string, 0, length)
	for j := 0; j < length; j++ {
		elemOff, err := d.uint64AtOffset(body + j*WordSize)
		if err != nil {
			return nil, err
		}
		strOff := body + int(elemOff)
		strLen, err := d.uint64AtOffset(strOff)
		if err != nil {
			return nil, err
		}
		start := strOff + WordSize
		end := start + int(strLen)
		if end > len(d.data) {
			return nil, fmt.Errorf("string element %d overruns data", j)
		}
		out = append(out, string(d.data[start:end]))
	}
	return out, nil
}

// dynHeader resolves a head slot offset into (tail byte offset, length).
func (d *Decoder) dynHeader(i int) (int, int, error) {
	off, err := d.Uint64At(i)
	if err != nil {
		return 0, 0, err
	}
	base := int(off)
	length, err := d.uint64AtOffset(base)
	if err != nil {
		return 0, 0, err
	}
	return base, int(length), nil
}

func (d *Decoder) uint64AtOffset(byteOff int) (uint64, error) {
	if byteOff+WordSize > len(d.data) {
		return 0, fmt.Errorf("offset %d out of range", byteOff)
	}
	n := new(big.Int).SetBytes(d.data[byteOff : byteOff+WordSize])
	if !n.IsUint64() {
		return 0, fmt.Errorf("value at %d does not fit uint64", byteOff)
	}
	return n.Uint64(), nil
}

// DecodeHex parses 0x-prefixed hex data.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return raw, nil
}

// ParseQuantity parses an eth hex quantity like "0x1a" into a uint64.
func ParseQuantity(s string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(s, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex quantity: %s", s)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("quantity overflows uint64: %s", s)
	}
	return n.Uint64(), nil
}
