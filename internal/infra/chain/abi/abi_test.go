package abi

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"
)

func word(v uint64) []byte {
	w := make([]byte, WordSize)
	binary.BigEndian.PutUint64(w[WordSize-8:], v)
	return w
}

func paddedString(s string) []byte {
	out := word(uint64(len(s)))
	b := []byte(s)
	if rem := len(b) % WordSize; rem != 0 {
		b = append(b, make([]byte, WordSize-rem)...)
	}
	return append(out, b...)
}

func TestSelector_KnownVector(t *testing.T) {
	// Canonical ERC20 transfer selector.
	got := hex.EncodeToString(Selector("transfer(address,uint256)"))
	if got != "a9059cbb" {
		t.Errorf("selector = %s, want a9059cbb", got)
	}
}

func TestPack_StaticAndDynamic(t *testing.T) {
	var handle [32]byte
	handle[0] = 0xaa
	handle[31] = 0xbb
	proof := []byte{0x01, 0x02, 0x03}

	out := Pack("submitCheck(uint8,bytes32,bytes)",
		Uint64Arg(2), Bytes32Arg(handle), BytesArg(proof))

	sel := Selector("submitCheck(uint8,bytes32,bytes)")
	if !bytes.Equal(out[:4], sel) {
		t.Fatalf("selector mismatch")
	}

	body := out[4:]
	if !bytes.Equal(body[0:32], word(2)) {
		t.Error("uint8 arg not encoded as word 2")
	}
	if !bytes.Equal(body[32:64], handle[:]) {
		t.Error("bytes32 arg mangled")
	}
	// Dynamic offset points past the 3 head words.
	if !bytes.Equal(body[64:96], word(96)) {
		t.Errorf("dynamic offset = %x, want 96", body[64:96])
	}
	if !bytes.Equal(body[96:128], word(3)) {
		t.Error("bytes length not 3")
	}
	if !bytes.Equal(body[128:131], proof) {
		t.Error("proof payload mangled")
	}
	if len(body) != 160 {
		t.Errorf("body length %d, want 160 (5 words)", len(body))
	}
}

func TestDecoder_StaticWord(t *testing.T) {
	var buf []byte
	buf = append(buf, word(7)...)

	d, err := NewDecoder("0x" + hex.EncodeToString(buf))
	if err != nil {
		t.Fatal(err)
	}
	v, err := d.Uint64At(0)
	if err != nil || v != 7 {
		t.Errorf("Uint64At(0) = %d, %v", v, err)
	}
	if _, err := d.WordAt(1); err == nil {
		t.Error("expected out of range error")
	}
}

func TestDecoder_UintArray(t *testing.T) {
	// Single return value uint32[]: head offset, then len + elements.
	var buf []byte
	buf = append(buf, word(32)...) // offset
	buf = append(buf, word(3)...)  // length
	buf = append(buf, word(30)...)
	buf = append(buf, word(220)...)
	buf = append(buf, word(70)...)

	d, err := NewDecoder("0x" + hex.EncodeToString(buf))
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.UintArrayAt(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{30, 220, 70}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDecoder_StringArray(t *testing.T) {
	// string[] = ["bpm", "mmHg"], single return value.
	units := []string{"bpm", "mmHg"}

	var tail []byte
	var offsets []uint64
	// Element offsets are relative to the array body (after length).
	bodyLen := uint64(len(units) * WordSize)
	for _, u := range units {
		offsets = append(offsets, bodyLen+uint64(len(tail)))
		tail = append(tail, paddedString(u)...)
	}

	var buf []byte
	buf = append(buf, word(32)...)               // head offset to array
	buf = append(buf, word(uint64(len(units)))...) // array length
	for _, off := range offsets {
		buf = append(buf, word(off)...)
	}
	buf = append(buf, tail...)

	d, err := NewDecoder("0x" + hex.EncodeToString(buf))
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.StringArrayAt(0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range units {
		if got[i] != units[i] {
			t.Errorf("element %d = %q, want %q", i, got[i], units[i])
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0x1", 1, true},
		{"0x10", 16, true},
		{"0x0", 0, true},
		{"zz", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseQuantity(%q) = %d, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseQuantity(%q): expected error", tc.in)
		}
	}
}

func TestDecodeHex(t *testing.T) {
	if b, err := DecodeHex("0x"); err != nil || b != nil {
		t.Errorf("empty hex: %v %v", b, err)
	}
	if _, err := DecodeHex("0xgg"); err == nil {
		t.Error("expected error for invalid hex")
	}
}
