package common

import (
	"bytes"
	"testing"
)

func TestHexRoundTrip(t *testing.T) {
	data := []byte{0x04, 0xab, 0x00, 0xff}

	s := EncodeToString(data)
	if s != "0X04AB00FF" {
		t.Fatalf("EncodeToString = %s, want 0X04AB00FF", s)
	}

	res, err := DecodeFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res, data) {
		t.Fatalf("DecodeFromString = %x, want %x", res, data)
	}

	if _, err := DecodeFromString("0x04ab00ff"); err != nil {
		t.Fatalf("lowercase prefix should decode: %v", err)
	}
}

func TestDecodeFromStringMalformed(t *testing.T) {
	for _, s := range []string{"", "0", "04AB", "0XZZ"} {
		if _, err := DecodeFromString(s); err == nil {
			t.Fatalf("DecodeFromString(%q) should fail", s)
		}
	}
}

func TestStoreErr(t *testing.T) {
	err := NewStoreErr("Block", KeyNotFound, "3")
	if !IsStore(err, KeyNotFound) {
		t.Fatal("expected KeyNotFound")
	}
	if IsStore(err, Empty) {
		t.Fatal("did not expect Empty")
	}
	if err.Error() != "Block, 3, Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
