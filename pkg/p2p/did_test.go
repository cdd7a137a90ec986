package p2p

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DID
	}{
		{
			name: "typical station DID",
			in:   "T8010-00000123-ABCDE",
			want: DID{Prefix: "T8010", Serial: 123, Suffix: "ABCDE"},
		},
		{
			name: "short components",
			in:   "AB-00001-CD",
			want: DID{Prefix: "AB", Serial: 1, Suffix: "CD"},
		},
		{
			name: "maximum serial",
			in:   "AB-1099511627775-CD",
			want: DID{Prefix: "AB", Serial: 1<<40 - 1, Suffix: "CD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDIDInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "missing suffix", in: "AB-123"},
		{name: "extra component", in: "AB-1-CD-EF"},
		{name: "non numeric serial", in: "AB-XYZ-CD"},
		{name: "negative serial", in: "AB--5-CD"},
		{name: "serial beyond 5 bytes", in: "AB-1099511627776-CD"},
		{name: "empty prefix", in: "-1-CD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDID(tt.in)
			assert.True(t, errors.Is(err, ErrInvalidDID), "err = %v", err)
		})
	}
}

func TestDIDAppendWire(t *testing.T) {
	did := DID{Prefix: "AB", Serial: 0x0102030405, Suffix: "CD"}
	got := did.AppendWire(nil)

	want := []byte{'A', 'B', 0x01, 0x02, 0x03, 0x04, 0x05, 'C', 'D'}
	if !bytes.Equal(got, want) {
		t.Errorf("wire = %x, want %x", got, want)
	}
}

func TestDIDString(t *testing.T) {
	did, err := ParseDID("T8010-00000042-XYZZY")
	require.NoError(t, err)
	assert.Equal(t, "T8010-42-XYZZY", did.String())
}
