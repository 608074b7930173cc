package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    ByteRange
		wantErr bool
	}{
		{in: "bytes=0-", want: ByteRange{Start: 0, End: -1}},
		{in: "bytes=32768-", want: ByteRange{Start: 32768, End: -1}},
		{in: "bytes=32800768-", want: ByteRange{Start: 32800768, End: -1}},
		{in: "bytes=0-49", want: ByteRange{Start: 0, End: 49}},
		{in: "bytes= 10 - 20 ", want: ByteRange{Start: 10, End: 20}},
		{in: "bytes=-500", want: ByteRange{End: -1, SuffixLength: 500}},
		{in: "bytes=5-5", want: ByteRange{Start: 5, End: 5}},
		{in: "Bytes=0-", want: ByteRange{Start: 0, End: -1}},
		{in: "BYTES=10-20", want: ByteRange{Start: 10, End: 20}},
		{in: "", wantErr: true},
		{in: "items=0-", wantErr: true},
		{in: "bytes=10-5", wantErr: true},
		{in: "bytes=abc-", wantErr: true},
		{in: "bytes=-0", wantErr: true},
		{in: "bytes=-", wantErr: true},
		{in: "bytes=5", wantErr: true},
		{in: "bytes=0-1,5-9", wantErr: true},
		{in: "bytes=+5-+9", wantErr: true},
		{in: "bytes=5-+9", wantErr: true},
		{in: "bytes=-+5", wantErr: true},
		{in: "bytes=-5-", wantErr: true},
		{in: "bytes=0x10-", wantErr: true},
		{in: "byte=0-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestByteRange_String(t *testing.T) {
	for _, in := range []string{"bytes=0-", "bytes=32768-", "bytes=0-49", "bytes=-500"} {
		r, err := ParseRange(in)
		if assert.NoError(t, err) {
			assert.Equal(t, in, r.String())
		}
	}
}
