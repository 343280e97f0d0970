package wireformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackPtrLen(t *testing.T) {
	packed := PackPtrLen(0x10, 0x20)
	assert.Equal(t, uint64(0x10)<<32|0x20, packed)

	ptr, length := UnpackPtrLen(packed)
	assert.Equal(t, uint32(0x10), ptr)
	assert.Equal(t, uint32(0x20), length)
}

func FuzzPackPtrLen(f *testing.F) {
	f.Add(uint32(0), uint32(0))
	f.Add(uint32(0xFFFFFFFF), uint32(0xFFFFFFFF))
	f.Add(uint32(0x80000000), uint32(0x80000000))
	f.Add(uint32(1), uint32(1))

	f.Fuzz(func(t *testing.T, ptr, length uint32) {
		gotPtr, gotLen := UnpackPtrLen(PackPtrLen(ptr, length))
		assert.Equal(t, ptr, gotPtr)
		assert.Equal(t, length, gotLen)
	})
}

func TestErrorDetail_Error(t *testing.T) {
	tests := []struct {
		name   string
		detail *ErrorDetail
		want   string
	}{
		{name: "nil", detail: nil, want: ""},
		{
			name:   "internal has no prefix",
			detail: &ErrorDetail{Type: ErrorTypeInternal, Message: "oops"},
			want:   "oops",
		},
		{
			name:   "config id precedes message",
			detail: &ErrorDetail{Type: ErrorTypeInit, Code: "missing-config", ConfigID: "bool_id", Message: "value not provided"},
			want:   "init: bool_id: value not provided [missing-config]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.Error())
		})
	}
}
