package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		header string
		want   byteRange
		ok     bool
	}{
		{"bytes=50-", byteRange{start: 50, end: -1}, true},
		{"bytes=0-0", byteRange{start: 0, end: 0}, true},
		{"bytes=10-19", byteRange{start: 10, end: 19}, true},
		{" bytes=5 - 9 ", byteRange{start: 5, end: 9}, true},
		{"bytes=-20", byteRange{}, false},
		{"bytes=0-1,5-6", byteRange{}, false},
		{"bytes=9-5", byteRange{}, false},
		{"items=0-5", byteRange{}, false},
		{"bytes=abc-", byteRange{}, false},
		{"", byteRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := parseRange(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("data.json", "application/octet-stream"))
	assert.Equal(t, "application/json", contentType("data.json", ""))
	assert.Equal(t, "text/csv", contentType("data.json", "text/csv"))
	assert.Equal(t, "image/x-custom", contentType("blob", "image/x-custom"))
	assert.Equal(t, "application/octet-stream", contentType("blob", ""))
}

func TestLocalRoute(t *testing.T) {
	assert.Equal(t, "/objects/resource/abc1234/fs/my%20file.csv", localRoute("abc1234", "my file.csv"))
}
