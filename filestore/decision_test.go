package filestore_test

import (
	"testing"

	"github.com/bignyap/s3filestore/filestore"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		hasPayload bool
		clear      bool
		old        string
		want       filestore.DecisionKind
	}{
		{"new payload", true, false, "", filestore.NewFile},
		{"new payload wins over clear", true, true, "old.csv", filestore.NewFile},
		{"clear stored file", false, true, "old.csv", filestore.ClearOnly},
		{"clear link is not a clear", false, true, "http://example.com/a.csv", filestore.NoOp},
		{"nothing to clear", false, true, "", filestore.NoOp},
		{"keep existing", false, false, "old.csv", filestore.KeepExisting},
		{"nothing at all", false, false, "", filestore.NoOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filestore.Decide(tt.hasPayload, tt.clear, tt.old))
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, filestore.IsURL("http://example.com/x"))
	assert.True(t, filestore.IsURL("s3://bucket/key"))
	assert.False(t, filestore.IsURL("httpdata.csv"))
	assert.False(t, filestore.IsURL("data.csv"))
}
