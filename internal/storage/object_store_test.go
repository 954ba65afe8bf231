package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectStoreValidation(t *testing.T) {
	_, err := NewObjectStore(context.Background(), Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewObjectStore(context.Background(), Config{Endpoint: "r2.example.com"})
	assert.Error(t, err)

	s, err := NewObjectStore(context.Background(), Config{
		Endpoint:        "r2.example.com",
		Bucket:          " reports ",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", s.bucket)
	assert.Equal(t, "https://cdn.example.com/reports/sold-count/a.pdf", s.PublicURL("/reports/sold-count/a.pdf"))
}

func TestPrivateBucketHasNoPublicURL(t *testing.T) {
	s := &ObjectStore{bucket: "b"}
	assert.Equal(t, "", s.PublicURL("x.json"))
}

func TestParseStorageClass(t *testing.T) {
	assert.Nil(t, parseStorageClass(" "))
	sc := parseStorageClass("standard")
	require.NotNil(t, sc)
	assert.Equal(t, "STANDARD", string(*sc))
}
