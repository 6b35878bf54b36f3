package docstore

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))

	_, err = New(Config{Endpoint: "minio:9000", Bucket: "staffing"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))

	s, err := New(Config{
		Endpoint:  "minio:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "staffing",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "extracted/sow-123.txt", extractedKey("sow-123"))
	assert.Equal(t, "extracted/sow-123.txt", extractedKey(" /sow-123 "))
	assert.Equal(t, "plans/plan-9.json", planKey("plan-9"))
}
