package badge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
)

func TestPayload_RoundTrip(t *testing.T) {
	id, err := ParsePayload(Payload(1004))
	require.NoError(t, err)
	assert.Equal(t, 1004, id)

	id, err = ParsePayload("  workforce:staff:9000\n")
	require.NoError(t, err)
	assert.Equal(t, 9000, id)
}

func TestParsePayload_Rejects(t *testing.T) {
	for _, in := range []string{"", "1004", "workforce:staff:", "workforce:staff:abc", "workforce:staff:-3"} {
		_, err := ParsePayload(in)
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err), "input %q", in)
	}
}

func TestQRCode(t *testing.T) {
	png, err := QRCode(1004, 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	err := PDF(&buf, []entity.Staff{
		{ID: 1004, Role: "STAFF", FullName: "Aiko Tanaka"},
		{ID: 8000, Role: "MANAGER", FullName: "Ken Sato"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	err = PDF(&buf, nil)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}
