package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/testutil"
)

func TestEncodeDecode(t *testing.T) {
	ref, err := Encode(testutil.PNGHeader, 1024, ImageTypes)
	require.NoError(t, err)
	assert.Regexp(t, `^data:image/png;base64,`, ref)

	mime, data, err := Decode(ref)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, testutil.PNGHeader, data)
	assert.Equal(t, len(testutil.PNGHeader), Size(ref))
	assert.Zero(t, Size("not a data url"))
}

func TestEncode_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int64
		want error
	}{
		{"empty", nil, 10, errors.ErrEmptyValue},
		{"too large", testutil.PNGHeader, 4, errors.ErrEvidenceTooLarge},
		{"text is not an image", []byte("hello world"), 100, errors.ErrUnsupportedEvidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.data, tt.max, ImageTypes)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncode_PDFOnlyAsMedia(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	_, err := Encode(pdf, 100, ImageTypes)
	require.ErrorIs(t, err, errors.ErrUnsupportedEvidence)

	ref, err := Encode(pdf, 100, MediaTypes)
	require.NoError(t, err)
	assert.Regexp(t, `^data:application/pdf;base64,`, ref)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, testutil.PNGHeader, 0o600))

	ref, err := ReadFile(path, 1024, ImageTypes)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	_, err = ReadFile(path, 8, ImageTypes)
	require.ErrorIs(t, err, errors.ErrEvidenceTooLarge)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.png"), 1024, ImageTypes)
	require.Error(t, err)
}

func TestDecode_Invalid(t *testing.T) {
	for _, ref := range []string{"https://x/y.png", "data:image/png;base64", "data:image/png,raw", "data:image/png;base64,@@@"} {
		_, _, err := Decode(ref)
		require.ErrorIs(t, err, errors.ErrUnsupportedEvidence, ref)
	}
}
