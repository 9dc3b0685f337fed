package notify

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarcodePNG_EncodesTrackingNumber(t *testing.T) {
	data, err := barcodePNG("TN55123456")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "output must be a decodable PNG")
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestBarcodePNG_RejectsEmptyInput(t *testing.T) {
	_, err := barcodePNG("")
	assert.Error(t, err)
}
