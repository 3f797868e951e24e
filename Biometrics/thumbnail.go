package Biometrics

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const thumbnailSize = 160

// Thumbnail decodes a captured frame, fixes its orientation and returns a
// small JPEG preview.
func Thumbnail(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
