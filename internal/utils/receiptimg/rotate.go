// Package receiptimg normalizes receipt photos before they are attached to
// vendor invoices. Phone cameras store the physical orientation in EXIF
// rather than rotating the pixels, and most accounting viewers ignore EXIF.
package receiptimg

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// UprightJPEG re-encodes a JPEG with its EXIF orientation applied. Images
// that are already upright, or carry no orientation tag, are returned
// unchanged without re-encoding.
func UprightJPEG(data []byte) ([]byte, error) {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return data, nil
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation == 1 {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
