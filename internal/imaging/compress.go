package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// DataURI encodes compressed screenshot bytes as the data-URI string the
// submission wire format carries.
func DataURI(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// Options bound the screenshot compression pipeline.
type Options struct {
	// MaxBytes is the size ceiling; images at or under it pass through.
	MaxBytes int
	// MaxWidth and MaxHeight bound the downscale box.
	MaxWidth  int
	MaxHeight int
	// StartQuality, QualityStep and MinQuality drive the re-encode loop.
	StartQuality int
	QualityStep  int
	MinQuality   int
}

// DefaultOptions match the product's upload policy: 200 KB ceiling,
// 1200x1200 bounding box, quality stepped down from 85 to a floor of 40.
func DefaultOptions() Options {
	return Options{
		MaxBytes:     200 << 10,
		MaxWidth:     1200,
		MaxHeight:    1200,
		StartQuality: 85,
		QualityStep:  5,
		MinQuality:   40,
	}
}

// Compress shrinks a screenshot under the size ceiling. Oversized images
// are downscaled into the bounding box and re-encoded as JPEG at
// decreasing quality. If the quality floor is reached without meeting the
// ceiling, the best-effort result is returned rather than an error; an
// upload attempt always gets something to send.
func Compress(data []byte, opts Options) ([]byte, error) {
	if len(data) <= opts.MaxBytes {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	img = downscale(img, opts.MaxWidth, opts.MaxHeight)

	var best []byte
	for q := opts.StartQuality; q >= opts.MinQuality; q -= opts.QualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode screenshot: %w", err)
		}
		out := buf.Bytes()
		if best == nil || len(out) < len(best) {
			best = out
		}
		if len(out) <= opts.MaxBytes {
			return out, nil
		}
	}
	return best, nil
}

// downscale fits the image into the box, preserving aspect ratio. Images
// already inside the box are returned unchanged.
func downscale(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
