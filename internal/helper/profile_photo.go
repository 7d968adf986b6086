// internal/helper/profile_photo.go
package helper

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "github.com/mat/besticon/ico"
)

const (
	MaxPhotoDimension   = 1024
	MinPhotoDimension   = 100
	TargetFileSizeKB    = 500
	TargetFileSizeBytes = TargetFileSizeKB * 1024
	MaxDecompressedMB   = 50
	MaxDecompressedSize = MaxDecompressedMB * 1024 * 1024
)

// ProcessProfilePhoto validates, resizes and compresses an uploaded session
// display picture to WebP.
func ProcessProfilePhoto(file multipart.File, fileHeader *multipart.FileHeader) ([]byte, error) {
	img, err := decodePhoto(file, fileHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Guard against decompression bombs (RGBA = 4 bytes per pixel)
	bounds := img.Bounds()
	if bounds.Dx()*bounds.Dy()*4 > MaxDecompressedSize {
		return nil, fmt.Errorf("image too large when decompressed")
	}

	if bounds.Dx() < MinPhotoDimension || bounds.Dy() < MinPhotoDimension {
		return nil, fmt.Errorf("image too small: minimum %dx%d pixels", MinPhotoDimension, MinPhotoDimension)
	}

	if bounds.Dx() > MaxPhotoDimension || bounds.Dy() > MaxPhotoDimension {
		img = imaging.Fit(img, MaxPhotoDimension, MaxPhotoDimension, imaging.Lanczos)
	}

	return encodeWebPWithSizeLimit(img)
}

// encodeWebPWithSizeLimit converts to WebP with iterative quality reduction
// until the size target is met.
func encodeWebPWithSizeLimit(img image.Image) ([]byte, error) {
	qualities := []float32{85, 75, 60, 50, 40}

	for _, quality := range qualities {
		var buf bytes.Buffer

		if err := webp.Encode(&buf, img, &webp.Options{
			Lossless: false,
			Quality:  quality,
		}); err != nil {
			return nil, fmt.Errorf("failed to encode WebP: %w", err)
		}

		if buf.Len() <= TargetFileSizeBytes {
			return buf.Bytes(), nil
		}
	}

	return nil, fmt.Errorf("unable to compress image to %dKB", TargetFileSizeKB)
}

func decodePhoto(file multipart.File, fileHeader *multipart.FileHeader) (image.Image, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")

	switch contentType {
	case "image/jpeg":
		return jpeg.Decode(file)
	case "image/png":
		return png.Decode(file)
	case "image/webp":
		return webp.Decode(file)
	default:
		// Generic decode; the ICO driver is registered via blank import
		img, _, err := image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("unsupported image format or corrupted file")
		}
		return img, nil
	}
}
