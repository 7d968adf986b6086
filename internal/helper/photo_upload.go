// internal/helper/photo_upload.go
package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	MaxPhotoSizeMB    = 5
	MaxPhotoSizeBytes = MaxPhotoSizeMB * 1024 * 1024
	UploadDir         = "./uploads"
	PhotoDir          = "./uploads/photos"
)

// SaveProfilePhoto writes processed WebP bytes to the photo directory and
// returns the public URL path.
func SaveProfilePhoto(sessionID string, data []byte) (string, error) {
	if err := os.MkdirAll(PhotoDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%d.webp", sessionID, time.Now().Unix())
	fullPath := filepath.Join(PhotoDir, filename)

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	return "/uploads/photos/" + filename, nil
}
