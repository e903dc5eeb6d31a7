package ingest

import (
	"strings"

	"github.com/tyreamer/cullmate-core/ingest/metadata"
)

// cameraInfo mirrors metadata.CameraInfo plus a derived CAMERA_LABEL,
// kept separate from the metadata package so template.go doesn't need
// to import it for a single field.
type cameraInfo struct {
	Model       string
	SerialShort string
}

// Label is the CAMERA_LABEL token value: "<Model> <SerialShort>" with
// whichever side is empty dropped.
func (c cameraInfo) Label() string {
	parts := make([]string, 0, 2)
	if c.Model != "" {
		parts = append(parts, c.Model)
	}
	if c.SerialShort != "" {
		parts = append(parts, c.SerialShort)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// extractCameraInfo adapts metadata.ExtractCameraInfo for one scanned
// file. EXIF absence is not an error here — it just leaves every
// camera token empty for that file.
func extractCameraInfo(absPath string) cameraInfo {
	info, err := metadata.ExtractCameraInfo(absPath)
	if err != nil {
		return cameraInfo{}
	}
	short := info.SerialNumber
	if len(short) > 4 {
		short = short[len(short)-4:]
	}
	return cameraInfo{
		Model:       info.Model,
		SerialShort: short,
	}
}
