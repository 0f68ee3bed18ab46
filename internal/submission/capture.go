package submission

import (
	"bytes"
	"fmt"
	"time"

	"github.com/autopec/garage/internal/model"
)

// capture naming and container per kind, matching what a camera or recorder emits
var captureFormats = map[model.MediaKind]struct {
	prefix, ext, mediaType, label string
}{
	model.MediaImage: {"photo", ".jpg", "image/jpeg", "Photo"},
	model.MediaVideo: {"video", ".webm", "video/webm", "Recording"},
	model.MediaAudio: {"audio", ".webm", "audio/webm", "Recording"},
}

// Capture turns recorded bytes into a named File, for example
// photo-1718000000000.jpg. at is the capture time.
func Capture(kind model.MediaKind, data []byte, at time.Time) (File, error) {
	format, ok := captureFormats[kind]
	if !ok {
		return File{}, fmt.Errorf("cannot capture media of kind %q", kind)
	}

	return File{
		Name:      fmt.Sprintf("%s-%d%s", format.prefix, at.UnixMilli(), format.ext),
		MediaType: format.mediaType,
		Size:      int64(len(data)),
		Content:   bytes.NewReader(data),
	}, nil
}

// AddCapture captures data and attaches it, refusing recordings over the
// per-file ceiling or beyond the file limit.
func (f *Form) AddCapture(kind model.MediaKind, data []byte, at time.Time) (File, error) {
	file, err := Capture(kind, data, at)
	if err != nil {
		return File{}, err
	}

	if f.policy.MaxFileSize > 0 && file.Size > f.policy.MaxFileSize {
		return File{}, fmt.Errorf("%s exceeds %s limit (%s)",
			captureFormats[kind].label, megabytes(f.policy.MaxFileSize), megabytes(file.Size))
	}
	if f.policy.MaxFiles > 0 && len(f.files) >= f.policy.MaxFiles {
		return File{}, fmt.Errorf("Maximum %d files allowed", f.policy.MaxFiles)
	}

	f.files = append(f.files, file)
	return file, nil
}

// megabytes formats n the way the form shows sizes: 10MB, 12.40MB.
func megabytes(n int64) string {
	mb := float64(n) / (1 << 20)
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%.2fMB", mb)
}
