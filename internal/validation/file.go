package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/autopec/garage/internal/model"
)

// Upload error codes, reported to clients alongside the message.
const (
	CodeFileCount = "LIMIT_FILE_COUNT"
	CodeFileSize  = "LIMIT_FILE_SIZE"
	CodeTotalSize = "LIMIT_TOTAL_SIZE"
	CodeMediaType = "UNSUPPORTED_MEDIA_TYPE"
)

const (
	DefaultMaxFileSize  int64 = 10 << 20
	DefaultMaxFiles           = 5
	DefaultMaxTotalSize int64 = 50 << 20
)

// AllowedMediaTypes whitelists declared media types per kind. Anything that
// classifies as model.MediaOther is never accepted.
var AllowedMediaTypes = map[model.MediaKind]map[string]bool{
	model.MediaImage: {
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	},
	model.MediaVideo: {
		"video/mp4":       true,
		"video/quicktime": true,
		"video/webm":      true,
	},
	model.MediaAudio: {
		"audio/mpeg":  true,
		"audio/mp3":   true,
		"audio/wav":   true,
		"audio/x-wav": true,
		"audio/wave":  true,
		"audio/webm":  true,
		"audio/mp4":   true,
		"audio/x-m4a": true,
	},
}

// UploadPolicy holds the ceilings applied to a single submission.
type UploadPolicy struct {
	MaxFileSize  int64
	MaxFiles     int
	MaxTotalSize int64
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxFileSize:  DefaultMaxFileSize,
		MaxFiles:     DefaultMaxFiles,
		MaxTotalSize: DefaultMaxTotalSize,
	}
}

// FileInfo is what the policy needs to know about an incoming file.
type FileInfo struct {
	Filename  string
	MediaType string
	Size      int64
}

// UploadError is a policy violation with a machine readable code.
type UploadError struct {
	Code     string
	Filename string
	Message  string
}

func (e *UploadError) Error() string {
	return e.Message
}

// CheckCount rejects submissions carrying more files than allowed.
func (p UploadPolicy) CheckCount(n int) error {
	if p.MaxFiles > 0 && n > p.MaxFiles {
		return &UploadError{
			Code:    CodeFileCount,
			Message: fmt.Sprintf("too many files: maximum %d files allowed per request, got %d", p.MaxFiles, n),
		}
	}
	return nil
}

// CheckFile validates type then size of one file.
func (p UploadPolicy) CheckFile(f FileInfo) error {
	err := CheckMediaType(f.Filename, f.MediaType)
	if err != nil {
		return err
	}

	if p.MaxFileSize > 0 && f.Size > p.MaxFileSize {
		return &UploadError{
			Code:     CodeFileSize,
			Filename: f.Filename,
			Message: fmt.Sprintf("file too large: %s is %s, maximum size is %s",
				f.Filename, humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(p.MaxFileSize))),
		}
	}
	return nil
}

// FileTooLarge reports a streamed file that was cut off once it passed max
// bytes, before its full size was known.
func FileTooLarge(filename string, max int64) *UploadError {
	return &UploadError{
		Code:     CodeFileSize,
		Filename: filename,
		Message: fmt.Sprintf("file too large: %s exceeds the maximum size of %s",
			filename, humanize.IBytes(uint64(max))),
	}
}

// CheckTotal validates the aggregate size of every file in the submission.
func (p UploadPolicy) CheckTotal(files []FileInfo) error {
	if p.MaxTotalSize <= 0 {
		return nil
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > p.MaxTotalSize {
		return &UploadError{
			Code: CodeTotalSize,
			Message: fmt.Sprintf("upload too large: files total %s, maximum is %s",
				humanize.IBytes(uint64(total)), humanize.IBytes(uint64(p.MaxTotalSize))),
		}
	}
	return nil
}

// Check runs count, per-file and aggregate checks in that order.
func (p UploadPolicy) Check(files []FileInfo) error {
	err := p.CheckCount(len(files))
	if err != nil {
		return err
	}
	for _, f := range files {
		err = p.CheckFile(f)
		if err != nil {
			return err
		}
	}
	return p.CheckTotal(files)
}

// CheckMediaType rejects media types outside the whitelist, naming the offender.
func CheckMediaType(filename, declared string) error {
	mt := model.BaseMediaType(declared)
	kind := model.Classify(mt)
	allowed, ok := AllowedMediaTypes[kind]
	if !ok || !allowed[mt] {
		if mt == "" {
			mt = "unknown"
		}
		return &UploadError{
			Code:     CodeMediaType,
			Filename: filename,
			Message:  fmt.Sprintf("unsupported media type %q for %s: only images, videos, and audio files are allowed", mt, filename),
		}
	}
	return nil
}

// DetectMediaType returns the declared type unless it is missing or generic,
// in which case the type is sniffed from the leading bytes of the file.
func DetectMediaType(declared string, head []byte) string {
	mt := model.BaseMediaType(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if len(head) == 0 {
		return mt
	}
	return model.BaseMediaType(mimetype.Detect(head).String())
}

// Extension returns the lowercased extension of a client supplied filename.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
