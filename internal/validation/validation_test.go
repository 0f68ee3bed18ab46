package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadCode(t *testing.T, err error) string {
	t.Helper()
	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr), "expected *UploadError, got %v", err)
	return uploadErr.Code
}

func TestUploadPolicyCheck(t *testing.T) {
	p := DefaultUploadPolicy()
	img := func(name string, size int64) FileInfo {
		return FileInfo{Filename: name, MediaType: "image/jpeg", Size: size}
	}

	t.Run("accepts within limits", func(t *testing.T) {
		assert.NoError(t, p.Check([]FileInfo{img("a.jpg", 2<<20), {Filename: "v.mp4", MediaType: "video/mp4", Size: 9 << 20}}))
		assert.NoError(t, p.Check(nil))
	})

	t.Run("count is checked first", func(t *testing.T) {
		files := make([]FileInfo, 6)
		for i := range files {
			files[i] = FileInfo{Filename: "x.pdf", MediaType: "application/pdf", Size: 1 << 30}
		}
		assert.Equal(t, CodeFileCount, uploadCode(t, p.Check(files)))
	})

	t.Run("per file size", func(t *testing.T) {
		err := p.Check([]FileInfo{img("big.jpg", 10<<20+1)})
		assert.Equal(t, CodeFileSize, uploadCode(t, err))
		assert.Contains(t, err.Error(), "big.jpg")
	})

	t.Run("exactly the ceiling is allowed", func(t *testing.T) {
		assert.NoError(t, p.Check([]FileInfo{img("edge.jpg", 10<<20)}))
	})

	t.Run("aggregate size", func(t *testing.T) {
		tight := UploadPolicy{MaxFileSize: 10 << 20, MaxFiles: 5, MaxTotalSize: 15 << 20}
		err := tight.Check([]FileInfo{img("a.jpg", 8<<20), img("b.jpg", 8<<20)})
		assert.Equal(t, CodeTotalSize, uploadCode(t, err))
	})

	t.Run("media type", func(t *testing.T) {
		err := p.Check([]FileInfo{{Filename: "doc.pdf", MediaType: "application/pdf", Size: 10}})
		assert.Equal(t, CodeMediaType, uploadCode(t, err))
		assert.Contains(t, err.Error(), "application/pdf")
		assert.Contains(t, err.Error(), "doc.pdf")
	})
}

func TestCheckMediaType(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png", "image/webp", "video/mp4", "audio/mpeg", "audio/wav", "audio/webm;codecs=opus"}
	for _, mt := range allowed {
		assert.NoError(t, CheckMediaType("f", mt), mt)
	}

	rejected := []string{"image/svg+xml", "video/x-msvideo", "text/plain", ""}
	for _, mt := range rejected {
		assert.Error(t, CheckMediaType("f", mt), mt)
	}
}

func TestDetectMediaType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	assert.Equal(t, "image/jpeg", DetectMediaType("image/jpeg", png), "declared type wins")
	assert.Equal(t, "image/png", DetectMediaType("application/octet-stream", png))
	assert.Equal(t, "image/png", DetectMediaType("", png))
	assert.Equal(t, "", DetectMediaType("", nil))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", Extension("Photo.JPG"))
	assert.Equal(t, ".webm", Extension("dir/audio-1.webm"))
	assert.Equal(t, "", Extension("noext"))
}

func TestValidateRequired(t *testing.T) {
	assert.Empty(t, ValidateRequired("KDA 001Z", "brake noise"))

	errs := ValidateRequired(" ", "")
	assert.Equal(t, []string{"registrationNumber", "problemDescription"}, errs.Fields())

	errs = ValidateRequired("KDA", "")
	assert.Equal(t, []string{"problemDescription"}, errs.Fields())
}

func TestFieldRules(t *testing.T) {
	assert.Error(t, ValidateRegistration("ab"))
	assert.NoError(t, ValidateRegistration("abc"))

	assert.NoError(t, ValidatePhone(""))
	assert.Error(t, ValidatePhone("12345"))
	assert.NoError(t, ValidatePhone("0712345678"))

	assert.Equal(t, "KDA 001Z", NormalizeRegistration("  kda 001z "))
}
