package model

import (
	"mime"
	"strings"
)

// MediaKind is the attachment category derived from a declared media type.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaOther MediaKind = "other"
)

// ResourceKind is the object store's own bucket for an object. Audio has no
// first-class kind and always travels as video.
type ResourceKind string

const (
	ResourceImage ResourceKind = "image"
	ResourceVideo ResourceKind = "video"
	ResourceRaw   ResourceKind = "raw"
)

// BaseMediaType strips parameters and lowercases a declared media type.
// "audio/webm;codecs=opus" becomes "audio/webm".
func BaseMediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		if i := strings.IndexByte(declared, ';'); i >= 0 {
			declared = declared[:i]
		}
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mt
}

// Classify maps a declared media type onto its MediaKind by prefix.
func Classify(declared string) MediaKind {
	mt := BaseMediaType(declared)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return MediaImage
	case strings.HasPrefix(mt, "video/"):
		return MediaVideo
	case strings.HasPrefix(mt, "audio/"):
		return MediaAudio
	default:
		return MediaOther
	}
}

func (k MediaKind) Resource() ResourceKind {
	switch k {
	case MediaImage:
		return ResourceImage
	case MediaVideo, MediaAudio:
		return ResourceVideo
	default:
		return ResourceRaw
	}
}

// Folder is the storage sub-folder for objects of this kind.
func (k MediaKind) Folder() string {
	switch k {
	case MediaImage:
		return "images"
	case MediaVideo:
		return "videos"
	case MediaAudio:
		return "audio"
	default:
		return "other"
	}
}
