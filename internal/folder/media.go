package folder

import (
	"path/filepath"
	"strings"
)

// mediaTypes is the media allow-list keyed by lowercase extension.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".webm": "video/webm",
	".mp4":  "video/mp4",
}

const metadataExt = ".json"

// MetadataContentType is the content type used when uploading metadata documents.
const MetadataContentType = "application/json"

// Class describes how the loader treats a directory entry.
type Class int

const (
	ClassIgnored Class = iota
	ClassMedia
	ClassMetadata
)

// Classify returns the class of a file name. Hidden names are always ignored.
func Classify(name string) Class {
	if IsHidden(name) {
		return ClassIgnored
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == metadataExt {
		return ClassMetadata
	}
	if _, ok := mediaTypes[ext]; ok {
		return ClassMedia
	}
	return ClassIgnored
}

// ContentTypeFor returns the content type registered for a media file name.
func ContentTypeFor(name string) (string, bool) {
	ct, ok := mediaTypes[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}

// IsHidden reports whether a file or folder name is hidden (dot-prefixed).
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
