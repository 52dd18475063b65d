package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// Resource types reported by the media host for an uploaded file.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// ResourceType classifies a MIME type the same way the media host does.
func ResourceType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch {
	case strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml":
		return ResourceImage
	case strings.HasPrefix(mediaType, "video/"), strings.HasPrefix(mediaType, "audio/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}

// NormalizeMediaURL fixes delivery URLs of non-image uploads: the media host answers with an
// /image/upload/ path even for raw files, which then cannot be fetched. Image URLs and URLs
// without that segment are returned untouched.
func NormalizeMediaURL(rawURL, resourceType string) string {
	if resourceType == ResourceImage || rawURL == "" {
		return rawURL
	}
	const imageSegment = "/image/upload/"
	if !strings.Contains(rawURL, imageSegment) {
		return rawURL
	}
	target := "/" + ResourceRaw + "/upload/"
	if resourceType == ResourceVideo {
		target = "/" + ResourceVideo + "/upload/"
	}
	return strings.Replace(rawURL, imageSegment, target, 1)
}

// FileType returns the short extension-based label stored with documents ("pdf", "png"...).
func FileType(filename, mimeType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}
