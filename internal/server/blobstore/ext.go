package blobstore

import "strings"

const maxExtLen = 16

// SplitName splits an uploaded filename at its last '.' into the binding
// name and the extension. Extensions that are not 1-16 ASCII letters or
// digits are dropped so that a stored path never leaves the root.
func SplitName(filename string) (name, ext string) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return filename, ""
	}
	name, ext = filename[:i], filename[i+1:]
	if !validExt(ext) {
		return name, ""
	}
	return name, ext
}

func validExt(ext string) bool {
	if ext == "" || len(ext) > maxExtLen {
		return false
	}
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// ContentType returns the media type sent on download, or "" when none is.
// Only png and jpg blobs get one.
func ContentType(ext string) string {
	switch ext {
	case "png", "jpg":
		return "image/" + ext
	}
	return ""
}
