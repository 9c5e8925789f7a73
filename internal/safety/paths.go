package safety

import (
	"path"
	"strings"
)

// NormalizePath cleans a candidate host path to its canonical POSIX form.
// Relative paths are rooted so that ".." segments cannot escape upward.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// PathAllowed reports whether hostPath, after normalization, equals or is a
// strict descendant of at least one allowlisted prefix. An empty prefix set
// admits nothing.
func PathAllowed(hostPath string, allowPrefixes []string) bool {
	candidate := NormalizePath(hostPath)
	for _, prefix := range allowPrefixes {
		p := NormalizePath(prefix)
		if candidate == p {
			return true
		}
		if p == "/" {
			return true
		}
		if strings.HasPrefix(candidate, p+"/") {
			return true
		}
	}
	return false
}
