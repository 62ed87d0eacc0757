package uploader

import (
	"fmt"
	"os"
	"strings"
)

// Resolved is the outcome of resolving a user-supplied image reference:
// always a fetchable URL, tagged with whether an upload produced it.
type Resolved struct {
	URL      string
	Uploaded bool
}

// IsUrl reports whether the string is an http(s) URL.
func IsUrl(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// IsLocalFile reports whether the string names an existing local file.
func IsLocalFile(path string) bool {
	if IsUrl(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Resolver turns user-supplied image references into fetchable URLs,
// uploading local files through the Uploader when needed.
type Resolver struct {
	Uploader *Uploader
}

// Resolve returns the reference unchanged when it is already a URL, uploads
// it when it is an existing local file, and fails with ErrInvalidInput
// otherwise. URLs never trigger network activity here.
func (r *Resolver) Resolve(path string) (Resolved, error) {
	if IsUrl(path) {
		return Resolved{URL: path}, nil
	}
	if IsLocalFile(path) {
		url, err := r.Uploader.Upload(path)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{URL: url, Uploaded: true}, nil
	}
	return Resolved{}, fmt.Errorf("%w: %s", ErrInvalidInput, path)
}
