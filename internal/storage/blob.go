package storage

import (
	"errors"
	"io"
	"path"
	"strings"
)

var ErrBadKey = errors.New("storage: invalid key")

// BlobStore holds uploaded course materials.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// CleanKey normalizes a slash-separated key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrBadKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrBadKey
		}
	}
	c := strings.TrimPrefix(path.Clean("/"+key), "/")
	if c == "" {
		return "", ErrBadKey
	}
	return c, nil
}
