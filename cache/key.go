package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// URLKey derives the cache key of audio fetched from a URL.
func URLKey(model, url string) string {
	h := sha256.New()
	io.WriteString(h, "youtube|"+model+"|"+url)
	return hex.EncodeToString(h.Sum(nil))
}

// FileKey derives the cache key of an audio file from its full contents.
func FileKey(model string, r io.Reader) (string, error) {
	h := NewFileHasher(model)
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return h.Key(), nil
}

// FileHasher computes a FileKey incrementally, e.g. while an upload is
// being written to disk.
type FileHasher struct {
	h hash.Hash
}

func NewFileHasher(model string) *FileHasher {
	h := sha256.New()
	io.WriteString(h, "file|"+model+"|")
	return &FileHasher{h: h}
}

func (f *FileHasher) Write(p []byte) (int, error) {
	return f.h.Write(p)
}

func (f *FileHasher) Key() string {
	return hex.EncodeToString(f.h.Sum(nil))
}
