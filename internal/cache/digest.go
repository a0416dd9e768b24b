package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileDigest hashes the content of the given files, so a key built from it
// changes whenever one of the inputs does. Missing files are an error.
func FileDigest(paths ...string) (string, error) {
	h := sha1.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", p, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", p, err)
		}
		h.Write([]byte(filepath.Base(p)))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
