package upload

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"ArtistStudio/model"
)

const nameBytes = 16

// randomName returns 32 hex characters read from r.
func randomName(r io.Reader) (string, error) {
	buf := make([]byte, nameBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// objectKey scopes a generated name under its upload kind.
func objectKey(kind model.UploadKind, name, ext string) string {
	return string(kind) + "/" + name + ext
}

// validChecksum accepts a base64 encoded SHA-256 digest.
func validChecksum(sum string) bool {
	raw, err := base64.StdEncoding.DecodeString(sum)
	return err == nil && len(raw) == 32
}

var defaultRandom io.Reader = rand.Reader
