package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"time"

	"resume-feedback/internal/shared/util"
)

// ObjectStore archives uploaded documents. Delete exists so a failed
// persist can take its archived upload back.
type ObjectStore interface {
	Save(ctx context.Context, obj Object) (storageKey string, err error)
	Delete(ctx context.Context, storageKey string) error
}

// Object is one document to archive.
type Object struct {
	OwnerID     string
	FileName    string
	ContentType string
	Body        io.Reader
}

// NewKey returns "<hashed owner>/<random>_<sanitized name>".
func NewKey(ownerID, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.OwnerPrefix(ownerID), randomID()+"_"+sanitized), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
