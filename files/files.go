package files

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileRecord describes a stored blob and its single owner. OwnerID and
// StorageKey are immutable; the storage key is never reused after deletion.
type FileRecord struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	StorageKey  string    `json:"-"` // Internal handle into the blob store, never exposed
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadTime  time.Time `json:"upload_time"`
}

// Metadata is the descriptive part of a record, supplied by the uploader.
type Metadata struct {
	Filename    string
	Size        int64
	ContentType string
}

// NewStorageKey generates a globally unique blob key for an upload, keeping
// the original file extension so object browsers stay usable.
func NewStorageKey(filename string) string {
	return uuid.New().String() + filepath.Ext(filename)
}
