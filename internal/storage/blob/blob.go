package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Storage persists document files.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Get(ctx context.Context, key string) ([]byte, Object, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// DocumentKey returns the object key used for a user's document file.
func DocumentKey(userID, documentID, filename string) string {
	name := sanitize(path.Base(filename))
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	return "documents/" + sanitize(userID) + "/" + sanitize(documentID) + "/" + name
}

func sanitize(part string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	return replacer.Replace(strings.TrimSpace(part))
}
