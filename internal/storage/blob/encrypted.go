package blob

import (
	"context"
	"fmt"

	"github.com/fi-advisor/fi/pkg/crypto"
)

// EncryptedStorage seals blobs with AES-GCM before handing them to the wrapped
// storage. Reported sizes are plaintext sizes.
type EncryptedStorage struct {
	next Storage
	key  []byte
}

// NewEncrypted derives a 256-bit key from passphrase with Argon2id and wraps next.
func NewEncrypted(next Storage, passphrase string) (*EncryptedStorage, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("blob: encryption passphrase is required")
	}
	key, err := crypto.DeriveStableKey([]byte(passphrase), "fi-blob")
	if err != nil {
		return nil, err
	}
	return &EncryptedStorage{next: next, key: key}, nil
}

func (e *EncryptedStorage) Put(ctx context.Context, key string, data []byte, contentType string) (Object, error) {
	sealed, err := crypto.Seal(data, e.key)
	if err != nil {
		return Object{}, fmt.Errorf("blob: encrypt: %w", err)
	}
	obj, err := e.next.Put(ctx, key, sealed, contentType)
	if err != nil {
		return Object{}, err
	}
	obj.Size = int64(len(data))
	return obj, nil
}

func (e *EncryptedStorage) Get(ctx context.Context, key string) ([]byte, Object, error) {
	sealed, obj, err := e.next.Get(ctx, key)
	if err != nil {
		return nil, Object{}, err
	}
	data, err := crypto.Open(sealed, e.key)
	if err != nil {
		return nil, Object{}, fmt.Errorf("blob: decrypt: %w", err)
	}
	obj.Size = int64(len(data))
	return data, obj, nil
}

func (e *EncryptedStorage) Delete(ctx context.Context, key string) error {
	return e.next.Delete(ctx, key)
}

func (e *EncryptedStorage) Ping(ctx context.Context) error {
	return e.next.Ping(ctx)
}
