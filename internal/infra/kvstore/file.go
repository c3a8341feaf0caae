package kvstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// File stores one file per key under a root directory. When a seal key
// is configured, payloads are encrypted with XChaCha20-Poly1305, which
// is what the mobile app's secure storage gives it for identity data.
type File struct {
	dir string
	key []byte // nil means plaintext payloads
}

// NewFile creates a file-backed store rooted at dir. sealKey must be
// nil (plaintext) or exactly 32 bytes.
func NewFile(dir string, sealKey []byte) (*File, error) {
	if len(sealKey) != 0 && len(sealKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", chacha20poly1305.KeySize, len(sealKey))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{dir: dir, key: sealKey}, nil
}

// Get returns the value stored under key, or ok=false when absent.
func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if len(f.key) == 0 {
		return string(data), true, nil
	}

	plain, err := f.unseal(data)
	if err != nil {
		return "", false, fmt.Errorf("unseal %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Set stores value under key. The write is staged to a temp file and
// renamed so a crash never leaves a half-written payload.
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := []byte(value)
	if len(f.key) != 0 {
		sealed, err := f.seal(data)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
		data = sealed
	}

	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Remove deletes key. Removing an absent key is not an error.
func (f *File) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *File) path(key string) string {
	// Keys are opaque strings; keep only filesystem-safe runes.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(f.dir, safe+".kv")
}

func (f *File) seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (f *File) unseal(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("payload shorter than nonce")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
