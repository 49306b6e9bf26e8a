package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/storefront/internal/crypto/clientcrypto"
)

// File keeps values in <dir>/storage.json, each sealed with a key kept in
// <dir>/dek.bin. The data file is rewritten atomically on every change.
type File struct {
	dir string
	mu  sync.Mutex
	key []byte
}

var _ Storage = (*File)(nil)

// NewFile opens (or initializes) a file storage rooted at dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	f := &File{dir: dir}
	key, err := f.loadKey()
	if err != nil {
		return nil, err
	}
	f.key = key
	return f, nil
}

func (f *File) dataPath() string { return filepath.Join(f.dir, "storage.json") }
func (f *File) keyPath() string  { return filepath.Join(f.dir, "dek.bin") }

func (f *File) loadKey() ([]byte, error) {
	b, err := os.ReadFile(f.keyPath())
	if err == nil {
		if len(b) != clientcrypto.KeyLen {
			return nil, fmt.Errorf("storage key %s: bad length %d", f.keyPath(), len(b))
		}
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	key, err := clientcrypto.NewKey()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(f.keyPath(), key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func (f *File) read() (map[string]string, error) {
	b, err := os.ReadFile(f.dataPath())
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.dataPath(), err)
	}
	return m, nil
}

func (f *File) write(m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "storage-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.dataPath())
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return "", false, err
	}
	enc, ok := m[key]
	if !ok {
		return "", false, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", false, fmt.Errorf("key %s: %w", key, err)
	}
	pt, err := clientcrypto.OpenValue(f.key, key, sealed)
	if err != nil {
		return "", false, fmt.Errorf("key %s: %w", key, err)
	}
	return string(pt), true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return err
	}
	sealed, err := clientcrypto.SealValue(f.key, key, []byte(value))
	if err != nil {
		return err
	}
	m[key] = base64.StdEncoding.EncodeToString(sealed)
	return f.write(m)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := m[k]; ok {
			delete(m, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.write(m)
}
