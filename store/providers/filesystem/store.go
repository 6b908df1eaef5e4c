package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Filesystem is an artifact store backed by a local directory; paths returned
// by Save are always relative to the configured root
type Filesystem struct {
	root  string
	mutex sync.Mutex
}

// InitFilesystem initializes filesystem-backed artifact storage rooted at the given path
func InitFilesystem(root string) *Filesystem {
	return &Filesystem{
		root: root,
	}
}

// Save persists the given artifact under the store root and returns its relative path
func (f *Filesystem) Save(key string, data []byte) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	err := os.MkdirAll(f.root, 0o755)
	if err != nil {
		return "", fmt.Errorf("failed to initialize artifact storage root %s; %s", f.root, err.Error())
	}

	path := sanitize(key)
	err = os.WriteFile(filepath.Join(f.root, path), data, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to persist %d-byte artifact %s; %s", len(data), path, err.Error())
	}

	return path, nil
}

// Read returns the content of the artifact at the given relative path
func (f *Filesystem) Read(path string) ([]byte, error) {
	resolved, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(resolved)
}

// Delete removes the artifact at the given relative path
func (f *Filesystem) Delete(path string) error {
	resolved, err := f.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// resolve rejects paths escaping the store root
func (f *Filesystem) resolve(path string) (string, error) {
	resolved := filepath.Join(f.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(resolved, filepath.Clean(f.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing to resolve artifact path outside storage root: %s", path)
	}
	return resolved, nil
}

func sanitize(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	return replacer.Replace(key)
}
