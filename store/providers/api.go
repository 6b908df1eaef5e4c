package providers

import (
	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/store/providers/filesystem"
)

// StoreProviderFilesystem local filesystem artifact storage provider
const StoreProviderFilesystem = "filesystem"

// StoreProvider provides a common interface to interact with solution artifact storage facilities
type StoreProvider interface {
	Save(key string, data []byte) (path string, err error)
	Read(path string) ([]byte, error)
	Delete(path string) error
}

// InitFilesystemStoreProvider initializes artifact storage rooted at the configured uploads path
func InitFilesystemStoreProvider() *filesystem.Filesystem {
	return filesystem.InitFilesystem(common.SolutionStoragePath)
}
