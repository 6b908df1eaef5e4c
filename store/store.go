package store

import (
	"fmt"

	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/api"

	"github.com/Sumanth9415/workValidaton/common"
	artifactstorage "github.com/Sumanth9415/workValidaton/store/providers"
)

// Store model; one row per persisted solution artifact
type Store struct {
	provide.Model

	TaskID   *uuid.UUID `sql:"not null;type:uuid" json:"task_id"`
	WorkerID *uuid.UUID `sql:"not null;type:uuid" json:"worker_id"`

	Name     *string `sql:"not null" json:"name"` // original filename
	Provider *string `sql:"not null" json:"provider"`
	Path     *string `sql:"not null" json:"path"`
	Size     int64   `sql:"not null" json:"size"`
	Digest   *string `sql:"not null" json:"digest"` // sha256 of the artifact content
}

func (s *Store) storeProviderFactory() artifactstorage.StoreProvider {
	if s.Provider == nil {
		common.Log.Warning("failed to initialize artifact store provider; no provider defined")
		return nil
	}

	switch *s.Provider {
	case artifactstorage.StoreProviderFilesystem:
		return artifactstorage.InitFilesystemStoreProvider()
	default:
		common.Log.Warningf("failed to initialize artifact store provider; unknown provider: %s", *s.Provider)
	}

	return nil
}

// Find loads the artifact record for the given identifier; returns nil if absent
func Find(storeID uuid.UUID) *Store {
	db := dbconf.DatabaseConnection()
	store := &Store{}
	db.Where("id = ?", storeID).Find(&store)
	if store == nil || store.ID == uuid.Nil {
		return nil
	}
	return store
}

// SaveSolutionArtifact persists an uploaded solution file through the default
// provider and records the resulting artifact
func SaveSolutionArtifact(taskID, workerID uuid.UUID, filename string, data []byte) (*Store, error) {
	store := &Store{
		TaskID:   &taskID,
		WorkerID: &workerID,
		Name:     common.StringOrNil(filename),
		Provider: common.StringOrNil(artifactstorage.StoreProviderFilesystem),
		Size:     int64(len(data)),
		Digest:   common.StringOrNil(common.SHA256(string(data))),
	}

	provider := store.storeProviderFactory()
	if provider == nil {
		return nil, fmt.Errorf("failed to resolve artifact store provider")
	}

	key := fmt.Sprintf("%s-%s-%s", taskID, workerID, filename)
	path, err := provider.Save(key, data)
	if err != nil {
		return nil, err
	}
	store.Path = common.StringOrNil(path)

	if !store.Create() {
		if delerr := provider.Delete(path); delerr != nil {
			common.Log.Warningf("failed to remove orphaned solution artifact %s; %s", path, delerr.Error())
		}
		return nil, fmt.Errorf("failed to persist solution artifact record for task %s", taskID)
	}

	return store, nil
}

// Content returns the artifact bytes from the underlying provider
func (s *Store) Content() ([]byte, error) {
	provider := s.storeProviderFactory()
	if provider == nil {
		return nil, fmt.Errorf("failed to resolve artifact store provider")
	}
	if s.Path == nil {
		return nil, fmt.Errorf("failed to read artifact %s; no path recorded", s.ID)
	}
	return provider.Read(*s.Path)
}

// Create an artifact record
func (s *Store) Create() bool {
	if !s.validate() {
		return false
	}

	db := dbconf.DatabaseConnection()

	if db.NewRecord(s) {
		result := db.Create(&s)
		rowsAffected := result.RowsAffected
		errors := result.GetErrors()
		if len(errors) > 0 {
			for _, err := range errors {
				s.Errors = append(s.Errors, &provide.Error{
					Message: common.StringOrNil(err.Error()),
				})
			}
		}
		if !db.NewRecord(s) {
			success := rowsAffected > 0
			if success {
				common.Log.Debugf("initialized %s artifact store: %s", *s.Provider, s.ID)
			}

			return success
		}
	}

	return false
}

// Delete removes the artifact record and its stored content
func (s *Store) Delete() bool {
	if s.Path != nil {
		provider := s.storeProviderFactory()
		if provider != nil {
			if err := provider.Delete(*s.Path); err != nil {
				common.Log.Warningf("failed to remove stored artifact content %s; %s", *s.Path, err.Error())
			}
		}
	}

	db := dbconf.DatabaseConnection()
	result := db.Delete(&s)
	errors := result.GetErrors()
	if len(errors) > 0 {
		for _, err := range errors {
			s.Errors = append(s.Errors, &provide.Error{
				Message: common.StringOrNil(err.Error()),
			})
		}
		return false
	}
	return true
}

// validate the artifact store params
func (s *Store) validate() bool {
	s.Errors = make([]*provide.Error, 0)

	if s.Provider == nil {
		s.Errors = append(s.Errors, &provide.Error{
			Message: common.StringOrNil("store provider required"),
		})
	}

	if s.TaskID == nil || s.WorkerID == nil {
		s.Errors = append(s.Errors, &provide.Error{
			Message: common.StringOrNil("artifact task and worker associations required"),
		})
	}

	return len(s.Errors) == 0
}
