package badger

import "github.com/poiesic/candidex/storage"

// Store bundles the repositories sharing one backend.
type Store struct {
	Profiles storage.ProfileRepository
	Versions storage.VersionRepository

	backend *Backend
}

// NewStore opens a BadgerDB store at the given path.
func NewStore(path string) (*Store, error) {
	return newStore(path, false)
}

func newStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	profiles, err := NewProfileRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		Profiles: profiles,
		Versions: NewVersionRepository(backend),
		backend:  backend,
	}, nil
}

// Close releases the repositories and closes the backend.
func (s *Store) Close() error {
	if err := s.Profiles.Close(); err != nil {
		s.backend.Close()
		return err
	}
	if err := s.Versions.Close(); err != nil {
		s.backend.Close()
		return err
	}
	return s.backend.Close()
}
