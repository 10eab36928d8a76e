// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

// VersionRepository implements storage.VersionRepository for BadgerDB.
type VersionRepository struct {
	backend *Backend
}

var _ storage.VersionRepository = (*VersionRepository)(nil)

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(backend *Backend) *VersionRepository {
	return &VersionRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns all resources.
func (r *VersionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VersionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveIndexVersion persists the index version marker.
func (r *VersionRepository) SaveIndexVersion(ctx context.Context, version *core.IndexVersion) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		version.UpdatedAt = time.Now().UTC()
		key := makeIndexVersionKey()
		value := storage.MarshalIndexVersion(version)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadIndexVersion retrieves the index version marker.
// Returns nil, nil if no marker has been written yet.
func (r *VersionRepository) LoadIndexVersion(ctx context.Context) (*core.IndexVersion, error) {
	var version *core.IndexVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexVersionKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			version, unmarshalErr = storage.UnmarshalIndexVersion(val)
			return unmarshalErr
		})
	}, false)

	return version, err
}
