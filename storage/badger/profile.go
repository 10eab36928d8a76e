package badger

import (
	"context"
	"encoding/binary"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend  *Backend
	orderSeq *badger.Sequence
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) (*ProfileRepository, error) {
	orderSeq, err := backend.GetSequence(profileOrderSeq)
	if err != nil {
		return nil, err
	}

	return &ProfileRepository{
		backend:  backend,
		orderSeq: orderSeq,
	}, nil
}

// Close releases the order sequence.
func (r *ProfileRepository) Close() error {
	return r.orderSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ProfileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutProfile stores a profile under its external ID, replacing any existing
// record. A replacement keeps the original insertion position.
func (r *ProfileRepository) PutProfile(ctx context.Context, profile *core.CandidateProfile) (*core.CandidateProfile, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProfileKey(profile.ID)

		old, err := r.readProfile(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old == nil {
			profile.InsertedAt = now

			seq, err := r.orderSeq.Next()
			if err != nil {
				return err
			}
			if err := tx.Set(makeProfileOrderKey(seq), []byte(profile.ID)); err != nil {
				return err
			}
			seqBuf := make([]byte, 8)
			binary.BigEndian.PutUint64(seqBuf, seq)
			if err := tx.Set(makeProfileOrderLookupKey(profile.ID), seqBuf); err != nil {
				return err
			}
		} else {
			profile.InsertedAt = old.InsertedAt
		}
		profile.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalProfile(profile)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return profile, err
}

// GetProfile retrieves a single profile by ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*core.CandidateProfile, error) {
	var result *core.CandidateProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readProfile(tx, makeProfileKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetProfiles retrieves multiple profiles by their IDs.
func (r *ProfileRepository) GetProfiles(ctx context.Context, ids ...string) ([]*core.CandidateProfile, error) {
	var result []*core.CandidateProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			profile, err := r.readProfile(tx, makeProfileKey(id))
			if err != nil {
				return err
			}
			if profile != nil {
				result = append(result, profile)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteProfile removes a profile and its insertion-order index entries.
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProfileKey(id)

		profile, err := r.readProfile(tx, key)
		if err != nil {
			return err
		}
		if profile == nil {
			return storage.ErrNotFound
		}

		// Remove the insertion-order entries
		lookupKey := makeProfileOrderLookupKey(id)
		item, err := tx.Get(lookupKey)
		if err == nil {
			var seq uint64
			if err := item.Value(func(val []byte) error {
				seq = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
			if err := tx.Delete(makeProfileOrderKey(seq)); err != nil {
				return err
			}
			if err := tx.Delete(lookupKey); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// HasProfile reports whether a profile exists.
func (r *ProfileRepository) HasProfile(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeProfileKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// CountProfiles returns the number of stored profiles.
func (r *ProfileRepository) CountProfiles(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = profileOrderKeyPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ProfileIDs returns all profile IDs in insertion order.
func (r *ProfileRepository) ProfileIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = profileOrderKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	return ids, err
}

// ScanProfiles visits every profile in insertion order.
func (r *ProfileRepository) ScanProfiles(ctx context.Context, fn func(profile *core.CandidateProfile) (bool, error)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = profileOrderKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var id string
			if err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			profile, err := r.readProfile(tx, makeProfileKey(id))
			if err != nil {
				return err
			}
			if profile == nil {
				continue
			}

			keepGoing, err := fn(profile)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}
		return nil
	}, false)
}

// FilterProfileIDs returns the IDs of profiles satisfying the given filters.
func (r *ProfileRepository) FilterProfileIDs(ctx context.Context, filters core.SearchFilters) (map[string]bool, error) {
	ids := make(map[string]bool)
	err := r.ScanProfiles(ctx, func(profile *core.CandidateProfile) (bool, error) {
		if matchesFilters(profile, filters) {
			ids[profile.ID] = true
		}
		return true, nil
	})
	return ids, err
}

// DistinctSkills returns the sorted union of all profile skills, lowercased.
func (r *ProfileRepository) DistinctSkills(ctx context.Context) ([]string, error) {
	return r.distinctValues(ctx, func(profile *core.CandidateProfile) []string {
		return profile.Skills
	})
}

// DistinctSkillDomains returns the sorted union of all profile skill domains, lowercased.
func (r *ProfileRepository) DistinctSkillDomains(ctx context.Context) ([]string, error) {
	return r.distinctValues(ctx, func(profile *core.CandidateProfile) []string {
		return profile.SkillDomains
	})
}

func (r *ProfileRepository) distinctValues(ctx context.Context, pick func(*core.CandidateProfile) []string) ([]string, error) {
	seen := make(map[string]bool)
	err := r.ScanProfiles(ctx, func(profile *core.CandidateProfile) (bool, error) {
		for _, v := range pick(profile) {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				seen[v] = true
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Helper methods

// readProfile reads a profile from the transaction.
func (r *ProfileRepository) readProfile(tx *badger.Txn, key []byte) (*core.CandidateProfile, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var profile *core.CandidateProfile
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		profile, unmarshalErr = storage.UnmarshalProfile(val)
		return unmarshalErr
	})
	return profile, err
}

// matchesFilters applies structural filters to a profile. Skill and location
// matching are case-insensitive substring tests, domain matching a
// case-insensitive membership test.
func matchesFilters(profile *core.CandidateProfile, filters core.SearchFilters) bool {
	if filters.Skill != "" {
		skill := strings.ToLower(filters.Skill)
		found := false
		for _, s := range profile.Skills {
			if strings.Contains(strings.ToLower(s), skill) {
				found = true
				break
			}
		}
		if !found {
			for _, d := range profile.SkillDomains {
				if strings.Contains(strings.ToLower(d), skill) {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	if filters.Location != "" {
		if !strings.Contains(strings.ToLower(profile.Location), strings.ToLower(filters.Location)) {
			return false
		}
	}
	if filters.Domain != "" {
		found := false
		for _, domain := range profile.SkillDomains {
			if strings.EqualFold(domain, filters.Domain) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.MinExperienceYears > 0 && profile.ExperienceYears < filters.MinExperienceYears {
		return false
	}
	return true
}
