package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganot/timeflow/internal/repository"
)

// RepoStore binds one owner's slot in a SnapshotRepository.
type RepoStore struct {
	repo    repository.SnapshotRepository
	ownerID string
}

func NewRepoStore(repo repository.SnapshotRepository, ownerID string) *RepoStore {
	return &RepoStore{repo: repo, ownerID: ownerID}
}

func (s *RepoStore) Load(ctx context.Context) (*State, error) {
	data, err := s.repo.Get(ctx, s.ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode(data)
}

func (s *RepoStore) Save(ctx context.Context, st *State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := s.repo.Put(ctx, s.ownerID, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RepoStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.ownerID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
