package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
)

// fileSnapshots serves snapshots decoded from a JSON array. The file holds
// one owner's projects, so the owner argument is not used for filtering.
type fileSnapshots struct {
	snaps []*model.ProjectSnapshot
}

func loadSnapshotFile(path string) (*fileSnapshots, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snaps []*model.ProjectSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &fileSnapshots{snaps: snaps}, nil
}

func (f *fileSnapshots) ListByOwnerID(context.Context, string, time.Time) ([]*model.ProjectSnapshot, error) {
	return f.snaps, nil
}

func (f *fileSnapshots) GetByID(_ context.Context, _ string, id string, _ time.Time) (*model.ProjectSnapshot, error) {
	for _, s := range f.snaps {
		if s != nil && s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}
