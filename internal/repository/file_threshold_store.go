package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/risk"
	"gopkg.in/yaml.v3"
)

// AnyOwner is the file store key that applies to owners without their own entry.
const AnyOwner = "*"

type thresholdFile struct {
	Owners map[string]*model.RiskSettings `yaml:"owners"`
}

// UnmarshalYAML decodes each owner entry over the default thresholds and
// weights, so an entry only needs the categories it changes.
func (f *thresholdFile) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Owners map[string]yaml.Node `yaml:"owners"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	f.Owners = make(map[string]*model.RiskSettings, len(raw.Owners))
	for owner, node := range raw.Owners {
		if node.Kind == 0 || node.ShortTag() == "!!null" {
			continue
		}
		settings := &model.RiskSettings{
			Thresholds: risk.DefaultThresholds(),
			Weights:    risk.DefaultWeights(),
		}
		if err := node.Decode(settings); err != nil {
			return fmt.Errorf("owner %q: %w", owner, err)
		}
		f.Owners[owner] = settings
	}
	return nil
}

// FileThresholdStore keeps risk settings in a YAML file, for batch runs that
// have no settings table.
//
//	owners:
//	  "*":
//	    thresholds:
//	      budget: {healthy: 0.6, warning: 0.75, critical: 0.85}
//	      ...
//
// Categories and weights missing from an entry keep their defaults.
type FileThresholdStore struct {
	path string
	mu   sync.Mutex
}

// NewFileThresholdStore returns a store backed by path. The file need not exist.
func NewFileThresholdStore(path string) *FileThresholdStore {
	return &FileThresholdStore{path: path}
}

// Load returns the owner's settings, falling back to the AnyOwner entry.
// Out-of-order thresholds are returned as *risk.ThresholdOrderError.
func (s *FileThresholdStore) Load(_ context.Context, ownerID string) (*model.RiskSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	settings, ok := f.Owners[ownerID]
	if !ok || settings == nil {
		settings, ok = f.Owners[AnyOwner]
	}
	if !ok || settings == nil {
		return nil, ErrNotFound
	}
	if err := risk.ValidateThresholds(settings.Thresholds); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes the owner's settings, keeping other owners' entries.
func (s *FileThresholdStore) Save(_ context.Context, ownerID string, settings *model.RiskSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	f.Owners[ownerID] = settings

	out, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileThresholdStore) read() (*thresholdFile, error) {
	f := &thresholdFile{}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		f.Owners = map[string]*model.RiskSettings{}
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if f.Owners == nil {
		f.Owners = map[string]*model.RiskSettings{}
	}
	return f, nil
}
