package remote

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lookinops/lookin-platform/pkg/lookin"
)

// AuxStore is a local JSON file holding function definitions that could
// not be written to the hub, so a learned command survives a flaky or
// offline device. Writes go through a temp file rename, so a crash
// mid-save leaves the previous file intact.
type AuxStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// auxFile is the on-disk layout: remotes keyed by UUID, functions keyed
// by name.
type auxFile struct {
	Remotes map[string]map[string]lookin.RawSignal `json:"remotes"`
}

func NewAuxStore(path string, logger *slog.Logger) *AuxStore {
	return &AuxStore{path: path, logger: logger}
}

// Save records a function signal under remote UUID and function name,
// merging with whatever the file already holds.
func (s *AuxStore) Save(remoteUUID, function string, signal lookin.RawSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	if data.Remotes == nil {
		data.Remotes = make(map[string]map[string]lookin.RawSignal)
	}
	if data.Remotes[remoteUUID] == nil {
		data.Remotes[remoteUUID] = make(map[string]lookin.RawSignal)
	}
	data.Remotes[remoteUUID][function] = signal

	if err := s.write(data); err != nil {
		return err
	}

	s.logger.Info("Saved function to auxiliary data file",
		"path", s.path,
		"remote", remoteUUID,
		"function", function)
	return nil
}

// Load returns the stored signal for a remote function, with ok
// reporting whether one exists.
func (s *AuxStore) Load(remoteUUID, function string) (lookin.RawSignal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return lookin.RawSignal{}, false, err
	}

	signal, ok := data.Remotes[remoteUUID][function]
	return signal, ok, nil
}

// Functions returns all stored function names for a remote.
func (s *AuxStore) Functions(remoteUUID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.Remotes[remoteUUID]))
	for name := range data.Remotes[remoteUUID] {
		names = append(names, name)
	}
	return names, nil
}

// Remotes returns UUIDs of all remotes with stashed functions.
func (s *AuxStore) Remotes() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	uuids := make([]string, 0, len(data.Remotes))
	for uuid := range data.Remotes {
		uuids = append(uuids, uuid)
	}
	return uuids, nil
}

// Delete removes a stored function. Deleting a function that is not
// present is not an error.
func (s *AuxStore) Delete(remoteUUID, function string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := data.Remotes[remoteUUID][function]; !ok {
		return nil
	}
	delete(data.Remotes[remoteUUID], function)
	if len(data.Remotes[remoteUUID]) == 0 {
		delete(data.Remotes, remoteUUID)
	}

	return s.write(data)
}

func (s *AuxStore) load() (*auxFile, error) {
	data := &auxFile{}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read aux data file %s: %w", s.path, err)
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse aux data file %s: %w", s.path, err)
	}
	return data, nil
}

func (s *AuxStore) write(data *auxFile) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode aux data: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create aux data directory: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write aux data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace aux data file: %w", err)
	}
	return nil
}
