package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edgelight/edgelight-go/pkg/light"
	"github.com/edgelight/edgelight-go/pkg/zone"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ErrUnsupportedVersion is returned for state files written by a newer
// format version.
var ErrUnsupportedVersion = errors.New("unsupported state file version")

// LightState is the persisted state of one installation.
type LightState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Preset names the zone preset the state was recorded for.
	Preset string `json:"preset,omitempty"`

	// Pipeline and External are the controller enable flags.
	Pipeline bool `json:"pipeline"`
	External bool `json:"external"`

	// Endpoints holds one entry per fixture in endpoint order.
	Endpoints []EndpointState `json:"endpoints,omitempty"`
}

// EndpointState is the last applied state of one fixture.
type EndpointState struct {
	Address string `json:"address"`
	light.LastApplied
}

// Applied returns the per-endpoint states matching addresses, in that
// order. Addresses without a stored entry get a zero LastApplied.
func (s *LightState) Applied(addresses []string) []light.LastApplied {
	byAddr := make(map[string]light.LastApplied, len(s.Endpoints))
	for _, ep := range s.Endpoints {
		byAddr[zone.NormalizeAddress(ep.Address)] = ep.LastApplied
	}
	out := make([]light.LastApplied, len(addresses))
	for i, addr := range addresses {
		out[i] = byAddr[zone.NormalizeAddress(addr)]
	}
	return out
}

// Capture builds a LightState from a controller snapshot.
func Capture(preset string, addresses []string, pipeline, external bool, applied []light.LastApplied) *LightState {
	st := &LightState{
		Preset:   preset,
		Pipeline: pipeline,
		External: external,
	}
	for i, la := range applied {
		if i >= len(addresses) {
			break
		}
		st.Endpoints = append(st.Endpoints, EndpointState{
			Address:     zone.NormalizeAddress(addresses[i]),
			LastApplied: la,
		})
	}
	return st
}

// LightStateStore manages persistence of light state to a JSON file.
type LightStateStore struct {
	mu   sync.Mutex
	path string
}

// NewLightStateStore creates a new light state store.
func NewLightStateStore(path string) *LightStateStore {
	return &LightStateStore{path: path}
}

// Path returns the state file path.
func (s *LightStateStore) Path() string {
	return s.path
}

// Save persists the light state to disk. The file is replaced atomically:
// a crash mid-save leaves the previous state in place.
func (s *LightStateStore) Save(state *LightState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return writeFileAtomic(s.path, data, 0644)
}

// writeFileAtomic writes data to a temporary file next to path, syncs it
// and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the light state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *LightStateStore) Load() (*LightState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &LightState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	return state, nil
}

// Clear removes the state file.
func (s *LightStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
