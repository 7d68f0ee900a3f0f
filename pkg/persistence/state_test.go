package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgelight/edgelight-go/pkg/color"
	"github.com/edgelight/edgelight-go/pkg/light"
	"github.com/edgelight/edgelight-go/pkg/wire"
	"github.com/edgelight/edgelight-go/pkg/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewLightStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveCreatesDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
		store := NewLightStateStore(path)

		if err := store.Save(&LightState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("state file missing: %v", err)
		}
		assert.Equal(t, path, store.Path())
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := NewLightStateStore(filepath.Join(t.TempDir(), "state.json"))
		saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		state := &LightState{
			SavedAt:  saved,
			Preset:   "double-one",
			Pipeline: true,
			Endpoints: []EndpointState{
				{Address: zone.AddrLeftBottom, LastApplied: light.LastApplied{
					Color: color.RGB{R: 10, G: 20, B: 30},
					Last:  wire.KindColor,
				}},
				{Address: zone.AddrRightTop, LastApplied: light.LastApplied{
					Brightness: 40,
					Off:        true,
					Last:       wire.KindOnOff,
				}},
			},
		}
		require.NoError(t, store.Save(state))

		got, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, StateVersion, got.Version)
		assert.True(t, got.SavedAt.Equal(saved))
		assert.Equal(t, "double-one", got.Preset)
		assert.True(t, got.Pipeline)
		assert.False(t, got.External)
		require.Len(t, got.Endpoints, 2)
		assert.Equal(t, color.RGB{R: 10, G: 20, B: 30}, got.Endpoints[0].Color)
		assert.Equal(t, wire.KindOnOff, got.Endpoints[1].Last)
		assert.True(t, got.Endpoints[1].Off)
		assert.Equal(t, 40, got.Endpoints[1].Brightness)
	})

	t.Run("SaveReplacesFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "state.json")
		store := NewLightStateStore(path)

		require.NoError(t, store.Save(&LightState{Preset: "double-one"}))
		require.NoError(t, store.Save(&LightState{Preset: "quad-two", External: true}))

		got, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "quad-two", got.Preset)
		assert.True(t, got.External)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, "no temporary files left behind")
		assert.Equal(t, "state.json", entries[0].Name())
	})

	t.Run("FailedSaveKeepsDirectoryClean", func(t *testing.T) {
		dir := t.TempDir()
		// A non-empty directory where the file should go makes the final
		// rename fail.
		path := filepath.Join(dir, "state.json")
		require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0755))

		err := NewLightStateStore(path).Save(&LightState{Preset: "double-one"})
		assert.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsDir())
	})

	t.Run("SaveSetsTimestamp", func(t *testing.T) {
		store := NewLightStateStore(filepath.Join(t.TempDir(), "state.json"))
		state := &LightState{}
		require.NoError(t, store.Save(state))
		assert.False(t, state.SavedAt.IsZero())
	})

	t.Run("RejectsNewerVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))

		_, err := NewLightStateStore(path).Load()
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("RejectsCorruptFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err := NewLightStateStore(path).Load()
		assert.Error(t, err)
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewLightStateStore(filepath.Join(t.TempDir(), "state.json"))
		require.NoError(t, store.Save(&LightState{}))
		require.NoError(t, store.Clear())

		got, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, got)

		// clearing twice is fine
		assert.NoError(t, store.Clear())
	})
}

func TestCaptureAndApplied(t *testing.T) {
	addrs := zone.PresetDoubleOne.Addresses()
	applied := []light.LastApplied{
		{Color: color.RGB{R: 1}, Last: wire.KindColor},
		{Brightness: 70, Last: wire.KindBrightness},
	}

	st := Capture("double-one", addrs, true, false, applied)
	require.Len(t, st.Endpoints, 2)
	assert.Equal(t, zone.AddrLeftBottom, st.Endpoints[0].Address)

	// reversed and lower-cased lookup order
	got := st.Applied([]string{"08-7c-be-2e-ef-f3", zone.AddrLeftBottom, zone.AddrLeftTop})
	require.Len(t, got, 3)
	assert.Equal(t, 70, got[0].Brightness)
	assert.Equal(t, color.RGB{R: 1}, got[1].Color)
	assert.Equal(t, light.LastApplied{}, got[2])
}
