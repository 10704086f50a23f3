package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, 5, s.Simulation.IcosphereLevel)
	assert.Equal(t, 3682.0, s.Simulation.SeaLevel)
	assert.Equal(t, 15, s.Simulation.DiffusionIterations)
	assert.Equal(t, 7, s.Simulation.PlateCount)
	assert.Equal(t, 7.8e5, s.Simulation.PrecipitationRate)
	assert.Equal(t, 1.8e-7, s.Simulation.ErosionCoefficient)
	assert.Equal(t, 3300.0, s.Simulation.MantleDensity)
	assert.Equal(t, 8080, s.Server.Port)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverridesSubsetOfFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	body := `{
		"simulation": {"icosphereLevel": 3, "plateCount": 12},
		"server": {"port": 9000}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Simulation.IcosphereLevel)
	assert.Equal(t, 12, s.Simulation.PlateCount)
	assert.Equal(t, 9000, s.Server.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3682.0, s.Simulation.SeaLevel)
	assert.Equal(t, 100, s.Server.UpdateIntervalMs)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
