package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Settings is the full configuration of a simulation run. All values have
// working defaults; a settings.json in the working directory overrides them.
type Settings struct {
	Simulation SimulationSettings `mapstructure:"simulation"`
	Server     ServerSettings     `mapstructure:"server"`
}

type SimulationSettings struct {
	// IcosphereLevel sets the demo mesh resolution (vertices ~ 10*4^level+2).
	IcosphereLevel int `mapstructure:"icosphereLevel"`

	// SeaLevel in meters of displacement.
	SeaLevel float64 `mapstructure:"seaLevel"`

	// TimestepYears is the simulated time advanced per driver step.
	TimestepYears float64 `mapstructure:"timestepYears"`

	// DiffusionIterations is the number of averaging passes used when
	// smoothing the mantle pressure field.
	DiffusionIterations int `mapstructure:"diffusionIterations"`

	// PlateCount and MinPlateSize control plate segmentation.
	PlateCount   int `mapstructure:"plateCount"`
	MinPlateSize int `mapstructure:"minPlateSize"`

	// PrecipitationRate (m of rain per My) and ErosionCoefficient (fraction
	// of a height difference carried per meter of rain) drive transport.
	PrecipitationRate  float64 `mapstructure:"precipitationRate"`
	ErosionCoefficient float64 `mapstructure:"erosionCoefficient"`

	// Densities in kg/m3.
	MantleDensity      float64 `mapstructure:"mantleDensity"`
	SedimentDensity    float64 `mapstructure:"sedimentDensity"`
	SedimentaryDensity float64 `mapstructure:"sedimentaryDensity"`
	MetamorphicDensity float64 `mapstructure:"metamorphicDensity"`
	SialDensity        float64 `mapstructure:"sialDensity"`
	SimaDensity        float64 `mapstructure:"simaDensity"`
}

type ServerSettings struct {
	Port             int `mapstructure:"port"`
	UpdateIntervalMs int `mapstructure:"updateIntervalMs"`
}

// Load reads settings from the named file (JSON), falling back to defaults
// when the file does not exist. A present but malformed file is an error.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return s, nil
}

// Default returns the built-in settings without touching the filesystem.
func Default() Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	// Unmarshal of registered defaults cannot fail.
	_ = v.Unmarshal(&s)
	return s
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.icosphereLevel", 5)
	v.SetDefault("simulation.seaLevel", 3682.0)
	v.SetDefault("simulation.timestepYears", 1000000.0)
	v.SetDefault("simulation.diffusionIterations", 15)
	v.SetDefault("simulation.plateCount", 7)
	v.SetDefault("simulation.minPlateSize", 200)
	v.SetDefault("simulation.precipitationRate", 7.8e5)
	v.SetDefault("simulation.erosionCoefficient", 1.8e-7)
	v.SetDefault("simulation.mantleDensity", 3300.0)
	v.SetDefault("simulation.sedimentDensity", 2500.0)
	v.SetDefault("simulation.sedimentaryDensity", 2600.0)
	v.SetDefault("simulation.metamorphicDensity", 2800.0)
	v.SetDefault("simulation.sialDensity", 2700.0)
	v.SetDefault("simulation.simaDensity", 3075.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.updateIntervalMs", 100)
}
