// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cli

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/BurntSushi/toml"
	mosaic "github.com/Caliban-17/mosaic-new"
	"github.com/Caliban-17/mosaic-new/render"
	"github.com/Caliban-17/mosaic-new/utils"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	layoutRandom = "random"
	layoutGrid   = "grid"
)

// Config is the TOML run description. Command-line flags override its values.
//
//	width = 100.0
//	height = 80.0
//	points = 40
//	seed = 7
//	layout = "grid"
//
//	[energy]
//	area = 2.5
//	angle = 0.01
//
//	[optimizer]
//	iterations = 80
//	learning_rate = 0.02
//
//	[output]
//	svg = "mosaic.svg"
//	palette = ["#1b3a4b", "#f4a259"]
type Config struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Points int     `toml:"points"`
	Seed   int64   `toml:"seed"`
	Layout string  `toml:"layout"`

	Energy    EnergyConfig    `toml:"energy"`
	Optimizer OptimizerConfig `toml:"optimizer"`
	Output    OutputConfig    `toml:"output"`
}

type EnergyConfig struct {
	Area             float64   `toml:"area"`
	Centroid         float64   `toml:"centroid"`
	Angle            float64   `toml:"angle"`
	MinArea          float64   `toml:"min_area"`
	MinAreaThreshold float64   `toml:"min_area_threshold"`
	Weights          []float64 `toml:"weights"`
}

type OptimizerConfig struct {
	Iterations   int     `toml:"iterations"`
	LearningRate float64 `toml:"learning_rate"`
	Delta        float64 `toml:"delta"`
	Workers      int     `toml:"workers"`
	Tolerance    float64 `toml:"tolerance"`
}

type OutputConfig struct {
	SVG     string   `toml:"svg"`
	PNG     string   `toml:"png"`
	Scale   float64  `toml:"scale"`
	Sites   bool     `toml:"sites"`
	Palette []string `toml:"palette"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	params := mosaic.DefaultEnergyParams(100, 80)
	return Config{
		Width:  params.Width,
		Height: params.Height,
		Points: 40,
		Seed:   1,
		Layout: layoutGrid,
		Energy: EnergyConfig{
			Area:  params.LambdaArea,
			Angle: params.LambdaAngle,
		},
		Optimizer: OptimizerConfig{
			Iterations:   80,
			LearningRate: params.LearningRate,
			Delta:        1e-6,
			Tolerance:    1e-9,
		},
		Output: OutputConfig{
			Scale:   8,
			Palette: []string{"#1b3a4b", "#3f7cac", "#f4a259", "#bc4b51"},
		},
	}
}

// LoadConfig decodes path on top of DefaultConfig. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Points < mosaic.MinSites {
		return fmt.Errorf("points must be at least %d, got %d", mosaic.MinSites, c.Points)
	}
	switch c.Layout {
	case layoutRandom, layoutGrid:
	default:
		return fmt.Errorf("unknown layout %q (want %s or %s)", c.Layout, layoutRandom, layoutGrid)
	}
	if n := len(c.Energy.Weights); n > 0 && n != c.Points {
		return fmt.Errorf("%d weights for %d points", n, c.Points)
	}
	if c.Optimizer.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return c.energyParams().Validate()
}

func (c Config) energyParams() mosaic.EnergyParams {
	return mosaic.EnergyParams{
		Width:            c.Width,
		Height:           c.Height,
		LambdaArea:       c.Energy.Area,
		LambdaCentroid:   c.Energy.Centroid,
		LambdaAngle:      c.Energy.Angle,
		LambdaMinArea:    c.Energy.MinArea,
		MinAreaThreshold: c.Energy.MinAreaThreshold,
		Weights:          c.Energy.Weights,
		LearningRate:     c.Optimizer.LearningRate,
	}
}

func (c Config) initialPoints() []r2.Point {
	if c.Layout == layoutRandom {
		return utils.GenerateRandomPoints(c.Points, c.Width, c.Height, c.Seed)
	}
	return utils.GenerateJitteredGrid(c.Points, c.Width, c.Height, c.Seed)
}

func (c Config) optimizeOptions() []mosaic.Option {
	opts := []mosaic.Option{
		mosaic.WithIterations(c.Optimizer.Iterations),
		mosaic.WithDelta(c.Optimizer.Delta),
		mosaic.WithGradientTolerance(c.Optimizer.Tolerance),
	}
	if c.Optimizer.Workers > 0 {
		opts = append(opts, mosaic.WithWorkers(c.Optimizer.Workers))
	}
	return opts
}

func (c Config) sampler() (render.Sampler, error) {
	palette := make([]color.Color, 0, len(c.Output.Palette))
	for _, s := range c.Output.Palette {
		cf, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		palette = append(palette, cf)
	}
	return render.PaletteSampler(palette), nil
}
