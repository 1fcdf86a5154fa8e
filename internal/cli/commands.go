// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	mosaic "github.com/Caliban-17/mosaic-new"
	"github.com/Caliban-17/mosaic-new/render"
	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"
)

// progressEvery is the number of iterations between progress lines.
const progressEvery = 10

var errInvalidPartition = errors.New("regions do not partition the domain")

// runFlags are the flags shared by every command. Set flags override the config file.
type runFlags struct {
	config     string
	width      float64
	height     float64
	points     int
	seed       int64
	layout     string
	iterations int
	svg        string
	png        string
}

func (f *runFlags) register(cmd *cobra.Command) {
	def := DefaultConfig()
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "TOML run description")
	cmd.Flags().Float64Var(&f.width, "width", def.Width, "domain width")
	cmd.Flags().Float64Var(&f.height, "height", def.Height, "domain height")
	cmd.Flags().IntVarP(&f.points, "points", "n", def.Points, "number of sites")
	cmd.Flags().Int64Var(&f.seed, "seed", def.Seed, "layout seed")
	cmd.Flags().StringVar(&f.layout, "layout", def.Layout, "initial layout: grid or random")
	cmd.Flags().StringVar(&f.svg, "svg", "", "write the tessellation as SVG")
	cmd.Flags().StringVar(&f.png, "png", "", "write the tessellation as PNG")
}

// load reads the config file and applies the flags the user set.
func (f *runFlags) load(cmd *cobra.Command) (Config, error) {
	cfg, err := LoadConfig(f.config)
	if err != nil {
		return Config{}, err
	}
	changed := cmd.Flags().Changed
	if changed("width") {
		cfg.Width = f.width
	}
	if changed("height") {
		cfg.Height = f.height
	}
	if changed("points") {
		cfg.Points = f.points
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("layout") {
		cfg.Layout = f.layout
	}
	if changed("iterations") {
		cfg.Optimizer.Iterations = f.iterations
	}
	if changed("svg") {
		cfg.Output.SVG = f.svg
	}
	if changed("png") {
		cfg.Output.PNG = f.png
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newGenerateCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Tessellate the initial layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

func runGenerate(ctx context.Context, w io.Writer, cfg Config) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	points := cfg.initialPoints()
	regions, err := mosaic.GenerateRegions(points, cfg.Width, cfg.Height, mosaic.WithLogger(logger))
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Tessellated %d sites", len(points)))

	params := cfg.energyParams()
	e := mosaic.CalculateEnergy(regions, points, &params)
	rep, err := mosaic.Validate(regions, cfg.Width, cfg.Height, defaultGrid)
	if err != nil {
		return err
	}

	printTitle(w, "Tessellation")
	printKeyValue(w, "points", "%d", len(points))
	printEnergy(w, e.Total, e.Components)
	printReport(w, rep)
	return writeOutputs(ctx, w, cfg, regions, points)
}

func newOptimizeCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Balance region areas by gradient descent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runOptimize(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&flags.iterations, "iterations", "k", DefaultConfig().Optimizer.Iterations, "iteration budget")
	return cmd
}

func runOptimize(ctx context.Context, w io.Writer, cfg Config) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	params := cfg.energyParams()
	opts := append(cfg.optimizeOptions(),
		mosaic.WithLogger(logger),
		mosaic.WithProgress(func(p mosaic.Progress) {
			if p.Iteration%progressEvery == 0 {
				logger.Info("optimizing", "iteration", p.Iteration, "of", p.Total, "energy", p.Energy)
			}
		}),
	)
	res, err := mosaic.Optimize(ctx, cfg.initialPoints(), &params, opts...)
	if res == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	prog.done(fmt.Sprintf("Optimized %d sites in %d iterations", len(res.Points), res.Iterations))

	rep, verr := mosaic.Validate(res.Regions, cfg.Width, cfg.Height, defaultGrid)
	if verr != nil {
		return verr
	}
	printOptimizeSummary(w, res, rep)
	if oerr := writeOutputs(ctx, w, cfg, res.Regions, res.Points); oerr != nil {
		return oerr
	}
	return err
}

func newValidateCmd() *cobra.Command {
	var (
		flags runFlags
		grid  int
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the regions of a layout partition the domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runValidate(cmd.Context(), cmd.OutOrStdout(), cfg, grid)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&grid, "grid", defaultGrid, "samples per axis")
	return cmd
}

func runValidate(ctx context.Context, w io.Writer, cfg Config, grid int) error {
	logger := loggerFromContext(ctx)
	points := cfg.initialPoints()
	regions, err := mosaic.GenerateRegions(points, cfg.Width, cfg.Height, mosaic.WithLogger(logger))
	if err != nil {
		return err
	}
	rep, err := mosaic.Validate(regions, cfg.Width, cfg.Height, grid)
	if err != nil {
		return err
	}
	printTitle(w, "Validation")
	printReport(w, rep)
	if !rep.OK(areaTolerance) {
		return errInvalidPartition
	}
	return nil
}

// writeOutputs renders the regions to the configured SVG and PNG paths.
func writeOutputs(ctx context.Context, w io.Writer, cfg Config, regions []mosaic.Region, sites []r2.Point) error {
	if cfg.Output.SVG == "" && cfg.Output.PNG == "" {
		return nil
	}
	logger := loggerFromContext(ctx)
	sample, err := cfg.sampler()
	if err != nil {
		return err
	}
	tiles := render.Colorize(regions, sites, cfg.Width, cfg.Height, sample)

	if path := cfg.Output.SVG; path != "" {
		opts := render.SVGOptions{Scale: cfg.Output.Scale}
		if cfg.Output.Sites {
			opts.Sites = sites
		}
		if err := writeSVG(path, tiles, cfg, opts); err != nil {
			return err
		}
		logger.Debug("wrote svg", "path", path)
		printFile(w, path)
	}
	if path := cfg.Output.PNG; path != "" {
		if err := render.PNG(path, tiles, cfg.Width, cfg.Height, cfg.Output.Scale); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("wrote png", "path", path)
		printFile(w, path)
	}
	return nil
}

func writeSVG(path string, tiles []render.Tile, cfg Config, opts render.SVGOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := render.SVG(f, tiles, cfg.Width, cfg.Height, opts); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
