// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cli

import (
	"fmt"
	"io"

	mosaic "github.com/Caliban-17/mosaic-new"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconArrow   = "→"
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, styleTitle.Render(title))
}

func printKeyValue(w io.Writer, key, format string, args ...any) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func printStatus(w io.Writer, ok bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if ok {
		fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+msg)
		return
	}
	fmt.Fprintln(w, styleWarning.Render(iconWarning)+" "+styleWarning.Render(msg))
}

func printEnergy(w io.Writer, total float64, c mosaic.Components) {
	printKeyValue(w, "energy", "%.6g", total)
	printKeyValue(w, "  area", "%.6g", c.Area)
	printKeyValue(w, "  centroid", "%.6g", c.Centroid)
	printKeyValue(w, "  angle", "%.6g", c.Angle)
	printKeyValue(w, "  min area", "%.6g", c.MinArea)
}

// printOptimizeSummary prints the outcome of an optimization run.
func printOptimizeSummary(w io.Writer, res *mosaic.Result, rep mosaic.ValidationReport) {
	printTitle(w, "Optimization")
	printKeyValue(w, "points", "%d", len(res.Points))
	printKeyValue(w, "iterations", "%d", res.Iterations)
	printEnergy(w, res.Energy, res.Components)
	if len(res.History) > 0 {
		printKeyValue(w, "start energy", "%.6g", res.History[0])
	}
	printStatus(w, res.Converged || res.StopReason == mosaic.StopMaxIterations, "stopped: %s", res.StopReason)
	printReport(w, rep)
}

// printReport prints a partition check.
func printReport(w io.Writer, rep mosaic.ValidationReport) {
	printKeyValue(w, "total area", "%.6g", rep.TotalArea)
	printKeyValue(w, "area error", "%.3e", rep.AreaError)
	printKeyValue(w, "samples", "%d", rep.Samples)
	if rep.EmptyRegions > 0 {
		printKeyValue(w, "empty", "%d", rep.EmptyRegions)
	}
	ok := rep.OK(areaTolerance)
	printStatus(w, ok, "partition: %d gaps, %d overlaps, %d out of bounds", rep.Gaps, rep.Overlaps, rep.OutOfBounds)
}
