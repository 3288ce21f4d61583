package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// Plot renders a series as an ascii graph with a caption.
func Plot(name string, series []float64, width, height int) string {
	if len(series) < 2 {
		return fmt.Sprintf("%s: not enough samples", name)
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name),
	)
	return graphStyle.Render(graph)
}

// Downsample thins a series to at most max points so long runs stay
// readable in a terminal plot.
func Downsample(series []float64, max int) []float64 {
	if len(series) <= max || max < 2 {
		return series
	}
	out := make([]float64, max)
	stride := float64(len(series)-1) / float64(max-1)
	for i := range out {
		out[i] = series[int(float64(i)*stride)]
	}
	return out
}
