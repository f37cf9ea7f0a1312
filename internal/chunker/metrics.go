package chunker

import "math"

// Metrics are the pixel measurements of a rendered page surface, as reported
// by the compositor for an empty first page and an empty following page.
type Metrics struct {
	SurfaceHeightPx     float64 // Usable height of the content area.
	FirstHeaderHeightPx float64 // Letterhead plus title and patient block.
	OtherHeaderHeightPx float64 // Letterhead only.
	LineHeightPx        float64 // Computed line-height of a body paragraph.
}

// CapacityFromMetrics derives line capacities from measured metrics. The
// result never exceeds the fixed capacities, so measurement can only make
// pages shorter, and each capacity is at least one line. Invalid metrics
// yield DefaultConfig.
func CapacityFromMetrics(m Metrics) Config {
	if m.LineHeightPx <= 0 || m.SurfaceHeightPx <= 0 {
		return DefaultConfig()
	}
	first := linesIn(m.SurfaceHeightPx-m.FirstHeaderHeightPx, m.LineHeightPx)
	other := linesIn(m.SurfaceHeightPx-m.OtherHeaderHeightPx, m.LineHeightPx)
	return Config{
		FirstPageCapacity: clamp(first, FirstPageCapacity),
		OtherPageCapacity: clamp(other, OtherPageCapacity),
	}
}

func linesIn(heightPx, lineHeightPx float64) int {
	if heightPx <= 0 {
		return 0
	}
	return int(math.Floor(heightPx / lineHeightPx))
}

func clamp(n, ceiling int) int {
	return max(1, min(n, ceiling))
}
