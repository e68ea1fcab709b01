package imaging

import (
	"github.com/anthonynsimon/bild/histogram"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// ChannelStats summarizes one channel of a raster.
type ChannelStats struct {
	Name string `json:"name"`
	// Bins holds 256 sample counts, one per 8-bit level.
	Bins []int   `json:"bins,omitempty"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	// ClippedBlack and ClippedWhite are the fractions of samples at 0 and 255.
	ClippedBlack float64 `json:"clipped_black"`
	ClippedWhite float64 `json:"clipped_white"`
}

// HistogramReport holds per-channel statistics: "r", "g", "b" for color
// rasters and "l" for single-channel ones.
type HistogramReport struct {
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Channels []ChannelStats `json:"channels"`
}

// Histogram computes per-channel histograms of r. Bins are omitted from the
// report unless withBins is set.
func Histogram(r *raster.Raster, withBins bool) *HistogramReport {
	h := histogram.NewRGBAHistogram(r.Image())

	report := &HistogramReport{Width: r.Width, Height: r.Height}
	if r.Channels == 1 {
		report.Channels = []ChannelStats{channelStats("l", h.R.Bins, withBins)}
		return report
	}
	report.Channels = []ChannelStats{
		channelStats("r", h.R.Bins, withBins),
		channelStats("g", h.G.Bins, withBins),
		channelStats("b", h.B.Bins, withBins),
	}
	return report
}

func channelStats(name string, bins []int, withBins bool) ChannelStats {
	st := ChannelStats{Name: name, Min: -1}
	var total, sum int
	for level, n := range bins {
		if n == 0 {
			continue
		}
		if st.Min < 0 {
			st.Min = level
		}
		st.Max = level
		total += n
		sum += level * n
	}
	if st.Min < 0 {
		st.Min = 0
	}
	if total > 0 {
		st.Mean = round2(float64(sum) / float64(total))
		st.ClippedBlack = float64(bins[0]) / float64(total)
		st.ClippedWhite = float64(bins[len(bins)-1]) / float64(total)
	}
	if withBins {
		st.Bins = bins
	}
	return st
}
