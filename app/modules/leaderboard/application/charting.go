package leaderboardservice

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
)

// ChartPalette holds the colors used when rendering ranking charts.
type ChartPalette struct {
	Background drawing.Color
	PrimaryBar drawing.Color
	AccentBar  drawing.Color
	TextColor  drawing.Color
}

// DefaultChartPalette is the palette used by the HTTP chart endpoint.
func DefaultChartPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.ColorFromHex("1e1e2e"),
		PrimaryBar: drawing.ColorFromHex("89b4fa"),
		AccentBar:  drawing.ColorFromHex("f9e2af"),
		TextColor:  drawing.ColorFromHex("cdd6f4"),
	}
}

// GenerateRankingChart produces a PNG bar chart of a cycle's top entries.
// Vote totals are projected to float64 for drawing only; the stored totals
// keep full precision.
func GenerateRankingChart(title string, entries []leaderboardevents.RankedEntry, palette ChartPalette) ([]byte, error) {
	if len(entries) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, 0, len(entries))
	for _, entry := range entries {
		votes, err := entry.TotalVotes.BigInt()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entry.EntityID, err)
		}
		approx, _ := new(big.Float).SetInt(votes).Float64()

		barColor := palette.PrimaryBar
		if entry.Rank == 1 {
			barColor = palette.AccentBar
		}
		bars = append(bars, chart.Value{
			Value: approx,
			Label: barLabel(entry.EntityID),
			Style: chart.Style{
				FillColor:   barColor,
				StrokeColor: barColor,
			},
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    800,
		Height:   400,
		BarWidth: 48,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// barLabel keeps entity IDs short enough to fit under a bar.
func barLabel(entityID string) string {
	const maxLen = 12
	if len(entityID) <= maxLen {
		return entityID
	}
	return entityID[:maxLen-2] + ".."
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No entries for this cycle"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
