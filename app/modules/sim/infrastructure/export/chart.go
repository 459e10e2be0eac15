package simexport

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	barColor        = drawing.ColorFromHex("2f6f4f")
	backgroundColor = drawing.ColorFromHex("ffffff")
	textColor       = drawing.ColorFromHex("222222")
)

// StandingsPNG draws one bar per team: its win percentage, best record first.
func (e *Exporter) StandingsPNG(ctx context.Context, season int) ([]byte, error) {
	seasons, err := e.standings(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return renderNoDataPlaceholder(fmt.Sprintf("No standings for %d", season))
	}
	abbrevs, err := e.teamAbbrevs(ctx)
	if err != nil {
		return nil, err
	}

	bars := make([]chart.Value, 0, len(seasons))
	for _, ts := range seasons {
		bars = append(bars, chart.Value{
			Label: abbrevs[ts.TID],
			Value: ts.WinPct(),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%d standings", season),
		Width:    max(400, 60*len(bars)),
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 40},
		},
		XAxis: chart.Style{FontColor: textColor},
		YAxis: chart.YAxis{
			Name:  "Win %",
			Style: chart.Style{FontColor: textColor},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render standings chart: %w", err)
	}
	return buf.Bytes(), nil
}

// renderNoDataPlaceholder draws an empty axis labelled with msg.
func renderNoDataPlaceholder(msg string) ([]byte, error) {
	graph := chart.BarChart{
		Width:    400,
		Height:   200,
		BarWidth: 40,
		Background: chart.Style{
			FillColor: backgroundColor,
		},
		XAxis: chart.Style{FontColor: textColor},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		Bars:  []chart.Value{{Label: msg, Value: 0}},
	}
	buf := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
