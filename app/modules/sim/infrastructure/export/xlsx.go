// Package simexport renders league data for download: season stats as a workbook and
// standings as a chart.
package simexport

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	playersSheet = "Players"
	teamsSheet   = "Teams"
)

// statColumns are the player stat columns written to the workbook, in order.
var statColumns = []string{
	simdomain.StatGP, simdomain.StatGS,
	simdomain.StatPss, simdomain.StatPssCmp, simdomain.StatPssYds, simdomain.StatPssTD, simdomain.StatPssInt,
	simdomain.StatRus, simdomain.StatRusYds, simdomain.StatRusTD,
	simdomain.StatRec, simdomain.StatRecYds, simdomain.StatRecTD,
	simdomain.StatDefTck, simdomain.StatDefSk, simdomain.StatDefInt,
	simdomain.StatFg, simdomain.StatFga,
}

// Exporter reads from the repository outside any simulation transaction.
type Exporter struct {
	repo   simdb.Repository
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(repo simdb.Repository, logger *slog.Logger) *Exporter {
	return &Exporter{repo: repo, logger: logger}
}

// SeasonStatsXLSX writes one row per player stats row of the season, plus a standings
// sheet.
func (e *Exporter) SeasonStatsXLSX(ctx context.Context, season int, playoffs bool) ([]byte, error) {
	rows, err := e.repo.ListPlayerStats(ctx, nil, season, playoffs)
	if err != nil {
		return nil, fmt.Errorf("failed to list player stats: %w", err)
	}
	abbrevs, err := e.teamAbbrevs(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", playersSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	header := []any{"PID", "Name", "Team"}
	for _, c := range statColumns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(playersSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	names := make(map[int]string)
	for i, ps := range rows {
		name, ok := names[ps.PID]
		if !ok {
			p, err := e.repo.GetPlayer(ctx, nil, ps.PID)
			if err != nil {
				return nil, fmt.Errorf("failed to load player %d: %w", ps.PID, err)
			}
			name = p.Name()
			names[ps.PID] = name
		}
		row := []any{ps.PID, name, abbrevs[ps.TID]}
		for _, c := range statColumns {
			row = append(row, ps.Stats[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(playersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := e.writeStandings(ctx, f, season, abbrevs); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	e.logger.InfoContext(ctx, "Season stats exported",
		slog.Int("season", season),
		slog.Bool("playoffs", playoffs),
		slog.Int("rows", len(rows)),
	)
	return buf.Bytes(), nil
}

func (e *Exporter) writeStandings(ctx context.Context, f *excelize.File, season int, abbrevs map[int]string) error {
	seasons, err := e.standings(ctx, season)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(teamsSheet); err != nil {
		return fmt.Errorf("failed to add standings sheet: %w", err)
	}
	header := []any{"Team", "W", "L", "T", "OTL", "Pct", "Playoff rounds won"}
	if err := f.SetSheetRow(teamsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write standings header: %w", err)
	}
	for i, ts := range seasons {
		row := []any{abbrevs[ts.TID], ts.Won, ts.Lost, ts.Tied, ts.OTL, ts.WinPct(), ts.PlayoffRoundsWon}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(teamsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write standings row %d: %w", i+2, err)
		}
	}
	return nil
}

// standings returns the season's team records, best first.
func (e *Exporter) standings(ctx context.Context, season int) ([]simdb.TeamSeason, error) {
	seasons, err := e.repo.ListTeamSeasons(ctx, nil, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list team seasons: %w", err)
	}
	slices.SortStableFunc(seasons, func(a, b simdb.TeamSeason) int {
		if c := cmp.Compare(b.WinPct(), a.WinPct()); c != 0 {
			return c
		}
		return cmp.Compare(a.TID, b.TID)
	})
	return seasons, nil
}

func (e *Exporter) teamAbbrevs(ctx context.Context) (map[int]string, error) {
	teams, err := e.repo.ListTeams(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	out := make(map[int]string, len(teams))
	for _, t := range teams {
		out[t.TID] = t.Abbrev
	}
	return out, nil
}
