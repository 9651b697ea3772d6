package leaderboardservice

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
)

const exportSheetName = "Ranking"

// ExportRanking renders a cycle's ranking as an XLSX workbook.
func (s *LeaderboardService) ExportRanking(ctx context.Context, cycleID int64) ([]byte, error) {
	ranked, err := s.GetRanking(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("ExportRanking: %w", err)
	}

	data, err := buildRankingWorkbook(cycleID, ranked)
	if err != nil {
		return nil, fmt.Errorf("ExportRanking: %w", err)
	}
	return data, nil
}

// RenderChart renders the top entries of a cycle as a PNG bar chart.
func (s *LeaderboardService) RenderChart(ctx context.Context, cycleID int64, top int) ([]byte, error) {
	if top <= 0 {
		top = 10
	}
	rows, err := s.repo.TopEntries(ctx, nil, cycleID, top)
	if err != nil {
		return nil, fmt.Errorf("RenderChart: %w", err)
	}

	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("RenderChart: %w", err)
	}

	title := fmt.Sprintf("Season %d leaderboard", cycleID)
	data, err := GenerateRankingChart(title, entriesToRanked(entries), DefaultChartPalette())
	if err != nil {
		return nil, fmt.Errorf("RenderChart: %w", err)
	}
	return data, nil
}

// buildRankingWorkbook lays a ranking out as one sheet with a header row.
func buildRankingWorkbook(cycleID int64, ranked []leaderboardevents.RankedEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}

	headers := map[string]string{
		"A1": "Rank",
		"B1": "Entity",
		"C1": "Total Votes",
	}
	for cell, value := range headers {
		if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
			return nil, err
		}
	}

	for i, entry := range ranked {
		row := i + 2
		if err := f.SetCellValue(exportSheetName, fmt.Sprintf("A%d", row), entry.Rank); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheetName, fmt.Sprintf("B%d", row), entry.EntityID); err != nil {
			return nil, err
		}
		// Written as a string cell so spreadsheet tools cannot round the total.
		if err := f.SetCellValue(exportSheetName, fmt.Sprintf("C%d", row), entry.TotalVotes.String()); err != nil {
			return nil, err
		}
	}

	if err := f.SetCellValue(exportSheetName, "E1", fmt.Sprintf("Cycle %d", cycleID)); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheetName, "B", "C", 32); err != nil {
		return nil, err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
