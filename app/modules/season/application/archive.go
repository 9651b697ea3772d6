package seasonservice

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	"github.com/Permavault-Club/season-engine/internal/alerts"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

// seasonManifest is the archival snapshot written into a season's permanent
// folder when the season is finalized.
type seasonManifest struct {
	Season      int64         `json:"season"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	GeneratedAt time.Time     `json:"generatedAt"`
	EntryCount  int           `json:"entryCount"`
	Standings   []StandingRow `json:"standings"`
}

// archiveStandings snapshots the ending season's final standings into the
// permanent store. Best-effort: a season can roll over without its manifest,
// so every failure here alerts instead of aborting the finalize phase.
func (s *SeasonService) archiveStandings(ctx context.Context, seasonNumber int64) {
	standings, err := s.tally.Standings(ctx, seasonNumber)
	if err != nil {
		s.alertArchiveFailure(ctx, seasonNumber, "read standings", err)
		return
	}

	manifest, err := buildManifest(seasonNumber, s.clock.Boundaries(seasonNumber), standings, s.now().UTC())
	if err != nil {
		s.alertArchiveFailure(ctx, seasonNumber, "encode manifest", err)
		return
	}

	ref, err := s.store.UploadManifest(ctx, seasonNumber, manifest)
	if err != nil {
		s.alertArchiveFailure(ctx, seasonNumber, "upload manifest", err)
		return
	}

	s.logger.InfoContext(ctx, "Season manifest archived",
		attr.SeasonNumber("season", seasonNumber),
		attr.String("manifest_ref", ref),
		attr.Int("entries", len(standings)),
		attr.ExtractCorrelationID(ctx),
	)
}

func buildManifest(seasonNumber int64, boundaries seasondomain.Boundaries, standings []StandingRow, generatedAt time.Time) ([]byte, error) {
	if standings == nil {
		standings = []StandingRow{}
	}
	return json.MarshalIndent(seasonManifest{
		Season:      seasonNumber,
		Start:       boundaries.Start,
		End:         boundaries.End,
		GeneratedAt: generatedAt,
		EntryCount:  len(standings),
		Standings:   standings,
	}, "", "  ")
}

func (s *SeasonService) alertArchiveFailure(ctx context.Context, seasonNumber int64, step string, err error) {
	s.logger.ErrorContext(ctx, "Season archive step failed",
		attr.SeasonNumber("season", seasonNumber),
		attr.String("step", step),
		attr.Error(err),
		attr.ExtractCorrelationID(ctx),
	)
	s.notifier.SendAlert(ctx, alerts.SeverityWarning, "season.archive_failed", err.Error(), map[string]string{
		"season": strconv.FormatInt(seasonNumber, 10),
		"step":   step,
	})
}
