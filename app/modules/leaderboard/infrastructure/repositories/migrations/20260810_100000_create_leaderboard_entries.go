package leaderboardmigrations

import (
	"context"
	"fmt"

	leaderboarddb "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leaderboard_entries and leaderboard_vote_snapshots tables...")

		if _, err := db.NewCreateTable().Model((*leaderboarddb.LeaderboardEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateTable().Model((*leaderboarddb.VoteSnapshot)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// Ranking reads scan a whole cycle ordered by rank.
		_, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_leaderboard_entries_cycle_rank ON leaderboard_entries (cycle_id, rank)").Exec(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Leaderboard tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping leaderboard_entries and leaderboard_vote_snapshots tables...")

		if _, err := db.NewDropTable().Model((*leaderboarddb.VoteSnapshot)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewDropTable().Model((*leaderboarddb.LeaderboardEntry)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Leaderboard tables dropped successfully!")
		return nil
	})
}
