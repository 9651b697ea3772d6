package seasonmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating seasons and season_transitions tables...")

		if _, err := db.NewCreateTable().Model((*seasondb.Season)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateTable().Model((*seasondb.SeasonTransition)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// One rollover record per season pair; the create-if-absent insert
		// relies on this conflict target.
		if _, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS idx_season_transitions_pair ON season_transitions (from_season, to_season)").Exec(ctx); err != nil {
			return err
		}

		// The resolver looks up the single active season.
		_, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_seasons_status ON seasons (status)").Exec(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Season tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping seasons and season_transitions tables...")

		if _, err := db.NewDropTable().Model((*seasondb.SeasonTransition)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewDropTable().Model((*seasondb.Season)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Season tables dropped successfully!")
		return nil
	})
}
