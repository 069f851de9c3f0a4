package migrations

import (
	"context"
	"fmt"

	"github.com/pitchlense/pitchlense/pkg/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		// Create reports table from struct
		_, err := db.NewCreateTable().
			Model((*models.Report)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		// Create uploads table from struct; hard-deleting a report removes
		// its uploads
		_, err = db.NewCreateTable().
			Model((*models.Upload)(nil)).
			IfNotExists().
			ForeignKey(`("report_id") REFERENCES reports ("report_id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		// Create tasks table from struct
		_, err = db.NewCreateTable().
			Model((*models.Task)(nil)).
			IfNotExists().
			ForeignKey(`("report_id") REFERENCES reports ("report_id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		// Create task_files table from struct
		_, err = db.NewCreateTable().
			Model((*models.TaskFile)(nil)).
			IfNotExists().
			ForeignKey(`("task_id") REFERENCES tasks ("task_id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewRaw(`CREATE INDEX IF NOT EXISTS uploads_report_id_idx ON uploads (report_id)`).Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewRaw(`CREATE INDEX IF NOT EXISTS tasks_state_idx ON tasks (state)`).Exec(ctx)
		if err != nil {
			return err
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		_, err := db.NewDropTable().Model((*models.TaskFile)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewDropTable().Model((*models.Task)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewDropTable().Model((*models.Upload)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewDropTable().Model((*models.Report)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		return nil
	})
}
