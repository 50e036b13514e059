// Package pg bootstraps PostgreSQL access with pgx/v5.
//
// Connect opens a *pgxpool.Pool from an env-tagged Config, retrying while the
// database comes up. Migrate runs goose migrations from any fs.FS, so a package
// can embed its own schema:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations, "migrations", cfg, log); err != nil {
//		return err
//	}
//
// Healthcheck adapts the pool to a func(context.Context) error probe, and
// IsDuplicateKeyError / IsNotFoundError classify pgx errors.
package pg
