package vectorstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending goose migration embedded under
// migrations/. Only called when EnableAutoMigrate is set (config.Validate
// does not restrict that flag by environment); the embedded
// migration targets the default mcp_search.candidate_embeddings
// schema/table names, matching config's own defaults.
func runMigrations(ctx context.Context, a *Adapter) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, a.db.DB, migrationsFS)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}
		a.logger.Info("migration applied", map[string]interface{}{
			"version": r.Source.Version, "file": r.Source.Path, "durationMs": r.Duration.Milliseconds(),
		})
	}
	return nil
}
