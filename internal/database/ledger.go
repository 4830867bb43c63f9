package database

import (
	"context"
	"fmt"
)

// MarkVisited records a site in the visitation ledger. The write is
// idempotent: marking an already-visited site is a no-op, which keeps
// duplicate future writes safe on resume.
func (s *Store) MarkVisited(ctx context.Context, site string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scraped(site) VALUES (?) ON CONFLICT DO NOTHING", site)
	if err != nil {
		return fmt.Errorf("failed to mark %s visited: %w", site, err)
	}
	return nil
}

// Visited reports whether a site was ever attempted. A site counts as
// visited when it appears in the ledger or when its entity row is
// marked scraped — both paths must be checked because they are not
// mutually exclusive writes: a non-creature page only ever reaches the
// ledger, while an entity registered by an older run may be scraped
// without a ledger entry.
func (s *Store) Visited(ctx context.Context, site string) (bool, error) {
	query := `
	SELECT EXISTS (
		SELECT 1 FROM scraped WHERE site = ?
		UNION ALL
		SELECT 1 FROM digimon WHERE url = ? AND scraped = 1
	)
	`

	var visited bool
	if err := s.db.QueryRowContext(ctx, query, site, site).Scan(&visited); err != nil {
		return false, fmt.Errorf("failed to check visitation for %s: %w", site, err)
	}
	return visited, nil
}
