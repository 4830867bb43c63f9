package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digivice-labs/digigraph/internal/model"
)

// Ref looks up a cached citation-target classification. Both identifier
// forms are checked in one query because the cache may have been written
// under either the raw or the percent-encoded spelling, depending on
// which extraction path stored it first. Returns nil on a miss.
func (s *Store) Ref(ctx context.Context, site, altSite string) (*model.Reference, error) {
	var (
		ref  model.Reference
		html sql.NullString
		card int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, url, html, is_card FROM refs WHERE url = ? OR url = ?", site, altSite).
		Scan(&ref.ID, &ref.SiteID, &html, &card)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference %s: %w", site, err)
	}

	ref.HTML = html.String
	ref.IsCard = card != 0
	return &ref, nil
}

// PutRef stores a citation-target classification with the raw content
// it was derived from. Write-once: a conflicting insert is ignored, so
// the first classification of a target sticks.
func (s *Store) PutRef(ctx context.Context, site, html string, isCard bool) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO refs(url, html, is_card) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		site, nullableString(html), boolToInt(isCard),
	)
	if err != nil {
		return fmt.Errorf("failed to store reference %s: %w", site, err)
	}
	return nil
}

// PutCardRefs bulk-inserts card classifications without content, used
// by the card-list prefill which learns card membership from the
// category listing rather than from individual pages. Existing records
// are left untouched.
func (s *Store) PutCardRefs(ctx context.Context, sites []string) (int64, error) {
	if len(sites) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prefill transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO refs(url, is_card) VALUES (?, 1) ON CONFLICT DO NOTHING")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare prefill statement: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, site := range sites {
		res, err := stmt.ExecContext(ctx, site)
		if err != nil {
			return 0, fmt.Errorf("failed to prefill reference %s: %w", site, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count prefill insert: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prefill transaction: %w", err)
	}
	return inserted, nil
}

// CountRefs returns the total number of cached reference classifications
// and how many of them are card-only. Used for progress reporting.
func (s *Store) CountRefs(ctx context.Context) (total, cards int64, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_card), 0) FROM refs").Scan(&total, &cards)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count references: %w", err)
	}
	return total, cards, nil
}

// boolToInt maps a bool onto the INTEGER column convention.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
