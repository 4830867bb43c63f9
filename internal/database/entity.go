package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/digivice-labs/digigraph/internal/model"
)

// entityColumns is the column list shared by the entity queries.
const entityColumns = "id, name, url, html, scraped, prev_links, next_links, stage, type, attribute"

// RegisterEntity inserts a new entity or returns the existing one when
// the name is already known. Name is the identity key: two pages that
// extract to the same name are the same entity, and the first site
// identifier seen wins. Cached content is written at registration and
// never overwritten afterwards.
func (s *Store) RegisterEntity(ctx context.Context, e *model.Entity) (*model.Entity, error) {
	existing, err := s.EntityByName(ctx, e.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result := *e
		result.ID = existing.ID
		result.SiteID = existing.SiteID
		return &result, nil
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO digimon(name, url, html) VALUES (?, ?, ?)",
		e.Name, e.SiteID, nullableString(e.CachedHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register entity %q: %w", e.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read entity id: %w", err)
	}

	result := *e
	result.ID = id
	return &result, nil
}

// EntityBySite retrieves an entity by its site identifier.
// Returns (nil, nil) when no entity exists for the site.
func (s *Store) EntityBySite(ctx context.Context, site string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM digimon WHERE url = ?", site)
	return scanEntity(row)
}

// EntityByName retrieves an entity by its canonical name.
// Returns (nil, nil) when the name is unknown.
func (s *Store) EntityByName(ctx context.Context, name string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM digimon WHERE name = ?", name)
	return scanEntity(row)
}

// AllEntities returns every entity in id order. Cached content is not
// loaded; export and reporting never need it.
func (s *Store) AllEntities(ctx context.Context) ([]*model.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, url, scraped, prev_links, next_links, stage, type, attribute FROM digimon ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		var (
			e          model.Entity
			scraped    int
			prev, next sql.NullString
			stage      sql.NullInt64
			typ, attr  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.SiteID, &scraped, &prev, &next, &stage, &typ, &attr); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Scraped = scraped != 0
		e.Stage = model.Stage(stage.Int64)
		e.Type = typ.String
		e.Attribute = attr.String
		if err := decodeLinks(prev, next, &e); err != nil {
			return nil, err
		}
		entities = append(entities, &e)
	}

	return entities, rows.Err()
}

// SetEvolutionLinks records the extracted link lists for an entity and
// marks it scraped. Both lists are replaced wholesale on every call;
// re-extraction overwrites, it never merges. An empty slice is stored
// as '[]', distinct from the NULL of a never-extracted entity.
func (s *Store) SetEvolutionLinks(ctx context.Context, id int64, prev, next []string) error {
	prevJSON, err := encodeLinks(prev)
	if err != nil {
		return err
	}
	nextJSON, err := encodeLinks(next)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE digimon SET prev_links = ?, next_links = ?, scraped = 1 WHERE id = ?",
		prevJSON, nextJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set evolution links for entity %d: %w", id, err)
	}
	return nil
}

// SetMetadata records the infobox metadata for an entity. Empty values
// are stored as empty strings, not NULL, so an entity whose page has no
// infobox still leaves the pending set after one refill.
func (s *Store) SetMetadata(ctx context.Context, id int64, stage model.Stage, typ, attribute string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE digimon SET stage = ?, type = ?, attribute = ? WHERE id = ?",
		int(stage), typ, attribute, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set metadata for entity %d: %w", id, err)
	}
	return nil
}

// CachedPage returns the cached raw content for a site, if any.
// This is the page-cache lookup consulted before every network fetch.
func (s *Store) CachedPage(ctx context.Context, site string) (string, bool, error) {
	var html string
	err := s.db.QueryRowContext(ctx,
		"SELECT html FROM digimon WHERE url = ? AND html IS NOT NULL", site).Scan(&html)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read page cache for %s: %w", site, err)
	}
	return html, true, nil
}

// SitesWithoutLinks returns the site identifiers of entities whose link
// lists were never extracted (both columns still NULL). These are the
// refill seeds: records created before link extraction existed.
func (s *Store) SitesWithoutLinks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT url FROM digimon WHERE prev_links IS NULL AND next_links IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query unextracted entities: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// UnvisitedLinkTargets returns the distinct site identifiers appearing
// in any entity's link lists that were never visited by either path
// (ledger or scraped entity). These are the resume seeds.
func (s *Store) UnvisitedLinkTargets(ctx context.Context) ([]string, error) {
	query := `
	WITH all_links AS (
		SELECT DISTINCT site FROM (
			SELECT json_each.value AS site FROM digimon, json_each(prev_links)
			UNION ALL
			SELECT json_each.value AS site FROM digimon, json_each(next_links)
		)
	),
	all_visits AS (
		SELECT site FROM scraped
		UNION ALL
		SELECT url FROM digimon WHERE scraped = 1
	)
	SELECT site FROM all_links WHERE site NOT IN all_visits
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unvisited link targets: %w", err)
	}
	defer rows.Close()

	return collectStrings(rows)
}

// EntitiesWithPendingMetadata returns entities with cached content but
// no extracted attribute yet, the metadata refill's work set. Only the
// id, site identifier and cached content are populated.
func (s *Store) EntitiesWithPendingMetadata(ctx context.Context) ([]*model.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, url, html FROM digimon WHERE html IS NOT NULL AND attribute IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query entities pending metadata: %w", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ID, &e.SiteID, &e.CachedHTML); err != nil {
			return nil, fmt.Errorf("failed to scan pending entity: %w", err)
		}
		entities = append(entities, &e)
	}

	return entities, rows.Err()
}

// scanEntity reads one entity row, mapping sql.ErrNoRows to (nil, nil).
func scanEntity(row *sql.Row) (*model.Entity, error) {
	var (
		e          model.Entity
		html       sql.NullString
		scraped    int
		prev, next sql.NullString
		stage      sql.NullInt64
		typ, attr  sql.NullString
	)

	err := row.Scan(&e.ID, &e.Name, &e.SiteID, &html, &scraped, &prev, &next, &stage, &typ, &attr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	e.CachedHTML = html.String
	e.Scraped = scraped != 0
	e.Stage = model.Stage(stage.Int64)
	e.Type = typ.String
	e.Attribute = attr.String
	if err := decodeLinks(prev, next, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// encodeLinks marshals a link list for storage. A nil slice encodes as
// '[]' as well: by the time links are written, extraction has run, and
// "ran with no result" must be distinguishable from NULL.
func encodeLinks(links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("failed to encode link list: %w", err)
	}
	return string(b), nil
}

// decodeLinks unmarshals the stored link columns into the entity,
// preserving the NULL / empty-list distinction.
func decodeLinks(prev, next sql.NullString, e *model.Entity) error {
	if prev.Valid {
		if err := json.Unmarshal([]byte(prev.String), &e.PrevLinks); err != nil {
			return fmt.Errorf("failed to decode prev links for %q: %w", e.Name, err)
		}
		if e.PrevLinks == nil {
			e.PrevLinks = []string{}
		}
	}
	if next.Valid {
		if err := json.Unmarshal([]byte(next.String), &e.NextLinks); err != nil {
			return fmt.Errorf("failed to decode next links for %q: %w", e.Name, err)
		}
		if e.NextLinks == nil {
			e.NextLinks = []string{}
		}
	}
	return nil
}

// collectStrings drains a single-column string result set.
func collectStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
