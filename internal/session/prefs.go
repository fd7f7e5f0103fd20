package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Prefs persists per-screen UI preferences, currently the last used
// filter state, so a screen reopens the way the user left it.
type Prefs struct {
	db *sql.DB
}

// NewPrefs creates a Prefs over an already migrated store.
func NewPrefs(db *sql.DB) *Prefs {
	return &Prefs{db: db}
}

// SaveFilter remembers a screen's filter state, replacing any previous one.
func (p *Prefs) SaveFilter(ctx context.Context, screen, search string, facets map[string]string) error {
	blob, err := json.Marshal(facets)
	if err != nil {
		return fmt.Errorf("save filter for %q: %w", screen, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO screen_filters (screen, search, facets, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(screen) DO UPDATE SET
			search = excluded.search,
			facets = excluded.facets,
			updated_at = excluded.updated_at`,
		screen, search, string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save filter for %q: %w", screen, err)
	}
	return nil
}

// Filter returns a screen's remembered filter state. The bool is false
// when nothing was remembered.
func (p *Prefs) Filter(ctx context.Context, screen string) (search string, facets map[string]string, ok bool, err error) {
	var blob string
	err = p.db.QueryRowContext(ctx,
		`SELECT search, facets FROM screen_filters WHERE screen = ?`, screen).
		Scan(&search, &blob)
	if err == sql.ErrNoRows {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("load filter for %q: %w", screen, err)
	}
	if err := json.Unmarshal([]byte(blob), &facets); err != nil {
		return "", nil, false, fmt.Errorf("load filter for %q: %w", screen, err)
	}
	return search, facets, true, nil
}

// ClearFilters drops every remembered filter (sign-out of a shared machine).
func (p *Prefs) ClearFilters(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM screen_filters`); err != nil {
		return fmt.Errorf("clear filters: %w", err)
	}
	return nil
}
