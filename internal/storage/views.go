package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
)

// SavedView is a named filter for one resource.
type SavedView struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Resource  string
	Query     string
}

// State decodes the stored query.
func (v SavedView) State() filter.State {
	return filter.Decode(v.Query)
}

// SaveView stores s under name, replacing any view with the same name.
// Paging is not part of a saved view.
func (s *SQLiteStorage) SaveView(ctx context.Context, resource, name string, state filter.State) (SavedView, error) {
	if err := validateContext(ctx); err != nil {
		return SavedView{}, err
	}
	if err := validateString(resource, "resource"); err != nil {
		return SavedView{}, err
	}
	name = strings.TrimSpace(name)
	if err := validateViewName(name); err != nil {
		return SavedView{}, common.NewUserError("View names use letters, digits, spaces and _.- (at most 64)", err)
	}

	state.Page = filter.DefaultPage
	query := filter.Encode(state)
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_views (resource, name, query, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(resource, name) DO UPDATE SET
			query = excluded.query,
			updated_at = excluded.updated_at`,
		resource, name, query, now, now)
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to save view %q: %w", name, err)
	}

	return s.GetView(ctx, resource, name)
}

// GetView returns one saved view or common.ErrNotFound.
func (s *SQLiteStorage) GetView(ctx context.Context, resource, name string) (SavedView, error) {
	if err := validateContext(ctx); err != nil {
		return SavedView{}, err
	}

	v := SavedView{Resource: resource}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, query, created_at, updated_at
		FROM saved_views
		WHERE resource = ? AND name = ?`,
		resource, strings.TrimSpace(name)).Scan(&v.Name, &v.Query, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedView{}, fmt.Errorf("view %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to get view %q: %w", name, err)
	}
	return v, nil
}

// ListViews returns the saved views for resource ordered by name.
func (s *SQLiteStorage) ListViews(ctx context.Context, resource string) ([]SavedView, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, query, created_at, updated_at
		FROM saved_views
		WHERE resource = ?
		ORDER BY name COLLATE NOCASE`,
		resource)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []SavedView
	for rows.Next() {
		v := SavedView{Resource: resource}
		if err := rows.Scan(&v.Name, &v.Query, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// DeleteView removes a saved view. Deleting a missing view returns
// common.ErrNotFound.
func (s *SQLiteStorage) DeleteView(ctx context.Context, resource, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_views WHERE resource = ? AND name = ?`,
		resource, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to delete view %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete view %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("view %q: %w", name, common.ErrNotFound)
	}
	return nil
}

// SetLastView records the filter the user was browsing.
func (s *SQLiteStorage) SetLastView(ctx context.Context, resource string, state filter.State) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO last_view (resource, query, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(resource) DO UPDATE SET
			query = excluded.query,
			updated_at = excluded.updated_at`,
		resource, filter.Encode(state), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record last view: %w", err)
	}
	return nil
}

// LastView returns the last recorded filter, or the default filter when
// none was recorded.
func (s *SQLiteStorage) LastView(ctx context.Context, resource string) (filter.State, error) {
	if err := validateContext(ctx); err != nil {
		return filter.State{}, err
	}

	var query string
	err := s.db.QueryRowContext(ctx,
		`SELECT query FROM last_view WHERE resource = ?`, resource).Scan(&query)
	if errors.Is(err, sql.ErrNoRows) {
		return filter.Default(), nil
	}
	if err != nil {
		return filter.State{}, fmt.Errorf("failed to read last view: %w", err)
	}
	return filter.Decode(query), nil
}
