package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Project groups documents. DocumentCount is derived on list.
type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	Icon          string `json:"icon"`
	SortOrder     int    `json:"sort_order"`
	DocumentCount int    `json:"document_count"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// CreateProject inserts a project at the end of the sort order. Empty
// color and icon fall back to the defaults.
func (s *Store) CreateProject(ctx context.Context, name, color, icon string) (*Project, error) {
	if name == "" {
		return nil, errors.New("project name required")
	}
	if color == "" {
		color = "#7c3aed"
	}
	if icon == "" {
		icon = "folder"
	}
	id := uuid.NewString()
	ts := now()

	var sort int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order), 0) + 1 FROM projects").Scan(&sort); err != nil {
		return nil, fmt.Errorf("next sort order: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, color, icon, sort_order, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?, ?, ?)`,
		id, name, color, icon, sort, ts, ts); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.LogActivity(ctx, "project.created", "project", id, name)
	return &Project{
		ID: id, Name: name, Color: color, Icon: icon,
		SortOrder: sort, CreatedAt: ts, UpdatedAt: ts,
	}, nil
}

// ListProjects returns all projects in sort order with their document
// counts.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.color, p.icon, p.sort_order,
			p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM documents d WHERE d.project_id = p.id)
		 FROM projects p ORDER BY p.sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.Icon,
			&p.SortOrder, &p.CreatedAt, &p.UpdatedAt, &p.DocumentCount); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies the non-nil fields.
func (s *Store) UpdateProject(ctx context.Context, id string, name, color, icon *string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}

	ts := now()
	for column, value := range map[string]*string{
		"name": name, "color": color, "icon": icon,
	} {
		if value == nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			"UPDATE projects SET "+column+" = ?, updated_at = ? WHERE id = ?",
			*value, ts, id); err != nil {
			return fmt.Errorf("update project %s: %w", column, err)
		}
	}
	return nil
}

// DeleteProject removes the project; its documents are detached, not
// deleted.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET project_id = NULL WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("detach documents: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}
