package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

func scanTag(row rowScanner) (Tag, error) {
	var t Tag
	var desc sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &desc, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Tag{}, err
	}
	t.Description = desc.String
	return t, nil
}

// CreateTag inserts a tag. Names are unique case-insensitively; a duplicate
// fails with ErrConstraint.
func (s *Store) CreateTag(t Tag) (Tag, error) {
	color := t.Color
	if color == "" {
		color = "#3B82F6"
	}
	res, err := s.db.Exec(`INSERT INTO tags (name, description, color) VALUES (?, ?, ?)`,
		t.Name, nullStr(t.Description), color)
	if err != nil {
		return Tag{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return s.GetTag(id)
}

// GetTag returns a single tag by id.
func (s *Store) GetTag(id int64) (Tag, error) {
	row := s.db.QueryRow(`SELECT id, name, description, color, created_at, updated_at
		FROM tags WHERE id = ?`, id)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, ErrNotFound
	}
	if err != nil {
		return Tag{}, fmt.Errorf("getting tag %d: %w", id, err)
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, description, color, created_at, updated_at
		FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTag(id int64, p TagPatch) (bool, error) {
	var u updateBuilder
	if p.Name != nil {
		u.set("name", *p.Name)
	}
	if p.Description != nil {
		u.set("description", nullStr(*p.Description))
	}
	if p.Color != nil {
		u.set("color", *p.Color)
	}
	return u.exec(s.db, "tags", "id = ?", id)
}

// DeleteTag removes a tag; resume assignments cascade away with it.
func (s *Store) DeleteTag(id int64) error {
	res, err := s.db.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return dbErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResumeTags lists the tags assigned to one resume version.
func (s *Store) ResumeTags(resumeID int64) ([]Tag, error) {
	if _, err := s.GetResumeVersion(resumeID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT t.id, t.name, t.description, t.color,
		t.created_at, t.updated_at
		FROM tags t
		JOIN resume_tags rt ON t.id = rt.tag_id
		WHERE rt.resume_version_id = ?
		ORDER BY t.name`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("listing resume tags %d: %w", resumeID, err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddResumeTags assigns tags to a version. Already-assigned tags are
// skipped, unknown tag ids fail with ErrConstraint.
func (s *Store) AddResumeTags(resumeID int64, tagIDs []int64) error {
	if _, err := s.GetResumeVersion(resumeID); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO resume_tags
			(resume_version_id, tag_id) VALUES (?, ?)`, resumeID, tagID); err != nil {
			return dbErr(err)
		}
	}
	return tx.Commit()
}

// SetResumeTags replaces a version's tag set with exactly the given tags.
func (s *Store) SetResumeTags(resumeID int64, tagIDs []int64) error {
	if _, err := s.GetResumeVersion(resumeID); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM resume_tags WHERE resume_version_id = ?", resumeID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO resume_tags
			(resume_version_id, tag_id) VALUES (?, ?)`, resumeID, tagID); err != nil {
			return dbErr(err)
		}
	}
	return tx.Commit()
}

// RemoveResumeTag unassigns one tag from a version. Removing a tag that was
// not assigned is not an error.
func (s *Store) RemoveResumeTag(resumeID, tagID int64) error {
	if _, err := s.GetResumeVersion(resumeID); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM resume_tags
		WHERE resume_version_id = ? AND tag_id = ?`, resumeID, tagID)
	return err
}
