package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const resumeCols = `id, filename, version_name, content_text, s3_key,
	editable_s3_key, editable_filename, skills_emphasized, target_roles,
	is_master, description, word_count, created_at, updated_at`

func scanResumeVersion(row rowScanner, extra ...any) (ResumeVersion, error) {
	var rv ResumeVersion
	var content, s3, editS3, editName, skills, roles, desc sql.NullString
	dest := []any{&rv.ID, &rv.Filename, &rv.VersionName, &content, &s3,
		&editS3, &editName, &skills, &roles, &rv.IsMaster, &desc,
		&rv.WordCount, &rv.CreatedAt, &rv.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return ResumeVersion{}, err
	}
	rv.ContentText = content.String
	rv.S3Key = s3.String
	rv.EditableS3Key = editS3.String
	rv.EditableFilename = editName.String
	rv.SkillsEmphasized = decodeList(skills)
	rv.TargetRoles = roles.String
	rv.Description = desc.String
	return rv, nil
}

// CreateResumeVersion inserts a resume version; word_count is derived from
// the content text, never taken from the caller.
func (s *Store) CreateResumeVersion(rv ResumeVersion) (ResumeVersion, error) {
	res, err := s.db.Exec(`INSERT INTO resume_versions
		(filename, version_name, content_text, s3_key, editable_s3_key,
		 editable_filename, skills_emphasized, target_roles, is_master,
		 description, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.Filename, rv.VersionName, nullStr(rv.ContentText), nullStr(rv.S3Key),
		nullStr(rv.EditableS3Key), nullStr(rv.EditableFilename),
		encodeList(rv.SkillsEmphasized), nullStr(rv.TargetRoles),
		boolInt(rv.IsMaster), nullStr(rv.Description), wordCount(rv.ContentText))
	if err != nil {
		return ResumeVersion{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ResumeVersion{}, err
	}
	return s.GetResumeVersion(id)
}

// GetResumeVersion returns a single resume version by id.
func (s *Store) GetResumeVersion(id int64) (ResumeVersion, error) {
	row := s.db.QueryRow("SELECT "+resumeCols+" FROM resume_versions WHERE id = ?", id)
	rv, err := scanResumeVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ResumeVersion{}, ErrNotFound
	}
	if err != nil {
		return ResumeVersion{}, fmt.Errorf("getting resume version %d: %w", id, err)
	}
	return rv, nil
}

// ListResumeVersions returns all versions, master copies first, then newest.
func (s *Store) ListResumeVersions() ([]ResumeVersion, error) {
	rows, err := s.db.Query("SELECT " + resumeCols +
		" FROM resume_versions ORDER BY is_master DESC, created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing resume versions: %w", err)
	}
	defer rows.Close()

	var out []ResumeVersion
	for rows.Next() {
		rv, err := scanResumeVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ResumeVersionsWithTags lists all versions with their tag names
// concatenated and counted.
func (s *Store) ResumeVersionsWithTags() ([]ResumeVersion, error) {
	rows, err := s.db.Query(`SELECT rv.id, rv.filename, rv.version_name,
		rv.content_text, rv.s3_key, rv.editable_s3_key, rv.editable_filename,
		rv.skills_emphasized, rv.target_roles, rv.is_master, rv.description,
		rv.word_count, rv.created_at, rv.updated_at,
		COALESCE(GROUP_CONCAT(t.name, ', '), ''), COUNT(t.id)
		FROM resume_versions rv
		LEFT JOIN resume_tags rt ON rv.id = rt.resume_version_id
		LEFT JOIN tags t ON rt.tag_id = t.id
		GROUP BY rv.id
		ORDER BY rv.is_master DESC, rv.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing resume versions with tags: %w", err)
	}
	defer rows.Close()

	var out []ResumeVersion
	for rows.Next() {
		var tags string
		var count int
		rv, err := scanResumeVersion(rows, &tags, &count)
		if err != nil {
			return nil, err
		}
		rv.Tags = tags
		rv.TagCount = count
		out = append(out, rv)
	}
	return out, rows.Err()
}

// UpdateResumeVersion applies the set fields of the patch. Setting
// content_text also recomputes word_count.
func (s *Store) UpdateResumeVersion(id int64, p ResumeVersionPatch) (bool, error) {
	var u updateBuilder
	if p.Filename != nil {
		u.set("filename", *p.Filename)
	}
	if p.VersionName != nil {
		u.set("version_name", *p.VersionName)
	}
	if p.ContentText != nil {
		u.set("content_text", nullStr(*p.ContentText))
		u.set("word_count", wordCount(*p.ContentText))
	}
	if p.S3Key != nil {
		u.set("s3_key", nullStr(*p.S3Key))
	}
	if p.EditableS3Key != nil {
		u.set("editable_s3_key", nullStr(*p.EditableS3Key))
	}
	if p.EditableFilename != nil {
		u.set("editable_filename", nullStr(*p.EditableFilename))
	}
	if p.SkillsEmphasized != nil {
		u.set("skills_emphasized", encodeList(*p.SkillsEmphasized))
	}
	if p.TargetRoles != nil {
		u.set("target_roles", nullStr(*p.TargetRoles))
	}
	if p.IsMaster != nil {
		u.set("is_master", boolInt(*p.IsMaster))
	}
	if p.Description != nil {
		u.set("description", nullStr(*p.Description))
	}
	return u.exec(s.db, "resume_versions", "id = ?", id)
}

// ResumeMetrics is one row of the resume_success_metrics view.
type ResumeMetrics struct {
	ID                int64   `json:"id"`
	VersionName       string  `json:"version_name"`
	Filename          string  `json:"filename"`
	IsMaster          bool    `json:"is_master"`
	WordCount         int     `json:"word_count"`
	TotalApplications int     `json:"total_applications"`
	Interviews        int     `json:"interviews"`
	Offers            int     `json:"offers"`
	Responses         int     `json:"responses"`
	ResponseRate      float64 `json:"response_rate"`
	InterviewRate     float64 `json:"interview_rate"`
	OfferRate         float64 `json:"offer_rate"`
}

// ResumeSuccessMetrics reports per-version outcome rates. Versions with no
// applications report zero rates.
func (s *Store) ResumeSuccessMetrics() ([]ResumeMetrics, error) {
	rows, err := s.db.Query(`SELECT id, version_name, filename, is_master,
		word_count, total_applications, interviews, offers, responses,
		response_rate, interview_rate, offer_rate
		FROM resume_success_metrics
		ORDER BY total_applications DESC, version_name`)
	if err != nil {
		return nil, fmt.Errorf("resume success metrics: %w", err)
	}
	defer rows.Close()

	var out []ResumeMetrics
	for rows.Next() {
		var m ResumeMetrics
		if err := rows.Scan(&m.ID, &m.VersionName, &m.Filename, &m.IsMaster,
			&m.WordCount, &m.TotalApplications, &m.Interviews, &m.Offers,
			&m.Responses, &m.ResponseRate, &m.InterviewRate, &m.OfferRate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SearchResumesByTags finds versions carrying the given tags. With matchAll
// a version must have every tag; otherwise any one suffices.
func (s *Store) SearchResumesByTags(tagNames []string, matchAll bool) ([]ResumeVersion, error) {
	if len(tagNames) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(tagNames)-1) + "?"
	args := make([]any, len(tagNames))
	for i, n := range tagNames {
		args[i] = n
	}

	query := `SELECT DISTINCT rv.id, rv.filename, rv.version_name,
		rv.content_text, rv.s3_key, rv.editable_s3_key, rv.editable_filename,
		rv.skills_emphasized, rv.target_roles, rv.is_master, rv.description,
		rv.word_count, rv.created_at, rv.updated_at
		FROM resume_versions rv
		JOIN resume_tags rt ON rv.id = rt.resume_version_id
		JOIN tags t ON rt.tag_id = t.id
		WHERE t.name IN (` + placeholders + `)`
	if matchAll {
		query += fmt.Sprintf(`
		GROUP BY rv.id
		HAVING COUNT(DISTINCT t.id) = %d`, len(tagNames))
	}
	query += `
		ORDER BY rv.is_master DESC, rv.created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching resumes by tags: %w", err)
	}
	defer rows.Close()

	var out []ResumeVersion
	for rows.Next() {
		rv, err := scanResumeVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
