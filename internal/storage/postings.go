package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

func scanJobPosting(row rowScanner, extra ...any) (JobPosting, error) {
	var p JobPosting
	var desc, loc, url, shot, posted sql.NullString
	dest := []any{&p.ID, &p.CompanyID, &p.Title, &desc, &p.SalaryMin,
		&p.SalaryMax, &p.IsRemote, &loc, &url, &shot, &posted,
		&p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return JobPosting{}, err
	}
	p.Description = desc.String
	p.Location = loc.String
	p.JobBoardURL = url.String
	p.S3ScreenshotKey = shot.String
	p.DatePosted = posted.String
	return p, nil
}

const postingCols = `jp.id, jp.company_id, jp.title, jp.description,
	jp.salary_min, jp.salary_max, jp.is_remote, jp.location,
	jp.job_board_url, jp.s3_screenshot_key, jp.date_posted,
	jp.created_at, jp.updated_at`

// CreateJobPosting inserts a posting. An unknown company_id fails with
// ErrConstraint.
func (s *Store) CreateJobPosting(p JobPosting) (JobPosting, error) {
	res, err := s.db.Exec(`INSERT INTO job_postings
		(company_id, title, description, salary_min, salary_max, is_remote,
		 location, job_board_url, s3_screenshot_key, date_posted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CompanyID, p.Title, nullStr(p.Description), nullInt(p.SalaryMin),
		nullInt(p.SalaryMax), boolInt(p.IsRemote), nullStr(p.Location),
		nullStr(p.JobBoardURL), nullStr(p.S3ScreenshotKey), nullStr(p.DatePosted))
	if err != nil {
		return JobPosting{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return JobPosting{}, err
	}
	return s.GetJobPosting(id)
}

// GetJobPosting returns a posting with its company name resolved.
func (s *Store) GetJobPosting(id int64) (JobPosting, error) {
	row := s.db.QueryRow("SELECT "+postingCols+`, c.name
		FROM job_postings jp
		JOIN companies c ON jp.company_id = c.id
		WHERE jp.id = ?`, id)
	var company string
	p, err := scanJobPosting(row, &company)
	if errors.Is(err, sql.ErrNoRows) {
		return JobPosting{}, ErrNotFound
	}
	if err != nil {
		return JobPosting{}, fmt.Errorf("getting job posting %d: %w", id, err)
	}
	p.CompanyName = company
	return p, nil
}

// ListJobPostings returns all postings, newest first.
func (s *Store) ListJobPostings() ([]JobPosting, error) {
	rows, err := s.db.Query("SELECT " + postingCols + `, c.name
		FROM job_postings jp
		JOIN companies c ON jp.company_id = c.id
		ORDER BY jp.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing job postings: %w", err)
	}
	defer rows.Close()

	var out []JobPosting
	for rows.Next() {
		var company string
		p, err := scanJobPosting(rows, &company)
		if err != nil {
			return nil, err
		}
		p.CompanyName = company
		out = append(out, p)
	}
	return out, rows.Err()
}
