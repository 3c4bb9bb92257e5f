package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

const companyCols = `id, name, website, industry, company_size, headquarters,
	is_remote_friendly, notes, is_starred, created_at, updated_at`

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	var website, industry, size, hq, notes sql.NullString
	err := row.Scan(&c.ID, &c.Name, &website, &industry, &size, &hq,
		&c.IsRemoteFriendly, &notes, &c.IsStarred, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Company{}, err
	}
	c.Website = website.String
	c.Industry = industry.String
	c.CompanySize = size.String
	c.Headquarters = hq.String
	c.Notes = notes.String
	return c, nil
}

// CreateCompany inserts a company and returns it with generated fields.
// A duplicate name fails with ErrConstraint.
func (s *Store) CreateCompany(c Company) (Company, error) {
	res, err := s.db.Exec(`INSERT INTO companies
		(name, website, industry, company_size, headquarters, is_remote_friendly, notes, is_starred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, nullStr(c.Website), nullStr(c.Industry), nullStr(c.CompanySize),
		nullStr(c.Headquarters), boolInt(c.IsRemoteFriendly), nullStr(c.Notes), boolInt(c.IsStarred))
	if err != nil {
		return Company{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Company{}, err
	}
	return s.GetCompany(id)
}

// GetCompany returns a single company by id.
func (s *Store) GetCompany(id int64) (Company, error) {
	row := s.db.QueryRow("SELECT "+companyCols+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if err != nil {
		return Company{}, fmt.Errorf("getting company %d: %w", id, err)
	}
	return c, nil
}

// FindCompanyByName matches case-insensitively on a name fragment and
// returns the first hit.
func (s *Store) FindCompanyByName(name string) (Company, error) {
	row := s.db.QueryRow("SELECT "+companyCols+` FROM companies
		WHERE name LIKE ? COLLATE NOCASE ORDER BY name LIMIT 1`, "%"+name+"%")
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if err != nil {
		return Company{}, fmt.Errorf("finding company %q: %w", name, err)
	}
	return c, nil
}

// ListCompanies returns all companies ordered by name.
func (s *Store) ListCompanies() ([]Company, error) {
	rows, err := s.db.Query("SELECT " + companyCols + " FROM companies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCompany applies the set fields of the patch. Returns false when
// nothing was set or the company does not exist.
func (s *Store) UpdateCompany(id int64, p CompanyPatch) (bool, error) {
	var u updateBuilder
	if p.Name != nil {
		u.set("name", *p.Name)
	}
	if p.Website != nil {
		u.set("website", nullStr(*p.Website))
	}
	if p.Industry != nil {
		u.set("industry", nullStr(*p.Industry))
	}
	if p.CompanySize != nil {
		u.set("company_size", nullStr(*p.CompanySize))
	}
	if p.Headquarters != nil {
		u.set("headquarters", nullStr(*p.Headquarters))
	}
	if p.IsRemoteFriendly != nil {
		u.set("is_remote_friendly", boolInt(*p.IsRemoteFriendly))
	}
	if p.Notes != nil {
		u.set("notes", nullStr(*p.Notes))
	}
	if p.IsStarred != nil {
		u.set("is_starred", boolInt(*p.IsStarred))
	}
	return u.exec(s.db, "companies", "id = ?", id)
}

// DeleteCompany removes a company. Rows referencing it keep their foreign
// keys, so deletion fails with ErrConstraint while references exist.
func (s *Store) DeleteCompany(id int64) error {
	res, err := s.db.Exec("DELETE FROM companies WHERE id = ?", id)
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

// CompanyStats aggregates application outcomes for one company.
type CompanyStats struct {
	CompanyID         int64   `json:"company_id"`
	CompanyName       string  `json:"company_name"`
	TotalApplications int     `json:"total_applications"`
	Interviews        int     `json:"interviews"`
	Offers            int     `json:"offers"`
	Rejections        int     `json:"rejections"`
	Pending           int     `json:"pending"`
	SuccessRate       float64 `json:"success_rate"`
	FirstApplication  string  `json:"first_application,omitempty"`
	LastApplication   string  `json:"last_application,omitempty"`
}

// GetCompanyStats returns aggregate application counts and a success rate
// (offers per application, percent). A company with no applications reports
// zeros rather than an error.
func (s *Store) GetCompanyStats(id int64) (CompanyStats, error) {
	c, err := s.GetCompany(id)
	if err != nil {
		return CompanyStats{}, err
	}

	st := CompanyStats{CompanyID: c.ID, CompanyName: c.Name}
	var first, last sql.NullString
	err = s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status IN ('interviewing', 'interview_scheduled') THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'offer' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status IN ('applied', 'screening') THEN 1 ELSE 0 END), 0),
		MIN(application_date), MAX(application_date)
		FROM applications WHERE company_id = ?`, id).Scan(
		&st.TotalApplications, &st.Interviews, &st.Offers, &st.Rejections,
		&st.Pending, &first, &last)
	if err != nil {
		return CompanyStats{}, fmt.Errorf("company stats %d: %w", id, err)
	}
	st.FirstApplication = first.String
	st.LastApplication = last.String
	if st.TotalApplications > 0 {
		st.SuccessRate = float64(st.Offers) * 100 / float64(st.TotalApplications)
	}
	return st, nil
}

// CompanyDetails is a company joined with its activity aggregates from the
// company_activity view.
type CompanyDetails struct {
	Company
	TotalJobsPosted  int      `json:"total_jobs_posted"`
	ApplicationsSent int      `json:"applications_sent"`
	LastJobPosted    string   `json:"last_job_posted,omitempty"`
	AvgSalaryMin     *float64 `json:"avg_salary_min"`
	AvgSalaryMax     *float64 `json:"avg_salary_max"`
	RemoteJobs       int      `json:"remote_jobs"`
}

// GetCompanyDetails returns the company with counts from the
// company_activity view.
func (s *Store) GetCompanyDetails(id int64) (CompanyDetails, error) {
	c, err := s.GetCompany(id)
	if err != nil {
		return CompanyDetails{}, err
	}
	d := CompanyDetails{Company: c}
	var last sql.NullString
	err = s.db.QueryRow(`SELECT total_jobs_posted, applications_sent,
		last_job_posted, avg_salary_min, avg_salary_max, remote_jobs
		FROM company_activity WHERE id = ?`, id).Scan(
		&d.TotalJobsPosted, &d.ApplicationsSent, &last,
		&d.AvgSalaryMin, &d.AvgSalaryMax, &d.RemoteJobs)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CompanyDetails{}, fmt.Errorf("company details %d: %w", id, err)
	}
	d.LastJobPosted = last.String
	return d, nil
}

// CompanyActivityRow is one row of the company_activity view.
type CompanyActivityRow struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Website          string   `json:"website,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	CompanySize      string   `json:"company_size,omitempty"`
	Headquarters     string   `json:"headquarters,omitempty"`
	IsRemoteFriendly bool     `json:"is_remote_friendly"`
	IsStarred        bool     `json:"is_starred"`
	TotalJobsPosted  int      `json:"total_jobs_posted"`
	ApplicationsSent int      `json:"applications_sent"`
	LastJobPosted    string   `json:"last_job_posted,omitempty"`
	AvgSalaryMin     *float64 `json:"avg_salary_min"`
	AvgSalaryMax     *float64 `json:"avg_salary_max"`
	RemoteJobs       int      `json:"remote_jobs"`
}

// CompanyActivity lists every company with its posting and application
// aggregates, starred companies first.
func (s *Store) CompanyActivity() ([]CompanyActivityRow, error) {
	rows, err := s.db.Query(`SELECT id, name, website, industry, company_size,
		headquarters, is_remote_friendly, is_starred, total_jobs_posted,
		applications_sent, last_job_posted, avg_salary_min, avg_salary_max,
		remote_jobs
		FROM company_activity
		ORDER BY is_starred DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing company activity: %w", err)
	}
	defer rows.Close()

	var out []CompanyActivityRow
	for rows.Next() {
		var c CompanyActivityRow
		var website, industry, size, hq, last sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &website, &industry, &size, &hq,
			&c.IsRemoteFriendly, &c.IsStarred, &c.TotalJobsPosted,
			&c.ApplicationsSent, &last, &c.AvgSalaryMin, &c.AvgSalaryMax,
			&c.RemoteJobs); err != nil {
			return nil, err
		}
		c.Website = website.String
		c.Industry = industry.String
		c.CompanySize = size.String
		c.Headquarters = hq.String
		c.LastJobPosted = last.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// CompanyJobPostings lists a company's postings with per-posting application
// counts and the distinct statuses seen.
func (s *Store) CompanyJobPostings(companyID int64) ([]JobPosting, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT jp.id, jp.company_id, jp.title, jp.description,
		jp.salary_min, jp.salary_max, jp.is_remote, jp.location, jp.job_board_url,
		jp.s3_screenshot_key, jp.date_posted, jp.created_at, jp.updated_at,
		COUNT(a.id), COALESCE(GROUP_CONCAT(DISTINCT a.status), '')
		FROM job_postings jp
		LEFT JOIN applications a ON a.job_posting_id = jp.id
		WHERE jp.company_id = ?
		GROUP BY jp.id
		ORDER BY jp.created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("company postings %d: %w", companyID, err)
	}
	defer rows.Close()

	var out []JobPosting
	for rows.Next() {
		var p JobPosting
		var desc, loc, url, shot, posted sql.NullString
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Title, &desc,
			&p.SalaryMin, &p.SalaryMax, &p.IsRemote, &loc, &url,
			&shot, &posted, &p.CreatedAt, &p.UpdatedAt,
			&p.ApplicationsCount, &p.ApplicationStatuses); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.Location = loc.String
		p.JobBoardURL = url.String
		p.S3ScreenshotKey = shot.String
		p.DatePosted = posted.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// CompanyApplications lists a company's applications, newest first.
func (s *Store) CompanyApplications(companyID int64) ([]Application, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return nil, err
	}
	return s.queryApplications(`WHERE a.company_id = ?`, companyID)
}
