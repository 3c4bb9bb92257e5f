package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

func scanRecruiter(row rowScanner, extra ...any) (Recruiter, error) {
	var r Recruiter
	var contact, email, phone, phone2, company, linkedin, specialties sql.NullString
	var position, dept, mgrName, mgrEmail, mgrPhone, mgrLinkedin sql.NullString
	var acctName, acctType, office, tz, contactMethod, authority sql.NullString
	var lastContact, notes sql.NullString
	dest := []any{&r.ID, &r.Name, &contact, &email, &phone, &phone2,
		&company, &linkedin, &specialties, &r.CurrentResumeVersionID,
		&position, &dept, &mgrName, &mgrEmail, &mgrPhone, &mgrLinkedin,
		&acctName, &acctType, &office, &tz, &contactMethod,
		&r.IsManager, &r.TeamSize, &authority, &r.RelationshipStatus,
		&lastContact, &notes, &r.IsStarred, &r.CreatedAt, &r.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Recruiter{}, err
	}
	r.PrimaryContactName = contact.String
	r.Email = email.String
	r.Phone = phone.String
	r.PhoneSecondary = phone2.String
	r.Company = company.String
	r.LinkedInURL = linkedin.String
	r.Specialties = specialties.String
	r.PositionTitle = position.String
	r.Department = dept.String
	r.ManagerName = mgrName.String
	r.ManagerEmail = mgrEmail.String
	r.ManagerPhone = mgrPhone.String
	r.ManagerLinkedInURL = mgrLinkedin.String
	r.AccountName = acctName.String
	r.AccountType = acctType.String
	r.OfficeLocation = office.String
	r.Timezone = tz.String
	r.PreferredContactMethod = contactMethod.String
	r.DecisionAuthority = authority.String
	r.LastContactDate = lastContact.String
	r.Notes = notes.String
	return r, nil
}

const recruiterCols = `r.id, r.name, r.primary_contact_name, r.email, r.phone,
	r.phone_secondary, r.company, r.linkedin_url, r.specialties,
	r.current_resume_version_id, r.position_title, r.department,
	r.manager_name, r.manager_email, r.manager_phone, r.manager_linkedin_url,
	r.account_name, r.account_type, r.office_location, r.timezone,
	r.preferred_contact_method, r.is_manager, r.team_size,
	r.decision_authority, r.relationship_status, r.last_contact_date,
	r.notes, r.is_starred, r.created_at, r.updated_at`

// CreateRecruiter inserts a recruiter. The status defaults to "new" when
// the caller leaves it blank.
func (s *Store) CreateRecruiter(r Recruiter) (Recruiter, error) {
	status := r.RelationshipStatus
	if status == "" {
		status = "new"
	}
	res, err := s.db.Exec(`INSERT INTO recruiters
		(name, primary_contact_name, email, phone, phone_secondary, company,
		 linkedin_url, specialties, current_resume_version_id, position_title,
		 department, manager_name, manager_email, manager_phone,
		 manager_linkedin_url, account_name, account_type, office_location,
		 timezone, preferred_contact_method, is_manager, team_size,
		 decision_authority, relationship_status, last_contact_date, notes, is_starred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, nullStr(r.PrimaryContactName), nullStr(r.Email), nullStr(r.Phone),
		nullStr(r.PhoneSecondary), nullStr(r.Company), nullStr(r.LinkedInURL),
		nullStr(r.Specialties), nullID(r.CurrentResumeVersionID),
		nullStr(r.PositionTitle), nullStr(r.Department), nullStr(r.ManagerName),
		nullStr(r.ManagerEmail), nullStr(r.ManagerPhone), nullStr(r.ManagerLinkedInURL),
		nullStr(r.AccountName), nullStr(r.AccountType), nullStr(r.OfficeLocation),
		nullStr(r.Timezone), nullStr(r.PreferredContactMethod), boolInt(r.IsManager),
		nullInt(r.TeamSize), nullStr(r.DecisionAuthority), status,
		nullStr(r.LastContactDate), nullStr(r.Notes), boolInt(r.IsStarred))
	if err != nil {
		return Recruiter{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Recruiter{}, err
	}
	return s.GetRecruiter(id)
}

// GetRecruiter returns a recruiter with the name of the resume version
// currently on file with them.
func (s *Store) GetRecruiter(id int64) (Recruiter, error) {
	row := s.db.QueryRow("SELECT "+recruiterCols+`, rv.version_name
		FROM recruiters r
		LEFT JOIN resume_versions rv ON r.current_resume_version_id = rv.id
		WHERE r.id = ?`, id)
	var version sql.NullString
	r, err := scanRecruiter(row, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return Recruiter{}, ErrNotFound
	}
	if err != nil {
		return Recruiter{}, fmt.Errorf("getting recruiter %d: %w", id, err)
	}
	r.CurrentResumeVersion = version.String
	return r, nil
}

// ListRecruiters returns all recruiters, starred first.
func (s *Store) ListRecruiters() ([]Recruiter, error) {
	rows, err := s.db.Query("SELECT " + recruiterCols + `, rv.version_name
		FROM recruiters r
		LEFT JOIN resume_versions rv ON r.current_resume_version_id = rv.id
		ORDER BY r.is_starred DESC, r.name`)
	if err != nil {
		return nil, fmt.Errorf("listing recruiters: %w", err)
	}
	defer rows.Close()

	var out []Recruiter
	for rows.Next() {
		var version sql.NullString
		r, err := scanRecruiter(rows, &version)
		if err != nil {
			return nil, err
		}
		r.CurrentResumeVersion = version.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRecruiter applies the set fields of the patch.
func (s *Store) UpdateRecruiter(id int64, p RecruiterPatch) (bool, error) {
	var u updateBuilder
	if p.Name != nil {
		u.set("name", *p.Name)
	}
	if p.PrimaryContactName != nil {
		u.set("primary_contact_name", nullStr(*p.PrimaryContactName))
	}
	if p.Email != nil {
		u.set("email", nullStr(*p.Email))
	}
	if p.Phone != nil {
		u.set("phone", nullStr(*p.Phone))
	}
	if p.PhoneSecondary != nil {
		u.set("phone_secondary", nullStr(*p.PhoneSecondary))
	}
	if p.Company != nil {
		u.set("company", nullStr(*p.Company))
	}
	if p.LinkedInURL != nil {
		u.set("linkedin_url", nullStr(*p.LinkedInURL))
	}
	if p.Specialties != nil {
		u.set("specialties", nullStr(*p.Specialties))
	}
	if p.PositionTitle != nil {
		u.set("position_title", nullStr(*p.PositionTitle))
	}
	if p.Department != nil {
		u.set("department", nullStr(*p.Department))
	}
	if p.ManagerName != nil {
		u.set("manager_name", nullStr(*p.ManagerName))
	}
	if p.ManagerEmail != nil {
		u.set("manager_email", nullStr(*p.ManagerEmail))
	}
	if p.ManagerPhone != nil {
		u.set("manager_phone", nullStr(*p.ManagerPhone))
	}
	if p.ManagerLinkedInURL != nil {
		u.set("manager_linkedin_url", nullStr(*p.ManagerLinkedInURL))
	}
	if p.AccountName != nil {
		u.set("account_name", nullStr(*p.AccountName))
	}
	if p.AccountType != nil {
		u.set("account_type", nullStr(*p.AccountType))
	}
	if p.OfficeLocation != nil {
		u.set("office_location", nullStr(*p.OfficeLocation))
	}
	if p.Timezone != nil {
		u.set("timezone", nullStr(*p.Timezone))
	}
	if p.PreferredContactMethod != nil {
		u.set("preferred_contact_method", nullStr(*p.PreferredContactMethod))
	}
	if p.IsManager != nil {
		u.set("is_manager", boolInt(*p.IsManager))
	}
	if p.TeamSize != nil {
		u.set("team_size", *p.TeamSize)
	}
	if p.DecisionAuthority != nil {
		u.set("decision_authority", nullStr(*p.DecisionAuthority))
	}
	if p.RelationshipStatus != nil {
		u.set("relationship_status", *p.RelationshipStatus)
	}
	if p.Notes != nil {
		u.set("notes", nullStr(*p.Notes))
	}
	if p.IsStarred != nil {
		u.set("is_starred", boolInt(*p.IsStarred))
	}
	return u.exec(s.db, "recruiters", "id = ?", id)
}

// SetRecruiterResume points the recruiter at a resume version (nil clears
// the pointer) and appends a share record when a version is set.
func (s *Store) SetRecruiterResume(recruiterID int64, resumeVersionID *int64, context, notes string) error {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE recruiters
		SET current_resume_version_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, nullID(resumeVersionID), recruiterID); err != nil {
		return dbErr(err)
	}
	if resumeVersionID != nil && *resumeVersionID != 0 {
		if _, err := tx.Exec(`INSERT INTO recruiter_resume_history
			(recruiter_id, resume_version_id, sharing_context, notes)
			VALUES (?, ?, ?, ?)`,
			recruiterID, *resumeVersionID, nullStr(context), nullStr(notes)); err != nil {
			return dbErr(err)
		}
	}
	return tx.Commit()
}

// RecruiterResumeShares lists every resume version shared with a recruiter,
// newest first.
func (s *Store) RecruiterResumeShares(recruiterID int64) ([]ResumeShare, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT h.id, h.recruiter_id, h.resume_version_id,
		h.job_posting_id, h.sharing_context, h.notes, h.shared_date,
		rv.version_name, rv.filename, jp.title
		FROM recruiter_resume_history h
		JOIN resume_versions rv ON h.resume_version_id = rv.id
		LEFT JOIN job_postings jp ON h.job_posting_id = jp.id
		WHERE h.recruiter_id = ?
		ORDER BY h.shared_date DESC`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("listing resume shares %d: %w", recruiterID, err)
	}
	defer rows.Close()

	var out []ResumeShare
	for rows.Next() {
		var sh ResumeShare
		var context, notes, jobTitle sql.NullString
		if err := rows.Scan(&sh.ID, &sh.RecruiterID, &sh.ResumeVersionID,
			&sh.JobPostingID, &context, &notes, &sh.SharedDate,
			&sh.VersionName, &sh.Filename, &jobTitle); err != nil {
			return nil, err
		}
		sh.SharingContext = context.String
		sh.Notes = notes.String
		sh.JobTitle = jobTitle.String
		out = append(out, sh)
	}
	return out, rows.Err()
}

// AddRecruiterCommunication logs a touchpoint and bumps the recruiter's
// last contact date.
func (s *Store) AddRecruiterCommunication(c RecruiterCommunication) (RecruiterCommunication, error) {
	if _, err := s.GetRecruiter(c.RecruiterID); err != nil {
		return RecruiterCommunication{}, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return RecruiterCommunication{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO recruiter_communications
		(recruiter_id, communication_type, direction, subject, content, outcome,
		 follow_up_required, follow_up_date, notes, communication_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		c.RecruiterID, c.CommunicationType, c.Direction, nullStr(c.Subject),
		nullStr(c.Content), nullStr(c.Outcome), boolInt(c.FollowUpRequired),
		nullStr(c.FollowUpDate), nullStr(c.Notes), nullStr(c.CommunicationDate))
	if err != nil {
		return RecruiterCommunication{}, dbErr(err)
	}
	if _, err := tx.Exec(`UPDATE recruiters
		SET last_contact_date = DATE('now'), updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, c.RecruiterID); err != nil {
		return RecruiterCommunication{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RecruiterCommunication{}, err
	}
	if err := tx.Commit(); err != nil {
		return RecruiterCommunication{}, err
	}
	return s.getRecruiterCommunication(id)
}

func (s *Store) getRecruiterCommunication(id int64) (RecruiterCommunication, error) {
	row := s.db.QueryRow(`SELECT id, recruiter_id, communication_type, direction,
		subject, content, outcome, follow_up_required, follow_up_date, notes,
		communication_date, created_at, updated_at
		FROM recruiter_communications WHERE id = ?`, id)
	c, err := scanRecruiterCommunication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RecruiterCommunication{}, ErrNotFound
	}
	return c, err
}

func scanRecruiterCommunication(row rowScanner) (RecruiterCommunication, error) {
	var c RecruiterCommunication
	var subject, content, outcome, followDate, notes sql.NullString
	err := row.Scan(&c.ID, &c.RecruiterID, &c.CommunicationType, &c.Direction,
		&subject, &content, &outcome, &c.FollowUpRequired, &followDate,
		&notes, &c.CommunicationDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return RecruiterCommunication{}, err
	}
	c.Subject = subject.String
	c.Content = content.String
	c.Outcome = outcome.String
	c.FollowUpDate = followDate.String
	c.Notes = notes.String
	return c, nil
}

// RecruiterCommunications lists a recruiter's logged touchpoints, newest
// first.
func (s *Store) RecruiterCommunications(recruiterID int64) ([]RecruiterCommunication, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, recruiter_id, communication_type, direction,
		subject, content, outcome, follow_up_required, follow_up_date, notes,
		communication_date, created_at, updated_at
		FROM recruiter_communications
		WHERE recruiter_id = ?
		ORDER BY communication_date DESC`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("listing communications %d: %w", recruiterID, err)
	}
	defer rows.Close()

	var out []RecruiterCommunication
	for rows.Next() {
		c, err := scanRecruiterCommunication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecruiterDashboardRow is one row of the recruiter_dashboard view.
type RecruiterDashboardRow struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Company              string `json:"company,omitempty"`
	RelationshipStatus   string `json:"relationship_status"`
	IsStarred            bool   `json:"is_starred"`
	LastContactDate      string `json:"last_contact_date,omitempty"`
	CurrentResumeVersion string `json:"current_resume_version,omitempty"`
	TotalCommunications  int    `json:"total_communications"`
	LastCommunication    string `json:"last_communication,omitempty"`
	ResumesShared        int    `json:"resumes_shared"`
	ApplicationsAssisted int    `json:"applications_assisted"`
}

// RecruiterDashboard summarizes every recruiter relationship.
func (s *Store) RecruiterDashboard() ([]RecruiterDashboardRow, error) {
	rows, err := s.db.Query(`SELECT id, name, company, relationship_status,
		is_starred, last_contact_date, current_resume_version,
		total_communications, last_communication, resumes_shared,
		applications_assisted
		FROM recruiter_dashboard
		ORDER BY is_starred DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("recruiter dashboard: %w", err)
	}
	defer rows.Close()

	var out []RecruiterDashboardRow
	for rows.Next() {
		var d RecruiterDashboardRow
		var company, lastContact, version, lastComm sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &company, &d.RelationshipStatus,
			&d.IsStarred, &lastContact, &version, &d.TotalCommunications,
			&lastComm, &d.ResumesShared, &d.ApplicationsAssisted); err != nil {
			return nil, err
		}
		d.Company = company.String
		d.LastContactDate = lastContact.String
		d.CurrentResumeVersion = version.String
		d.LastCommunication = lastComm.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecruiterCompanies lists the companies a recruiter works with, active
// associations included regardless of state.
func (s *Store) RecruiterCompanies(recruiterID int64) ([]CompanyRecruiter, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT cr.id, cr.company_id, cr.recruiter_id,
		cr.association_type, cr.specialization, cr.is_active, cr.start_date,
		cr.end_date, cr.notes, c.name, c.industry, c.website
		FROM company_recruiters cr
		JOIN companies c ON cr.company_id = c.id
		WHERE cr.recruiter_id = ?
		ORDER BY cr.is_active DESC, c.name`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("listing recruiter companies %d: %w", recruiterID, err)
	}
	defer rows.Close()

	var out []CompanyRecruiter
	for rows.Next() {
		var cr CompanyRecruiter
		var spec, start, end, notes, industry, website sql.NullString
		if err := rows.Scan(&cr.ID, &cr.CompanyID, &cr.RecruiterID,
			&cr.AssociationType, &spec, &cr.IsActive, &start, &end, &notes,
			&cr.CompanyName, &industry, &website); err != nil {
			return nil, err
		}
		cr.Specialization = spec.String
		cr.StartDate = start.String
		cr.EndDate = end.String
		cr.Notes = notes.String
		cr.Industry = industry.String
		cr.Website = website.String
		out = append(out, cr)
	}
	return out, rows.Err()
}

// AssociateRecruiter links a recruiter to a company. Re-linking an existing
// pair fails with ErrConstraint.
func (s *Store) AssociateRecruiter(companyID int64, cr CompanyRecruiter) (CompanyRecruiter, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return CompanyRecruiter{}, err
	}
	assoc := cr.AssociationType
	if assoc == "" {
		assoc = "external"
	}
	res, err := s.db.Exec(`INSERT INTO company_recruiters
		(company_id, recruiter_id, association_type, specialization, is_active, start_date, notes)
		VALUES (?, ?, ?, ?, 1, COALESCE(?, DATE('now')), ?)`,
		companyID, cr.RecruiterID, assoc, nullStr(cr.Specialization),
		nullStr(cr.StartDate), nullStr(cr.Notes))
	if err != nil {
		return CompanyRecruiter{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return CompanyRecruiter{}, err
	}
	row := s.db.QueryRow(`SELECT id, company_id, recruiter_id, association_type,
		specialization, is_active, start_date, end_date, notes
		FROM company_recruiters WHERE id = ?`, id)
	var out CompanyRecruiter
	var spec, start, end, notes sql.NullString
	if err := row.Scan(&out.ID, &out.CompanyID, &out.RecruiterID,
		&out.AssociationType, &spec, &out.IsActive, &start, &end, &notes); err != nil {
		return CompanyRecruiter{}, err
	}
	out.Specialization = spec.String
	out.StartDate = start.String
	out.EndDate = end.String
	out.Notes = notes.String
	return out, nil
}

// CompanyRecruiters lists the recruiters associated with a company.
func (s *Store) CompanyRecruiters(companyID int64, activeOnly bool) ([]CompanyRecruiter, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return nil, err
	}
	query := `SELECT cr.id, cr.company_id, cr.recruiter_id, cr.association_type,
		cr.specialization, cr.is_active, cr.start_date, cr.end_date, cr.notes,
		r.name, r.email, r.relationship_status
		FROM company_recruiters cr
		JOIN recruiters r ON cr.recruiter_id = r.id
		WHERE cr.company_id = ?`
	if activeOnly {
		query += " AND cr.is_active = 1"
	}
	query += " ORDER BY r.name"

	rows, err := s.db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing company recruiters %d: %w", companyID, err)
	}
	defer rows.Close()

	var out []CompanyRecruiter
	for rows.Next() {
		var cr CompanyRecruiter
		var spec, start, end, notes, email sql.NullString
		if err := rows.Scan(&cr.ID, &cr.CompanyID, &cr.RecruiterID,
			&cr.AssociationType, &spec, &cr.IsActive, &start, &end, &notes,
			&cr.RecruiterName, &email, &cr.RelationshipStatus); err != nil {
			return nil, err
		}
		cr.Specialization = spec.String
		cr.StartDate = start.String
		cr.EndDate = end.String
		cr.Notes = notes.String
		cr.RecruiterEmail = email.String
		out = append(out, cr)
	}
	return out, rows.Err()
}

// DeactivateCompanyRecruiter ends an association without losing its history.
func (s *Store) DeactivateCompanyRecruiter(companyID, recruiterID int64) error {
	res, err := s.db.Exec(`UPDATE company_recruiters
		SET is_active = 0, end_date = DATE('now'), updated_at = CURRENT_TIMESTAMP
		WHERE company_id = ? AND recruiter_id = ? AND is_active = 1`,
		companyID, recruiterID)
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
