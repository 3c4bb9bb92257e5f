package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const applicationCols = `a.id, a.company_id, c.name, a.job_posting_id,
	a.recruiter_id, a.resume_version_id, a.position_title,
	a.application_date, a.application_source, a.status, a.response_date,
	a.outcome_notes, a.cover_letter_s3_key, a.job_posting_text,
	a.job_location, a.job_url, a.salary_min, a.salary_max, a.is_remote,
	a.created_at, a.updated_at`

func scanApplication(row rowScanner, extra ...any) (Application, error) {
	var a Application
	var source, response, outcome, cover, postingText sql.NullString
	var loc, url sql.NullString
	var isRemote sql.NullInt64
	dest := []any{&a.ID, &a.CompanyID, &a.CompanyName, &a.JobPostingID,
		&a.RecruiterID, &a.ResumeVersionID, &a.PositionTitle,
		&a.ApplicationDate, &source, &a.Status, &response, &outcome,
		&cover, &postingText, &loc, &url, &a.SalaryMin, &a.SalaryMax,
		&isRemote, &a.CreatedAt, &a.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Application{}, err
	}
	a.ApplicationSource = source.String
	a.ResponseDate = response.String
	a.OutcomeNotes = outcome.String
	a.CoverLetterS3Key = cover.String
	a.JobPostingText = postingText.String
	a.JobLocation = loc.String
	a.JobURL = url.String
	if isRemote.Valid {
		v := isRemote.Int64 != 0
		a.IsRemote = &v
	}
	return a, nil
}

func (s *Store) queryApplications(where string, args ...any) ([]Application, error) {
	rows, err := s.db.Query(`SELECT `+applicationCols+`
		FROM applications a
		JOIN companies c ON a.company_id = c.id
		`+where+`
		ORDER BY a.application_date DESC, a.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateApplication inserts an application and auto-records a submission
// event on its timeline. The date defaults to today, the status to
// "applied". Unknown foreign keys fail with ErrConstraint.
func (s *Store) CreateApplication(a Application) (Application, error) {
	date := a.ApplicationDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	status := a.Status
	if status == "" {
		status = "applied"
	}

	var isRemote any
	if a.IsRemote != nil {
		isRemote = boolInt(*a.IsRemote)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Application{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO applications
		(company_id, job_posting_id, recruiter_id, resume_version_id,
		 position_title, application_date, application_source, status,
		 outcome_notes, cover_letter_s3_key, job_posting_text, job_location,
		 job_url, salary_min, salary_max, is_remote)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CompanyID, nullID(a.JobPostingID), nullID(a.RecruiterID),
		nullID(a.ResumeVersionID), a.PositionTitle, date,
		nullStr(a.ApplicationSource), status, nullStr(a.OutcomeNotes),
		nullStr(a.CoverLetterS3Key), nullStr(a.JobPostingText),
		nullStr(a.JobLocation), nullStr(a.JobURL), nullInt(a.SalaryMin),
		nullInt(a.SalaryMax), isRemote)
	if err != nil {
		return Application{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Application{}, err
	}

	if _, err := tx.Exec(`INSERT INTO application_events
		(application_id, event_type, event_date, title)
		VALUES (?, 'application_submitted', ?, ?)`,
		id, date, "Applied to "+a.PositionTitle); err != nil {
		return Application{}, dbErr(err)
	}

	if err := tx.Commit(); err != nil {
		return Application{}, err
	}
	return s.GetApplication(id)
}

// GetApplication returns a single application with its company name.
func (s *Store) GetApplication(id int64) (Application, error) {
	row := s.db.QueryRow(`SELECT `+applicationCols+`
		FROM applications a
		JOIN companies c ON a.company_id = c.id
		WHERE a.id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("getting application %d: %w", id, err)
	}
	return a, nil
}

// GetApplicationDetails joins the application with its company, resume,
// posting, and recruiter. Salary, location, and remote flag fall back to
// the linked posting when the application leaves them blank.
func (s *Store) GetApplicationDetails(id int64) (ApplicationDetails, error) {
	row := s.db.QueryRow(`SELECT a.id, a.company_id, c.name, a.job_posting_id,
		a.recruiter_id, a.resume_version_id, a.position_title,
		a.application_date, a.application_source, a.status, a.response_date,
		a.outcome_notes, a.cover_letter_s3_key, a.job_posting_text,
		COALESCE(a.job_location, jp.location), a.job_url,
		COALESCE(a.salary_min, jp.salary_min),
		COALESCE(a.salary_max, jp.salary_max),
		COALESCE(a.is_remote, jp.is_remote),
		a.created_at, a.updated_at,
		c.website, rv.version_name, rv.content_text, rv.skills_emphasized,
		jp.description, jp.title, r.name, r.email
		FROM applications a
		JOIN companies c ON a.company_id = c.id
		LEFT JOIN resume_versions rv ON a.resume_version_id = rv.id
		LEFT JOIN job_postings jp ON a.job_posting_id = jp.id
		LEFT JOIN recruiters r ON a.recruiter_id = r.id
		WHERE a.id = ?`, id)

	var website, version, content, skills sql.NullString
	var jobDesc, jobTitle, recName, recEmail sql.NullString
	a, err := scanApplication(row, &website, &version, &content, &skills,
		&jobDesc, &jobTitle, &recName, &recEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return ApplicationDetails{}, ErrNotFound
	}
	if err != nil {
		return ApplicationDetails{}, fmt.Errorf("application details %d: %w", id, err)
	}
	return ApplicationDetails{
		Application:     a,
		CompanyWebsite:  website.String,
		ResumeVersion:   version.String,
		ResumeContent:   content.String,
		ResumeSkills:    decodeList(skills),
		JobDescription:  jobDesc.String,
		JobPostingTitle: jobTitle.String,
		RecruiterName:   recName.String,
		RecruiterEmail:  recEmail.String,
	}, nil
}

// ActiveApplication is one row of the active_applications view.
type ActiveApplication struct {
	ID                int64  `json:"id"`
	CompanyID         int64  `json:"company_id"`
	CompanyName       string `json:"company_name"`
	PositionTitle     string `json:"position_title"`
	ApplicationDate   string `json:"application_date"`
	Status            string `json:"status"`
	ApplicationSource string `json:"application_source,omitempty"`
	ResumeVersionID   *int64 `json:"resume_version_id"`
	ResumeVersion     string `json:"resume_version,omitempty"`
	RecruiterID       *int64 `json:"recruiter_id"`
	RecruiterName     string `json:"recruiter_name,omitempty"`
	JobPostingID      *int64 `json:"job_posting_id"`
	JobPostingTitle   string `json:"job_posting_title,omitempty"`
	JobLocation       string `json:"job_location,omitempty"`
	JobURL            string `json:"job_url,omitempty"`
	SalaryMin         *int64 `json:"salary_min"`
	SalaryMax         *int64 `json:"salary_max"`
	IsRemote          *bool  `json:"is_remote"`
	ResponseDate      string `json:"response_date,omitempty"`
	OutcomeNotes      string `json:"outcome_notes,omitempty"`
	UpdatedAt         string `json:"updated_at"`
}

// ActiveApplications lists every application not yet rejected or withdrawn.
func (s *Store) ActiveApplications() ([]ActiveApplication, error) {
	rows, err := s.db.Query(`SELECT id, company_id, company_name,
		position_title, application_date, status, application_source,
		resume_version_id, resume_version, recruiter_id, recruiter_name,
		job_posting_id, job_posting_title, job_location, job_url,
		salary_min, salary_max, is_remote, response_date, outcome_notes,
		updated_at
		FROM active_applications`)
	if err != nil {
		return nil, fmt.Errorf("listing active applications: %w", err)
	}
	defer rows.Close()

	var out []ActiveApplication
	for rows.Next() {
		var a ActiveApplication
		var source, version, recruiter, jobTitle, loc, url sql.NullString
		var response, outcome sql.NullString
		var isRemote sql.NullInt64
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.CompanyName,
			&a.PositionTitle, &a.ApplicationDate, &a.Status, &source,
			&a.ResumeVersionID, &version, &a.RecruiterID, &recruiter,
			&a.JobPostingID, &jobTitle, &loc, &url, &a.SalaryMin,
			&a.SalaryMax, &isRemote, &response, &outcome, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.ApplicationSource = source.String
		a.ResumeVersion = version.String
		a.RecruiterName = recruiter.String
		a.JobPostingTitle = jobTitle.String
		a.JobLocation = loc.String
		a.JobURL = url.String
		a.ResponseDate = response.String
		a.OutcomeNotes = outcome.String
		if isRemote.Valid {
			v := isRemote.Int64 != 0
			a.IsRemote = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SearchApplicationsByCompany matches applications whose company name
// contains the fragment, case-insensitively.
func (s *Store) SearchApplicationsByCompany(name string) ([]Application, error) {
	return s.queryApplications(`WHERE c.name LIKE ? COLLATE NOCASE`, "%"+name+"%")
}

// UpdateApplication applies the set fields of the patch.
func (s *Store) UpdateApplication(id int64, p ApplicationPatch) (bool, error) {
	var u updateBuilder
	if p.PositionTitle != nil {
		u.set("position_title", *p.PositionTitle)
	}
	if p.Status != nil {
		u.set("status", *p.Status)
	}
	if p.ApplicationSource != nil {
		u.set("application_source", nullStr(*p.ApplicationSource))
	}
	if p.JobPostingID != nil {
		u.set("job_posting_id", nullID(p.JobPostingID))
	}
	if p.JobPostingText != nil {
		u.set("job_posting_text", nullStr(*p.JobPostingText))
	}
	if p.JobLocation != nil {
		u.set("job_location", nullStr(*p.JobLocation))
	}
	if p.JobURL != nil {
		u.set("job_url", nullStr(*p.JobURL))
	}
	if p.OutcomeNotes != nil {
		u.set("outcome_notes", nullStr(*p.OutcomeNotes))
	}
	if p.SalaryMin != nil {
		u.set("salary_min", *p.SalaryMin)
	}
	if p.SalaryMax != nil {
		u.set("salary_max", *p.SalaryMax)
	}
	if p.IsRemote != nil {
		u.set("is_remote", boolInt(*p.IsRemote))
	}
	return u.exec(s.db, "applications", "id = ?", id)
}

// SetApplicationStatus transitions an application's status. The first move
// off "applied" stamps response_date; notes append to the outcome log.
func (s *Store) SetApplicationStatus(id int64, status, notes string) error {
	if _, err := s.GetApplication(id); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE applications
		SET status = ?,
		    response_date = CASE
		        WHEN response_date IS NULL AND ? NOT IN ('applied') THEN DATE('now')
		        ELSE response_date END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, status, id); err != nil {
		return dbErr(err)
	}
	if notes != "" {
		if _, err := tx.Exec(`UPDATE applications
			SET outcome_notes = CASE
			    WHEN outcome_notes IS NULL OR outcome_notes = '' THEN ?
			    ELSE outcome_notes || char(10) || ? END
			WHERE id = ?`, notes, notes, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO application_events
		(application_id, event_type, event_date, title, description)
		VALUES (?, 'status_change', DATE('now'), ?, ?)`,
		id, "Status changed to "+status, nullStr(notes)); err != nil {
		return dbErr(err)
	}
	return tx.Commit()
}

// SetApplicationResume re-points an application at a resume version; nil
// clears the link.
func (s *Store) SetApplicationResume(id int64, resumeVersionID *int64) error {
	if resumeVersionID != nil && *resumeVersionID != 0 {
		if _, err := s.GetResumeVersion(*resumeVersionID); err != nil {
			return err
		}
	}
	res, err := s.db.Exec(`UPDATE applications
		SET resume_version_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, nullID(resumeVersionID), id)
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

// DeleteApplication removes an application; its events and communications
// cascade away.
func (s *Store) DeleteApplication(id int64) error {
	res, err := s.db.Exec("DELETE FROM applications WHERE id = ?", id)
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

const applicationEventCols = `id, application_id, event_type, event_date,
	event_time, title, description, outcome, next_steps, attendees,
	location, meeting_link, documents_shared, duration_minutes,
	follow_up_required, follow_up_date, created_at, updated_at`

func scanApplicationEvent(row rowScanner, extra ...any) (ApplicationEvent, error) {
	var e ApplicationEvent
	var eventTime, desc, outcome, next, attendees sql.NullString
	var loc, link, docs, followDate sql.NullString
	dest := []any{&e.ID, &e.ApplicationID, &e.EventType, &e.EventDate,
		&eventTime, &e.Title, &desc, &outcome, &next, &attendees, &loc,
		&link, &docs, &e.DurationMinutes, &e.FollowUpRequired, &followDate,
		&e.CreatedAt, &e.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return ApplicationEvent{}, err
	}
	e.EventTime = eventTime.String
	e.Description = desc.String
	e.Outcome = outcome.String
	e.NextSteps = next.String
	e.Attendees = decodeList(attendees)
	e.Location = loc.String
	e.MeetingLink = link.String
	e.DocumentsShared = decodeList(docs)
	e.FollowUpDate = followDate.String
	return e, nil
}

// AddApplicationEvent records an event on an application's timeline.
func (s *Store) AddApplicationEvent(applicationID int64, e ApplicationEvent) (ApplicationEvent, error) {
	if _, err := s.GetApplication(applicationID); err != nil {
		return ApplicationEvent{}, err
	}
	date := e.EventDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	res, err := s.db.Exec(`INSERT INTO application_events
		(application_id, event_type, event_date, event_time, title,
		 description, outcome, next_steps, attendees, location, meeting_link,
		 documents_shared, duration_minutes, follow_up_required, follow_up_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		applicationID, e.EventType, date, nullStr(e.EventTime), e.Title,
		nullStr(e.Description), nullStr(e.Outcome), nullStr(e.NextSteps),
		encodeList(e.Attendees), nullStr(e.Location), nullStr(e.MeetingLink),
		encodeList(e.DocumentsShared), nullInt(e.DurationMinutes),
		boolInt(e.FollowUpRequired), nullStr(e.FollowUpDate))
	if err != nil {
		return ApplicationEvent{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ApplicationEvent{}, err
	}
	return s.GetApplicationEvent(id)
}

// GetApplicationEvent returns one timeline event by id.
func (s *Store) GetApplicationEvent(id int64) (ApplicationEvent, error) {
	row := s.db.QueryRow("SELECT "+applicationEventCols+
		" FROM application_events WHERE id = ?", id)
	e, err := scanApplicationEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ApplicationEvent{}, ErrNotFound
	}
	if err != nil {
		return ApplicationEvent{}, fmt.Errorf("getting application event %d: %w", id, err)
	}
	return e, nil
}

// ApplicationEvents lists an application's timeline, newest first.
func (s *Store) ApplicationEvents(applicationID int64) ([]ApplicationEvent, error) {
	if _, err := s.GetApplication(applicationID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT "+applicationEventCols+`
		FROM application_events
		WHERE application_id = ?
		ORDER BY event_date DESC, created_at DESC`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("listing application events %d: %w", applicationID, err)
	}
	defer rows.Close()

	var out []ApplicationEvent
	for rows.Next() {
		e, err := scanApplicationEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateApplicationEvent applies the set fields of the patch.
func (s *Store) UpdateApplicationEvent(id int64, p ApplicationEventPatch) (bool, error) {
	var u updateBuilder
	if p.EventType != nil {
		u.set("event_type", *p.EventType)
	}
	if p.EventDate != nil {
		u.set("event_date", *p.EventDate)
	}
	if p.EventTime != nil {
		u.set("event_time", nullStr(*p.EventTime))
	}
	if p.Title != nil {
		u.set("title", *p.Title)
	}
	if p.Description != nil {
		u.set("description", nullStr(*p.Description))
	}
	if p.Outcome != nil {
		u.set("outcome", nullStr(*p.Outcome))
	}
	if p.NextSteps != nil {
		u.set("next_steps", nullStr(*p.NextSteps))
	}
	if p.Attendees != nil {
		u.set("attendees", encodeList(*p.Attendees))
	}
	if p.Location != nil {
		u.set("location", nullStr(*p.Location))
	}
	if p.MeetingLink != nil {
		u.set("meeting_link", nullStr(*p.MeetingLink))
	}
	if p.DocumentsShared != nil {
		u.set("documents_shared", encodeList(*p.DocumentsShared))
	}
	if p.DurationMinutes != nil {
		u.set("duration_minutes", *p.DurationMinutes)
	}
	if p.FollowUpRequired != nil {
		u.set("follow_up_required", boolInt(*p.FollowUpRequired))
	}
	if p.FollowUpDate != nil {
		u.set("follow_up_date", nullStr(*p.FollowUpDate))
	}
	return u.exec(s.db, "application_events", "id = ?", id)
}

// DeleteApplicationEvent removes one timeline event.
func (s *Store) DeleteApplicationEvent(id int64) error {
	res, err := s.db.Exec("DELETE FROM application_events WHERE id = ?", id)
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

// UpcomingFollowUps lists events flagged for follow-up whose date falls
// within the next daysAhead days, soonest first.
func (s *Store) UpcomingFollowUps(daysAhead int) ([]ApplicationEvent, error) {
	rows, err := s.db.Query(`SELECT e.id, e.application_id, e.event_type,
		e.event_date, e.event_time, e.title, e.description, e.outcome,
		e.next_steps, e.attendees, e.location, e.meeting_link,
		e.documents_shared, e.duration_minutes, e.follow_up_required,
		e.follow_up_date, e.created_at, e.updated_at,
		a.position_title, c.name
		FROM application_events e
		JOIN applications a ON e.application_id = a.id
		JOIN companies c ON a.company_id = c.id
		WHERE e.follow_up_required = 1
		  AND e.follow_up_date IS NOT NULL
		  AND e.follow_up_date BETWEEN DATE('now') AND DATE('now', '+' || ? || ' days')
		ORDER BY e.follow_up_date`, daysAhead)
	if err != nil {
		return nil, fmt.Errorf("listing follow-ups: %w", err)
	}
	defer rows.Close()

	var out []ApplicationEvent
	for rows.Next() {
		var position, company string
		e, err := scanApplicationEvent(rows, &position, &company)
		if err != nil {
			return nil, err
		}
		e.PositionTitle = position
		e.CompanyName = company
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddCommunication logs a message on an application.
func (s *Store) AddCommunication(c Communication) (Communication, error) {
	if _, err := s.GetApplication(c.ApplicationID); err != nil {
		return Communication{}, err
	}
	res, err := s.db.Exec(`INSERT INTO communications
		(application_id, communication_type, direction, subject, content, communication_date)
		VALUES (?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		c.ApplicationID, c.CommunicationType, c.Direction, nullStr(c.Subject),
		nullStr(c.Content), nullStr(c.CommunicationDate))
	if err != nil {
		return Communication{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Communication{}, err
	}
	row := s.db.QueryRow(`SELECT id, application_id, communication_type,
		direction, subject, content, communication_date, created_at
		FROM communications WHERE id = ?`, id)
	var out Communication
	var subject, content sql.NullString
	if err := row.Scan(&out.ID, &out.ApplicationID, &out.CommunicationType,
		&out.Direction, &subject, &content, &out.CommunicationDate,
		&out.CreatedAt); err != nil {
		return Communication{}, err
	}
	out.Subject = subject.String
	out.Content = content.String
	return out, nil
}

// ApplicationCommunications lists an application's messages, newest first.
func (s *Store) ApplicationCommunications(applicationID int64) ([]Communication, error) {
	if _, err := s.GetApplication(applicationID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, application_id, communication_type,
		direction, subject, content, communication_date, created_at
		FROM communications
		WHERE application_id = ?
		ORDER BY communication_date DESC`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("listing communications %d: %w", applicationID, err)
	}
	defer rows.Close()

	var out []Communication
	for rows.Next() {
		var c Communication
		var subject, content sql.NullString
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.CommunicationType,
			&c.Direction, &subject, &content, &c.CommunicationDate,
			&c.CreatedAt); err != nil {
			return nil, err
		}
		c.Subject = subject.String
		c.Content = content.String
		out = append(out, c)
	}
	return out, rows.Err()
}
