package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// Company and recruiter timelines share one row shape; the table and parent
// column differ. These helpers keep both CRUD sets in one place.

func scanTimelineEvent(row rowScanner) (TimelineEvent, error) {
	var e TimelineEvent
	var desc, followDate sql.NullString
	err := row.Scan(&e.ID, &e.ParentID, &e.EventType, &e.Title, &desc,
		&e.EventDate, &e.FollowUpRequired, &followDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return TimelineEvent{}, err
	}
	e.Description = desc.String
	e.FollowUpDate = followDate.String
	return e, nil
}

func (s *Store) insertTimelineEvent(table, parentCol string, parentID int64, e TimelineEvent) (TimelineEvent, error) {
	res, err := s.db.Exec(fmt.Sprintf(`INSERT INTO %s
		(%s, event_type, title, description, event_date, follow_up_required, follow_up_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, table, parentCol),
		parentID, e.EventType, e.Title, nullStr(e.Description), e.EventDate,
		boolInt(e.FollowUpRequired), nullStr(e.FollowUpDate))
	if err != nil {
		return TimelineEvent{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TimelineEvent{}, err
	}
	return s.getTimelineEvent(table, parentCol, id)
}

func (s *Store) getTimelineEvent(table, parentCol string, id int64) (TimelineEvent, error) {
	row := s.db.QueryRow(fmt.Sprintf(`SELECT id, %s, event_type, title, description,
		event_date, follow_up_required, follow_up_date, created_at, updated_at
		FROM %s WHERE id = ?`, parentCol, table), id)
	e, err := scanTimelineEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TimelineEvent{}, ErrNotFound
	}
	if err != nil {
		return TimelineEvent{}, fmt.Errorf("getting %s %d: %w", table, id, err)
	}
	return e, nil
}

func (s *Store) listTimelineEvents(table, parentCol string, parentID int64) ([]TimelineEvent, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, %s, event_type, title, description,
		event_date, follow_up_required, follow_up_date, created_at, updated_at
		FROM %s WHERE %s = ?
		ORDER BY event_date DESC, created_at DESC`, parentCol, table, parentCol), parentID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	var out []TimelineEvent
	for rows.Next() {
		e, err := scanTimelineEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) updateTimelineEvent(table string, id int64, p TimelineEventPatch) (bool, error) {
	var u updateBuilder
	if p.EventType != nil {
		u.set("event_type", *p.EventType)
	}
	if p.Title != nil {
		u.set("title", *p.Title)
	}
	if p.Description != nil {
		u.set("description", nullStr(*p.Description))
	}
	if p.EventDate != nil {
		u.set("event_date", *p.EventDate)
	}
	if p.FollowUpRequired != nil {
		u.set("follow_up_required", boolInt(*p.FollowUpRequired))
	}
	if p.FollowUpDate != nil {
		u.set("follow_up_date", nullStr(*p.FollowUpDate))
	}
	return u.exec(s.db, table, "id = ?", id)
}

func (s *Store) deleteTimelineEvent(table string, id int64) error {
	res, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
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

// AddCompanyEvent records an event on a company's timeline.
func (s *Store) AddCompanyEvent(companyID int64, e TimelineEvent) (TimelineEvent, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return TimelineEvent{}, err
	}
	return s.insertTimelineEvent("company_events", "company_id", companyID, e)
}

// CompanyEvents lists a company's timeline, newest first.
func (s *Store) CompanyEvents(companyID int64) ([]TimelineEvent, error) {
	if _, err := s.GetCompany(companyID); err != nil {
		return nil, err
	}
	return s.listTimelineEvents("company_events", "company_id", companyID)
}

func (s *Store) UpdateCompanyEvent(id int64, p TimelineEventPatch) (bool, error) {
	return s.updateTimelineEvent("company_events", id, p)
}

func (s *Store) DeleteCompanyEvent(id int64) error {
	return s.deleteTimelineEvent("company_events", id)
}

// AddRecruiterEvent records an event on a recruiter's timeline.
func (s *Store) AddRecruiterEvent(recruiterID int64, e TimelineEvent) (TimelineEvent, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return TimelineEvent{}, err
	}
	return s.insertTimelineEvent("recruiter_events", "recruiter_id", recruiterID, e)
}

// RecruiterEvents lists a recruiter's timeline, newest first.
func (s *Store) RecruiterEvents(recruiterID int64) ([]TimelineEvent, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return nil, err
	}
	return s.listTimelineEvents("recruiter_events", "recruiter_id", recruiterID)
}

func (s *Store) UpdateRecruiterEvent(id int64, p TimelineEventPatch) (bool, error) {
	return s.updateTimelineEvent("recruiter_events", id, p)
}

func (s *Store) DeleteRecruiterEvent(id int64) error {
	return s.deleteTimelineEvent("recruiter_events", id)
}
