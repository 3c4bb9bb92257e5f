package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

func scanManager(row rowScanner, extra ...any) (Manager, error) {
	var m Manager
	var email, phone, phone2, linkedin, position, dept sql.NullString
	var office, tz, contactMethod, authority, notes sql.NullString
	dest := []any{&m.ID, &m.Name, &email, &phone, &phone2, &linkedin,
		&position, &dept, &m.CompanyID, &office, &tz, &contactMethod,
		&authority, &m.IsHiringManager, &m.TeamSize, &notes,
		&m.CreatedAt, &m.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Manager{}, err
	}
	m.Email = email.String
	m.Phone = phone.String
	m.PhoneSecondary = phone2.String
	m.LinkedInURL = linkedin.String
	m.PositionTitle = position.String
	m.Department = dept.String
	m.OfficeLocation = office.String
	m.Timezone = tz.String
	m.PreferredContactMethod = contactMethod.String
	m.DecisionAuthority = authority.String
	m.Notes = notes.String
	return m, nil
}

const managerCols = `m.id, m.name, m.email, m.phone, m.phone_secondary,
	m.linkedin_url, m.position_title, m.department, m.company_id,
	m.office_location, m.timezone, m.preferred_contact_method,
	m.decision_authority, m.is_hiring_manager, m.team_size, m.notes,
	m.created_at, m.updated_at`

// CreateManager inserts a hiring-manager contact. An unknown company_id
// fails with ErrConstraint.
func (s *Store) CreateManager(m Manager) (Manager, error) {
	method := m.PreferredContactMethod
	if method == "" {
		method = "email"
	}
	res, err := s.db.Exec(`INSERT INTO managers
		(name, email, phone, phone_secondary, linkedin_url, position_title,
		 department, company_id, office_location, timezone,
		 preferred_contact_method, decision_authority, is_hiring_manager,
		 team_size, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, nullStr(m.Email), nullStr(m.Phone), nullStr(m.PhoneSecondary),
		nullStr(m.LinkedInURL), nullStr(m.PositionTitle), nullStr(m.Department),
		nullID(m.CompanyID), nullStr(m.OfficeLocation), nullStr(m.Timezone),
		method, nullStr(m.DecisionAuthority), boolInt(m.IsHiringManager),
		nullInt(m.TeamSize), nullStr(m.Notes))
	if err != nil {
		return Manager{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Manager{}, err
	}
	return s.GetManager(id)
}

// GetManager returns a manager with their company name resolved.
func (s *Store) GetManager(id int64) (Manager, error) {
	row := s.db.QueryRow("SELECT "+managerCols+`, c.name
		FROM managers m
		LEFT JOIN companies c ON m.company_id = c.id
		WHERE m.id = ?`, id)
	var company sql.NullString
	m, err := scanManager(row, &company)
	if errors.Is(err, sql.ErrNoRows) {
		return Manager{}, ErrNotFound
	}
	if err != nil {
		return Manager{}, fmt.Errorf("getting manager %d: %w", id, err)
	}
	m.CompanyName = company.String
	return m, nil
}

// ListManagers returns managers, optionally scoped to one company.
func (s *Store) ListManagers(companyID *int64) ([]Manager, error) {
	query := "SELECT " + managerCols + `, c.name
		FROM managers m
		LEFT JOIN companies c ON m.company_id = c.id`
	var args []any
	if companyID != nil {
		query += " WHERE m.company_id = ?"
		args = append(args, *companyID)
	}
	query += " ORDER BY m.name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing managers: %w", err)
	}
	defer rows.Close()

	var out []Manager
	for rows.Next() {
		var company sql.NullString
		m, err := scanManager(rows, &company)
		if err != nil {
			return nil, err
		}
		m.CompanyName = company.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateManager applies the set fields of the patch.
func (s *Store) UpdateManager(id int64, p ManagerPatch) (bool, error) {
	var u updateBuilder
	if p.Name != nil {
		u.set("name", *p.Name)
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
	if p.LinkedInURL != nil {
		u.set("linkedin_url", nullStr(*p.LinkedInURL))
	}
	if p.PositionTitle != nil {
		u.set("position_title", nullStr(*p.PositionTitle))
	}
	if p.Department != nil {
		u.set("department", nullStr(*p.Department))
	}
	if p.CompanyID != nil {
		u.set("company_id", nullID(p.CompanyID))
	}
	if p.OfficeLocation != nil {
		u.set("office_location", nullStr(*p.OfficeLocation))
	}
	if p.Timezone != nil {
		u.set("timezone", nullStr(*p.Timezone))
	}
	if p.PreferredContactMethod != nil {
		u.set("preferred_contact_method", *p.PreferredContactMethod)
	}
	if p.DecisionAuthority != nil {
		u.set("decision_authority", nullStr(*p.DecisionAuthority))
	}
	if p.IsHiringManager != nil {
		u.set("is_hiring_manager", boolInt(*p.IsHiringManager))
	}
	if p.TeamSize != nil {
		u.set("team_size", *p.TeamSize)
	}
	if p.Notes != nil {
		u.set("notes", nullStr(*p.Notes))
	}
	return u.exec(s.db, "managers", "id = ?", id)
}

// DeleteManager removes a manager; recruiter links cascade away.
func (s *Store) DeleteManager(id int64) error {
	res, err := s.db.Exec("DELETE FROM managers WHERE id = ?", id)
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

// LinkRecruiterManager records that a recruiter works with a manager.
// Linking the same pair twice fails with ErrConstraint.
func (s *Store) LinkRecruiterManager(recruiterID int64, rm RecruiterManager) (RecruiterManager, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return RecruiterManager{}, err
	}
	relType := rm.RelationshipType
	if relType == "" {
		relType = "reports_to"
	}
	res, err := s.db.Exec(`INSERT INTO recruiter_managers
		(recruiter_id, manager_id, relationship_type, relationship_notes,
		 introduction_date, is_primary_contact)
		VALUES (?, ?, ?, ?, ?, ?)`,
		recruiterID, rm.ManagerID, relType, nullStr(rm.RelationshipNotes),
		nullStr(rm.IntroductionDate), boolInt(rm.IsPrimaryContact))
	if err != nil {
		return RecruiterManager{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RecruiterManager{}, err
	}
	row := s.db.QueryRow(`SELECT id, recruiter_id, manager_id, relationship_type,
		relationship_notes, introduction_date, is_primary_contact, created_at
		FROM recruiter_managers WHERE id = ?`, id)
	var out RecruiterManager
	var notes, intro sql.NullString
	if err := row.Scan(&out.ID, &out.RecruiterID, &out.ManagerID,
		&out.RelationshipType, &notes, &intro, &out.IsPrimaryContact,
		&out.CreatedAt); err != nil {
		return RecruiterManager{}, err
	}
	out.RelationshipNotes = notes.String
	out.IntroductionDate = intro.String
	return out, nil
}

// RecruiterManagers lists the managers a recruiter works with.
func (s *Store) RecruiterManagers(recruiterID int64) ([]RecruiterManager, error) {
	if _, err := s.GetRecruiter(recruiterID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT rm.id, rm.recruiter_id, rm.manager_id,
		rm.relationship_type, rm.relationship_notes, rm.introduction_date,
		rm.is_primary_contact, rm.created_at,
		m.name, m.email, m.position_title, m.department, m.is_hiring_manager, c.name
		FROM recruiter_managers rm
		JOIN managers m ON rm.manager_id = m.id
		LEFT JOIN companies c ON m.company_id = c.id
		WHERE rm.recruiter_id = ?
		ORDER BY rm.is_primary_contact DESC, m.name`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("listing recruiter managers %d: %w", recruiterID, err)
	}
	defer rows.Close()

	var out []RecruiterManager
	for rows.Next() {
		var rm RecruiterManager
		var notes, intro, email, position, dept, company sql.NullString
		if err := rows.Scan(&rm.ID, &rm.RecruiterID, &rm.ManagerID,
			&rm.RelationshipType, &notes, &intro, &rm.IsPrimaryContact,
			&rm.CreatedAt, &rm.ManagerName, &email, &position, &dept,
			&rm.IsHiringManager, &company); err != nil {
			return nil, err
		}
		rm.RelationshipNotes = notes.String
		rm.IntroductionDate = intro.String
		rm.ManagerEmail = email.String
		rm.ManagerPosition = position.String
		rm.ManagerDepartment = dept.String
		rm.CompanyName = company.String
		out = append(out, rm)
	}
	return out, rows.Err()
}

// ManagerRecruiters lists the recruiters linked to a manager.
func (s *Store) ManagerRecruiters(managerID int64) ([]RecruiterManager, error) {
	if _, err := s.GetManager(managerID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT rm.id, rm.recruiter_id, rm.manager_id,
		rm.relationship_type, rm.relationship_notes, rm.introduction_date,
		rm.is_primary_contact, rm.created_at, r.name, r.email
		FROM recruiter_managers rm
		JOIN recruiters r ON rm.recruiter_id = r.id
		WHERE rm.manager_id = ?
		ORDER BY r.name`, managerID)
	if err != nil {
		return nil, fmt.Errorf("listing manager recruiters %d: %w", managerID, err)
	}
	defer rows.Close()

	var out []RecruiterManager
	for rows.Next() {
		var rm RecruiterManager
		var notes, intro, email sql.NullString
		if err := rows.Scan(&rm.ID, &rm.RecruiterID, &rm.ManagerID,
			&rm.RelationshipType, &notes, &intro, &rm.IsPrimaryContact,
			&rm.CreatedAt, &rm.RecruiterName, &email); err != nil {
			return nil, err
		}
		rm.RelationshipNotes = notes.String
		rm.IntroductionDate = intro.String
		rm.RecruiterEmail = email.String
		out = append(out, rm)
	}
	return out, rows.Err()
}

// UpdateRecruiterManager applies the set fields of the patch to a link row.
func (s *Store) UpdateRecruiterManager(id int64, p RecruiterManagerPatch) (bool, error) {
	var u updateBuilder
	if p.RelationshipType != nil {
		u.set("relationship_type", *p.RelationshipType)
	}
	if p.RelationshipNotes != nil {
		u.set("relationship_notes", nullStr(*p.RelationshipNotes))
	}
	if p.IntroductionDate != nil {
		u.set("introduction_date", nullStr(*p.IntroductionDate))
	}
	if p.IsPrimaryContact != nil {
		u.set("is_primary_contact", boolInt(*p.IsPrimaryContact))
	}
	return u.exec(s.db, "recruiter_managers", "id = ?", id)
}

// UnlinkRecruiterManager removes a recruiter-manager link outright.
func (s *Store) UnlinkRecruiterManager(id int64) error {
	res, err := s.db.Exec("DELETE FROM recruiter_managers WHERE id = ?", id)
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
