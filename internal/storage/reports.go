package storage

import (
	"database/sql"
	"fmt"
)

// DashboardStats summarizes the whole tracker for the landing view.
type DashboardStats struct {
	TotalApplications  int            `json:"total_applications"`
	ActiveApplications int            `json:"active_applications"`
	TotalCompanies     int            `json:"total_companies"`
	TotalRecruiters    int            `json:"total_recruiters"`
	TotalResumes       int            `json:"total_resumes"`
	Interviews         int            `json:"interviews"`
	Offers             int            `json:"offers"`
	Rejections         int            `json:"rejections"`
	ResponseRate       float64        `json:"response_rate"`
	ByStatus           map[string]int `json:"by_status"`
}

// GetDashboardStats aggregates counts across the tracker. Every number is
// zero on an empty database.
func (s *Store) GetDashboardStats() (DashboardStats, error) {
	var st DashboardStats
	var responses int
	err := s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status NOT IN ('rejected', 'withdrawn') THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status IN ('phone_screen', 'interview', 'interviewing', 'interview_scheduled') THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'offer' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN response_date IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM applications`).Scan(
		&st.TotalApplications, &st.ActiveApplications, &st.Interviews,
		&st.Offers, &st.Rejections, &responses)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	if st.TotalApplications > 0 {
		st.ResponseRate = float64(responses) * 100 / float64(st.TotalApplications)
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"companies", &st.TotalCompanies},
		{"recruiters", &st.TotalRecruiters},
		{"resume_versions", &st.TotalResumes},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return DashboardStats{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	st.ByStatus = map[string]int{}
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM applications GROUP BY status")
	if err != nil {
		return DashboardStats{}, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return DashboardStats{}, err
		}
		st.ByStatus[status] = n
	}
	return st, rows.Err()
}

// ActivityItem is one entry in the recent-activity feed.
type ActivityItem struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// RecentActivity returns the newest application events and recruiter
// touchpoints interleaved by time.
func (s *Store) RecentActivity(limit int) ([]ActivityItem, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT kind, title, description, occurred_at FROM (
		SELECT 'application_event' AS kind,
		       e.title || ' (' || c.name || ')' AS title,
		       e.description, e.created_at AS occurred_at
		FROM application_events e
		JOIN applications a ON e.application_id = a.id
		JOIN companies c ON a.company_id = c.id
		UNION ALL
		SELECT 'recruiter_communication',
		       rc.communication_type || ' with ' || r.name,
		       rc.subject, rc.created_at
		FROM recruiter_communications rc
		JOIN recruiters r ON rc.recruiter_id = r.id
	) ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityItem
	for rows.Next() {
		var it ActivityItem
		var desc sql.NullString
		if err := rows.Scan(&it.Kind, &it.Title, &desc, &it.OccurredAt); err != nil {
			return nil, err
		}
		it.Description = desc.String
		out = append(out, it)
	}
	return out, rows.Err()
}
