package storage

import (
	"errors"
	"strings"
	"testing"
)

func mustCreateApplication(t *testing.T, s *Store, companyID int64, title string) Application {
	t.Helper()
	a, err := s.CreateApplication(Application{CompanyID: companyID, PositionTitle: title})
	if err != nil {
		t.Fatalf("CreateApplication(%q): %v", title, err)
	}
	return a
}

func TestApplicationLifecycle(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	rv := mustCreateResume(t, s, "v1")

	a, err := s.CreateApplication(Application{
		CompanyID:       c.ID,
		ResumeVersionID: &rv.ID,
		PositionTitle:   "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if a.Status != "applied" {
		t.Errorf("status = %q, want applied", a.Status)
	}
	if a.ApplicationDate == "" {
		t.Error("application date not defaulted")
	}

	// Creation auto-records a submission event.
	events, err := s.ApplicationEvents(a.ID)
	if err != nil {
		t.Fatalf("ApplicationEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "application_submitted" {
		t.Fatalf("expected submission event, got %+v", events)
	}

	if err := s.SetApplicationStatus(a.ID, "interview", "Phone screen went well"); err != nil {
		t.Fatalf("SetApplicationStatus: %v", err)
	}
	got, err := s.GetApplication(a.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if got.Status != "interview" {
		t.Errorf("status = %q", got.Status)
	}
	if got.ResponseDate == "" {
		t.Error("response date not stamped on first transition")
	}
	if !strings.Contains(got.OutcomeNotes, "Phone screen went well") {
		t.Errorf("notes not recorded: %q", got.OutcomeNotes)
	}
	events, _ = s.ApplicationEvents(a.ID)
	if len(events) != 2 {
		t.Errorf("expected status-change event, got %d events", len(events))
	}

	if err := s.DeleteApplication(a.ID); err != nil {
		t.Fatalf("DeleteApplication: %v", err)
	}
	if _, err := s.GetApplication(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	// Timeline rows go with the application.
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM application_events WHERE application_id = ?", a.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d orphaned events after delete", n)
	}
}

func TestApplicationUnknownCompany(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateApplication(Application{CompanyID: 999, PositionTitle: "Engineer"})
	if !errors.Is(err, ErrConstraint) {
		t.Errorf("dangling company_id = %v, want ErrConstraint", err)
	}
}

func TestSetApplicationResume(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	rv := mustCreateResume(t, s, "v1")
	a := mustCreateApplication(t, s, c.ID, "Engineer")

	if err := s.SetApplicationResume(a.ID, &rv.ID); err != nil {
		t.Fatalf("SetApplicationResume: %v", err)
	}
	got, _ := s.GetApplication(a.ID)
	if got.ResumeVersionID == nil || *got.ResumeVersionID != rv.ID {
		t.Errorf("resume not linked: %+v", got.ResumeVersionID)
	}

	if err := s.SetApplicationResume(a.ID, nil); err != nil {
		t.Fatalf("clearing resume: %v", err)
	}
	got, _ = s.GetApplication(a.ID)
	if got.ResumeVersionID != nil {
		t.Errorf("resume link not cleared: %v", *got.ResumeVersionID)
	}

	var missing int64 = 999
	if err := s.SetApplicationResume(a.ID, &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown resume = %v, want ErrNotFound", err)
	}
}

func TestActiveApplicationsExcludesClosed(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	a1 := mustCreateApplication(t, s, c.ID, "Engineer")
	a2 := mustCreateApplication(t, s, c.ID, "SRE")

	if err := s.SetApplicationStatus(a2.ID, "rejected", ""); err != nil {
		t.Fatal(err)
	}

	active, err := s.ActiveApplications()
	if err != nil {
		t.Fatalf("ActiveApplications: %v", err)
	}
	if len(active) != 1 || active[0].ID != a1.ID {
		t.Errorf("active list = %+v", active)
	}
	if active[0].CompanyName != "Initech" {
		t.Errorf("company name not joined: %+v", active[0])
	}
}

func TestApplicationDetailsFallsBackToPosting(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	min, max := int64(150000), int64(190000)
	jp, err := s.CreateJobPosting(JobPosting{
		CompanyID: c.ID,
		Title:     "Backend Engineer",
		SalaryMin: &min,
		SalaryMax: &max,
		IsRemote:  true,
		Location:  "Berlin",
	})
	if err != nil {
		t.Fatalf("CreateJobPosting: %v", err)
	}

	a, err := s.CreateApplication(Application{
		CompanyID:     c.ID,
		JobPostingID:  &jp.ID,
		PositionTitle: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	d, err := s.GetApplicationDetails(a.ID)
	if err != nil {
		t.Fatalf("GetApplicationDetails: %v", err)
	}
	if d.SalaryMin == nil || *d.SalaryMin != min {
		t.Errorf("salary_min fallback missing: %+v", d.SalaryMin)
	}
	if d.JobLocation != "Berlin" {
		t.Errorf("location fallback = %q", d.JobLocation)
	}
	if d.IsRemote == nil || !*d.IsRemote {
		t.Error("is_remote fallback missing")
	}
	if d.JobPostingTitle != "Backend Engineer" {
		t.Errorf("posting title = %q", d.JobPostingTitle)
	}
}

func TestSearchApplicationsByCompany(t *testing.T) {
	s := openTestStore(t)
	c1 := mustCreateCompany(t, s, "Hooli Systems")
	c2 := mustCreateCompany(t, s, "Pied Piper")
	mustCreateApplication(t, s, c1.ID, "Engineer")
	mustCreateApplication(t, s, c2.ID, "Engineer")

	hits, err := s.SearchApplicationsByCompany("hooli")
	if err != nil {
		t.Fatalf("SearchApplicationsByCompany: %v", err)
	}
	if len(hits) != 1 || hits[0].CompanyName != "Hooli Systems" {
		t.Errorf("search hits = %+v", hits)
	}
}

func TestUpcomingFollowUps(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	a := mustCreateApplication(t, s, c.ID, "Engineer")

	soon := "2026-09-03"
	far := "2027-01-01"
	for _, date := range []string{soon, far} {
		if _, err := s.AddApplicationEvent(a.ID, ApplicationEvent{
			EventType:        "interview",
			Title:            "Follow up",
			EventDate:        "2026-09-01",
			FollowUpRequired: true,
			FollowUpDate:     date,
		}); err != nil {
			t.Fatalf("AddApplicationEvent: %v", err)
		}
	}

	ups, err := s.UpcomingFollowUps(7)
	if err != nil {
		t.Fatalf("UpcomingFollowUps: %v", err)
	}
	if len(ups) != 1 || ups[0].FollowUpDate != soon {
		t.Errorf("follow-ups = %+v", ups)
	}
	if ups[0].CompanyName != "Initech" {
		t.Errorf("company not joined: %+v", ups[0])
	}
}

func TestApplicationEventAttendeesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	a := mustCreateApplication(t, s, c.ID, "Engineer")

	e, err := s.AddApplicationEvent(a.ID, ApplicationEvent{
		EventType: "interview",
		Title:     "Panel",
		EventDate: "2026-09-01",
		Attendees: []string{"Sam", "Alex"},
	})
	if err != nil {
		t.Fatalf("AddApplicationEvent: %v", err)
	}
	got, err := s.GetApplicationEvent(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Attendees) != 2 || got.Attendees[0] != "Sam" {
		t.Errorf("attendees = %v", got.Attendees)
	}
}
