package storage

import (
	"errors"
	"testing"
)

func TestRecruiterCRUD(t *testing.T) {
	s := openTestStore(t)

	r, err := s.CreateRecruiter(Recruiter{
		Name:    "Jordan Lee",
		Email:   "jordan@agency.example",
		Company: "TalentWorks",
	})
	if err != nil {
		t.Fatalf("CreateRecruiter: %v", err)
	}
	if r.RelationshipStatus != "new" {
		t.Errorf("status = %q, want new", r.RelationshipStatus)
	}

	status := "active"
	starred := true
	if ok, err := s.UpdateRecruiter(r.ID, RecruiterPatch{
		RelationshipStatus: &status,
		IsStarred:          &starred,
	}); err != nil || !ok {
		t.Fatalf("UpdateRecruiter = (%v, %v)", ok, err)
	}
	got, err := s.GetRecruiter(r.ID)
	if err != nil {
		t.Fatalf("GetRecruiter: %v", err)
	}
	if got.RelationshipStatus != "active" || !got.IsStarred {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Email != "jordan@agency.example" {
		t.Errorf("email clobbered: %q", got.Email)
	}
}

func TestRecruiterResumePointer(t *testing.T) {
	s := openTestStore(t)
	r, _ := s.CreateRecruiter(Recruiter{Name: "Jordan Lee"})
	rv := mustCreateResume(t, s, "v1")

	if err := s.SetRecruiterResume(r.ID, &rv.ID, "intro call", ""); err != nil {
		t.Fatalf("SetRecruiterResume: %v", err)
	}
	got, _ := s.GetRecruiter(r.ID)
	if got.CurrentResumeVersionID == nil || *got.CurrentResumeVersionID != rv.ID {
		t.Errorf("pointer not set: %+v", got.CurrentResumeVersionID)
	}
	if got.CurrentResumeVersion != "v1" {
		t.Errorf("version name = %q", got.CurrentResumeVersion)
	}

	shares, err := s.RecruiterResumeShares(r.ID)
	if err != nil {
		t.Fatalf("RecruiterResumeShares: %v", err)
	}
	if len(shares) != 1 || shares[0].VersionName != "v1" || shares[0].SharingContext != "intro call" {
		t.Errorf("share history = %+v", shares)
	}

	// Clearing the pointer leaves the history alone.
	if err := s.SetRecruiterResume(r.ID, nil, "", ""); err != nil {
		t.Fatalf("clearing pointer: %v", err)
	}
	got, _ = s.GetRecruiter(r.ID)
	if got.CurrentResumeVersionID != nil {
		t.Error("pointer not cleared")
	}
	shares, _ = s.RecruiterResumeShares(r.ID)
	if len(shares) != 1 {
		t.Errorf("history changed on clear: %+v", shares)
	}
}

func TestRecruiterCommunications(t *testing.T) {
	s := openTestStore(t)
	r, _ := s.CreateRecruiter(Recruiter{Name: "Jordan Lee"})

	c, err := s.AddRecruiterCommunication(RecruiterCommunication{
		RecruiterID:       r.ID,
		CommunicationType: "email",
		Direction:         "outbound",
		Subject:           "Checking in",
	})
	if err != nil {
		t.Fatalf("AddRecruiterCommunication: %v", err)
	}
	if c.CommunicationDate == "" {
		t.Error("communication date not defaulted")
	}

	got, _ := s.GetRecruiter(r.ID)
	if got.LastContactDate == "" {
		t.Error("last contact date not bumped")
	}

	list, err := s.RecruiterCommunications(r.ID)
	if err != nil {
		t.Fatalf("RecruiterCommunications: %v", err)
	}
	if len(list) != 1 || list[0].Subject != "Checking in" {
		t.Errorf("communications = %+v", list)
	}
}

func TestRecruiterDashboard(t *testing.T) {
	s := openTestStore(t)
	r, _ := s.CreateRecruiter(Recruiter{Name: "Jordan Lee"})
	if _, err := s.AddRecruiterCommunication(RecruiterCommunication{
		RecruiterID:       r.ID,
		CommunicationType: "call",
		Direction:         "inbound",
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.RecruiterDashboard()
	if err != nil {
		t.Fatalf("RecruiterDashboard: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalCommunications != 1 {
		t.Errorf("dashboard = %+v", rows)
	}
}

func TestManagerLinks(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	r, _ := s.CreateRecruiter(Recruiter{Name: "Jordan Lee"})
	m, err := s.CreateManager(Manager{Name: "Pat Moore", CompanyID: &c.ID, IsHiringManager: true})
	if err != nil {
		t.Fatalf("CreateManager: %v", err)
	}
	if m.PreferredContactMethod != "email" {
		t.Errorf("contact method = %q, want email", m.PreferredContactMethod)
	}
	if m.CompanyName != "Initech" {
		t.Errorf("company name = %q", m.CompanyName)
	}

	link, err := s.LinkRecruiterManager(r.ID, RecruiterManager{ManagerID: m.ID, IsPrimaryContact: true})
	if err != nil {
		t.Fatalf("LinkRecruiterManager: %v", err)
	}
	if link.RelationshipType != "reports_to" {
		t.Errorf("relationship type = %q", link.RelationshipType)
	}

	if _, err := s.LinkRecruiterManager(r.ID, RecruiterManager{ManagerID: m.ID}); !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate link = %v, want ErrConstraint", err)
	}

	mgrs, err := s.RecruiterManagers(r.ID)
	if err != nil {
		t.Fatalf("RecruiterManagers: %v", err)
	}
	if len(mgrs) != 1 || mgrs[0].ManagerName != "Pat Moore" || !mgrs[0].IsHiringManager {
		t.Errorf("managers = %+v", mgrs)
	}
	if mgrs[0].CompanyName != "Initech" {
		t.Errorf("manager company = %q", mgrs[0].CompanyName)
	}

	recs, err := s.ManagerRecruiters(m.ID)
	if err != nil {
		t.Fatalf("ManagerRecruiters: %v", err)
	}
	if len(recs) != 1 || recs[0].RecruiterName != "Jordan Lee" {
		t.Errorf("recruiters = %+v", recs)
	}

	if err := s.UnlinkRecruiterManager(link.ID); err != nil {
		t.Fatalf("UnlinkRecruiterManager: %v", err)
	}
	mgrs, _ = s.RecruiterManagers(r.ID)
	if len(mgrs) != 0 {
		t.Errorf("link not removed: %+v", mgrs)
	}
}

func TestListManagersByCompany(t *testing.T) {
	s := openTestStore(t)
	c1 := mustCreateCompany(t, s, "Initech")
	c2 := mustCreateCompany(t, s, "Hooli")
	if _, err := s.CreateManager(Manager{Name: "Pat", CompanyID: &c1.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateManager(Manager{Name: "Sam", CompanyID: &c2.ID}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListManagers(nil)
	if err != nil {
		t.Fatalf("ListManagers(nil): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all managers = %d", len(all))
	}
	scoped, err := s.ListManagers(&c1.ID)
	if err != nil {
		t.Fatalf("ListManagers(company): %v", err)
	}
	if len(scoped) != 1 || scoped[0].Name != "Pat" {
		t.Errorf("scoped managers = %+v", scoped)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	s := openTestStore(t)

	st, err := s.GetDashboardStats()
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if st.TotalApplications != 0 || st.ResponseRate != 0 || len(st.ByStatus) != 0 {
		t.Errorf("expected zeros on empty database: %+v", st)
	}
}

func TestRecentActivity(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	mustCreateApplication(t, s, c.ID, "Engineer")

	items, err := s.RecentActivity(10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(items) != 1 || items[0].Kind != "application_event" {
		t.Errorf("activity = %+v", items)
	}
}
