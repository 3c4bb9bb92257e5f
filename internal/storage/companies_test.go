package storage

import (
	"errors"
	"testing"
)

func mustCreateCompany(t *testing.T, s *Store, name string) Company {
	t.Helper()
	c, err := s.CreateCompany(Company{Name: name, Industry: "software"})
	if err != nil {
		t.Fatalf("CreateCompany(%q): %v", name, err)
	}
	return c
}

func TestCompanyCRUD(t *testing.T) {
	s := openTestStore(t)

	c, err := s.CreateCompany(Company{
		Name:             "Initech",
		Website:          "https://initech.example",
		IsRemoteFriendly: true,
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if c.ID == 0 || c.CreatedAt == "" {
		t.Errorf("generated fields missing: %+v", c)
	}

	got, err := s.GetCompany(c.ID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.Name != "Initech" || !got.IsRemoteFriendly {
		t.Errorf("round trip mismatch: %+v", got)
	}

	newName := "Initech Global"
	starred := true
	ok, err := s.UpdateCompany(c.ID, CompanyPatch{Name: &newName, IsStarred: &starred})
	if err != nil || !ok {
		t.Fatalf("UpdateCompany = (%v, %v)", ok, err)
	}
	got, _ = s.GetCompany(c.ID)
	if got.Name != newName || !got.IsStarred {
		t.Errorf("patch not applied: %+v", got)
	}
	// Untouched fields survive a partial update.
	if got.Website != "https://initech.example" {
		t.Errorf("website clobbered: %q", got.Website)
	}

	if err := s.DeleteCompany(c.ID); err != nil {
		t.Fatalf("DeleteCompany: %v", err)
	}
	if _, err := s.GetCompany(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCompany after delete = %v, want ErrNotFound", err)
	}
}

func TestCompanyEmptyPatch(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")

	ok, err := s.UpdateCompany(c.ID, CompanyPatch{})
	if err != nil {
		t.Fatalf("UpdateCompany: %v", err)
	}
	if ok {
		t.Error("empty patch reported a change")
	}
}

func TestCompanyDuplicateName(t *testing.T) {
	s := openTestStore(t)
	mustCreateCompany(t, s, "Initech")

	_, err := s.CreateCompany(Company{Name: "Initech"})
	if !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate name = %v, want ErrConstraint", err)
	}
}

func TestFindCompanyByName(t *testing.T) {
	s := openTestStore(t)
	mustCreateCompany(t, s, "Hooli Systems")
	mustCreateCompany(t, s, "Pied Piper")

	c, err := s.FindCompanyByName("hooli")
	if err != nil {
		t.Fatalf("FindCompanyByName: %v", err)
	}
	if c.Name != "Hooli Systems" {
		t.Errorf("found %q", c.Name)
	}

	if _, err := s.FindCompanyByName("acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("miss = %v, want ErrNotFound", err)
	}
}

func TestCompanyStatsEmpty(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")

	st, err := s.GetCompanyStats(c.ID)
	if err != nil {
		t.Fatalf("GetCompanyStats: %v", err)
	}
	if st.TotalApplications != 0 || st.SuccessRate != 0 {
		t.Errorf("expected zeros on empty company, got %+v", st)
	}
}

func TestCompanyEvents(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")

	e, err := s.AddCompanyEvent(c.ID, TimelineEvent{
		EventType: "research",
		Title:     "Read engineering blog",
		EventDate: "2026-08-01",
	})
	if err != nil {
		t.Fatalf("AddCompanyEvent: %v", err)
	}

	events, err := s.CompanyEvents(c.ID)
	if err != nil {
		t.Fatalf("CompanyEvents: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Read engineering blog" {
		t.Errorf("unexpected events: %+v", events)
	}

	newTitle := "Read blog and docs"
	if ok, err := s.UpdateCompanyEvent(e.ID, TimelineEventPatch{Title: &newTitle}); err != nil || !ok {
		t.Fatalf("UpdateCompanyEvent = (%v, %v)", ok, err)
	}
	if err := s.DeleteCompanyEvent(e.ID); err != nil {
		t.Fatalf("DeleteCompanyEvent: %v", err)
	}
	if _, err := s.AddCompanyEvent(999, TimelineEvent{Title: "x", EventDate: "2026-08-01"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("event on missing company = %v, want ErrNotFound", err)
	}
}

func TestCompanyRecruiterAssociation(t *testing.T) {
	s := openTestStore(t)
	c := mustCreateCompany(t, s, "Initech")
	r, err := s.CreateRecruiter(Recruiter{Name: "Jordan Lee"})
	if err != nil {
		t.Fatalf("CreateRecruiter: %v", err)
	}

	cr, err := s.AssociateRecruiter(c.ID, CompanyRecruiter{RecruiterID: r.ID})
	if err != nil {
		t.Fatalf("AssociateRecruiter: %v", err)
	}
	if !cr.IsActive || cr.AssociationType != "external" {
		t.Errorf("unexpected association: %+v", cr)
	}

	if _, err := s.AssociateRecruiter(c.ID, CompanyRecruiter{RecruiterID: r.ID}); !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate association = %v, want ErrConstraint", err)
	}

	if err := s.DeactivateCompanyRecruiter(c.ID, r.ID); err != nil {
		t.Fatalf("DeactivateCompanyRecruiter: %v", err)
	}
	list, err := s.CompanyRecruiters(c.ID, false)
	if err != nil {
		t.Fatalf("CompanyRecruiters: %v", err)
	}
	if len(list) != 1 || list[0].IsActive || list[0].EndDate == "" {
		t.Errorf("soft delete not applied: %+v", list)
	}
	active, _ := s.CompanyRecruiters(c.ID, true)
	if len(active) != 0 {
		t.Errorf("deactivated association still listed as active")
	}

	// Deactivating twice finds nothing active.
	if err := s.DeactivateCompanyRecruiter(c.ID, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second deactivate = %v, want ErrNotFound", err)
	}
}
