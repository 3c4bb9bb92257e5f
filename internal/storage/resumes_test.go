package storage

import (
	"errors"
	"reflect"
	"testing"
)

func mustCreateResume(t *testing.T, s *Store, name string) ResumeVersion {
	t.Helper()
	rv, err := s.CreateResumeVersion(ResumeVersion{
		Filename:    name + ".pdf",
		VersionName: name,
	})
	if err != nil {
		t.Fatalf("CreateResumeVersion(%q): %v", name, err)
	}
	return rv
}

func TestResumeVersionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rv, err := s.CreateResumeVersion(ResumeVersion{
		Filename:         "backend_v2.pdf",
		VersionName:      "backend_v2",
		ContentText:      "Distributed systems engineer with Go and SQL",
		SkillsEmphasized: []string{"go", "sql", "distributed systems"},
		IsMaster:         true,
	})
	if err != nil {
		t.Fatalf("CreateResumeVersion: %v", err)
	}
	if rv.WordCount != 7 {
		t.Errorf("word count = %d, want 7", rv.WordCount)
	}

	got, err := s.GetResumeVersion(rv.ID)
	if err != nil {
		t.Fatalf("GetResumeVersion: %v", err)
	}
	if !reflect.DeepEqual(got.SkillsEmphasized, []string{"go", "sql", "distributed systems"}) {
		t.Errorf("skills round trip: %v", got.SkillsEmphasized)
	}
	if !got.IsMaster {
		t.Error("is_master lost")
	}
}

func TestResumeWordCountRecomputed(t *testing.T) {
	s := openTestStore(t)
	rv := mustCreateResume(t, s, "v1")

	text := "one two three"
	if ok, err := s.UpdateResumeVersion(rv.ID, ResumeVersionPatch{ContentText: &text}); err != nil || !ok {
		t.Fatalf("UpdateResumeVersion = (%v, %v)", ok, err)
	}
	got, _ := s.GetResumeVersion(rv.ID)
	if got.WordCount != 3 {
		t.Errorf("word count = %d, want 3", got.WordCount)
	}
}

func TestTagAssignment(t *testing.T) {
	s := openTestStore(t)
	rv := mustCreateResume(t, s, "v1")

	golang, err := s.CreateTag(Tag{Name: "golang"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	backend, _ := s.CreateTag(Tag{Name: "backend"})
	if golang.Color != "#3B82F6" {
		t.Errorf("default color = %q", golang.Color)
	}

	// Adding the same tag twice is a no-op.
	if err := s.AddResumeTags(rv.ID, []int64{golang.ID, golang.ID, backend.ID}); err != nil {
		t.Fatalf("AddResumeTags: %v", err)
	}
	tags, err := s.ResumeTags(rv.ID)
	if err != nil {
		t.Fatalf("ResumeTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}

	// Set replaces the whole assignment.
	if err := s.SetResumeTags(rv.ID, []int64{backend.ID}); err != nil {
		t.Fatalf("SetResumeTags: %v", err)
	}
	tags, _ = s.ResumeTags(rv.ID)
	if len(tags) != 1 || tags[0].Name != "backend" {
		t.Errorf("set-tags result: %+v", tags)
	}

	// Setting the same list again changes nothing.
	if err := s.SetResumeTags(rv.ID, []int64{backend.ID}); err != nil {
		t.Fatalf("SetResumeTags repeat: %v", err)
	}
	tags, _ = s.ResumeTags(rv.ID)
	if len(tags) != 1 {
		t.Errorf("repeated set-tags changed assignment: %+v", tags)
	}

	if err := s.RemoveResumeTag(rv.ID, backend.ID); err != nil {
		t.Fatalf("RemoveResumeTag: %v", err)
	}
	tags, _ = s.ResumeTags(rv.ID)
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %+v", tags)
	}
}

func TestTagNameCaseInsensitiveUnique(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateTag(Tag{Name: "Golang"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if _, err := s.CreateTag(Tag{Name: "golang"}); !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate tag = %v, want ErrConstraint", err)
	}
}

func TestSearchResumesByTags(t *testing.T) {
	s := openTestStore(t)
	v1 := mustCreateResume(t, s, "v1")
	v2 := mustCreateResume(t, s, "v2")

	golang, _ := s.CreateTag(Tag{Name: "golang"})
	backend, _ := s.CreateTag(Tag{Name: "backend"})
	if err := s.SetResumeTags(v1.ID, []int64{golang.ID, backend.ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResumeTags(v2.ID, []int64{golang.ID}); err != nil {
		t.Fatal(err)
	}

	any, err := s.SearchResumesByTags([]string{"golang", "backend"}, false)
	if err != nil {
		t.Fatalf("SearchResumesByTags(any): %v", err)
	}
	if len(any) != 2 {
		t.Errorf("any-match returned %d versions, want 2", len(any))
	}

	all, err := s.SearchResumesByTags([]string{"golang", "backend"}, true)
	if err != nil {
		t.Fatalf("SearchResumesByTags(all): %v", err)
	}
	if len(all) != 1 || all[0].ID != v1.ID {
		t.Errorf("all-match returned %+v, want only v1", all)
	}
}

func TestResumeSuccessMetricsZeroSafe(t *testing.T) {
	s := openTestStore(t)
	mustCreateResume(t, s, "v1")

	metrics, err := s.ResumeSuccessMetrics()
	if err != nil {
		t.Fatalf("ResumeSuccessMetrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 row, got %d", len(metrics))
	}
	m := metrics[0]
	if m.TotalApplications != 0 || m.ResponseRate != 0 || m.OfferRate != 0 {
		t.Errorf("expected zero rates with no applications: %+v", m)
	}
}

func TestResumeVersionsWithTags(t *testing.T) {
	s := openTestStore(t)
	rv := mustCreateResume(t, s, "v1")
	golang, _ := s.CreateTag(Tag{Name: "golang"})
	if err := s.AddResumeTags(rv.ID, []int64{golang.ID}); err != nil {
		t.Fatal(err)
	}

	list, err := s.ResumeVersionsWithTags()
	if err != nil {
		t.Fatalf("ResumeVersionsWithTags: %v", err)
	}
	if len(list) != 1 || list[0].Tags != "golang" || list[0].TagCount != 1 {
		t.Errorf("unexpected list: %+v", list)
	}
}
