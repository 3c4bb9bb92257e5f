package blob

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func openStubBucket(t *testing.T) *Bucket {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Open(context.Background(), Config{}, log)
}

func TestOpenWithoutCredentialsIsStub(t *testing.T) {
	b := openStubBucket(t)
	info := b.Info()
	if info.Mode != "stub" {
		t.Errorf("mode = %q, want stub", info.Mode)
	}
	if info.Bucket != "(none)" {
		t.Errorf("bucket = %q", info.Bucket)
	}
}

func TestStubUploadFabricatesKey(t *testing.T) {
	b := openStubBucket(t)

	key, err := b.Upload(context.Background(), strings.NewReader("pdf bytes"), "My Resume v2.pdf", KindResume)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(key, "jobtrack/resumes/My_Resume_v2_") {
		t.Errorf("key = %q", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Errorf("extension lost: %q", key)
	}
}

func TestKeyShapes(t *testing.T) {
	cover := Key(KindCoverLetter, "letter.docx")
	if !strings.HasPrefix(cover, "jobtrack/cover_letters/letter_") {
		t.Errorf("cover letter key = %q", cover)
	}
	shot := Key(KindScreenshot, "posting.png")
	if !strings.HasPrefix(shot, "jobtrack/job_screenshots/posting_") {
		t.Errorf("screenshot key = %q", shot)
	}
	// Two keys for the same name never collide.
	if Key(KindResume, "a.pdf") == Key(KindResume, "a.pdf") {
		t.Error("keys collide")
	}
}

func TestStubDownloadURL(t *testing.T) {
	b := openStubBucket(t)

	url, err := b.DownloadURL(context.Background(), "jobtrack/resumes/x.pdf", time.Minute)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(url, "jobtrack/resumes/x.pdf") {
		t.Errorf("url = %q", url)
	}
	if !strings.HasPrefix(url, "https://") {
		t.Errorf("url not https: %q", url)
	}
}

func TestStubListAndDelete(t *testing.T) {
	b := openStubBucket(t)

	objs, err := b.List(context.Background(), "jobtrack/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 0 {
		t.Errorf("stub list = %+v", objs)
	}
	if err := b.Delete(context.Background(), "jobtrack/resumes/x.pdf"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}
