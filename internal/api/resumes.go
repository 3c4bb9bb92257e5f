package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/jobtrack/jobtrack/internal/blob"
	"github.com/jobtrack/jobtrack/internal/storage"
)

const maxResumeUploadSize = 32 << 20 // 32MB

func handleListResumeVersions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versions, err := deps.Store.ResumeVersionsWithTags()
		if err != nil {
			storageError(w, err, "resume versions")
			return
		}
		writeJSON(w, http.StatusOK, versions)
	}
}

// handleCreateResumeVersion accepts either a JSON body or a multipart form
// carrying the resume file (plus an optional editable copy). Files upload
// concurrently; when the upload is a PDF and no content_text came with the
// form, the text is extracted from the file itself.
func handleCreateResumeVersion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			createResumeFromMultipart(deps, w, r)
			return
		}

		var req storage.ResumeVersion
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Filename == "" || req.VersionName == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "filename and version_name are required")
			return
		}
		rv, err := deps.Store.CreateResumeVersion(req)
		if err != nil {
			storageError(w, err, "resume version")
			return
		}
		writeJSON(w, http.StatusCreated, rv)
	}
}

func createResumeFromMultipart(deps Deps, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxResumeUploadSize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "parsing multipart form: %v", err)
		return
	}

	rv := storage.ResumeVersion{
		VersionName: r.FormValue("version_name"),
		ContentText: r.FormValue("content_text"),
		TargetRoles: r.FormValue("target_roles"),
		Description: r.FormValue("description"),
		IsMaster:    r.FormValue("is_master") == "true",
	}
	if skills := r.FormValue("skills_emphasized"); skills != "" {
		for _, s := range strings.Split(skills, ",") {
			if s = strings.TrimSpace(s); s != "" {
				rv.SkillsEmphasized = append(rv.SkillsEmphasized, s)
			}
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "file is required")
		return
	}
	defer file.Close()

	primary, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "reading file: %v", err)
		return
	}
	rv.Filename = header.Filename
	if rv.VersionName == "" {
		rv.VersionName = strings.TrimSuffix(header.Filename, ".pdf")
	}

	var editable []byte
	var editableName string
	if ef, eh, err := r.FormFile("editable_file"); err == nil {
		defer ef.Close()
		if editable, err = io.ReadAll(ef); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading editable file: %v", err)
			return
		}
		editableName = eh.Filename
	}

	if rv.ContentText == "" && strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		text, err := extractPDFText(primary)
		if err != nil {
			deps.Log.Warn("pdf text extraction failed", "filename", header.Filename, "error", err)
		} else {
			rv.ContentText = text
		}
	}

	// Primary and editable uploads run in parallel.
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		key, err := deps.Blob.Upload(ctx, bytes.NewReader(primary), header.Filename, blob.KindResume)
		if err != nil {
			return fmt.Errorf("uploading resume: %w", err)
		}
		rv.S3Key = key
		return nil
	})
	if editable != nil {
		g.Go(func() error {
			key, err := deps.Blob.Upload(ctx, bytes.NewReader(editable), editableName, blob.KindResume)
			if err != nil {
				return fmt.Errorf("uploading editable resume: %w", err)
			}
			rv.EditableS3Key = key
			rv.EditableFilename = editableName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
		return
	}

	created, err := deps.Store.CreateResumeVersion(rv)
	if err != nil {
		storageError(w, err, "resume version")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// extractPDFText pulls the plain text out of a PDF held in memory.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func handleGetResumeVersion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		rv, err := deps.Store.GetResumeVersion(id)
		if err != nil {
			storageError(w, err, "resume version")
			return
		}
		writeJSON(w, http.StatusOK, rv)
	}
}

// handleUpdateResumeVersion accepts the same two shapes as create: a JSON
// patch, or a multipart form replacing the stored file alongside metadata.
func handleUpdateResumeVersion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			updateResumeFromMultipart(deps, w, r, id)
			return
		}
		var patch storage.ResumeVersionPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateResumeVersion(id, patch); err != nil {
			storageError(w, err, "resume version")
			return
		}
		rv, err := deps.Store.GetResumeVersion(id)
		if err != nil {
			storageError(w, err, "resume version")
			return
		}
		writeJSON(w, http.StatusOK, rv)
	}
}

// updateResumeFromMultipart applies form fields as a patch; only fields
// present in the form are written. A fresh file (or editable copy) uploads
// and replaces the stored key, with PDF text re-extracted when the form
// carries no content_text of its own.
func updateResumeFromMultipart(deps Deps, w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseMultipartForm(maxResumeUploadSize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "parsing multipart form: %v", err)
		return
	}

	field := func(name string) *string {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}

	var patch storage.ResumeVersionPatch
	patch.VersionName = field("version_name")
	patch.ContentText = field("content_text")
	patch.TargetRoles = field("target_roles")
	patch.Description = field("description")
	if v := field("is_master"); v != nil {
		b := *v == "true"
		patch.IsMaster = &b
	}
	if v := field("skills_emphasized"); v != nil {
		var skills []string
		for _, s := range strings.Split(*v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
		patch.SkillsEmphasized = &skills
	}

	var primary []byte
	var primaryName string
	if f, header, err := r.FormFile("file"); err == nil {
		defer f.Close()
		if primary, err = io.ReadAll(f); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading file: %v", err)
			return
		}
		primaryName = header.Filename
	}

	var editable []byte
	var editableName string
	if ef, eh, err := r.FormFile("editable_file"); err == nil {
		defer ef.Close()
		if editable, err = io.ReadAll(ef); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading editable file: %v", err)
			return
		}
		editableName = eh.Filename
	}

	if primary != nil && patch.ContentText == nil && strings.HasSuffix(strings.ToLower(primaryName), ".pdf") {
		text, err := extractPDFText(primary)
		if err != nil {
			deps.Log.Warn("pdf text extraction failed", "filename", primaryName, "error", err)
		} else {
			patch.ContentText = &text
		}
	}

	g, ctx := errgroup.WithContext(r.Context())
	if primary != nil {
		g.Go(func() error {
			key, err := deps.Blob.Upload(ctx, bytes.NewReader(primary), primaryName, blob.KindResume)
			if err != nil {
				return fmt.Errorf("uploading resume: %w", err)
			}
			patch.S3Key = &key
			patch.Filename = &primaryName
			return nil
		})
	}
	if editable != nil {
		g.Go(func() error {
			key, err := deps.Blob.Upload(ctx, bytes.NewReader(editable), editableName, blob.KindResume)
			if err != nil {
				return fmt.Errorf("uploading editable resume: %w", err)
			}
			patch.EditableS3Key = &key
			patch.EditableFilename = &editableName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
		return
	}

	if _, err := deps.Store.UpdateResumeVersion(id, patch); err != nil {
		storageError(w, err, "resume version")
		return
	}
	rv, err := deps.Store.GetResumeVersion(id)
	if err != nil {
		storageError(w, err, "resume version")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func handleResumeSuccessMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics, err := deps.Store.ResumeSuccessMetrics()
		if err != nil {
			storageError(w, err, "resume metrics")
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	}
}

func handleSearchResumesByTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("tags")
		if raw == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "tags query parameter is required")
			return
		}
		var tags []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		matchAll := r.URL.Query().Get("match_all") == "true"

		versions, err := deps.Store.SearchResumesByTags(tags, matchAll)
		if err != nil {
			storageError(w, err, "resume search")
			return
		}
		writeJSON(w, http.StatusOK, versions)
	}
}

func handleResumeTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		tags, err := deps.Store.ResumeTags(id)
		if err != nil {
			storageError(w, err, "resume version")
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

type tagIDsRequest struct {
	TagIDs []int64 `json:"tag_ids"`
}

func handleSetResumeTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req tagIDsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := deps.Store.SetResumeTags(id, req.TagIDs); err != nil {
			storageError(w, err, "resume tags")
			return
		}
		tags, err := deps.Store.ResumeTags(id)
		if err != nil {
			storageError(w, err, "resume tags")
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func handleAddResumeTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req tagIDsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.TagIDs) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "tag_ids is required")
			return
		}
		if err := deps.Store.AddResumeTags(id, req.TagIDs); err != nil {
			storageError(w, err, "resume tags")
			return
		}
		tags, err := deps.Store.ResumeTags(id)
		if err != nil {
			storageError(w, err, "resume tags")
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func handleRemoveResumeTag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		tagID, err := idParam(r, "tagID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.RemoveResumeTag(id, tagID); err != nil {
			storageError(w, err, "resume tags")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
