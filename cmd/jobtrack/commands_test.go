package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found_error"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestApplicationsList(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/applications": `[{"id":7,"company_name":"Initech","position_title":"Staff Engineer","status":"applied","application_date":"2026-08-01"}]`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/api/applications")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var apps []struct {
		ID          int64  `json:"id"`
		CompanyName string `json:"company_name"`
		Status      string `json:"status"`
	}
	if err := decodeJSON(resp, &apps); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}
	if apps[0].CompanyName != "Initech" {
		t.Errorf("company = %q, want Initech", apps[0].CompanyName)
	}
	if apps[0].Status != "applied" {
		t.Errorf("status = %q, want applied", apps[0].Status)
	}
}

func TestFollowUpsQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/applications/follow-ups": `[]`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/api/applications/follow-ups?days=14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if !strings.Contains(ts.requests[0].Path, "days=14") {
		t.Errorf("path = %q, want it to carry days=14", ts.requests[0].Path)
	}
}

func TestStatusRequestJSON(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /api/applications/3/status": `{"id":3,"status":"interviewing"}`,
	})

	client := ts.client()
	resp, err := client.put(ctx, "/api/applications/3/status", map[string]any{
		"status": "interviewing",
		"notes":  "phone screen went well",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["status"] != "interviewing" {
		t.Errorf("status = %v, want interviewing", result["status"])
	}

	var sentBody map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sentBody); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sentBody["notes"] != "phone screen went well" {
		t.Errorf("body.notes = %v", sentBody["notes"])
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"application not found","type":"not_found_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		httpClient: ts.Client(),
	}

	resp, err := client.get(ctx, "/api/applications/999")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to contain '404'", err.Error())
	}
}

func TestClientUnreachable(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestMigrateRollback_BadVersion(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"migrate", "rollback", "two"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for non-numeric version")
	}
	if !strings.Contains(err.Error(), "invalid version") {
		t.Errorf("error = %q, want it to mention 'invalid version'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
