package preflight_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/preflight"
	"lectern/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("State directory", dir)
	if !result.Passed {
		t.Fatalf("result = %+v", result)
	}

	result = preflight.CheckDirectoryAccess("State directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("missing dir should fail: %+v", result)
	}
}

func TestCheckFeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")

	result := preflight.CheckFeed("Feed file", path)
	if result.Passed {
		t.Fatalf("missing feed should fail: %+v", result)
	}

	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10"))
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	result = preflight.CheckFeed("Feed file", path)
	if !result.Passed {
		t.Fatalf("result = %+v", result)
	}
}

func TestCheckApprovalPolicy(t *testing.T) {
	if result := preflight.CheckApprovalPolicy("admin"); !result.Passed {
		t.Fatalf("result = %+v", result)
	}
	if result := preflight.CheckApprovalPolicy("everyone"); result.Passed {
		t.Fatalf("unknown policy should fail: %+v", result)
	}
}

func TestCheckCaptureProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	if result := preflight.CheckCaptureProvider(ctx, server.URL, "good"); !result.Passed {
		t.Fatalf("result = %+v", result)
	}
	if result := preflight.CheckCaptureProvider(ctx, server.URL, "bad"); result.Passed {
		t.Fatalf("bad token should fail: %+v", result)
	}
	if result := preflight.CheckCaptureProvider(ctx, "", "good"); result.Passed {
		t.Fatalf("missing url should fail: %+v", result)
	}
}
