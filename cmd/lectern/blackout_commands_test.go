package main

import (
	"encoding/json"
	"os"
	"testing"

	"lectern/internal/sis"
	"lectern/internal/testsupport"
)

func writeFeed(t *testing.T, path string, snapshot *sis.Snapshot) {
	t.Helper()
	raw, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
}

func TestBlackoutListAddRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	snapshot := testsupport.Snapshot(
		testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10", testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("r1"), "MOWEFR")),
	)
	writeFeed(t, env.cfg.Paths.FeedPath, snapshot)

	out, _, err := runCLI(t, []string{"blackout", "list"}, "", env.configPath)
	if err != nil {
		t.Fatalf("blackout list: %v", err)
	}
	requireContains(t, out, "Spring Recess")

	out, _, err = runCLI(t, []string{"blackout", "add", "--name", "Commencement", "--start", "2026-04-10", "--end", "2026-04-10"}, "", env.configPath)
	if err != nil {
		t.Fatalf("blackout add: %v", err)
	}
	requireContains(t, out, "Added blackout")

	reloaded, err := sis.LoadSnapshot(env.cfg.Paths.FeedPath)
	if err != nil {
		t.Fatalf("reload feed: %v", err)
	}
	if len(reloaded.Term.Blackouts) != 2 {
		t.Fatalf("blackouts = %d, want 2", len(reloaded.Term.Blackouts))
	}

	// duplicate names are rejected
	if _, _, err := runCLI(t, []string{"blackout", "add", "--name", "Commencement", "--start", "2026-04-11", "--end", "2026-04-11"}, "", env.configPath); err == nil {
		t.Fatal("duplicate blackout add should fail")
	}

	out, _, err = runCLI(t, []string{"blackout", "remove", "Commencement"}, "", env.configPath)
	if err != nil {
		t.Fatalf("blackout remove: %v", err)
	}
	requireContains(t, out, "Removed blackout")

	if _, _, err := runCLI(t, []string{"blackout", "remove", "Commencement"}, "", env.configPath); err == nil {
		t.Fatal("removing a missing blackout should fail")
	}
}
