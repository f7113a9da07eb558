package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/api"
	"atelier/internal/queue"
)

func TestSubmitApplyShowFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	id := submitItem(t, env, "Indigo scarf", "maker-9")

	out, _, err := runCLI(t, []string{"apply", id, "start_sampling", "--actor", "admin-1", "--expect", "pending"}, env.configPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "pending -> approved/sampling")

	out, _, err = runCLI(t, []string{"queue", "list", "sampling"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, id)
	requireContains(t, out, "Indigo scarf")

	out, _, err = runCLI(t, []string{"queue", "list", "submission"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list submission: %v", err)
	}
	requireContains(t, out, "Submission queue is empty")

	out, _, err = runCLI(t, []string{"show", id}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "approved/sampling")
	requireContains(t, out, "generate_tech_pack")

	_, _, err = runCLI(t, []string{"apply", id, "reject", "--actor", "admin-2", "--expect", "pending"}, env.configPath)
	if err == nil {
		t.Fatal("expected stale expectation to be refused")
	}
	if queue.ErrorKindOf(err) != queue.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	requireContains(t, describeError(err), "Current status: approved/sampling.")

	out, _, err = runCLI(t, []string{"history", id}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "start_sampling")
	requireContains(t, out, "2 audit entries")
}

func TestApplyWithoutExpectReadsCurrentStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	id := submitItem(t, env, "Oak board", "maker-1")

	if _, _, err := runCLI(t, []string{"apply", id, "start_sampling", "--actor", "admin-1"}, env.configPath); err != nil {
		t.Fatalf("start sampling: %v", err)
	}
	out, _, err := runCLI(t, []string{"apply", id, "hold", "--actor", "admin-1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var resp api.ItemResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Item.Status != "approved/hold" {
		t.Fatalf("unexpected status %q", resp.Item.Status)
	}
}

func TestApplyRefusals(t *testing.T) {
	env := setupCLITestEnv(t)
	id := submitItem(t, env, "Brass hook", "maker-4")

	_, _, err := runCLI(t, []string{"apply", id, "resume", "--actor", "admin-1"}, env.configPath)
	if queue.ErrorKindOf(err) != queue.KindUnknownAction {
		t.Fatalf("expected unknown action, got %v", err)
	}

	_, _, err = runCLI(t, []string{"apply", "missing-id", "hold", "--actor", "admin-1"}, env.configPath)
	if queue.ErrorKindOf(err) != queue.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	_, _, err = runCLI(t, []string{"apply", id, "hold", "--expect", "pending"}, env.configPath)
	if queue.ErrorKindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation error for missing actor, got %v", err)
	}

	_, _, err = runCLI(t, []string{"apply", id, "create_listing", "--actor", "admin-1", "--expect", "pending"}, env.configPath)
	if queue.ErrorKindOf(err) != queue.KindValidation {
		t.Fatalf("expected validation error for listing a pending item, got %v", err)
	}
	requireContains(t, describeError(err), "start sampling first")

	if _, _, err := runCLI(t, []string{"apply", id, "reject", "--actor", "admin-1"}, env.configPath); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, _, err = runCLI(t, []string{"apply", id, "hold", "--actor", "admin-1"}, env.configPath)
	if queue.ErrorKindOf(err) != queue.KindTerminal {
		t.Fatalf("expected terminal refusal, got %v", err)
	}
	requireContains(t, describeError(err), "refused (terminal)")
}

func TestApplyHelpWarnsAboutMissingExpect(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"apply", "--help"}, env.configPath)
	if err != nil {
		t.Fatalf("apply --help: %v", err)
	}
	requireContains(t, out, "not detected")
	requireContains(t, out, "concurrent changes go undetected")
}

func TestQueueStatsJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	submitItem(t, env, "Wool throw", "maker-2")
	id := submitItem(t, env, "Cotton bag", "maker-3")
	if _, _, err := runCLI(t, []string{"apply", id, "start_sampling", "--actor", "admin-1"}, env.configPath); err != nil {
		t.Fatalf("apply: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	var stats api.QueueStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Queues["submission"] != 1 || stats.Queues["sampling"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.WaitSamples != 1 {
		t.Fatalf("expected one wait sample, got %d", stats.WaitSamples)
	}

	out, _, err = runCLI(t, []string{"queue", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	requireContains(t, out, "Completed Today")
	requireContains(t, out, "Average wait:")
}

func TestOutboxListAndRetry(t *testing.T) {
	env := setupCLITestEnv(t)
	id := submitItem(t, env, "Silk tie", "maker-5")
	if _, _, err := runCLI(t, []string{"apply", id, "reject", "--actor", "admin-1", "--notes", "seams"}, env.configPath); err != nil {
		t.Fatalf("reject: %v", err)
	}

	out, _, err := runCLI(t, []string{"outbox", "list", "--state", "pending", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("outbox list: %v", err)
	}
	var resp api.OutboxListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode outbox: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].ItemID != id || resp.Entries[0].Action != queue.ActionReject {
		t.Fatalf("unexpected outbox entries: %+v", resp.Entries)
	}

	out, _, err = runCLI(t, []string{"outbox", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("outbox retry: %v", err)
	}
	requireContains(t, out, "Requeued 0 notification(s)")

	if _, _, err := runCLI(t, []string{"outbox", "list", "--state", "lost"}, env.configPath); err == nil {
		t.Fatal("expected unknown state to fail")
	}
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"health"}, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, filepath.Join(env.dataDir, "pipeline.db"))
	requireContains(t, out, "Integrity check:")
	requireContains(t, out, "Data directory:")
}

func TestConfigInitValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "none (outbox entries are marked delivered without sending)")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "data_dir")
	requireContains(t, out, env.dataDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file to be refused, got %v", err)
	}
}

func TestTestNotifyWithoutTransport(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "No notification transport configured")
}

func TestDisplayLabel(t *testing.T) {
	if got := displayLabel("marketplace_prep"); got != "Marketplace Prep" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon: not running")
}
