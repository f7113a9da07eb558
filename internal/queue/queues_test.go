package queue_test

import (
	"testing"

	"atelier/internal/queue"
)

func allStatuses() []queue.Status {
	return []queue.Status{
		queue.Pending(),
		queue.Approved(queue.PhaseSampling),
		queue.Approved(queue.PhaseTechPack),
		queue.Approved(queue.PhasePreProduction),
		queue.Approved(queue.PhaseMarketplacePrep),
		queue.Approved(queue.PhaseHold),
		queue.Published(),
		queue.Rejected(),
	}
}

func TestClassifyIsAPartition(t *testing.T) {
	expected := map[queue.Status]queue.QueueName{
		queue.Pending():                            queue.QueueSubmission,
		queue.Approved(queue.PhaseSampling):        queue.QueueSampling,
		queue.Approved(queue.PhaseTechPack):        queue.QueueTechPack,
		queue.Approved(queue.PhasePreProduction):   queue.QueuePreProduction,
		queue.Approved(queue.PhaseMarketplacePrep): queue.QueueMarketplace,
	}

	for _, status := range allStatuses() {
		got := queue.Classify(&queue.Item{Status: status})
		want, active := expected[status]
		if !active {
			if len(got) != 0 {
				t.Fatalf("%s: expected no queue, got %v", status, got)
			}
			continue
		}
		if len(got) != 1 || got[0] != want {
			t.Fatalf("%s: expected [%s], got %v", status, want, got)
		}
	}
}

func TestStatusesForQueueAllCoversActiveQueues(t *testing.T) {
	statuses, err := queue.StatusesForQueue(queue.QueueAll)
	if err != nil {
		t.Fatalf("StatusesForQueue: %v", err)
	}
	if len(statuses) != len(queue.ActiveQueues()) {
		t.Fatalf("expected %d statuses, got %d", len(queue.ActiveQueues()), len(statuses))
	}
	for _, status := range statuses {
		if status.IsTerminal() || status.Phase() == queue.PhaseHold {
			t.Fatalf("unexpected status %s in all queues", status)
		}
	}
	if _, err := queue.StatusesForQueue("shipping"); err == nil {
		t.Fatal("expected error for unknown queue")
	}
}

func TestParseQueueName(t *testing.T) {
	cases := map[string]queue.QueueName{
		"submission":     queue.QueueSubmission,
		"Tech-Pack":      queue.QueueTechPack,
		"pre_production": queue.QueuePreProduction,
		" MARKETPLACE ":  queue.QueueMarketplace,
		"all":            queue.QueueAll,
	}
	for raw, want := range cases {
		got, err := queue.ParseQueueName(raw)
		if err != nil {
			t.Fatalf("ParseQueueName(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseQueueName(%q) = %s, want %s", raw, got, want)
		}
	}
	for _, raw := range []string{"", "hold", "published"} {
		if _, err := queue.ParseQueueName(raw); err == nil {
			t.Fatalf("ParseQueueName(%q): expected error", raw)
		}
	}
}
