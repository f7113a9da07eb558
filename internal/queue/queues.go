package queue

import (
	"fmt"
	"strings"
)

// QueueName identifies an operator triage view.
type QueueName string

const (
	QueueSubmission    QueueName = "submission"
	QueueSampling      QueueName = "sampling"
	QueueTechPack      QueueName = "techpack"
	QueuePreProduction QueueName = "preproduction"
	QueueMarketplace   QueueName = "marketplace"
	// QueueAll selects every item that sits in one of the active queues.
	QueueAll QueueName = "all"
)

// queueStatuses is the predicate table: each active queue holds exactly the
// items in its status. Hold and terminal statuses belong to no queue.
var queueStatuses = []struct {
	name   QueueName
	status Status
}{
	{QueueSubmission, Pending()},
	{QueueSampling, Approved(PhaseSampling)},
	{QueueTechPack, Approved(PhaseTechPack)},
	{QueuePreProduction, Approved(PhasePreProduction)},
	{QueueMarketplace, Approved(PhaseMarketplacePrep)},
}

// ActiveQueues returns the five operator queues in pipeline order.
func ActiveQueues() []QueueName {
	names := make([]QueueName, 0, len(queueStatuses))
	for _, q := range queueStatuses {
		names = append(names, q.name)
	}
	return names
}

// Classify returns the queues an item belongs to. The result holds at most
// one name; it is empty for held and terminal items.
func Classify(item *Item) []QueueName {
	if item == nil {
		return nil
	}
	if name, ok := QueueForStatus(item.Status); ok {
		return []QueueName{name}
	}
	return nil
}

// QueueForStatus maps a status to its active queue.
func QueueForStatus(status Status) (QueueName, bool) {
	for _, q := range queueStatuses {
		if q.status == status {
			return q.name, true
		}
	}
	return "", false
}

// StatusesForQueue returns the statuses an item must have to appear in name.
func StatusesForQueue(name QueueName) ([]Status, error) {
	if name == QueueAll {
		statuses := make([]Status, 0, len(queueStatuses))
		for _, q := range queueStatuses {
			statuses = append(statuses, q.status)
		}
		return statuses, nil
	}
	for _, q := range queueStatuses {
		if q.name == name {
			return []Status{q.status}, nil
		}
	}
	return nil, fmt.Errorf("unknown queue %q", name)
}

// ParseQueueName accepts queue names case-insensitively and tolerates the
// hyphenated spellings operators tend to type ("tech-pack", "pre-production").
func ParseQueueName(raw string) (QueueName, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if key == "" {
		return "", fmt.Errorf("queue name is required")
	}
	if QueueName(key) == QueueAll {
		return QueueAll, nil
	}
	for _, q := range queueStatuses {
		if string(q.name) == key {
			return q.name, nil
		}
	}
	return "", fmt.Errorf("unknown queue %q", raw)
}
