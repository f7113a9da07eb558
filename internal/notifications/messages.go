package notifications

import (
	"fmt"
	"strings"
)

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// transitionPayload renders the owner-facing text for an event.
func transitionPayload(event Event) payload {
	title := strings.TrimSpace(event.ItemTitle)
	if title == "" {
		title = event.ItemID
	}

	var data payload
	switch event.Action {
	case "create_listing":
		data = payload{
			title:   "Atelier - Listing In Preparation",
			message: fmt.Sprintf("🛍️ %q is being prepared for the marketplace", title),
			tags:    []string{"atelier", "listing", "marketplace"},
		}
	case "reject":
		data = payload{
			title:    "Atelier - Submission Declined",
			message:  fmt.Sprintf("❌ %q was not accepted for production", title),
			tags:     []string{"atelier", "review", "rejected"},
			priority: "high",
		}
	case "publish":
		data = payload{
			title:    "Atelier - Published",
			message:  fmt.Sprintf("✅ %q is live on the marketplace", title),
			tags:     []string{"atelier", "listing", "published"},
			priority: "high",
		}
	default:
		data = payload{
			title:   "Atelier - Pipeline Update",
			message: fmt.Sprintf("%q moved: %s", title, strings.ReplaceAll(event.Action, "_", " ")),
			tags:    []string{"atelier", "pipeline"},
		}
	}
	if owner := strings.TrimSpace(event.OwnerID); owner != "" {
		data.message = fmt.Sprintf("%s\nOwner: %s", data.message, owner)
	}
	return data
}
