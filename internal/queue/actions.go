package queue

import (
	"sort"
	"strings"
)

// Action is one row of the transition table.
type Action struct {
	// Token is the normalized name recorded in review records and audit entries.
	Token string
	// Label is the operator-facing name.
	Label  string
	Target Status
	// NotifiesOwner marks transitions that cross a boundary the owner hears about.
	NotifiesOwner bool
	// RequiresApproved limits the action to items already past review.
	RequiresApproved bool
}

// AllowedFrom reports whether the action may be applied to an item in status.
func (a Action) AllowedFrom(status Status) bool {
	if status.IsZero() || status.IsTerminal() {
		return false
	}
	return !a.RequiresApproved || status.Review() == ReviewApproved
}

const (
	ActionStartSampling     = "start_sampling"
	ActionGenerateTechPack  = "generate_tech_pack"
	ActionApproveProduction = "approve_production"
	ActionCreateListing     = "create_listing"
	ActionReject            = "reject"
	ActionHold              = "hold"

	// ActionPublish is recorded when the downstream listing completes. It is
	// not an operator action and ParseAction does not accept it.
	ActionPublish = "publish"
)

var actionTable = map[string]Action{
	ActionStartSampling:     {Token: ActionStartSampling, Label: "Start Sampling", Target: Approved(PhaseSampling)},
	ActionGenerateTechPack:  {Token: ActionGenerateTechPack, Label: "Generate Tech Pack", Target: Approved(PhaseTechPack), RequiresApproved: true},
	ActionApproveProduction: {Token: ActionApproveProduction, Label: "Approve Production", Target: Approved(PhasePreProduction), RequiresApproved: true},
	ActionCreateListing:     {Token: ActionCreateListing, Label: "Create Listing", Target: Approved(PhaseMarketplacePrep), NotifiesOwner: true, RequiresApproved: true},
	ActionReject:            {Token: ActionReject, Label: "Reject", Target: Rejected(), NotifiesOwner: true},
	ActionHold:              {Token: ActionHold, Label: "Hold", Target: Approved(PhaseHold), RequiresApproved: true},
}

var actionAliases = map[string]string{
	"review":       ActionStartSampling,
	"quick_reject": ActionReject,
}

var publishAction = Action{Token: ActionPublish, Label: "Publish", Target: Published(), NotifiesOwner: true}

// NormalizeActionToken folds case, spaces, and hyphens so "Start Sampling",
// "start-sampling" and "START_SAMPLING" compare equal.
func NormalizeActionToken(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(fields, "_")
}

// ParseAction resolves an operator-supplied action name.
func ParseAction(raw string) (Action, error) {
	token := NormalizeActionToken(raw)
	if alias, ok := actionAliases[token]; ok {
		token = alias
	}
	action, ok := actionTable[token]
	if !ok {
		return Action{}, &TransitionError{Kind: KindUnknownAction, Action: raw}
	}
	return action, nil
}

// Actions lists the operator actions in pipeline order.
func Actions() []Action {
	actions := make([]Action, 0, len(actionTable))
	for _, action := range actionTable {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool {
		return actionRank(actions[i]) < actionRank(actions[j])
	})
	return actions
}

// ActionsFor lists the operator actions an item in status accepts, in
// pipeline order.
func ActionsFor(status Status) []Action {
	var allowed []Action
	for _, action := range Actions() {
		if action.AllowedFrom(status) {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

func actionRank(a Action) int {
	switch a.Token {
	case ActionStartSampling:
		return 0
	case ActionGenerateTechPack:
		return 1
	case ActionApproveProduction:
		return 2
	case ActionCreateListing:
		return 3
	case ActionHold:
		return 4
	default:
		return 5
	}
}
