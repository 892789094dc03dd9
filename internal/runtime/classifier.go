package runtime

import "github.com/aretw0/switchboard/pkg/domain"

// Classification is the verdict on one batch of action requests.
type Classification int

const (
	AllSafe Classification = iota
	HasSensitive
	HasEscalation
)

func (c Classification) String() string {
	switch c {
	case AllSafe:
		return "all_safe"
	case HasSensitive:
		return "has_sensitive"
	case HasEscalation:
		return "has_escalation"
	default:
		return "unknown"
	}
}

// Classify decides how a controller's batch is handled. Escalation wins over
// everything else; any action outside the safe set (including undeclared
// names) makes the whole batch sensitive.
func Classify(desc domain.Descriptor, actions []domain.ActionRequest) Classification {
	sensitive := false
	for _, a := range actions {
		if a.IsEscalation() {
			return HasEscalation
		}
		if !desc.IsSafe(a.Name) {
			sensitive = true
		}
	}
	if sensitive {
		return HasSensitive
	}
	return AllSafe
}

// Route is the router transition taken after a controller reply.
type Route int

const (
	RouteReply Route = iota
	RouteSafe
	RouteSensitive
	RouteEnter
	RouteEscalate
)

func (r Route) String() string {
	switch r {
	case RouteReply:
		return "reply"
	case RouteSafe:
		return "safe"
	case RouteSensitive:
		return "sensitive"
	case RouteEnter:
		return "enter"
	case RouteEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// NextRoute maps a reply to a transition. entries maps entry tool names to the
// controllers they enter and is only consulted for the primary controller.
// Precedence: escalation, entry, sensitive, safe.
func NextRoute(desc domain.Descriptor, actions []domain.ActionRequest, entries map[string]string) Route {
	if len(actions) == 0 {
		return RouteReply
	}
	class := Classify(desc, actions)
	if class == HasEscalation {
		return RouteEscalate
	}
	if !desc.Specialized() {
		if _, _, ok := entryTarget(actions, entries); ok {
			return RouteEnter
		}
	}
	if class == HasSensitive {
		return RouteSensitive
	}
	return RouteSafe
}

// entryTarget returns the index and controller of the first entry request.
func entryTarget(actions []domain.ActionRequest, entries map[string]string) (int, string, bool) {
	for i, a := range actions {
		if target, ok := entries[a.Name]; ok {
			return i, target, true
		}
	}
	return -1, "", false
}
