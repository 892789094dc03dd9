package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

var lookupPolicySpec = domain.Tool{
	Name:        "lookup_policy",
	Description: "Consult the company policies to check whether certain options are permitted. Use this before making any flight changes or performing other 'write' events.",
	Parameters: params([]string{"query"}, map[string]any{
		"query": str("what to look up, e.g. \"change flight fee\""),
	}),
}

// NoPolicyFound is returned when no section matches the query.
const NoPolicyFound = "No matching policy found."

// LookupPolicyArgs is a free-text query.
type LookupPolicyArgs struct {
	Query string `json:"query"`
}

// LookupPolicy returns the policy sections mentioning any query word of
// four letters or more.
func (s *Service) LookupPolicy(ctx context.Context, args LookupPolicyArgs) (string, error) {
	var (
		ors   []string
		qargs []any
	)
	for _, word := range strings.Fields(strings.ToLower(args.Query)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) < 4 {
			continue
		}
		ors = append(ors, "lower(section) LIKE ? OR lower(content) LIKE ?")
		qargs = append(qargs, like(word), like(word))
	}
	if len(ors) == 0 {
		return NoPolicyFound, nil
	}

	var rows []Policy
	err := s.db.SelectContext(ctx, &rows,
		"SELECT section, content FROM policies WHERE "+strings.Join(ors, " OR ")+" ORDER BY id", qargs...)
	if err != nil {
		return "", fmt.Errorf("lookup policy: %w", err)
	}
	if len(rows) == 0 {
		return NoPolicyFound, nil
	}

	var b strings.Builder
	for i, p := range rows {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", p.Section, p.Content)
	}
	return b.String(), nil
}
