package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ApprovalPrompt is shown before reading an approval decision.
const ApprovalPrompt = "Approve? [y/N]"

// Decision is the host's answer to an approval request.
type Decision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// ApprovalPolicy decides on a suspended batch of sensitive actions.
type ApprovalPolicy func(ctx context.Context, req domain.ApprovalRequest) (Decision, error)

// MultiPolicy chains policies. The first denial wins.
func MultiPolicy(policies ...ApprovalPolicy) ApprovalPolicy {
	return func(ctx context.Context, req domain.ApprovalRequest) (Decision, error) {
		for _, policy := range policies {
			d, err := policy(ctx, req)
			if err != nil {
				return Decision{}, err
			}
			if !d.Approved {
				return d, nil
			}
		}
		return Decision{Approved: true}, nil
	}
}

// ConfirmationMiddleware asks the user through handler.
// "y" or "yes" approves; "n", "no" or an empty line denies; any other text
// denies and is passed to the controller as the reason. A JSON object
// ({"approved": ..., "reason": ...}) is accepted as well.
func ConfirmationMiddleware(handler IOHandler) ApprovalPolicy {
	return func(ctx context.Context, req domain.ApprovalRequest) (Decision, error) {
		if err := handler.SystemOutput(ctx, ApprovalPrompt); err != nil {
			return Decision{}, err
		}
		input, err := handler.Input(ctx)
		if err != nil {
			return Decision{}, err
		}
		return ParseDecision(input), nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ApprovalPolicy {
	return func(ctx context.Context, req domain.ApprovalRequest) (Decision, error) {
		return Decision{Approved: true}, nil
	}
}

// DenyListMiddleware denies any batch containing one of the named actions.
func DenyListMiddleware(names ...string) ApprovalPolicy {
	return func(ctx context.Context, req domain.ApprovalRequest) (Decision, error) {
		for _, act := range req.Actions {
			if slices.Contains(names, act.Name) {
				return Decision{Reason: fmt.Sprintf("%s is blocked by policy", act.Name)}, nil
			}
		}
		return Decision{Approved: true}, nil
	}
}

// ParseDecision interprets a line typed at the approval prompt.
func ParseDecision(input string) Decision {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		var d Decision
		if err := json.Unmarshal([]byte(input), &d); err == nil {
			return d
		}
	}
	switch strings.ToLower(input) {
	case "y", "yes":
		return Decision{Approved: true}
	case "", "n", "no":
		return Decision{}
	}
	return Decision{Reason: input}
}
