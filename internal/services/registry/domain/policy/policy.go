// Package policy decides which registry actions a caller may perform.
package policy

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
)

// Action is a registry operation subject to authorization.
type Action int

const (
	// ActionUnspecified represents an invalid action.
	ActionUnspecified Action = iota
	// ActionRead covers info, directory, audit, view, list, and check.
	ActionRead
	// ActionRegister covers registering a business or applying as a gang.
	ActionRegister
	// ActionCreateContract covers opening a contract.
	ActionCreateContract
	// ActionApprove covers approving a pending registration.
	ActionApprove
	// ActionDeny covers denying a registration.
	ActionDeny
	// ActionUpdate covers patching a registration.
	ActionUpdate
	// ActionRemove covers terminating a business or disbanding a gang.
	ActionRemove
	// ActionEditContract covers patching a contract.
	ActionEditContract
	// ActionTerminateContract covers deleting a contract.
	ActionTerminateContract
)

// Reason codes explain a decision.
const (
	ReasonAllowPublic     = "ALLOW_PUBLIC"
	ReasonAllowPrivileged = "ALLOW_PRIVILEGED"
	ReasonDenyPrivilege   = "DENY_PRIVILEGE_REQUIRED"
	ReasonDenyUnknown     = "DENY_UNKNOWN_ACTION"
)

// Actor is the caller of a registry operation.
type Actor struct {
	UserID     string
	Privileged bool
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed    bool
	ReasonCode string
}

// Rule states whether an action needs the privileged capability.
type Rule struct {
	Action     Action
	Privileged bool
}

var rules = []Rule{
	{Action: ActionRead},
	{Action: ActionRegister},
	{Action: ActionCreateContract},
	{Action: ActionApprove, Privileged: true},
	{Action: ActionDeny, Privileged: true},
	{Action: ActionUpdate, Privileged: true},
	{Action: ActionRemove, Privileged: true},
	{Action: ActionEditContract, Privileged: true},
	{Action: ActionTerminateContract, Privileged: true},
}

// PolicyTable returns a copy of the authorization rules.
func PolicyTable() []Rule {
	return slices.Clone(rules)
}

// Can reports whether actor may perform action.
func Can(actor Actor, action Action) Decision {
	i := slices.IndexFunc(rules, func(r Rule) bool { return r.Action == action })
	if i < 0 {
		return Decision{ReasonCode: ReasonDenyUnknown}
	}
	if !rules[i].Privileged {
		return Decision{Allowed: true, ReasonCode: ReasonAllowPublic}
	}
	if actor.Privileged {
		return Decision{Allowed: true, ReasonCode: ReasonAllowPrivileged}
	}
	return Decision{ReasonCode: ReasonDenyPrivilege}
}

// Require returns a PERMISSION_DENIED error when actor may not perform action.
func Require(actor Actor, action Action) error {
	decision := Can(actor, action)
	if decision.Allowed {
		return nil
	}
	label := action.String()
	return apperrors.WithMetadata(
		apperrors.CodePermissionDenied,
		fmt.Sprintf("%s requires privileged capability (%s)", label, decision.ReasonCode),
		map[string]string{"Action": label, "Reason": decision.ReasonCode},
	)
}

// HasRole reports whether roles contains the administrative role id.
func HasRole(roles []string, adminRoleID string) bool {
	adminRoleID = strings.TrimSpace(adminRoleID)
	if adminRoleID == "" {
		return false
	}
	return slices.Contains(roles, adminRoleID)
}

// String returns a stable label for the action.
func (a Action) String() string {
	switch a {
	case ActionRead:
		return "READ"
	case ActionRegister:
		return "REGISTER"
	case ActionCreateContract:
		return "CREATE_CONTRACT"
	case ActionApprove:
		return "APPROVE"
	case ActionDeny:
		return "DENY"
	case ActionUpdate:
		return "UPDATE"
	case ActionRemove:
		return "REMOVE"
	case ActionEditContract:
		return "EDIT_CONTRACT"
	case ActionTerminateContract:
		return "TERMINATE_CONTRACT"
	default:
		return "UNSPECIFIED"
	}
}
