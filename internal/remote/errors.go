package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks a transport failure (connection refused, DNS,
	// timeout). Read paths fall back to cached data; write paths leave the
	// entity dirty for a later reconcile.
	ErrNetwork = errors.New("network failure")

	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// ServerError is a remote failure that is neither a transport problem nor
// one of the recognized classifications.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// LinkRuleCode identifies a hierarchy rule the server refused to violate.
// The set is closed; unrecognized codes classify as *ServerError.
type LinkRuleCode string

const (
	CodeParentNotLongTerm  LinkRuleCode = "PARENT_NOT_LONG_TERM"
	CodeGoalAlreadyLinked  LinkRuleCode = "GOAL_ALREADY_LINKED"
	CodeGoalHasChildren    LinkRuleCode = "GOAL_HAS_CHILDREN"
	CodeSelfLinkNotAllowed LinkRuleCode = "SELF_LINK_NOT_ALLOWED"
	CodeGoalNotFound       LinkRuleCode = "GOAL_NOT_FOUND"
	CodeParentNotFound     LinkRuleCode = "PARENT_NOT_FOUND"
	CodeChildNotShortTerm  LinkRuleCode = "CHILD_NOT_SHORT_TERM"
	CodeTypeChangeBlocked  LinkRuleCode = "TYPE_CHANGE_BLOCKED"
)

// linkRuleMessages maps each rule code to a user-presentable message.
var linkRuleMessages = map[LinkRuleCode]string{
	CodeParentNotLongTerm:  "The selected parent is not a long-term goal.",
	CodeGoalAlreadyLinked:  "This goal is already linked to a parent.",
	CodeGoalHasChildren:    "A goal with linked sub-goals cannot become a sub-goal itself.",
	CodeSelfLinkNotAllowed: "A goal cannot be linked to itself.",
	CodeGoalNotFound:       "The goal no longer exists on the server.",
	CodeParentNotFound:     "The parent goal no longer exists on the server.",
	CodeChildNotShortTerm:  "Only short-term goals can be linked under a parent.",
	CodeTypeChangeBlocked:  "A goal's type cannot change while it is linked.",
}

// LinkRuleError is a hierarchy validation failure from the goals service.
// It is always surfaced to the caller, never swallowed or retried.
type LinkRuleError struct {
	Code   LinkRuleCode
	Detail string
}

func (e *LinkRuleError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("link rule %s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("link rule %s", e.Code)
}

// UserMessage returns the presentable message for the rule code.
func (e *LinkRuleError) UserMessage() string {
	return linkRuleMessages[e.Code]
}

// knownLinkRuleCode reports whether code belongs to the closed rule set.
func knownLinkRuleCode(code string) bool {
	_, ok := linkRuleMessages[LinkRuleCode(code)]
	return ok
}
