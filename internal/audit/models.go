package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and log routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance
	// (account and record lifecycle). These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics, e.g. failed logins.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine access events useful for
	// operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Action is the enumerated tag identifying what a sensitive operation did.
type Action string

const (
	// Account events
	ActionSignupSuccess Action = "SIGNUP_SUCCESS"
	ActionLoginSuccess  Action = "LOGIN_SUCCESS"
	ActionLoginFailure  Action = "LOGIN_FAILURE"
	ActionLogout        Action = "LOGOUT"
	ActionDeleteAccount Action = "DELETE_ACCOUNT"
	ActionAccessUsers   Action = "ACCESS_ALL_USERS"

	// Student record events
	ActionListStudents  Action = "LIST_STUDENTS"
	ActionViewStudent   Action = "VIEW_STUDENT"
	ActionCreateStudent Action = "CREATE_STUDENT"
	ActionUpdateStudent Action = "UPDATE_STUDENT"
	ActionDeleteStudent Action = "DELETE_STUDENT"
)

var actionCategories = map[Action]EventCategory{
	ActionSignupSuccess: CategoryCompliance,
	ActionDeleteAccount: CategoryCompliance,
	ActionCreateStudent: CategoryCompliance,
	ActionUpdateStudent: CategoryCompliance,
	ActionDeleteStudent: CategoryCompliance,

	ActionLoginFailure: CategorySecurity,

	ActionLoginSuccess: CategoryOperations,
	ActionLogout:       CategoryOperations,
	ActionAccessUsers:  CategoryOperations,
	ActionListStudents: CategoryOperations,
	ActionViewStudent:  CategoryOperations,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture a sensitive action. Keep it
// transport-agnostic so the log stream and the durable store can fan out.
//
// ActorID is uuid.Nil when the event has no authenticated principal (e.g. a
// failed login for an unknown email). StudentID, Before and After are only
// set on student-record events.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Action    Action         `json:"action"`
	IP        string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`

	StudentID uuid.UUID `json:"student_id"`
	Before    any       `json:"old_data,omitempty"`
	After     any       `json:"new_data,omitempty"`
}

// StudentScoped reports whether the event belongs in the student audit table.
func (e Event) StudentScoped() bool {
	switch e.Action {
	case ActionListStudents, ActionViewStudent, ActionCreateStudent,
		ActionUpdateStudent, ActionDeleteStudent:
		return true
	}
	return false
}
