package models

import "time"

// Status is the triage state of a complaint. All three states are mutually
// reachable; there is no terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is one of the three canonical values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Statuses lists the canonical values in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusResolved}
}

// Complaint is the canonical, server-owned record. The transport names its
// fields in snake_case; the in-memory convention is camelCase and the mapping
// lives in the dto package.
type Complaint struct {
	ID          string    `json:"id"`
	Heading     string    `json:"heading"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	IsAnonymous bool      `json:"isAnonymous"`
	IsPublic    bool      `json:"isPublic"`
	StudentID   string    `json:"studentId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stats summarises a complaint collection by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// ViewerRole determines which projection rules apply to a complaint.
type ViewerRole string

const (
	ViewerStudentSelf ViewerRole = "student-self"
	ViewerStudentPeer ViewerRole = "student-peer"
	ViewerAdmin       ViewerRole = "admin"
)

// AccountRole is the authenticated identity kind held by a session.
type AccountRole string

const (
	RoleStudent AccountRole = "student"
	RoleAdmin   AccountRole = "admin"
)
