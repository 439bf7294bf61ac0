package service

import (
	"sort"

	"github.com/campusdesk/complaint-console/internal/models"
)

// HiddenSubmitterLabel is the sentinel rendered in place of the submitter
// identity when a complaint is anonymous.
const HiddenSubmitterLabel = "Hidden"

// Projection is a role-specific view of a complaint. The underlying record
// stays attached for bookkeeping; anonymity is enforced through the rendered
// SubmitterLabel, never by stripping transport fields.
type Projection struct {
	models.Complaint

	SubmitterLabel string `json:"submitterLabel"`
}

// Project derives the view of a single complaint permitted for the role. The
// second return value is false when the record must not appear at all for
// that viewer; this is a filter, not an error.
func Project(c models.Complaint, role models.ViewerRole) (Projection, bool) {
	switch role {
	case models.ViewerStudentSelf:
		return Projection{Complaint: c, SubmitterLabel: c.StudentID}, true
	case models.ViewerAdmin:
		label := c.StudentID
		if c.IsAnonymous {
			label = HiddenSubmitterLabel
		}
		return Projection{Complaint: c, SubmitterLabel: label}, true
	case models.ViewerStudentPeer:
		if !c.IsPublic {
			return Projection{}, false
		}
		// Peers never see submitter identity, anonymous or not.
		return Projection{Complaint: c, SubmitterLabel: ""}, true
	}
	return Projection{}, false
}

// ProjectAll applies Project over a collection, keeping input order.
func ProjectAll(list []models.Complaint, role models.ViewerRole) []Projection {
	projected := make([]Projection, 0, len(list))
	for _, c := range list {
		if p, ok := Project(c, role); ok {
			projected = append(projected, p)
		}
	}
	return projected
}

// RecentPublic returns the public records sorted by creation time descending
// and truncated to limit. Used by the dashboard "recent public" panels.
func RecentPublic(list []models.Complaint, limit int) []models.Complaint {
	if limit <= 0 {
		limit = 5
	}
	public := make([]models.Complaint, 0, len(list))
	for _, c := range list {
		if c.IsPublic {
			public = append(public, c)
		}
	}
	sort.SliceStable(public, func(i, j int) bool {
		return public[i].CreatedAt.After(public[j].CreatedAt)
	})
	if len(public) > limit {
		public = public[:limit]
	}
	return public
}
