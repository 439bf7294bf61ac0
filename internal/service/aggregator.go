package service

import "github.com/campusdesk/complaint-console/internal/models"

// Aggregate counts status occurrences in a single linear pass. It assumes no
// ordering of the input and is stable under empty input.
func Aggregate(list []models.Complaint) models.Stats {
	stats := models.Stats{Total: len(list)}
	for _, c := range list {
		switch c.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		}
	}
	return stats
}
