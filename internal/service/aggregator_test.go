package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/complaint-console/internal/models"
)

func TestAggregate_EmptyInput(t *testing.T) {
	assert.Equal(t, models.Stats{}, Aggregate(nil))
	assert.Equal(t, models.Stats{}, Aggregate([]models.Complaint{}))
}

func TestAggregate_CountsByStatus(t *testing.T) {
	withStatus := func(s models.Status) func(*models.Complaint) {
		return func(c *models.Complaint) { c.Status = s }
	}
	list := []models.Complaint{
		complaint("c-1", withStatus(models.StatusResolved)),
		complaint("c-2", withStatus(models.StatusPending)),
		complaint("c-3", withStatus(models.StatusInProgress)),
		complaint("c-4", withStatus(models.StatusPending)),
		complaint("c-5", withStatus(models.StatusResolved)),
	}

	stats := Aggregate(list)

	assert.Equal(t, models.Stats{Total: 5, Pending: 2, InProgress: 1, Resolved: 2}, stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.InProgress+stats.Resolved)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	withStatus := func(s models.Status) func(*models.Complaint) {
		return func(c *models.Complaint) { c.Status = s }
	}
	a := []models.Complaint{
		complaint("c-1", withStatus(models.StatusPending)),
		complaint("c-2", withStatus(models.StatusResolved)),
	}
	b := []models.Complaint{a[1], a[0]}

	assert.Equal(t, Aggregate(a), Aggregate(b))
}
