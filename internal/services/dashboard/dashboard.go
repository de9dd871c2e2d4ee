// Package services вычисляет агрегаты дашборда по видимому набору активностей.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/period"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// ActivityLister возвращает видимые автору запроса активности.
type ActivityLister interface {
	List(ctx context.Context, requester models.Requester, filter models.ActivityFilter) ([]models.Activity, error)
	Now() time.Time
}

// DashboardService строит статистику для дашборда.
type DashboardService struct {
	activities ActivityLister
}

// NewDashboardService создает новый экземпляр DashboardService.
func NewDashboardService(activities ActivityLister) *DashboardService {
	return &DashboardService{activities: activities}
}

// Stats возвращает агрегаты по всем активностям, видимым автору запроса.
func (s *DashboardService) Stats(ctx context.Context, requester models.Requester) (*models.DashboardStats, error) {
	const op = "services.DashboardService.Stats"

	list, err := s.activities.List(ctx, requester, models.ActivityFilter{DateRange: models.RangeAll})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats := Aggregate(list, s.activities.Now())
	return &stats, nil
}

// Aggregate считает статистику по уже отфильтрованному набору активностей.
//
// Неделя начинается с воскресенья. Распределение по пользователям учитывает только
// первые четыре поля, без Additional Notes, и сохраняет порядок первого появления пользователя.
func Aggregate(activities []models.Activity, now time.Time) models.DashboardStats {
	weekStart := period.StartOfWeek(now)

	typeCounts := make([]int, len(models.TestingFields))
	members := make(map[string]struct{})
	perUser := make(map[string]int)
	users := make([]models.UserTestingStats, 0)
	weekly := 0

	for i := range activities {
		a := &activities[i]
		members[a.UserID] = struct{}{}
		if !a.Date.Before(weekStart) {
			weekly++
		}
		for j, f := range models.TestingFields {
			if a.Has(f) {
				typeCounts[j]++
			}
		}

		idx, ok := perUser[a.UserID]
		if !ok {
			idx = len(users)
			perUser[a.UserID] = idx
			users = append(users, models.UserTestingStats{Name: ownerName(a)})
		}
		u := &users[idx]
		if a.Has(models.FieldJiraTickets) {
			u.JiraTickets++
		}
		if a.Has(models.FieldManualTesting) {
			u.ManualTesting++
		}
		if a.Has(models.FieldAPITesting) {
			u.APITesting++
		}
		if a.Has(models.FieldCypressTesting) {
			u.CypressTesting++
		}
	}

	distribution := make([]models.NameValue, 0, len(models.TestingFields))
	for j, f := range models.TestingFields {
		distribution = append(distribution, models.NameValue{Name: f.Label(), Value: typeCounts[j]})
	}

	return models.DashboardStats{
		TotalActivities:         len(activities),
		WeeklyActivities:        weekly,
		TeamMembers:             len(members),
		TestingTypeDistribution: distribution,
		UserTestingDistribution: users,
	}
}

func ownerName(a *models.Activity) string {
	if a.User != nil {
		return a.User.Name
	}
	return a.UserID
}
