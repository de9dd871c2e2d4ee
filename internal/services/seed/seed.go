// Package services заполняет базу учётными записями по умолчанию и демонстрационными активностями.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/password"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Repository описывает операции хранилища, нужные для заполнения.
type Repository interface {
	UpsertUser(ctx context.Context, u *models.User) error
	CreateActivity(ctx context.Context, a *models.Activity) error
}

// Account — учётная запись по умолчанию.
type Account struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// DefaultAccounts — по одной учётной записи на каждую роль.
var DefaultAccounts = []Account{
	{Name: "QA Manager", Email: "qa.manager@example.com", Password: "Admin@123", Role: models.RoleManager},
	{Name: "QA Lead", Email: "qa.lead@example.com", Password: "Lead@123", Role: models.RoleLead},
	{Name: "QA Engineer", Email: "qa.engineer@example.com", Password: "QA@123", Role: models.RoleQA},
}

// ActivitiesPerUser — число демонстрационных активностей на пользователя, по одной на день.
const ActivitiesPerUser = 15

var (
	jiraTickets = []string{
		"JIRA-101: Implement login functionality testing",
		"JIRA-102: API integration testing for user management",
		"JIRA-103: Dashboard UI testing",
		"JIRA-104: Performance testing of search functionality",
		"JIRA-105: Security testing of authentication flow",
	}
	manualTesting = []string{
		"Performed end-to-end testing of user registration flow",
		"Tested responsive design on multiple devices",
		"Validated form validation and error messages",
		"Tested user profile update functionality",
		"Cross-browser testing of dashboard features",
	}
	apiTesting = []string{
		"Tested REST API endpoints for user management",
		"Validated API response formats and status codes",
		"Performance testing of API endpoints",
		"Security testing of API authentication",
		"API integration testing with frontend",
	}
	cypressTesting = []string{
		"Created Cypress test suite for login flow",
		"Implemented E2E tests for user management",
		"Added test cases for dashboard functionality",
		"Updated test automation framework",
		"Fixed flaky tests and improved stability",
	}
	activityTypes = []models.ActivityType{models.ActivityDaily, models.ActivityWeekly, models.ActivityMonthly}
)

// SeedService заполняет базу.
type SeedService struct {
	repo Repository
	log  *slog.Logger
	rnd  *rand.Rand
	now  func() time.Time
}

// NewSeedService создает новый экземпляр SeedService. rnd задаёт выбор демонстрационных текстов.
func NewSeedService(log *slog.Logger, repo Repository, rnd *rand.Rand, now func() time.Time) *SeedService {
	return &SeedService{
		repo: repo,
		log:  log,
		rnd:  rnd,
		now:  now,
	}
}

// Run создаёт или обновляет учётные записи по умолчанию и, если withActivities, добавляет
// каждой из них ActivitiesPerUser активностей за последние дни.
func (s *SeedService) Run(ctx context.Context, withActivities bool) ([]models.User, error) {
	const op = "services.SeedService.Run"

	users := make([]models.User, 0, len(DefaultAccounts))
	for _, acc := range DefaultAccounts {
		hash, err := password.GetHash(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u := &models.User{
			Name:         acc.Name,
			Email:        acc.Email,
			PasswordHash: hash,
			Role:         acc.Role,
		}
		if err := s.repo.UpsertUser(ctx, u); err != nil {
			return nil, fmt.Errorf("%s: upsert %s: %w", op, acc.Email, err)
		}
		s.log.Info("account ready", "op", op, "email", u.Email, "role", u.Role)
		users = append(users, *u)
	}

	if !withActivities {
		return users, nil
	}

	today := s.now()
	for _, u := range users {
		for i := 0; i < ActivitiesPerUser; i++ {
			a := s.sampleActivity(u, i, today.AddDate(0, 0, -i))
			if err := s.repo.CreateActivity(ctx, a); err != nil {
				return nil, fmt.Errorf("%s: activity for %s: %w", op, u.Email, err)
			}
		}
		s.log.Info("sample activities created", "op", op, "email", u.Email, "count", ActivitiesPerUser)
	}
	return users, nil
}

func (s *SeedService) sampleActivity(u models.User, i int, date time.Time) *models.Activity {
	a := &models.Activity{
		UserID:       u.ID,
		Date:         date,
		ActivityType: activityTypes[i%len(activityTypes)],
		Reviewed:     s.rnd.Float64() > 0.5,
	}
	if i%2 == 0 {
		a.JiraTickets = s.pick(jiraTickets)
	}
	if i%3 == 0 {
		a.ManualTesting = s.pick(manualTesting)
	}
	if i%2 == 1 {
		a.APITesting = s.pick(apiTesting)
	}
	if i%4 == 0 {
		a.CypressTesting = s.pick(cypressTesting)
	}
	notes := fmt.Sprintf("Activity log for %s - Day %d", u.Name, i+1)
	a.AdditionalNotes = &notes
	return a
}

func (s *SeedService) pick(from []string) *string {
	v := from[s.rnd.Intn(len(from))]
	return &v
}
