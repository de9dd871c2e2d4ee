package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// CreateActivity сохраняет активность. ID генерируется, если не задан;
// CreatedAt и Reviewed заполняются значениями из базы.
func (s *Storage) CreateActivity(ctx context.Context, a *models.Activity) error {
	const op = "storage.CreateActivity"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `INSERT INTO activities (id, user_id, date, activity_type, jira_tickets,
			      manual_testing, api_testing, cypress_testing, additional_notes, reviewed)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING reviewed, created_at`
	err := s.DB.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.Date, string(a.ActivityType),
		nullString(a.JiraTickets), nullString(a.ManualTesting), nullString(a.APITesting),
		nullString(a.CypressTesting), nullString(a.AdditionalNotes), a.Reviewed,
	).Scan(&a.Reviewed, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return nil
}

// ListActivities возвращает активности по запросу q вместе с краткими данными владельца.
// По умолчанию записи отсортированы по дате по убыванию.
func (s *Storage) ListActivities(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error) {
	const op = "storage.ListActivities"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query, args := buildActivityQuery(q)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		var owner models.UserInfo
		var activityType, ownerRole string
		var jira, manual, api, cypress, notes sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.Date, &activityType,
			&jira, &manual, &api, &cypress, &notes, &a.Reviewed, &a.CreatedAt,
			&owner.ID, &owner.Name, &owner.Email, &ownerRole); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ActivityType = models.ActivityType(activityType)
		a.JiraTickets = stringPtr(jira)
		a.ManualTesting = stringPtr(manual)
		a.APITesting = stringPtr(api)
		a.CypressTesting = stringPtr(cypress)
		a.AdditionalNotes = stringPtr(notes)
		owner.Role = models.Role(ownerRole)
		a.User = &owner
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func buildActivityQuery(q models.ActivityQuery) (string, []any) {
	var args []any
	conds := []string{scopeCondition(q.Scope, "a.user_id", "u.role", &args)}

	if q.ActivityType != nil {
		args = append(args, string(*q.ActivityType))
		conds = append(conds, fmt.Sprintf("a.activity_type = $%d", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		conds = append(conds, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conds = append(conds, fmt.Sprintf("a.date <= $%d", len(args)))
	}
	if name := strings.TrimSpace(q.OwnerName); name != "" {
		args = append(args, "%"+escapeLike(name)+"%")
		conds = append(conds, fmt.Sprintf("u.name ILIKE $%d", len(args)))
	}

	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}

	query := `SELECT a.id, a.user_id, a.date, a.activity_type, a.jira_tickets, a.manual_testing,
			      a.api_testing, a.cypress_testing, a.additional_notes, a.reviewed, a.created_at,
			      u.id, u.name, u.email, u.role
			  FROM activities a
			  JOIN users u ON u.id = a.user_id
			  WHERE ` + strings.Join(conds, " AND ") + `
			  ORDER BY a.date ` + order + `, a.created_at ` + order
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
