// Package services генерирует текстовую сводку по QA-активностям через внешнюю языковую модель.
//
// Конвейер: разбор запроса и окна дат, выборка видимых активностей, сборка промпта,
// вызов модели. Ответ модели возвращается без изменений.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/period"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/llm"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/metrics"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/services/access"
)

// NoActivitiesText возвращается, если под критерии не попала ни одна активность.
const NoActivitiesText = "No activities found for the specified criteria."

// ActivityFinder выбирает активности по готовому запросу.
type ActivityFinder interface {
	Find(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error)
	Now() time.Time
}

// Completer вызывает модель генерации текста.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Settings параметры запроса к модели.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// SummaryService формирует AI-сводку по активностям.
type SummaryService struct {
	activities ActivityFinder
	completer  Completer
	settings   Settings
	log        *slog.Logger
}

// NewSummaryService создает новый экземпляр SummaryService.
// Если completer равен nil, каждый запрос завершается ошибкой SUMMARY_NOT_CONFIGURED.
func NewSummaryService(log *slog.Logger, activities ActivityFinder, completer Completer, settings Settings) *SummaryService {
	return &SummaryService{
		activities: activities,
		completer:  completer,
		settings:   settings,
		log:        log,
	}
}

// Window — разрешённое окно дат сводки.
type Window struct {
	From     time.Time
	To       time.Time
	Explicit bool
}

// ResolveWindow проверяет даты запроса и возвращает окно выборки.
// Явное окно используется только если заданы обе даты, конец включается до конца дня.
// Иначе берётся рабочая неделя, содержащая now. Границы дней считаются в поясе now.
func ResolveWindow(startDate, endDate string, now time.Time) (Window, error) {
	loc := now.Location()
	var start, end time.Time
	var err error
	if strings.TrimSpace(startDate) != "" {
		if start, err = period.ParseDateIn(startDate, loc); err != nil {
			return Window{}, models.NewValidationError("Invalid date format. Please provide valid dates.")
		}
	}
	if strings.TrimSpace(endDate) != "" {
		if end, err = period.ParseDateIn(endDate, loc); err != nil {
			return Window{}, models.NewValidationError("Invalid date format. Please provide valid dates.")
		}
	}
	if start.IsZero() || end.IsZero() {
		from, to := period.WorkWeek(now)
		return Window{From: from, To: to}, nil
	}
	return Window{
		From:     period.StartOfDay(start),
		To:       period.EndOfDay(end),
		Explicit: true,
	}, nil
}

// Generate возвращает сводку по активностям, видимым автору запроса, в ответ на произвольный вопрос.
func (s *SummaryService) Generate(ctx context.Context, requester models.Requester, req models.SummaryRequest) (string, error) {
	const op = "services.SummaryService.Generate"

	query := strings.TrimSpace(req.Query)
	if query == "" {
		metrics.RecordSummary("invalid", 0)
		return "", models.NewValidationError("Missing required parameter. Please provide a query.")
	}
	window, err := ResolveWindow(req.StartDate, req.EndDate, s.activities.Now())
	if err != nil {
		metrics.RecordSummary("invalid", 0)
		return "", err
	}
	if s.completer == nil {
		metrics.RecordSummary("not_configured", 0)
		return "", models.ErrSummaryNotConfigured
	}

	q := models.ActivityQuery{
		From:      &window.From,
		To:        &window.To,
		Ascending: true,
	}
	target := ExtractTargetName(query)
	if target != "" {
		q.Scope = models.Scope{All: true}
		q.OwnerName = target
	} else {
		scope, err := access.ForRequester(requester)
		if err != nil {
			return "", err
		}
		q.Scope = scope
	}

	activities, err := s.activities.Find(ctx, q)
	if err != nil {
		metrics.RecordSummary("error", 0)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("activities selected for summary", "op", op, "count", len(activities), "target", target)
	if len(activities) == 0 {
		metrics.RecordSummary("empty", 0)
		return NoActivitiesText, nil
	}

	formatted, err := FormatActivities(activities)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var rangeText string
	if window.Explicit {
		rangeText = DateRangeText(&window.From, &window.To)
	} else {
		rangeText = DateRangeText(nil, nil)
	}

	chat := llm.ChatRequest{
		Model: s.settings.Model,
		Messages: []llm.Message{
			{Role: "system", Content: SystemMessage(rangeText, UserContext(target, requester.Role))},
			{Role: "user", Content: UserMessage(formatted, query)},
		},
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
	}

	started := time.Now()
	summary, err := s.completer.Complete(ctx, chat)
	elapsed := time.Since(started)
	if err != nil {
		s.log.Error("summary generation failed", "op", op, sl.Err(err))
		switch {
		case errors.Is(err, llm.ErrUnauthorized):
			metrics.RecordSummary("upstream_auth", elapsed)
			return "", fmt.Errorf("%s: %w", op, models.Wrap(models.ErrUpstreamAuth, err))
		case errors.Is(err, llm.ErrRateLimited):
			metrics.RecordSummary("rate_limited", elapsed)
			return "", fmt.Errorf("%s: %w", op, models.Wrap(models.ErrUpstreamRateLimited, err))
		}
		metrics.RecordSummary("error", elapsed)
		return "", fmt.Errorf("%s: %w", op, models.Wrap(models.ErrUpstream, err))
	}

	metrics.RecordSummary("ok", elapsed)
	s.log.Info("summary generated", "op", op, "activities", len(activities), "user_id", requester.ID)
	return summary, nil
}
