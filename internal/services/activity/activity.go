// Package services реализует создание и выборку QA-активностей с учётом области видимости автора запроса.
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
	"github.com/magabrotheeeer/qa-activity-tracker/internal/metrics"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/services/access"
)

const publishTimeout = 5 * time.Second

// ActivityRepository определяет методы для работы с активностями в хранилище.
type ActivityRepository interface {
	// CreateActivity сохраняет активность и заполняет сгенерированные поля.
	CreateActivity(ctx context.Context, a *models.Activity) error
	// ListActivities возвращает активности по запросу вместе с данными владельца.
	ListActivities(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error)
}

// EventPublisher отправляет событие о новой активности в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ActivitySubmittedEvent) error
}

// ActivityService реализует бизнес-логику работы с активностями.
type ActivityService struct {
	repo      ActivityRepository
	publisher EventPublisher
	broker    string
	now       func() time.Time
	log       *slog.Logger
}

// Option настраивает ActivityService.
type Option func(*ActivityService)

// WithPublisher включает публикацию событий activity.submitted через брокер broker.
func WithPublisher(p EventPublisher, broker string) Option {
	return func(s *ActivityService) {
		s.publisher = p
		s.broker = broker
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *ActivityService) {
		s.now = now
	}
}

// NewActivityService создает новый экземпляр ActivityService.
func NewActivityService(log *slog.Logger, repo ActivityRepository, opts ...Option) *ActivityService {
	s := &ActivityService{
		repo: repo,
		now:  time.Now,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now возвращает текущее время по часам сервиса.
func (s *ActivityService) Now() time.Time {
	return s.now()
}

// Submit проверяет и сохраняет активность от имени автора запроса.
// Пустые текстовые поля сохраняются как NULL, флаг reviewed всегда false.
func (s *ActivityService) Submit(ctx context.Context, requester models.Requester, req models.DummyActivity) (*models.Activity, error) {
	const op = "services.ActivityService.Submit"

	activityType, err := models.ParseActivityType(strings.TrimSpace(req.ActivityType))
	if err != nil {
		return nil, err
	}
	date, err := period.ParseDate(req.Date)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("invalid date %q", req.Date))
	}

	a := &models.Activity{
		UserID:          requester.ID,
		Date:            date,
		ActivityType:    activityType,
		JiraTickets:     normalize(req.JiraTickets),
		ManualTesting:   normalize(req.ManualTesting),
		APITesting:      normalize(req.APITesting),
		CypressTesting:  normalize(req.CypressTesting),
		AdditionalNotes: normalize(req.AdditionalNotes),
		Reviewed:        false,
	}
	if err := s.repo.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	a.User = &models.UserInfo{
		ID:    requester.ID,
		Name:  requester.Name,
		Email: requester.Email,
		Role:  requester.Role,
	}

	metrics.RecordActivitySubmitted(string(a.ActivityType), a.CreatedAt)
	s.log.Info("activity submitted", "op", op, "activity_id", a.ID, "user_id", a.UserID, "type", a.ActivityType)

	s.publish(ctx, a)
	return a, nil
}

func (s *ActivityService) publish(ctx context.Context, a *models.Activity) {
	const op = "services.ActivityService.publish"
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	submittedAt := a.CreatedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	event := models.ActivitySubmittedEvent{
		ActivityID:   a.ID,
		UserID:       a.UserID,
		UserName:     a.User.Name,
		UserEmail:    a.User.Email,
		ActivityType: a.ActivityType,
		Date:         a.Date,
		SubmittedAt:  submittedAt,
	}
	err := s.publisher.Publish(ctx, event)
	metrics.RecordEventPublished(s.broker, err)
	if err != nil {
		s.log.Warn("failed to publish activity event", "op", op, "activity_id", a.ID, sl.Err(err))
	}
}

// List возвращает видимые автору запроса активности по фильтру, новые сначала.
func (s *ActivityService) List(ctx context.Context, requester models.Requester, filter models.ActivityFilter) ([]models.Activity, error) {
	scope, err := access.ForRequester(requester)
	if err != nil {
		return nil, err
	}

	q := models.ActivityQuery{
		Scope:        scope,
		ActivityType: filter.ActivityType,
	}
	if from, ok := LowerBound(filter.DateRange, s.now()); ok {
		q.From = &from
	}
	return s.Find(ctx, q)
}

// Find выполняет произвольный запрос к активностям. Область видимости должна быть уже задана в q.
func (s *ActivityService) Find(ctx context.Context, q models.ActivityQuery) ([]models.Activity, error) {
	const op = "services.ActivityService.Find"

	activities, err := s.repo.ListActivities(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	return activities, nil
}

// LowerBound возвращает нижнюю границу даты для окна kind относительно now.
// Для ALL границы нет.
func LowerBound(kind models.DateRangeKind, now time.Time) (time.Time, bool) {
	switch kind {
	case models.RangeToday:
		return period.StartOfDay(now), true
	case models.RangeWeek:
		return period.StartOfWeek(now), true
	case models.RangeMonth:
		return period.StartOfMonth(now), true
	}
	return time.Time{}, false
}

func normalize(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
