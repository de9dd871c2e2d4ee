package models

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType — периодичность отчёта об активности.
type ActivityType string

const (
	ActivityDaily   ActivityType = "DAILY"
	ActivityWeekly  ActivityType = "WEEKLY"
	ActivityMonthly ActivityType = "MONTHLY"
)

// Valid сообщает, является ли тип допустимым.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityDaily, ActivityWeekly, ActivityMonthly:
		return true
	}
	return false
}

// ParseActivityType преобразует строку в ActivityType.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", NewValidationError(fmt.Sprintf("invalid activity type %q", s))
	}
	return t, nil
}

// Activity — запись о QA-активности, принадлежащая одному пользователю.
// Значение Date зависит от ActivityType: день, неделя или месяц отчёта.
type Activity struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	Date            time.Time    `json:"date"`
	ActivityType    ActivityType `json:"activityType"`
	JiraTickets     *string      `json:"jiraTickets"`
	ManualTesting   *string      `json:"manualTesting"`
	APITesting      *string      `json:"apiTesting"`
	CypressTesting  *string      `json:"cypressTesting"`
	AdditionalNotes *string      `json:"additionalNotes"`
	Reviewed        bool         `json:"reviewed"`
	CreatedAt       time.Time    `json:"createdAt"`
	User            *UserInfo    `json:"user,omitempty"`
}

// DummyActivity используется для приёма активности из JSON-запроса.
// Дата приходит строкой и парсится в сервисе.
type DummyActivity struct {
	ActivityType    string  `json:"activityType" validate:"required"`
	Date            string  `json:"date" validate:"required"`
	JiraTickets     *string `json:"jiraTickets,omitempty"`
	ManualTesting   *string `json:"manualTesting,omitempty"`
	APITesting      *string `json:"apiTesting,omitempty"`
	CypressTesting  *string `json:"cypressTesting,omitempty"`
	AdditionalNotes *string `json:"additionalNotes,omitempty"`
}

// TestingField перечисляет необязательные текстовые поля активности.
type TestingField int

const (
	FieldJiraTickets TestingField = iota
	FieldManualTesting
	FieldAPITesting
	FieldCypressTesting
	FieldAdditionalNotes
)

// TestingFields — все поля в порядке отображения.
var TestingFields = []TestingField{
	FieldJiraTickets,
	FieldManualTesting,
	FieldAPITesting,
	FieldCypressTesting,
	FieldAdditionalNotes,
}

// Label возвращает подпись поля для дашборда и сводки.
func (f TestingField) Label() string {
	switch f {
	case FieldJiraTickets:
		return "Jira Tickets"
	case FieldManualTesting:
		return "Manual Testing"
	case FieldAPITesting:
		return "API Testing"
	case FieldCypressTesting:
		return "Cypress Testing"
	case FieldAdditionalNotes:
		return "Additional Notes"
	}
	return ""
}

// Field возвращает значение поля f.
func (a *Activity) Field(f TestingField) *string {
	switch f {
	case FieldJiraTickets:
		return a.JiraTickets
	case FieldManualTesting:
		return a.ManualTesting
	case FieldAPITesting:
		return a.APITesting
	case FieldCypressTesting:
		return a.CypressTesting
	case FieldAdditionalNotes:
		return a.AdditionalNotes
	}
	return nil
}

// Has сообщает, заполнено ли поле f непустым текстом.
func (a *Activity) Has(f TestingField) bool {
	v := a.Field(f)
	return v != nil && strings.TrimSpace(*v) != ""
}

// EventActivitySubmitted — тип события и ключ маршрутизации для новых активностей.
const EventActivitySubmitted = "activity.submitted"

// ActivitySubmittedEvent публикуется в брокер после сохранения активности.
type ActivitySubmittedEvent struct {
	ActivityID   string       `json:"activity_id"`
	UserID       string       `json:"user_id"`
	UserName     string       `json:"user_name"`
	UserEmail    string       `json:"user_email"`
	ActivityType ActivityType `json:"activity_type"`
	Date         time.Time    `json:"date"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}
