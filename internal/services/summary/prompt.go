package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

var targetNamePattern = regexp.MustCompile(`(?i)for\s+([A-Za-z\s]+)`)

// ExtractTargetName ищет в запросе шаблон "for <Name>" и возвращает имя.
// Если шаблона нет, возвращается пустая строка.
func ExtractTargetName(query string) string {
	m := targetNamePattern.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

type detail struct {
	label string
	value string
}

// details сериализуется в JSON-объект с сохранением порядка полей.
type details []detail

func (d details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.label)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type promptActivity struct {
	Date         string              `json:"date"`
	User         string              `json:"user"`
	Role         models.Role         `json:"role"`
	ActivityType models.ActivityType `json:"activityType"`
	Details      details             `json:"details"`
}

// FormatActivities сериализует активности для передачи в модель: JSON-массив с отступом в два пробела.
func FormatActivities(activities []models.Activity) (string, error) {
	items := make([]promptActivity, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		item := promptActivity{
			Date:         a.Date.Local().Format(time.DateOnly),
			ActivityType: a.ActivityType,
			Details:      details{},
		}
		if a.User != nil {
			item.User = a.User.Name
			item.Role = a.User.Role
		}
		for _, f := range models.TestingFields {
			if a.Has(f) {
				item.Details = append(item.Details, detail{label: f.Label(), value: *a.Field(f)})
			}
		}
		items = append(items, item)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DateRangeText описывает окно дат для системного сообщения.
func DateRangeText(from, to *time.Time) string {
	if from == nil || to == nil {
		return "for the current week (Monday to Friday)"
	}
	const layout = "January 2, 2006"
	return fmt.Sprintf("from %s to %s", from.Format(layout), to.Format(layout))
}

// UserContext описывает, чьи активности анализируются.
func UserContext(targetName string, role models.Role) string {
	if targetName != "" {
		return "for the user " + targetName
	}
	return "for the current user role: " + string(role)
}

// SystemMessage собирает системное сообщение для модели.
func SystemMessage(dateRangeText, userContext string) string {
	return fmt.Sprintf(`You are a QA activity analyzer and summarizer. You have access to QA activities %s %s.
    
Please analyze the activities and provide a professional summary based on the user's query. Focus on:
1. Key achievements and milestones
2. Testing progress and coverage
3. Important issues or blockers identified
4. Patterns or trends in testing activities
5. Recommendations if applicable

Format the response in a clear, professional manner.`, dateRangeText, userContext)
}

// UserMessage собирает пользовательское сообщение с активностями и запросом.
func UserMessage(formatted, query string) string {
	return fmt.Sprintf("Based on these activities:\n%s\n\nPlease provide a summary addressing this query: %s", formatted, query)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
