package models

import (
	"fmt"
	"time"
)

// DateRangeKind — именованное окно дат для списка активностей.
type DateRangeKind string

const (
	RangeAll   DateRangeKind = "ALL"
	RangeToday DateRangeKind = "TODAY"
	RangeWeek  DateRangeKind = "WEEK"
	RangeMonth DateRangeKind = "MONTH"
)

// ParseDateRangeKind разбирает значение query-параметра dateRange.
// Пустая строка трактуется как ALL.
func ParseDateRangeKind(s string) (DateRangeKind, error) {
	switch k := DateRangeKind(s); k {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return k, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid date range %q", s))
}

// ActivityFilter — необязательные фильтры списка активностей.
type ActivityFilter struct {
	ActivityType *ActivityType // nil — все типы
	DateRange    DateRangeKind // окно дат, пустое значение равно ALL
}

// Scope — предикат видимости записей для автора запроса.
//
// Запись видна, если All, либо владелец совпадает с SelfID,
// либо роль владельца равна PeerRole.
type Scope struct {
	All      bool
	SelfID   string
	PeerRole Role
}

// Allows проверяет запись с владельцем ownerID и ролью владельца ownerRole.
func (s Scope) Allows(ownerID string, ownerRole Role) bool {
	if s.All {
		return true
	}
	if s.SelfID != "" && ownerID == s.SelfID {
		return true
	}
	return s.PeerRole != "" && ownerRole == s.PeerRole
}

// ActivityQuery — параметры выборки активностей, передаваемые в хранилище.
type ActivityQuery struct {
	Scope        Scope
	ActivityType *ActivityType
	From         *time.Time // нижняя граница даты включительно
	To           *time.Time // верхняя граница даты включительно
	OwnerName    string     // подстрока имени владельца без учёта регистра
	Ascending    bool       // сортировка по дате по возрастанию
}
