// Package access строит предикаты видимости активностей и пользователей по роли автора запроса.
//
// Функции пакета не выполняют ввода-вывода: результат — models.Scope, который хранилище
// переводит в условие WHERE, а тесты проверяют напрямую на фикстурах через Scope.Allows.
package access

import (
	"fmt"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// ActivityScope возвращает область видимости активностей для роли role и пользователя userID.
//
// QA_MANAGER видит всё, QA_LEAD — свои записи и записи пользователей с ролью QA,
// QA — только свои. Для прочих ролей возвращается ошибка FORBIDDEN.
func ActivityScope(role models.Role, userID string) (models.Scope, error) {
	switch role {
	case models.RoleManager:
		return models.Scope{All: true}, nil
	case models.RoleLead:
		return models.Scope{SelfID: userID, PeerRole: models.RoleQA}, nil
	case models.RoleQA:
		return models.Scope{SelfID: userID}, nil
	}
	return models.Scope{}, forbidden(role)
}

// UserScope возвращает область видимости списка пользователей.
//
// QA_LEAD видит только пользователей с ролью QA, себя в том числе не видит.
func UserScope(role models.Role, userID string) (models.Scope, error) {
	switch role {
	case models.RoleManager:
		return models.Scope{All: true}, nil
	case models.RoleLead:
		return models.Scope{PeerRole: models.RoleQA}, nil
	case models.RoleQA:
		return models.Scope{SelfID: userID}, nil
	}
	return models.Scope{}, forbidden(role)
}

// ForRequester — ActivityScope для аутентифицированного автора запроса.
func ForRequester(r models.Requester) (models.Scope, error) {
	return ActivityScope(r.Role, r.ID)
}

func forbidden(role models.Role) error {
	return &models.DomainError{
		Code:    models.CodeForbidden,
		Message: fmt.Sprintf("Invalid role %q", string(role)),
	}
}
