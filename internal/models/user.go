// Package models содержит доменные структуры трекера QA-активностей:
// пользователей, активности, фильтры, агрегаты дашборда и ошибки бизнес-уровня.
package models

import (
	"fmt"
	"time"
)

// Role — роль пользователя, определяющая область видимости данных.
type Role string

const (
	// RoleManager видит все активности и всех пользователей.
	RoleManager Role = "QA_MANAGER"
	// RoleLead видит свои активности и активности пользователей с ролью QA.
	RoleLead Role = "QA_LEAD"
	// RoleQA видит только себя.
	RoleQA Role = "QA"
)

// Valid сообщает, входит ли роль в закрытый набор значений.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleLead, RoleQA:
		return true
	}
	return false
}

// ParseRole преобразует строку в Role, возвращая ошибку валидации для неизвестных значений.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", NewValidationError(fmt.Sprintf("invalid role %q", s))
	}
	return r, nil
}

// User представляет учётную запись пользователя.
type User struct {
	ID           string    // Непрозрачный идентификатор (uuid)
	Name         string    // Отображаемое имя
	Email        string    // Электронная почта, уникальна и служит логином
	PasswordHash string    // bcrypt-хэш пароля
	Role         Role      // Роль пользователя
	CreatedAt    time.Time // Дата создания
}

// UserInfo — публичная проекция пользователя без учётных данных.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Info возвращает публичную проекцию пользователя.
func (u User) Info() UserInfo {
	return UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Requester описывает аутентифицированного автора запроса.
type Requester struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// DummyUser используется для приёма данных нового пользователя из JSON-запроса.
type DummyUser struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// ChangePassword — данные запроса на смену пароля.
type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// LoginResult — ответ на успешный вход.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}
