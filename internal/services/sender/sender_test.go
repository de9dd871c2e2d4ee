package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListUsers(ctx context.Context, scope models.Scope) ([]models.User, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) From() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTransport) Envelope() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const eventBody = `{"activity_id":"a-1","user_id":"q-1","user_name":"QA Engineer","user_email":"qa@example.com","activity_type":"DAILY","date":"2025-06-11T00:00:00Z","submitted_at":"2025-06-11T12:00:00Z"}`

var managersScope = models.Scope{PeerRole: models.RoleManager}

func TestSenderService_HandleActivitySubmitted(t *testing.T) {
	managers := []models.User{
		{ID: "m-1", Email: "boss@example.com", Role: models.RoleManager},
		{ID: "m-2", Email: "boss2@example.com", Role: models.RoleManager},
	}

	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport, *MockRepository)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - notify all managers",
			body: []byte(eventBody),
			setupMocks: func(t *MockTransport, r *MockRepository) {
				mockClient := new(MockSMTPClient)
				mockWriter := new(MockSMTPWriter)

				r.On("ListUsers", mock.Anything, managersScope).Return(managers, nil).Once()
				t.On("From").Return("QA Tracker <tracker@example.com>").Maybe()
				t.On("Envelope").Return("tracker@example.com").Maybe()
				t.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "tracker@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "boss@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "boss2@example.com").Return(nil).Once()
				mockClient.On("Data").Return(mockWriter, nil).Once()
				mockWriter.On("Write", mock.MatchedBy(func(p []byte) bool {
					msg := string(p)
					return strings.Contains(msg, "Subject: New daily QA activity from QA Engineer") &&
						strings.Contains(msg, "Activity ID: a-1")
				})).Return(100, nil).Once()
				mockWriter.On("Close").Return(nil).Once()
				mockClient.On("Quit").Return(nil).Once()
				mockClient.On("Close").Return(nil).Once()
			},
		},
		{
			name:       "invalid JSON is dropped",
			body:       []byte(`invalid json`),
			setupMocks: func(_ *MockTransport, _ *MockRepository) {},
		},
		{
			name:       "event without id is dropped",
			body:       []byte(`{"user_id":"q-1"}`),
			setupMocks: func(_ *MockTransport, _ *MockRepository) {},
		},
		{
			name: "no managers",
			body: []byte(eventBody),
			setupMocks: func(_ *MockTransport, r *MockRepository) {
				r.On("ListUsers", mock.Anything, managersScope).Return([]models.User{}, nil).Once()
			},
		},
		{
			name: "repository error",
			body: []byte(eventBody),
			setupMocks: func(_ *MockTransport, r *MockRepository) {
				r.On("ListUsers", mock.Anything, managersScope).Return(nil, errors.New("db error")).Once()
			},
			expectedError: true,
			errorMessage:  "db error",
		},
		{
			name: "SMTP connection error",
			body: []byte(eventBody),
			setupMocks: func(t *MockTransport, r *MockRepository) {
				r.On("ListUsers", mock.Anything, managersScope).Return(managers[:1], nil).Once()
				t.On("From").Return("QA Tracker <tracker@example.com>").Maybe()
				t.On("Envelope").Return("tracker@example.com").Maybe()
				t.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
		{
			name: "RCPT rejected",
			body: []byte(eventBody),
			setupMocks: func(t *MockTransport, r *MockRepository) {
				mockClient := new(MockSMTPClient)
				r.On("ListUsers", mock.Anything, managersScope).Return(managers[:1], nil).Once()
				t.On("From").Return("QA Tracker <tracker@example.com>").Maybe()
				t.On("Envelope").Return("tracker@example.com").Maybe()
				t.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "tracker@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "boss@example.com").Return(errors.New("550 mailbox unavailable")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "550",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			transport := new(MockTransport)
			service := NewSenderService(newNoopLogger(), transport, repo)

			tt.setupMocks(transport, repo)

			err := service.HandleActivitySubmitted(context.Background(), tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
			repo.AssertExpectations(t)
		})
	}
}
