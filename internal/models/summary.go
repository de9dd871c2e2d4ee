package models

// SummaryRequest — запрос AI-сводки. Даты необязательны и задаются строками.
type SummaryRequest struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Query     string `json:"query"`
}

// SummaryResult — ответ с текстом сводки.
type SummaryResult struct {
	Summary string `json:"summary"`
}
