package models

// NameValue — элемент распределения для круговой диаграммы.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// UserTestingStats — распределение видов тестирования одного пользователя.
type UserTestingStats struct {
	Name           string `json:"name"`
	JiraTickets    int    `json:"Jira Tickets"`
	ManualTesting  int    `json:"Manual Testing"`
	APITesting     int    `json:"API Testing"`
	CypressTesting int    `json:"Cypress Testing"`
}

// DashboardStats — агрегаты по видимому набору активностей.
type DashboardStats struct {
	TotalActivities         int                `json:"totalActivities"`
	WeeklyActivities        int                `json:"weeklyActivities"`
	TeamMembers             int                `json:"teamMembers"`
	TestingTypeDistribution []NameValue        `json:"testingTypeDistribution"`
	UserTestingDistribution []UserTestingStats `json:"userTestingDistribution"`
}
