package model

// UserInfo — профиль текущего пользователя (GET /userinfo/).
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DashboardMetrics — счётчики дашборда.
type DashboardMetrics struct {
	ReportsGenerated   int `json:"reports_generated"`
	ChatbotSessions    int `json:"chatbot_sessions"`
	CompaniesOnboarded int `json:"companies_onboarded"`
	AssetAnalysisCount int `json:"asset_analysis_count"`
}

// UploadResult — ответ загрузки архива документов.
type UploadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      int64  `json:"id,omitempty"`
}
