package models

// Analytics payloads are aggregated by the backend; the client only relays
// them to the admin console.

type CountTotals struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Admins    int `json:"admins,omitempty"`
	Completed int `json:"completed,omitempty"`
}

type DashboardStats struct {
	Users          CountTotals `json:"users"`
	Courses        CountTotals `json:"courses"`
	Lessons        CountTotals `json:"lessons"`
	Enrollments    CountTotals `json:"enrollments"`
	Quizzes        CountTotals `json:"quizzes"`
	RecentActivity struct {
		Enrollments7Days     int `json:"enrollments_7_days"`
		ProgressUpdates7Days int `json:"progress_updates_7_days"`
	} `json:"recent_activity"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type UserAnalytics struct {
	RegistrationTrend []DateCount `json:"registration_trend"`
	ActiveUsers       struct {
		Last7Days  int `json:"last_7_days"`
		Last30Days int `json:"last_30_days"`
	} `json:"active_users"`
	LanguagePreferences []LanguageCount `json:"language_preferences"`
}

type CourseAnalytics struct {
	PopularCourses []struct {
		ID              int    `json:"id"`
		Title           string `json:"title"`
		EnrollmentCount int    `json:"enrollment_count"`
	} `json:"popular_courses"`
	CompletionRates []struct {
		ID                   int     `json:"id"`
		Title                string  `json:"title"`
		TotalEnrollments     int     `json:"total_enrollments"`
		CompletedEnrollments int     `json:"completed_enrollments"`
		CompletionRate       float64 `json:"completion_rate"`
	} `json:"completion_rates"`
	LanguageDistribution   []LanguageCount `json:"language_distribution"`
	DifficultyDistribution []struct {
		Difficulty string `json:"difficulty"`
		Count      int    `json:"count"`
	} `json:"difficulty_distribution"`
}

type QuizAnalytics struct {
	QuizPerformance []struct {
		ID             int     `json:"id"`
		Title          string  `json:"title"`
		TotalResponses int     `json:"total_responses"`
		AvgCorrectRate float64 `json:"avg_correct_rate"`
	} `json:"quiz_performance"`
	OverallStats struct {
		TotalResponses   int     `json:"total_responses"`
		CorrectResponses int     `json:"correct_responses"`
		OverallAccuracy  float64 `json:"overall_accuracy"`
	} `json:"overall_stats"`
}

type UserCount struct {
	TotalUsers int `json:"total_users"`
}
