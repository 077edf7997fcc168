package models

// Admin edits use one payload type per resource for both create and
// update. Nil fields are omitted so an update only touches what was set.

type CourseInput struct {
	Title             *string `json:"title,omitempty"`
	Description       *string `json:"description,omitempty"`
	Language          *string `json:"language,omitempty"`
	Category          *string `json:"category,omitempty"`
	DifficultyLevel   *string `json:"difficulty_level,omitempty"`
	EstimatedDuration *int    `json:"estimated_duration,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

type ModuleInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	OrderIndex  *int    `json:"order_index,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type LessonInput struct {
	Title             *string `json:"title,omitempty"`
	Content           *string `json:"content,omitempty"`
	Language          *string `json:"language,omitempty"`
	OrderIndex        *int    `json:"order_index,omitempty"`
	LessonType        *string `json:"lesson_type,omitempty"`
	MediaURL          *string `json:"media_url,omitempty"`
	EstimatedDuration *int    `json:"estimated_duration,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

type UserUpdate struct {
	FullName          *string `json:"full_name,omitempty"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
	IsAdmin           *bool   `json:"is_admin,omitempty"`
}
