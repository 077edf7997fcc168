package models

import "time"

const (
	LanguageEnglish     = "english"
	LanguageFrench      = "french"
	LanguageKinyarwanda = "kinyarwanda"
)

var SupportedLanguages = []string{LanguageEnglish, LanguageFrench, LanguageKinyarwanda}

type Course struct {
	ID                int        `json:"id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description,omitempty"`
	Language          string     `json:"language"`
	Category          *string    `json:"category,omitempty"`
	DifficultyLevel   string     `json:"difficulty_level"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

type CourseFilter struct {
	Language string
	Category string
}

type Module struct {
	ID          int       `json:"id"`
	CourseID    int       `json:"course_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	OrderIndex  int       `json:"order_index"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Lesson struct {
	ID                int       `json:"id"`
	ModuleID          int       `json:"module_id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Language          string    `json:"language"`
	OrderIndex        int       `json:"order_index"`
	LessonType        string    `json:"lesson_type"`
	MediaURL          *string   `json:"media_url,omitempty"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

type TTSRequest struct {
	Text       string   `json:"text"`
	Language   string   `json:"language"`
	VoiceSpeed *float64 `json:"voice_speed,omitempty"`
	VoicePitch *float64 `json:"voice_pitch,omitempty"`
}

type TTSResponse struct {
	AudioURL string   `json:"audio_url"`
	Filename string   `json:"filename"`
	Duration *float64 `json:"duration,omitempty"`
	FileSize *int     `json:"file_size,omitempty"`
}

// PDFUploadResult is whatever the ingestion endpoint reports back; the
// client only relies on the message and the created lesson ids.
type PDFUploadResult struct {
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	LessonIDs []int  `json:"lesson_ids,omitempty"`
	Pages     int    `json:"pages"`
}
