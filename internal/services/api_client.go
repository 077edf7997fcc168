package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/models"
)

var ErrUnauthorized = errors.New("backend rejected the access token")

// APIError is a non-2xx response from the backend. Message comes from the
// FastAPI-style {"detail": ...} body when present.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// QuizSource is what a session needs to start: the quiz and its questions.
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error)
	GetQuizQuestions(ctx context.Context, quizID int) ([]models.Question, error)
}

type APIClient struct {
	baseURL    string
	auth       auth.Context
	httpClient *http.Client
	pdf        *PDFInspector
}

type APIClientOption func(*APIClient)

func WithHTTPClient(c *http.Client) APIClientOption {
	return func(a *APIClient) { a.httpClient = c }
}

func WithPDFInspector(p *PDFInspector) APIClientOption {
	return func(a *APIClient) { a.pdf = p }
}

func NewAPIClient(baseURL string, ac auth.Context, opts ...APIClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       ac,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pdf:        NewPDFInspector(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAuth returns a copy of the client that sends ac instead.
func (c *APIClient) WithAuth(ac auth.Context) *APIClient {
	cp := *c
	cp.auth = ac
	return &cp
}

func (c *APIClient) Auth() auth.Context { return c.auth }

// authFor prefers a request-scoped identity attached with auth.WithContext
// over the one the client was built with.
func (c *APIClient) authFor(ctx context.Context) auth.Context {
	if scoped, ok := auth.From(ctx); ok {
		return scoped
	}
	return c.auth
}

// ── Quizzes ─────────────────────────────────────────────────────────────────

func (c *APIClient) ListQuizzes(ctx context.Context, f models.QuizFilter) ([]models.Quiz, error) {
	q := url.Values{}
	if f.Language != "" {
		q.Set("language", f.Language)
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var quizzes []models.Quiz
	if err := c.getJSON(ctx, "/api/quiz", q, &quizzes); err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (c *APIClient) GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := c.getJSON(ctx, fmt.Sprintf("/api/quiz/%d", quizID), nil, &quiz); err != nil {
		return nil, fmt.Errorf("failed to get quiz %d: %w", quizID, err)
	}
	return &quiz, nil
}

func (c *APIClient) GetQuizQuestions(ctx context.Context, quizID int) ([]models.Question, error) {
	var questions []models.Question
	if err := c.getJSON(ctx, fmt.Sprintf("/api/quiz/%d/questions", quizID), nil, &questions); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %d: %w", quizID, err)
	}
	return questions, nil
}

func (c *APIClient) GetQuestion(ctx context.Context, questionID int) (*models.Question, error) {
	var question models.Question
	if err := c.getJSON(ctx, fmt.Sprintf("/api/quiz/question/%d", questionID), nil, &question); err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", questionID, err)
	}
	return &question, nil
}

func (c *APIClient) SubmitAnswer(ctx context.Context, sub models.AnswerSubmission) (*models.AnswerRecord, error) {
	var record models.AnswerRecord
	if err := c.postJSON(ctx, "/api/quiz/submit", sub, &record); err != nil {
		return nil, fmt.Errorf("failed to submit answer for question %d: %w", sub.QuestionID, err)
	}
	return &record, nil
}

// ── Catalog ─────────────────────────────────────────────────────────────────

func (c *APIClient) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	q := url.Values{}
	if f.Language != "" {
		q.Set("language", f.Language)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}

	var courses []models.Course
	if err := c.getJSON(ctx, "/courses", q, &courses); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (c *APIClient) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	var course models.Course
	if err := c.getJSON(ctx, fmt.Sprintf("/courses/%d", courseID), nil, &course); err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	return &course, nil
}

func (c *APIClient) ListModules(ctx context.Context, courseID int) ([]models.Module, error) {
	var modules []models.Module
	if err := c.getJSON(ctx, fmt.Sprintf("/courses/%d/modules", courseID), nil, &modules); err != nil {
		return nil, fmt.Errorf("failed to list modules for course %d: %w", courseID, err)
	}
	return modules, nil
}

func (c *APIClient) ListLessons(ctx context.Context, moduleID int) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := c.getJSON(ctx, fmt.Sprintf("/courses/modules/%d/lessons", moduleID), nil, &lessons); err != nil {
		return nil, fmt.Errorf("failed to list lessons for module %d: %w", moduleID, err)
	}
	return lessons, nil
}

func (c *APIClient) GetLesson(ctx context.Context, lessonID int) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := c.getJSON(ctx, fmt.Sprintf("/lessons/%d", lessonID), nil, &lesson); err != nil {
		return nil, fmt.Errorf("failed to get lesson %d: %w", lessonID, err)
	}
	return &lesson, nil
}

func (c *APIClient) SynthesizeSpeech(ctx context.Context, req models.TTSRequest) (*models.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("text is required for speech synthesis")
	}
	if req.Language == "" {
		req.Language = c.authFor(ctx).Language
	}

	var resp models.TTSResponse
	if err := c.postJSON(ctx, "/api/tts", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return &resp, nil
}

// ── Account ─────────────────────────────────────────────────────────────────

func (c *APIClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for a token. The backend expects an OAuth2
// password form where the email goes in "username".
func (c *APIClient) Login(ctx context.Context, creds models.LoginRequest) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token models.TokenResponse
	if err := c.do(req, &token); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	return &token, nil
}

// ── Admin ───────────────────────────────────────────────────────────────────

// UploadPDF checks that path is a readable PDF with text and sends it to the
// ingestion endpoint.
func (c *APIClient) UploadPDF(ctx context.Context, path string) (*models.PDFUploadResult, error) {
	info, err := c.pdf.Inspect(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/pdf/upload", nil, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result models.PDFUploadResult
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("failed to upload pdf: %w", err)
	}
	if result.Pages == 0 {
		result.Pages = info.Pages
	}
	if result.Filename == "" {
		result.Filename = filepath.Base(path)
	}
	return &result, nil
}

// ── Transport ───────────────────────────────────────────────────────────────

func (c *APIClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) postJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out)
}

func (c *APIClient) putJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out)
}

func (c *APIClient) deleteJSON(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *APIClient) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	for k, v := range c.authFor(ctx).Header() {
		req.Header[k] = v
	}
	return req, nil
}

func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Code: http.StatusText(status)}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	// detail is a string for HTTPException and a list for validation errors.
	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		apiErr.Message = msg
		return apiErr
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, it.Msg)
		}
		apiErr.Message = strings.Join(parts, "; ")
		return apiErr
	}
	apiErr.Message = string(envelope.Detail)
	return apiErr
}
