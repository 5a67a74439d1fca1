package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/apierr"
)

// stageWire mirrors the stage record as the API serialises it.
type stageWire struct {
	ID          int    `json:"id"`
	StudentID   int    `json:"id_etudiant"`
	StudentName string `json:"etudiant_nom"`
	Company     string `json:"entreprise"`
	Subject     string `json:"sujet"`
	StartDate   string `json:"date_debut"`
	EndDate     string `json:"date_fin"`
	DeclaredAt  string `json:"date_declaration"`
	Status      string `json:"statut"`
}

// The server emits dates either as bare days or full ISO timestamps.
var wireDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseWireDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range wireDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func (w stageWire) toStage() (models.Stage, error) {
	status, err := models.StatusFromWire(w.Status)
	if err != nil {
		return models.Stage{}, err
	}
	start, err := parseWireDate(w.StartDate)
	if err != nil {
		return models.Stage{}, fmt.Errorf("date_debut: %w", err)
	}
	end, err := parseWireDate(w.EndDate)
	if err != nil {
		return models.Stage{}, fmt.Errorf("date_fin: %w", err)
	}
	declared, err := parseWireDate(w.DeclaredAt)
	if err != nil {
		return models.Stage{}, fmt.Errorf("date_declaration: %w", err)
	}
	return models.Stage{
		ID:          w.ID,
		StudentID:   w.StudentID,
		StudentName: w.StudentName,
		Company:     w.Company,
		Subject:     w.Subject,
		StartDate:   start,
		EndDate:     end,
		DeclaredAt:  declared,
		Status:      status,
	}, nil
}

// toStages converts a wire list, dropping records the client cannot make
// sense of so one bad row never blanks the whole dashboard.
func (c *Client) toStages(records []stageWire) []models.Stage {
	stages := make([]models.Stage, 0, len(records))
	for _, record := range records {
		stage, err := record.toStage()
		if err != nil {
			c.logger.Warn("skipping malformed stage record",
				zap.Int("id", record.ID), zap.Error(err))
			continue
		}
		stages = append(stages, stage)
	}
	return stages
}

type loginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// Login exchanges credentials for a session. The returned session carries
// the bearer token every subsequent call attaches.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := models.Credentials{Email: email, Password: password}
	var resp loginResponse
	if err := c.Do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "login failed"
		}
		return nil, apierr.New(apierr.KindUnauthorized, http.StatusUnauthorized, message)
	}
	if resp.Token == "" {
		return nil, apierr.New(apierr.KindServer, http.StatusOK, "login response missing token")
	}
	if !resp.User.Role.Valid() {
		return nil, apierr.New(apierr.KindServer, http.StatusOK, fmt.Sprintf("login response carries unknown role %q", resp.User.Role))
	}
	return &models.Session{
		UserID:      resp.User.ID,
		DisplayName: resp.User.Name,
		Role:        resp.User.Role,
		Token:       resp.Token,
	}, nil
}

type registerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	UserID  int    `json:"user_id"`
}

// RegisterStudent creates a student identity and returns its server id.
func (c *Client) RegisterStudent(ctx context.Context, reg models.Registration) (int, error) {
	var resp registerResponse
	if err := c.Do(ctx, http.MethodPost, "/register/student", reg, &resp); err != nil {
		return 0, err
	}
	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "registration failed"
		}
		return 0, apierr.New(apierr.KindValidation, http.StatusUnprocessableEntity, message)
	}
	return resp.UserID, nil
}

// GetUser resolves an identity, used for session re-validation.
func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := c.DoRoute(ctx, http.MethodGet, "/users/{id}", fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListStages fetches the full authoritative stage list (admin scope).
func (c *Client) ListStages(ctx context.Context) ([]models.Stage, error) {
	var records []stageWire
	if err := c.Do(ctx, http.MethodGet, "/stages", nil, &records); err != nil {
		return nil, err
	}
	return c.toStages(records), nil
}

// ListStudentStages fetches one student's stages.
func (c *Client) ListStudentStages(ctx context.Context, studentID int) ([]models.Stage, error) {
	var records []stageWire
	if err := c.DoRoute(ctx, http.MethodGet, "/stages/etudiant/{id}", fmt.Sprintf("/stages/etudiant/%d", studentID), nil, &records); err != nil {
		return nil, err
	}
	return c.toStages(records), nil
}

// GetStage fetches a single stage record.
func (c *Client) GetStage(ctx context.Context, id int) (*models.Stage, error) {
	var record stageWire
	if err := c.DoRoute(ctx, http.MethodGet, "/stages/{id}", fmt.Sprintf("/stages/%d", id), nil, &record); err != nil {
		return nil, err
	}
	stage, err := record.toStage()
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindUnknown, http.StatusOK, "malformed stage record")
	}
	return &stage, nil
}

// mutationResponse is the envelope every stage mutation returns.
type mutationResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Error   string     `json:"error"`
	Stage   *stageWire `json:"stage"`
}

func (c *Client) stageMutation(ctx context.Context, route, endpoint string, body interface{}) (*models.Stage, error) {
	var resp mutationResponse
	if err := c.DoRoute(ctx, http.MethodPost, route, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "mutation refused by server"
		}
		return nil, apierr.New(apierr.KindUnknown, http.StatusOK, message)
	}
	if resp.Stage == nil {
		return nil, apierr.New(apierr.KindServer, http.StatusOK, "mutation response missing stage")
	}
	stage, err := resp.Stage.toStage()
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindUnknown, http.StatusOK, "malformed stage record")
	}
	return &stage, nil
}

// CreateStage submits a new stage declaration; the server assigns id,
// pending status and declaration time.
func (c *Client) CreateStage(ctx context.Context, draft models.StageDraft) (*models.Stage, error) {
	return c.stageMutation(ctx, "/stages", "/stages", draft)
}

// ValidateStage requests the pending → approved transition.
func (c *Client) ValidateStage(ctx context.Context, id int) (*models.Stage, error) {
	return c.stageMutation(ctx, "/stages/{id}/validate", fmt.Sprintf("/stages/%d/validate", id), map[string]string{"action": "validate"})
}

// RejectStage requests the pending → rejected transition.
func (c *Client) RejectStage(ctx context.Context, id int) (*models.Stage, error) {
	return c.stageMutation(ctx, "/stages/{id}/reject", fmt.Sprintf("/stages/%d/reject", id), map[string]string{"action": "reject"})
}

type statsResponse struct {
	Stats  models.Stats `json:"stats"`
	Recent []stageWire  `json:"derniers_stages"`
}

// GetStats fetches aggregate counters plus the most recent declarations.
func (c *Client) GetStats(ctx context.Context) (*models.StatsReport, error) {
	var resp statsResponse
	if err := c.Do(ctx, http.MethodGet, "/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &models.StatsReport{
		Stats:  resp.Stats,
		Recent: c.toStages(resp.Recent),
	}, nil
}

// ListStudents fetches the registered students (admin scope).
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := c.Do(ctx, http.MethodGet, "/etudiants", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health probes the liveness endpoint.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
