package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/dto"
	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

// TokenProvider yields the bearer token attached to authenticated calls.
type TokenProvider interface {
	Token() string
}

// StaticToken is a TokenProvider holding a fixed token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token() string { return string(t) }

// Config groups Client constructor dependencies.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Token      TokenProvider
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client talks JSON over HTTP to the complaint-intake service. Input
// validation happens here, before any network interaction, so a malformed
// request never leaves the process.
type Client struct {
	baseURL  string
	http     *http.Client
	token    TokenProvider
	validate *validator.Validate
	logger   *zap.Logger
}

// New constructs a Client with sane defaults.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		token:    cfg.Token,
		validate: validator.New(),
		logger:   logger,
	}
}

// LoginStudent authenticates a student account.
func (c *Client) LoginStudent(ctx context.Context, req dto.StudentLoginRequest) (*dto.LoginResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "student id and password are required")
	}
	body, err := c.do(ctx, http.MethodPost, "/login/student", req)
	if err != nil {
		return nil, err
	}
	return parseLogin(body)
}

// LoginAdmin authenticates an administrator account.
func (c *Client) LoginAdmin(ctx context.Context, req dto.AdminLoginRequest) (*dto.LoginResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "username and password are required")
	}
	body, err := c.do(ctx, http.MethodPost, "/login/admin", req)
	if err != nil {
		return nil, err
	}
	return parseLogin(body)
}

// ListStudentComplaints returns the complaints owned by the given student.
func (c *Client) ListStudentComplaints(ctx context.Context, studentID string) ([]models.Complaint, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	body, err := c.do(ctx, http.MethodGet, "/student/complaints/"+url.PathEscape(studentID), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeComplaints(body)
}

// ListPublicComplaints returns the public feed, newest side unspecified by
// the service; ordering is applied by the projector.
func (c *Client) ListPublicComplaints(ctx context.Context, limit int) ([]models.Complaint, error) {
	path := "/student/complaints?public=true"
	if limit > 0 {
		path = fmt.Sprintf("%s&limit=%d", path, limit)
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeComplaints(body)
}

// SubmitComplaint creates a new complaint for the submitting student.
func (c *Client) SubmitComplaint(ctx context.Context, req dto.SubmitComplaintRequest) (*models.Complaint, error) {
	req.Heading = strings.TrimSpace(req.Heading)
	req.Description = strings.TrimSpace(req.Description)
	if err := c.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, 0, "heading and description are required")
	}
	body, err := c.do(ctx, http.MethodPost, "/student/complaints", req)
	if err != nil {
		return nil, err
	}
	return c.decodeComplaint(body)
}

// ListAllComplaints returns every complaint; admin only.
func (c *Client) ListAllComplaints(ctx context.Context) ([]models.Complaint, error) {
	body, err := c.do(ctx, http.MethodGet, "/admin/complaints", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeComplaints(body)
}

// UpdateComplaintStatus sets the status of a complaint; admin only. The
// service may reply with the updated record or an empty 2xx, so the returned
// record is nil when the response body carries no usable payload.
func (c *Client) UpdateComplaintStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "complaint id is required")
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", status))
	}
	body, err := c.do(ctx, http.MethodPut, "/admin/complaints/"+url.PathEscape(id), dto.StatusUpdateRequest{Status: string(status)})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	record, err := c.decodeComplaint(body)
	if err != nil {
		// A 2xx with an unusable body still counts as success; the
		// optimistic values stand until the next refresh.
		c.logger.Warn("status update response not decodable, keeping local state", zap.String("id", id))
		return nil, nil
	}
	return record, nil
}

// GenerateReport asks the service for an aggregate report and renders it as
// displayable text. A payload without a report field is serialized verbatim.
func (c *Client) GenerateReport(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/admin/report", nil)
	if err != nil {
		return "", err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body), nil
	}
	if report, ok := payload["report"].(string); ok && report != "" {
		return report, nil
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return string(body), nil
	}
	return string(pretty), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "encode request body")
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != nil {
		if token := c.token.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, 0, appErrors.ErrTransport.Message)
	}
	defer resp.Body.Close()

	raw, err := readAll(resp)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, 0, appErrors.ErrTransport.Message)
	}

	c.logger.Debug("api_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteError(resp.StatusCode, raw)
	}
	return raw, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// remoteError builds a RemoteRejection from a non-success response. The
// structured payload's message, if present, is surfaced verbatim.
func remoteError(status int, body []byte) error {
	message := ""
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				message = s
				break
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		message = text
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		e := appErrors.Clone(appErrors.ErrUnauthorized, message)
		e.Status = status
		return e
	}
	e := appErrors.Clone(appErrors.ErrRemote, message)
	e.Status = status
	return e
}

func parseLogin(body []byte) (*dto.LoginResponse, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemote.Code, 0, "unexpected login response")
	}
	return &dto.LoginResponse{
		Token: stringValue(raw, "token"),
		Name:  stringValue(raw, "name"),
		ID:    stringValue(raw, "id"),
	}, nil
}

func (c *Client) decodeComplaints(body []byte) ([]models.Complaint, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raws []dto.RawComplaint
	if err := dec.Decode(&raws); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemote.Code, 0, "unexpected list response")
	}
	complaints, dropped := dto.NormalizeAll(raws)
	if dropped > 0 {
		c.logger.Warn("dropped records missing mandatory fields", zap.Int("count", dropped))
	}
	return complaints, nil
}

func (c *Client) decodeComplaint(body []byte) (*models.Complaint, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemote.Code, 0, "unexpected record response")
	}
	if !raw.HasMandatoryFields() {
		return nil, appErrors.Clone(appErrors.ErrRemote, "record response missing mandatory fields")
	}
	record := dto.Normalize(raw)
	return &record, nil
}

func decodeObject(body []byte) (dto.RawComplaint, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw dto.RawComplaint
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func stringValue(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
