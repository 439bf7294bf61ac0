package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-console/internal/dto"
	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, Token: StaticToken("test-token")})
}

func TestClientDo_SetsAuthAndTracingHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`[]`))
	})

	_, err := client.ListAllComplaints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
}

func TestListAllComplaints_NormalizesWireFieldsAndDropsInvalid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/complaints", r.URL.Path)
		w.Write([]byte(`[
			{"id": 4100, "heading": "Broken AC", "status": "pending",
			 "student_id": 7, "anonymous": "true", "public": 1,
			 "created_at": "2024-03-01T10:00:00Z"},
			{"heading": "no id on this one", "status": "pending"}
		]`))
	})

	complaints, err := client.ListAllComplaints(context.Background())
	require.NoError(t, err)
	require.Len(t, complaints, 1)

	got := complaints[0]
	assert.Equal(t, "4100", got.ID)
	assert.Equal(t, "Broken AC", got.Heading)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "7", got.StudentID)
	assert.True(t, got.IsAnonymous)
	assert.True(t, got.IsPublic)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestListStudentComplaints_RequiresStudentID(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.ListStudentComplaints(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	assert.False(t, called)
}

func TestListPublicComplaints_SendsFeedQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("public"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[]`))
	})

	_, err := client.ListPublicComplaints(context.Background(), 5)
	require.NoError(t, err)
}

func TestSubmitComplaint_ValidatesBeforeNetwork(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.SubmitComplaint(context.Background(), dto.SubmitComplaintRequest{
		Heading:   "   ",
		StudentID: "stu-1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	assert.False(t, called)
}

func TestSubmitComplaint_TrimsAndReturnsRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req dto.SubmitComplaintRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Leaking tap", req.Heading)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "c-9", "heading": "Leaking tap", "status": "pending", "created_at": "2024-03-01T10:00:00Z"}`))
	})

	record, err := client.SubmitComplaint(context.Background(), dto.SubmitComplaintRequest{
		Heading:     "  Leaking tap  ",
		Description: "hostel block B",
		StudentID:   "stu-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-9", record.ID)
	assert.Equal(t, models.StatusPending, record.Status)
}

func TestUpdateComplaintStatus_EmptyBodyMeansSuccessWithoutRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/complaints/c-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	record, err := client.UpdateComplaintStatus(context.Background(), "c-1", models.StatusResolved)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestUpdateComplaintStatus_UndecodableBodyStillSucceeds(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	})

	record, err := client.UpdateComplaintStatus(context.Background(), "c-1", models.StatusResolved)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestUpdateComplaintStatus_RejectsInvalidStatusLocally(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.UpdateComplaintStatus(context.Background(), "c-1", models.Status("closed"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	assert.False(t, called)
}

func TestRemoteError_SurfacesDetailVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "complaint already resolved"}`))
	})

	_, err := client.ListAllComplaints(context.Background())
	require.Error(t, err)
	e := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRemote.Code, e.Code)
	assert.Equal(t, "complaint already resolved", e.Message)
	assert.Equal(t, http.StatusConflict, e.Status)
}

func TestRemoteError_UnauthorizedMapsToSessionFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token expired"}`))
	})

	_, err := client.ListAllComplaints(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()
	client := New(Config{BaseURL: server.URL})

	_, err := client.ListAllComplaints(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrTransport.Code))
}

func TestLoginStudent_ParsesTokenAndIdentity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login/student", r.URL.Path)
		var req dto.StudentLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "stu-1", req.StudentID)
		w.Write([]byte(`{"token": "jwt-here", "name": "Priya", "id": 42}`))
	})

	resp, err := client.LoginStudent(context.Background(), dto.StudentLoginRequest{StudentID: "stu-1", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-here", resp.Token)
	assert.Equal(t, "Priya", resp.Name)
	assert.Equal(t, "42", resp.ID)
}

func TestLoginAdmin_RequiresCredentials(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.LoginAdmin(context.Background(), dto.AdminLoginRequest{Username: "root"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	assert.False(t, called)
}

func TestGenerateReport_PrefersReportFieldThenFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/report", r.URL.Path)
		w.Write([]byte(`{"report": "12 complaints, 3 resolved"}`))
	})
	text, err := client.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12 complaints, 3 resolved", text)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 12, "resolved": 3}`))
	})
	text, err = client.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, `"total"`)
	assert.Contains(t, text, `"resolved"`)
}
