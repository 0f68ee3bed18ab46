package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopec/garage/internal/model"
)

func setupServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func TestNewStripsAPISuffix(t *testing.T) {
	assert.Equal(t, "http://localhost:5000", New("http://localhost:5000/api").BaseURL())
	assert.Equal(t, "http://localhost:5000", New("http://localhost:5000/").BaseURL())
	assert.Equal(t, "https://garage.example.com", New(" https://garage.example.com ").BaseURL())
}

func TestSubmitSendsMultipart(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/repairs/submit", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		var fields RepairFields
		require.NoError(t, json.Unmarshal([]byte(r.FormValue(repairDataField)), &fields))
		assert.Equal(t, "kda 001z", fields.RegistrationNumber)
		assert.Equal(t, "brake noise", fields.ProblemDescription)

		files := r.MultipartForm.File[multimediaField]
		require.Len(t, files, 2)
		assert.Equal(t, "front.jpg", files[0].Filename)
		assert.Equal(t, "image/jpeg", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "knock.webm", files[1].Filename)
		assert.Equal(t, "audio/webm", files[1].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		body, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r1","registrationNumber":"KDA 001Z","status":"submitted","multimedia":[{"type":"image"},{"type":"audio"}]}`))
	})

	repair, err := c.Submit(context.Background(),
		RepairFields{RegistrationNumber: "kda 001z", ProblemDescription: "brake noise"},
		[]Upload{
			{Filename: "front.jpg", MediaType: "image/jpeg", Body: strings.NewReader("jpeg-bytes")},
			{Filename: "knock.webm", MediaType: "audio/webm", Body: strings.NewReader("opus")},
		})
	require.NoError(t, err)
	assert.Equal(t, "r1", repair.ID)
	assert.Equal(t, model.StatusSubmitted, repair.Status)
	assert.Len(t, repair.Multimedia, 2)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"File upload error","details":"too many files: maximum 5 files allowed per request, got 6","code":"LIMIT_FILE_COUNT"}`))
	})

	_, err := c.Submit(context.Background(), RepairFields{RegistrationNumber: "KDA", ProblemDescription: "x"}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "LIMIT_FILE_COUNT", apiErr.Code)
	assert.Equal(t, "too many files: maximum 5 files allowed per request, got 6", err.Error())
}

func TestAPIErrorNonJSON(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.ListRepairs(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bad gateway", err.Error())
	assert.False(t, IsNotFound(err))
}

func TestReadEndpoints(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/repairs":
			_, _ = w.Write([]byte(`[{"id":"b"},{"id":"a"}]`))
		case "/api/repairs/status/in_garage":
			_, _ = w.Write([]byte(`[{"id":"g","status":"in_garage"}]`))
		case "/api/repairs/track/KDA 001Z":
			_, _ = w.Write([]byte(`{"id":"t","registrationNumber":"KDA 001Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Repair not found"}`))
		}
	})
	ctx := context.Background()

	all, err := c.ListRepairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", all[0].ID)

	byStatus, err := c.ListByStatus(ctx, model.StatusInGarage)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, model.StatusInGarage, byStatus[0].Status)

	tracked, err := c.Track(ctx, "KDA 001Z")
	require.NoError(t, err)
	assert.Equal(t, "t", tracked.ID)

	_, err = c.Track(ctx, "NOPE")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Repair not found", err.Error())
}

func TestMutations(t *testing.T) {
	var gotUpdate StatusUpdate
	var deleted string

	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/repairs/r1/status":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotUpdate))
			_, _ = w.Write([]byte(`{"id":"r1","status":"completed","mechanicNotes":"done"}`))
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/repairs/"):
			deleted = strings.TrimPrefix(r.URL.Path, "/api/repairs/")
			_, _ = w.Write([]byte(`{"message":"Repair deleted successfully"}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	ctx := context.Background()

	repair, err := c.UpdateStatus(ctx, "r1", StatusUpdate{Status: model.StatusCompleted, MechanicNotes: "done"})
	require.NoError(t, err)
	assert.Equal(t, StatusUpdate{Status: model.StatusCompleted, MechanicNotes: "done"}, gotUpdate)
	assert.Equal(t, model.StatusCompleted, repair.Status)

	require.NoError(t, c.DeleteRepair(ctx, "r1"))
	assert.Equal(t, "r1", deleted)
}
