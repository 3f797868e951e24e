package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lulan/Biometrics"
	"Lulan/Catalog"
	"Lulan/Directory"
	"Lulan/FiberConfig"
	"Lulan/Models"
	"Lulan/Notifications"
	"Lulan/Robot"
	"Lulan/Session"
	"Lulan/Store"
	"Lulan/middleware"
)

type harness struct {
	app     *fiber.App
	dir     *Directory.Memory
	store   *Store.Store
	manager *Session.Manager
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLog(t, "")
}

func newHarnessWithLog(t *testing.T, requestLog string) *harness {
	t.Helper()
	ctx := context.Background()
	dir := Directory.NewMemory()

	db, err := Models.Connect(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)

	store := Store.New(dir)
	require.NoError(t, store.Start(ctx))
	t.Cleanup(store.Close)

	monitor := Robot.NewMonitor(dir, Robot.DefaultID)
	require.NoError(t, monitor.Start(ctx))
	t.Cleanup(monitor.Close)

	manager := Session.NewManager(dir, Models.NewPreferences(db), store, store)
	app := FiberConfig.NewApp(FiberConfig.Deps{
		Session:  manager,
		Store:    store,
		Robot:    monitor,
		Catalog:  Catalog.Default(),
		Notifier: Notifications.Log{},
		Verifier: Biometrics.DigestVerifier{},
		Secret:   "test-secret",
		Logging:  middleware.LogConfig{Output: func(string) {}, LogFilePath: requestLog},
	})
	return &harness{app: app, dir: dir, store: store, manager: manager}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.CookieName {
			h.cookie = cookie
		}
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (h *harness) signUp(t *testing.T, email, username, contact string) {
	t.Helper()
	h.register(t, Models.SignUpRequest{
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Nurse " + username,
		Username:        username,
		Contact:         contact,
		AcceptedTerms:   true,
	})
}

func (h *harness) register(t *testing.T, req Models.SignUpRequest) {
	t.Helper()
	resp, _ := h.do(t, http.MethodPost, "/api/auth/signup", req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/auth/state", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "signed_out", body["state"])

	resp, _ = h.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	h.signUp(t, "a@x.com", "nurse1", "0917")
	require.NotNil(t, h.cookie)

	_, body = h.do(t, http.MethodGet, "/api/auth/state", nil)
	assert.Equal(t, "signed_in", body["state"])
	assert.Equal(t, "main", body["graph"])

	old := h.cookie
	resp, _ = h.do(t, http.MethodPost, "/api/auth/signout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"identifier": "nurse1", "password": "bad"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	h.cookie = old
	resp, _ = h.do(t, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "a signed out session rejects its old cookie")

	resp, _ = h.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"identifier": "nurse1", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, body = h.do(t, http.MethodGet, "/api/profile", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Nurse nurse1", body["name"])
}

func TestSignUp_DuplicateUsernameConflict(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, body := h.do(t, http.MethodPost, "/api/auth/signup", Models.SignUpRequest{
		Email:           "b@x.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Other",
		Username:        "nurse1",
		Contact:         "0918",
		AcceptedTerms:   true,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username", body["field"])
}

func TestTasks(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, body := h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"priority":    "URGENT",
		"source":      "Pharmacy",
		"destination": "ICU",
		"items":       []string{"Morphine 10mg"},
		"requester":   "Alice",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	task := body["task"].(map[string]interface{})
	assert.NotEmpty(t, task["id"])

	resp, body = h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"source":      "Pharmacy",
		"destination": "ICU",
		"items":       []string{"Morphine 10mg"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "requester", body["field"])
	assert.Equal(t, "Nurse name is required.", body["error"])

	_, body = h.do(t, http.MethodGet, "/api/tasks/summary", nil)
	assert.EqualValues(t, 1, body["urgent"])

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/export", nil)
	resp, _ = h.send(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "deliveries.xlsx")

	resp, _ = h.do(t, http.MethodDelete, "/api/tasks", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, h.store.Tasks())
}

func TestFlagsAndVoiceGate(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, body := h.do(t, http.MethodPut, "/api/flags/voice", map[string]bool{"enabled": true})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body["error"], "face recognition first")

	resp, _ = h.do(t, http.MethodPost, "/api/voice/command", map[string]interface{}{"transcript": "stop"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = h.do(t, http.MethodPut, "/api/flags/face", map[string]bool{"enabled": true})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body["error"], "Capture your face")
	assert.False(t, h.store.Flags().IsFaceAuthenticated)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("uri", "file://face.jpg"))
	require.NoError(t, form.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/face", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, _ = h.send(t, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, body = h.do(t, http.MethodPut, "/api/flags/voice", map[string]bool{"enabled": true})
	assert.Equal(t, true, body["can_use_voice"])

	_, body = h.do(t, http.MethodPut, "/api/flags/face", map[string]bool{"enabled": false})
	assert.Equal(t, false, body["can_use_voice"])

	resp, _ = h.do(t, http.MethodPut, "/api/flags/teleport", map[string]bool{"enabled": true})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFaceCaptureAndVoiceCommand(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("uri", "file://face.jpg"))
	require.NoError(t, form.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/face", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, _ := h.send(t, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, h.store.CanUseVoice())

	resp, _ = h.do(t, http.MethodPost, "/api/voice/command", map[string]interface{}{"sample": []byte("x"), "transcript": "stop"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "templates without a digest never match the digest verifier")

	resp, _ = h.do(t, http.MethodDelete, "/api/face", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, h.store.Flags().IsFaceAuthenticated)
}

func TestTemplateIndexOutOfRange(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, _ := h.do(t, http.MethodPost, "/api/templates", Models.BiometricTemplate{Kind: Models.TemplateFace, URI: "face"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := h.do(t, http.MethodDelete, "/api/templates/4", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "The selected entry no longer exists", body["error"])
	assert.Len(t, h.store.Templates(), 1)

	resp, _ = h.do(t, http.MethodDelete, "/api/templates/0", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRosterRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, _ := h.do(t, http.MethodPost, "/api/roster", Models.UserRecord{Name: "Bea", Email: "bea@x.com"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/roster", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRobotStatusAndCommands(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, body := h.do(t, http.MethodGet, "/api/robot/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	status := body["status"].(map[string]interface{})
	assert.Equal(t, "MED-001", status["id"])
	battery := body["battery"].(map[string]interface{})
	assert.Equal(t, "#e53935", battery["color"])

	resp, body = h.do(t, http.MethodPost, "/api/robot/commands", map[string]string{"kind": "pause"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Robot paused", body["message"])

	resp, _ = h.do(t, http.MethodPost, "/api/robot/commands", map[string]string{"kind": "dance"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGoogleDisabled(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/api/auth/google", nil)
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

func TestRequestLogs(t *testing.T) {
	requestLog := filepath.Join(t.TempDir(), "logs", "requests.log")
	h := newHarnessWithLog(t, requestLog)
	h.signUp(t, "a@x.com", "nurse1", "0917")

	resp, _ := h.do(t, http.MethodGet, "/api/logs", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, _ = h.do(t, http.MethodPost, "/api/auth/signout", nil)
	h.register(t, Models.SignUpRequest{
		Email:            "admin@x.com",
		Password:         "secret123",
		ConfirmPassword:  "secret123",
		Name:             "Head Nurse",
		Username:         "head",
		Contact:          "0999",
		AcceptedTerms:    true,
		IsAdminRequested: true,
	})
	_, _ = h.do(t, http.MethodGet, "/api/tasks", nil)

	resp, body := h.do(t, http.MethodGet, "/api/logs?path=/api/tasks", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total_groups"])
	groups := body["groups"].([]interface{})
	group := groups[0].(map[string]interface{})
	assert.Equal(t, "GET", group["method"])
	assert.EqualValues(t, 1, group["success_rate"])

	resp, body = h.do(t, http.MethodGet, "/api/logs/stats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Greater(t, body["total_requests"], float64(3))
	assert.Greater(t, body["error_requests"], float64(0), "the forbidden request was logged")

	resp, _ = h.do(t, http.MethodGet, "/api/logs?date_from=yesterday", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = h.do(t, http.MethodGet, "/api/logs?page=9223372036854775807&page_size=1000", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, body["groups"])
}
