package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
	"freelance/internal/security"
	"freelance/internal/service"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.User
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) Exists(_ context.Context, username, email string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var usernameTaken, emailTaken bool
	for _, u := range m.byID {
		usernameTaken = usernameTaken || u.Username == username
		emailTaken = emailTaken || u.Email == email
	}
	return usernameTaken, emailTaken, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context, _, _ int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id int64, patch models.UserPatch) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.Biography != nil {
		u.Biography = patch.Biography
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = patch.AvatarURL
	}
	m.byID[id] = u
	return u, nil
}

func (m *memUsers) SetRole(_ context.Context, id int64, role models.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	m.byID[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]models.RefreshToken
}

func (m *memTokens) Create(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	token.ID = m.nextID
	token.CreatedAt = time.Now()
	m.rows[token.TokenHash] = *token
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, tokenHash string) (models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[tokenHash]
	if !ok {
		return models.RefreshToken{}, repository.ErrRefreshTokenNotFound
	}
	return row, nil
}

func (m *memTokens) DeleteByHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[tokenHash]; !ok {
		return repository.ErrRefreshTokenNotFound
	}
	delete(m.rows, tokenHash)
	return nil
}

func (m *memTokens) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, row := range m.rows {
		if row.ID == id {
			delete(m.rows, hash)
			return nil
		}
	}
	return repository.ErrRefreshTokenNotFound
}

func (m *memTokens) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, row := range m.rows {
		if row.UserID == userID {
			delete(m.rows, hash)
			n++
		}
	}
	return n, nil
}

type memAvatars struct {
	objects map[string][]byte
}

func (m *memAvatars) PutAvatar(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "http://objects.test/avatars/" + key
	m.objects[url] = data
	return url, nil
}

func (m *memAvatars) RemoveAvatar(_ context.Context, url string) error {
	delete(m.objects, url)
	return nil
}

type testAPI struct {
	router  *gin.Engine
	users   *memUsers
	tokens  *memTokens
	avatars *memAvatars
}

func newTestAPI(t *testing.T, checks ...HealthCheck) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &memUsers{byID: map[int64]models.User{}}
	tokens := &memTokens{rows: map[string]models.RefreshToken{}}
	avatars := &memAvatars{objects: map[string][]byte{}}

	hasher := security.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	issuer := security.NewTokenIssuer("handler-test-secret", 15*time.Minute, 72*time.Hour)
	verifier := security.NewTokenVerifier("handler-test-secret")

	svc := Services{
		Auth:  service.NewAuthService(users, tokens, hasher, issuer, verifier, zerolog.Nop()),
		Users: service.NewUserService(users, hasher, avatars, 1<<20, zerolog.Nop()),
	}

	router := gin.New()
	NewHandlerSet(zerolog.Nop(), "test", svc, checks...).Register(router.Group("/api"))
	return &testAPI{router: router, users: users, tokens: tokens, avatars: avatars}
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var alice = map[string]any{
	"username":   "alice",
	"email":      "alice@example.com",
	"password":   "Passw0rd",
	"role":       "client",
	"first_name": "Alice",
	"last_name":  "Smith",
}

func (a *testAPI) login(t *testing.T) (string, string) {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "Passw0rd"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/auth/register", alice, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "user registered successfully", body["message"])
	assert.EqualValues(t, 1, body["user_id"])

	rec = api.do(http.MethodPost, "/api/v1/auth/register", alice, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["error"])

	rec = api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, api.tokens.rows)

	access, refresh := api.login(t)
	require.Len(t, api.tokens.rows, 1)

	rec = api.do(http.MethodGet, "/api/v1/users/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode(t, rec)["username"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(http.MethodPost, "/api/v1/auth/refresh?refresh_token="+refresh, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotContains(t, body, "refresh_token")

	rec = api.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successfully logged out", decode(t, rec)["message"])

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
	}{
		{name: "weak password", mutate: func(b map[string]any) { b["password"] = "password" }},
		{name: "admin role", mutate: func(b map[string]any) { b["role"] = "admin" }},
		{name: "bad email", mutate: func(b map[string]any) { b["email"] = "nope" }, field: "email"},
		{name: "missing last name", mutate: func(b map[string]any) { delete(b, "last_name") }, field: "last_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := make(map[string]any, len(alice))
			for k, v := range alice {
				body[k] = v
			}
			tt.mutate(body)

			rec := api.do(http.MethodPost, "/api/v1/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, "validation_error", resp["error"])
			if tt.field != "" {
				assert.Contains(t, resp["message"], tt.field)
			}
		})
	}
	assert.Empty(t, api.users.byID)
}

func TestRefreshRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/auth/refresh", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": "random-string"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAll(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/auth/register", alice, "").Code)

	access, _ := api.login(t)
	api.login(t)
	require.Len(t, api.tokens.rows, 2)

	rec := api.do(http.MethodPost, "/api/v1/auth/logout-all", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/logout-all", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["revoked"])
	assert.Empty(t, api.tokens.rows)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/auth/register", alice, "").Code)
	access, _ := api.login(t)

	rec := api.do(http.MethodPut, "/api/v1/users/1/role", map[string]string{"role": "freelancer"}, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, api.users.SetRole(context.Background(), 1, models.UserRoleAdmin))
	admin, _ := api.login(t)

	rec = api.do(http.MethodPut, "/api/v1/users/1/role", map[string]string{"role": "freelancer"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "freelancer", decode(t, rec)["role"])

	rec = api.do(http.MethodDelete, "/api/v1/users/99", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/auth/register", alice, "").Code)
	access, _ := api.login(t)

	rec := api.do(http.MethodPatch, "/api/v1/users/me", map[string]string{"first_name": "Ally"}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ally", decode(t, rec)["first_name"])

	rec = api.do(http.MethodPatch, "/api/v1/users/me", map[string]string{"biography": "hi"}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/users/abc", nil, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAvatar(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/auth/register", alice, "").Code)
	access, _ := api.login(t)

	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{1}, 1024)...)
	upload := func(content []byte, contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/avatar", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload(png, "image/png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	avatar, _ := decode(t, rec)["avatar"].(string)
	require.NotEmpty(t, avatar)
	assert.Equal(t, png, api.avatars.objects[avatar])

	rec = upload([]byte("<svg></svg>"), "image/svg+xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(png, "image/jpeg")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(bytes.Repeat(png, 1200), "image/png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "avatar must be at most")
}

func TestUploadAvatarStreamingBodyLimited(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/auth/register", alice, "").Code)
	access, _ := api.login(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{1}, 2<<20)...))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/avatar", io.NopCloser(&buf))
	req.ContentLength = -1
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, api.avatars.objects)
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "database", Ping: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "cache", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	rec := newTestAPI(t, ok).do(http.MethodGet, "/api/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])

	rec = newTestAPI(t, ok, down).do(http.MethodGet, "/api/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, map[string]any{"database": "ok", "cache": "error"}, decode(t, rec)["checks"])
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandlerSet(zerolog.Nop(), "test", Services{})

	tests := []struct {
		err     error
		status  int
		kind    string
		message string
	}{
		{err: apperr.Validation("bad"), status: http.StatusBadRequest, kind: "validation_error", message: "bad"},
		{err: apperr.Conflict("taken"), status: http.StatusBadRequest, kind: "conflict", message: "taken"},
		{err: apperr.Unauthorized("who"), status: http.StatusUnauthorized, kind: "unauthorized", message: "who"},
		{err: apperr.Forbidden("no"), status: http.StatusForbidden, kind: "forbidden", message: "no"},
		{err: apperr.NotFound("gone"), status: http.StatusNotFound, kind: "not_found", message: "gone"},
		{err: errors.New("pq: secret detail"), status: http.StatusInternalServerError, kind: "internal", message: "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.writeError(c, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.kind, body["error"])
			assert.Equal(t, tt.message, body["message"])
			assert.False(t, strings.Contains(rec.Body.String(), "secret"))
		})
	}
}
