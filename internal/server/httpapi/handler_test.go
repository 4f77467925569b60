package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/audit"
	"github.com/savelyev/securesms/internal/server/backup"
	"github.com/savelyev/securesms/internal/server/cipher"
	"github.com/savelyev/securesms/internal/server/config"
	"github.com/savelyev/securesms/internal/server/mfa"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/otp"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
	"github.com/savelyev/securesms/internal/server/services"
	"github.com/savelyev/securesms/internal/server/sessions"
)

type fakeDirectory struct {
	users map[string]*models.User
}

func (f *fakeDirectory) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type captureMailer struct {
	lastBody string
}

func (m *captureMailer) Send(ctx context.Context, recipient, subject, body string) error {
	m.lastBody = body
	return nil
}

type env struct {
	ts     *httptest.Server
	client *http.Client
	mock   sqlmock.Sqlmock
	mail   *captureMailer
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		OTPValidityDuration:   5 * time.Minute,
		SessionTTL:            30 * time.Minute,
	}

	log := logging.NewJSONLogger(io.Discard)
	c, err := cipher.New(testKey(t))
	require.NoError(t, err)

	dir := &fakeDirectory{users: map[string]*models.User{
		"alice": {ID: "u-1", UserName: "alice", Email: "a@example.com", PasswordHash: mustHash(t, "pa55word"), Role: models.RoleAdmin},
		"bob":   {ID: "u-2", UserName: "bob", Email: "b@example.com", PasswordHash: mustHash(t, "hunter2"), Role: models.RoleStudent},
	}}
	mail := &captureMailer{}
	flow := mfa.NewFlow(dir, otp.NewGenerator(cfg.OTPValidityDuration), mail, audit.NopSink{}, log)

	repos := repomanager.NewPostgresRepositoryManager()
	snapshotter := backup.NewSnapshotter(db, repos)
	codec := backup.NewCodec(c, audit.NopSink{})

	server := NewServer(
		cfg,
		log,
		flow,
		sessions.NewStore(cfg.SessionTTL),
		services.NewUserService(db, repos, cfg),
		services.NewStudentService(db, repos, c, log),
		services.NewTeacherService(db, repos),
		services.NewBackupService(snapshotter, codec, backup.NewS3Store(cfg)),
	)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &env{
		ts:     ts,
		client: &http.Client{Jar: jar},
		mock:   mock,
		mail:   mail,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	result := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

var otpCodeRe = regexp.MustCompile(`\b(\d{6})\b`)

// authenticate drives the full factor sequence for a seeded user.
func (e *env) authenticate(t *testing.T, username, password string) {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/auth/otp/issue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	code := otpCodeRe.FindString(e.mail.lastBody)
	require.NotEmpty(t, code, "otp code not found in mail body")

	resp = e.do(t, http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/auth/biometric", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginFlow_FullSequence(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "pa55word"})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "password_verified", body["stage"])

	resp = e.do(t, http.MethodPost, "/auth/otp/issue", nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "code")

	code := otpCodeRe.FindString(e.mail.lastBody)
	require.NotEmpty(t, code)

	resp = e.do(t, http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "otp_verified", body["stage"])

	resp = e.do(t, http.MethodPost, "/auth/biometric", nil)
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "biometric_verified", body["stage"])

	resp = e.do(t, http.MethodGet, "/auth/session", nil)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "admin", body["role"])
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOTPIssue_BeforePassword(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/auth/otp/issue", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOTPVerify_WrongCode(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "pa55word"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/auth/otp/issue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	code := otpCodeRe.FindString(e.mail.lastBody)
	require.NotEmpty(t, code)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	resp = e.do(t, http.MethodPost, "/auth/otp/verify", map[string]string{"code": wrong})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// the real code is still accepted afterwards
	resp = e.do(t, http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRecords_RequireAuthentication(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodGet, "/students", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecords_RoleForbidden(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "bob", "hunter2") // student

	resp := e.do(t, http.MethodGet, "/students", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStudents_ListAndCreate(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "alice", "pa55word")

	e.mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+students`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address_encrypted", "grade", "created_at"}).
			AddRow("s-1", "Bob", "b@example.com", nil, "B", time.Now()))

	resp := e.do(t, http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0]["name"])
	assert.Equal(t, false, list[0]["has_address"])

	e.mock.ExpectQuery(`INSERT\s+INTO\s+students`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("s-2", time.Now()))

	resp = e.do(t, http.MethodPost, "/students", map[string]string{
		"name": "Carol", "email": "c@example.com", "address": "12 Main St", "grade": "A",
	})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "s-2", body["id"])
	assert.Equal(t, "12 Main St", body["address"])

	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestStudents_DeleteRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "alice", "pa55word")

	e.mock.ExpectExec(`DELETE\s+FROM\s+students\s+WHERE`).
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := e.do(t, http.MethodDelete, "/students/s-1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestRegister_SelfServiceIsStudentOnly(t *testing.T) {
	e := newEnv(t)

	e.mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("carol", "c@example.com", sqlmock.AnyArg(), "student").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-9", time.Now()))

	resp := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "carol", "email": "c@example.com", "password": "pw12345",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// an anonymous caller cannot mint an admin account
	resp2 := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "mallory", "password": "pw12345", "role": "admin",
	})
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

func TestLogout_ResetsSession(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "alice", "pa55word")

	resp := e.do(t, http.MethodPost, "/auth/logout", nil)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "anonymous", body["stage"])

	resp = e.do(t, http.MethodGet, "/students", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPILogin_BearerAccess(t *testing.T) {
	e := newEnv(t)

	hash := mustHash(t, "pa55word")
	e.mock.ExpectQuery(`SELECT\s+id,\s*username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at"}).
			AddRow("u-1", "alice", "a@example.com", hash, "admin", time.Now()))

	resp := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "pa55word"})
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	e.mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+students`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address_encrypted", "grade", "created_at"}))

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/students", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp2, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestAPI_BadToken(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/students", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBackup_ExportImportRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "alice", "pa55word")

	now := time.Now()
	e.mock.ExpectQuery(`SELECT\s+id,\s*username`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at"}).
			AddRow("u-1", "alice", "a@example.com", "h", "admin", now))
	e.mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+students`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email", "address_encrypted", "grade", "created_at"}))
	e.mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+teachers`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email", "department", "created_at"}))

	resp := e.do(t, http.MethodGet, "/backup/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	sealed, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.NotEmpty(t, sealed)

	e.mock.ExpectBegin()
	e.mock.ExpectExec(`DELETE\s+FROM\s+students`).WillReturnResult(sqlmock.NewResult(0, 0))
	e.mock.ExpectExec(`DELETE\s+FROM\s+teachers`).WillReturnResult(sqlmock.NewResult(0, 0))
	e.mock.ExpectExec(`DELETE\s+FROM\s+users`).WillReturnResult(sqlmock.NewResult(0, 0))
	e.mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnResult(sqlmock.NewResult(0, 1))
	e.mock.ExpectCommit()

	req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/backup/import", bytes.NewReader(sealed))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/octet-stream")
	resp2, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestBackup_ImportTamperedBlob(t *testing.T) {
	e := newEnv(t)
	e.authenticate(t, "alice", "pa55word")

	req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/backup/import", bytes.NewReader([]byte("garbage")))
	require.NoError(t, err)
	resp2, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)

	resp, err := e.client.Get(e.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
