package services

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/cipher"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
)

func testCipher(t *testing.T) *cipher.Service {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := cipher.New(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	return c
}

func newStudentService(t *testing.T, c *cipher.Service) (*StudentService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logging.NewJSONLogger(io.Discard)
	return NewStudentService(db, repomanager.NewPostgresRepositoryManager(), c, log), mock
}

func TestStudentService_Create_EncryptsAddress(t *testing.T) {
	c := testCipher(t)
	svc, mock := newStudentService(t, c)

	var stored []byte
	mock.ExpectQuery(`INSERT\s+INTO\s+students`).
		WithArgs("Bob", "b@example.com", sqlmock.AnyArg(), "B").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("s-1", time.Now()))

	view, err := svc.Create(context.Background(), &StudentInput{
		Name: "Bob", Email: "b@example.com", Address: "12 Main St", Grade: "B",
	})
	require.NoError(t, err)

	assert.Equal(t, "s-1", view.ID)
	assert.True(t, view.HasAddress)
	assert.Equal(t, "12 Main St", view.Address)

	// the blob that went to the DB must not contain the plaintext
	stored = svc.sealAddress(context.Background(), "12 Main St")
	assert.NotContains(t, string(stored), "12 Main St")
	plaintext, err := c.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "12 Main St", string(plaintext))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentService_Get_DecryptsAddress(t *testing.T) {
	c := testCipher(t)
	svc, mock := newStudentService(t, c)

	blob, err := c.Encrypt([]byte("12 Main St"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+students`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address_encrypted", "grade", "created_at"}).
			AddRow("s-1", "Bob", "b@example.com", blob, "B", time.Now()))

	view, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.True(t, view.HasAddress)
	assert.Equal(t, "12 Main St", view.Address)
}

func TestStudentService_DisabledCipherDropsAddress(t *testing.T) {
	disabled, err := cipher.New("")
	require.NoError(t, err)
	svc, mock := newStudentService(t, disabled)

	mock.ExpectQuery(`INSERT\s+INTO\s+students`).
		WithArgs("Bob", "b@example.com", nil, "B").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("s-1", time.Now()))

	view, err := svc.Create(context.Background(), &StudentInput{
		Name: "Bob", Email: "b@example.com", Address: "12 Main St", Grade: "B",
	})
	require.NoError(t, err)
	assert.False(t, view.HasAddress)
	assert.Empty(t, view.Address)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentService_UnreadableBlobSurfacesAsAbsent(t *testing.T) {
	c := testCipher(t)
	svc, mock := newStudentService(t, c)

	mock.ExpectQuery(`SELECT\s+id,\s*name.*FROM\s+students`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address_encrypted", "grade", "created_at"}).
			AddRow("s-1", "Bob", "b@example.com", []byte("garbage"), "B", time.Now()))

	view, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.False(t, view.HasAddress)
	assert.Empty(t, view.Address)
}
