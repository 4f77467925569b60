package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/cipher"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
)

// StudentInput carries the plaintext fields accepted from clients.
type StudentInput struct {
	Name    string
	Email   string
	Address string
	Grade   string
}

// StudentView is a student record with the address decrypted for display.
// HasAddress is false when no address was stored, including the case where
// encryption was disabled at write time.
type StudentView struct {
	ID         string
	Name       string
	Email      string
	Address    string
	HasAddress bool
	Grade      string
}

// StudentService implements student CRUD with field-level encryption of the
// home address. When the cipher is disabled, writes store no address at all
// and a warning is logged; everything else keeps working.
type StudentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      *cipher.Service
	log         logging.Logger
}

func NewStudentService(db *sql.DB, m repomanager.RepositoryManager, c *cipher.Service, log logging.Logger) *StudentService {
	return &StudentService{db: db, repomanager: m, cipher: c, log: log}
}

func (s *StudentService) sealAddress(ctx context.Context, address string) []byte {
	if address == "" {
		return nil
	}
	if !s.cipher.Enabled() {
		s.log.Warn(ctx, "no encryption key configured, dropping student address")
		return nil
	}
	blob, err := s.cipher.Encrypt([]byte(address))
	if err != nil {
		s.log.Error(ctx, "encrypting student address", "error", err.Error())
		return nil
	}
	return blob
}

func (s *StudentService) view(ctx context.Context, student *models.Student) *StudentView {
	v := &StudentView{
		ID:    student.ID,
		Name:  student.Name,
		Email: student.Email,
		Grade: student.Grade,
	}

	if len(student.AddressEncrypted) == 0 {
		return v
	}

	plaintext, err := s.cipher.Decrypt(student.AddressEncrypted)
	if err != nil {
		// a blob we cannot open is surfaced as absent, never as garbage
		if !errors.Is(err, common.ErrKeyUnavailable) {
			s.log.Error(ctx, "decrypting student address", "id", student.ID, "error", err.Error())
		}
		return v
	}

	v.Address = string(plaintext)
	v.HasAddress = true
	return v
}

func (s *StudentService) Create(ctx context.Context, input *StudentInput) (*StudentView, error) {
	student := &models.Student{
		Name:             input.Name,
		Email:            input.Email,
		AddressEncrypted: s.sealAddress(ctx, input.Address),
		Grade:            input.Grade,
	}

	created, err := s.repomanager.Students(s.db).Create(ctx, student)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, created), nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*StudentView, error) {
	student, err := s.repomanager.Students(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, student), nil
}

func (s *StudentService) List(ctx context.Context) ([]*StudentView, error) {
	students, err := s.repomanager.Students(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*StudentView, 0, len(students))
	for _, student := range students {
		result = append(result, s.view(ctx, student))
	}
	return result, nil
}

func (s *StudentService) Update(ctx context.Context, id string, input *StudentInput) error {
	student := &models.Student{
		ID:               id,
		Name:             input.Name,
		Email:            input.Email,
		AddressEncrypted: s.sealAddress(ctx, input.Address),
		Grade:            input.Grade,
	}
	return s.repomanager.Students(s.db).Update(ctx, student)
}

func (s *StudentService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Students(s.db).Delete(ctx, id)
}
