package students

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/dbx"
	"github.com/savelyev/securesms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {

	query :=
		`INSERT INTO students (name, email, address_encrypted, grade)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		student.Name, student.Email, student.AddressEncrypted, student.Grade).Scan(&student.ID, &student.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return student, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query :=
		`SELECT id, name, email, address_encrypted, grade, created_at FROM students
		 WHERE id = $1
		 `

	student := &models.Student{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID, &student.Name, &student.Email, &student.AddressEncrypted, &student.Grade, &student.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return student, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Student, error) {
	query :=
		`SELECT id, name, email, address_encrypted, grade, created_at FROM students
		 ORDER BY id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Student
	for rows.Next() {
		student := &models.Student{}
		if err := rows.Scan(&student.ID, &student.Name, &student.Email, &student.AddressEncrypted, &student.Grade, &student.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, student *models.Student) error {
	query :=
		`UPDATE students SET name = $2, email = $3, address_encrypted = $4, grade = $5
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		student.ID, student.Name, student.Email, student.AddressEncrypted, student.Grade)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Restore(ctx context.Context, student *models.Student) error {
	query :=
		`INSERT INTO students (id, name, email, address_encrypted, grade, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		student.ID, student.Name, student.Email, student.AddressEncrypted, student.Grade, student.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
