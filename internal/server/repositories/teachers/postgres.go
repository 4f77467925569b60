package teachers

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

func (r *PostgresRepository) Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {

	query :=
		`INSERT INTO teachers (name, email, department)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		teacher.Name, teacher.Email, teacher.Department).Scan(&teacher.ID, &teacher.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return teacher, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	query :=
		`SELECT id, name, email, department, created_at FROM teachers
		 WHERE id = $1
		 `

	teacher := &models.Teacher{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&teacher.ID, &teacher.Name, &teacher.Email, &teacher.Department, &teacher.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return teacher, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Teacher, error) {
	query :=
		`SELECT id, name, email, department, created_at FROM teachers
		 ORDER BY id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Teacher
	for rows.Next() {
		teacher := &models.Teacher{}
		if err := rows.Scan(&teacher.ID, &teacher.Name, &teacher.Email, &teacher.Department, &teacher.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	query :=
		`UPDATE teachers SET name = $2, email = $3, department = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.Name, teacher.Email, teacher.Department)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
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
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teachers`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Restore(ctx context.Context, teacher *models.Teacher) error {
	query :=
		`INSERT INTO teachers (id, name, email, department, created_at)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.Name, teacher.Email, teacher.Department, teacher.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
