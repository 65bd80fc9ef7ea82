package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
)

// customerRow はcustomersテーブルの行を表す構造体
type customerRow struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Email              string     `db:"email"`
	BirthDate          time.Time  `db:"birth_date"`
	CPF                *string    `db:"cpf"`
	StudentInstitution *string    `db:"student_institution"`
	StudentNumber      *string    `db:"student_number"`
	StudentExpiresAt   *time.Time `db:"student_expires_at"`
	PasswordHash       string     `db:"password_hash"`
	Status             string     `db:"status"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	Version            int        `db:"version"`
}

// toEntity はcustomerRowをCustomerエンティティに変換する
func (r *customerRow) toEntity() *customer.Customer {
	c := &customer.Customer{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		BirthDate:    r.BirthDate,
		PasswordHash: r.PasswordHash,
		Status:       customer.Status(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Version:      r.Version,
	}
	if r.CPF != nil {
		cpf := customer.CPF(*r.CPF)
		c.CPF = &cpf
	}
	if r.StudentInstitution != nil && r.StudentNumber != nil && r.StudentExpiresAt != nil {
		c.StudentCard = &customer.StudentCard{
			Institution: *r.StudentInstitution,
			Number:      *r.StudentNumber,
			ExpiresAt:   *r.StudentExpiresAt,
		}
	}
	return c
}

// CustomerRepository は顧客リポジトリのPostgreSQL実装
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository はCustomerRepositoryを作成する
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, name, email, birth_date, cpf, student_institution, student_number, student_expires_at, password_hash, status, created_at, updated_at, version`

// Create は新しい顧客を作成する
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (name, email, birth_date, cpf, student_institution, student_number, student_expires_at, password_hash, status, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	cpf, inst, num, exp := studentFields(c)
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Email, c.BirthDate, cpf, inst, num, exp,
		c.PasswordHash, string(c.Status), c.CreatedAt, c.UpdatedAt, c.Version,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailAlreadyTaken
		}
		return fmt.Errorf("顧客作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから顧客を取得する
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var row customerRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("顧客取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByEmail はメールアドレスから顧客を取得する
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	var row customerRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("顧客取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は顧客一覧を取得する
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var rows []customerRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("顧客一覧取得に失敗しました: %w", err)
	}
	customers := make([]*customer.Customer, len(rows))
	for i, row := range rows {
		customers[i] = row.toEntity()
	}
	return customers, nil
}

// Update は顧客を更新する（楽観的ロック）
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, birth_date = $3, cpf = $4,
		    student_institution = $5, student_number = $6, student_expires_at = $7,
		    password_hash = $8, status = $9, updated_at = NOW(), version = version + 1
		WHERE id = $10 AND version = $11
	`
	cpf, inst, num, exp := studentFields(c)
	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.Email, c.BirthDate, cpf, inst, num, exp,
		c.PasswordHash, string(c.Status), c.ID, c.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailAlreadyTaken
		}
		return fmt.Errorf("顧客更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, c.ID); err != nil {
			return fmt.Errorf("顧客存在確認に失敗しました: %w", err)
		}
		if !exists {
			return customer.ErrCustomerNotFound
		}
		return customer.ErrOptimisticLockConflict
	}

	c.Version++
	return nil
}

// Delete は顧客を削除する
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("顧客削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

func studentFields(c *customer.Customer) (cpf, institution, number *string, expiresAt *time.Time) {
	if c.CPF != nil {
		s := c.CPF.String()
		cpf = &s
	}
	if c.StudentCard != nil {
		institution = &c.StudentCard.Institution
		number = &c.StudentCard.Number
		expiresAt = &c.StudentCard.ExpiresAt
	}
	return cpf, institution, number, expiresAt
}

// インターフェースを満たしているか確認
var _ customer.Repository = (*CustomerRepository)(nil)
