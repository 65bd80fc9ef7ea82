package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/logger"
)

// CustomerService は顧客のユースケースを提供する
type CustomerService struct {
	customerRepo customer.Repository
}

// NewCustomerService はCustomerServiceを作成する
func NewCustomerService(cr customer.Repository) *CustomerService {
	return &CustomerService{customerRepo: cr}
}

// RegisterCustomerInput は顧客登録の入力
type RegisterCustomerInput struct {
	Name      string
	Email     string
	BirthDate time.Time
	Password  string
}

// Register は新しい顧客を登録する
func (s *CustomerService) Register(ctx context.Context, input RegisterCustomerInput) (*customer.Customer, error) {
	// メールアドレスの重複を事前に確認する（最終的な防壁はDBの一意制約）
	if _, err := s.customerRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, customer.ErrEmailAlreadyTaken
	} else if !errors.Is(err, customer.ErrCustomerNotFound) {
		return nil, fmt.Errorf("メールアドレス確認に失敗: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	c := customer.NewCustomer(input.Name, input.Email, input.BirthDate, string(hash))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("顧客を登録しました", zap.String("customer_id", c.ID))
	return c, nil
}

// Get はIDから顧客を取得する
func (s *CustomerService) Get(ctx context.Context, id string) (*customer.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

// List は顧客一覧を取得する
func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.customerRepo.List(ctx, limit, offset)
}

// UpdateProfile は氏名と生年月日を更新する
func (s *CustomerService) UpdateProfile(ctx context.Context, id, name string, birthDate time.Time) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.UpdateProfile(name, birthDate)
	})
}

// AssignCPF は顧客にCPFを登録する
func (s *CustomerService) AssignCPF(ctx context.Context, id, cpf string) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.AssignCPF(cpf)
	})
}

// RemoveCPF は顧客のCPFを取り除く
func (s *CustomerService) RemoveCPF(ctx context.Context, id string) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.RemoveCPF()
	})
}

// AssignStudentCard は顧客に学生証を登録する
func (s *CustomerService) AssignStudentCard(ctx context.Context, id, institution, number string, expiresAt time.Time) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.AssignStudentCard(institution, number, expiresAt)
	})
}

// RemoveStudentCard は顧客の学生証を取り除く
func (s *CustomerService) RemoveStudentCard(ctx context.Context, id string) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.RemoveStudentCard()
	})
}

// ChangeStatus はアカウント状態を変更する
func (s *CustomerService) ChangeStatus(ctx context.Context, id string, status customer.Status) (*customer.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *customer.Customer) error {
		return c.ChangeStatus(status)
	})
}

// Delete は顧客を削除する
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("顧客を削除しました", zap.String("customer_id", id))
	return nil
}

// mutateCustomer は顧客更新の共通パス（読み出し → ドメイン操作 → 保存）
func (s *CustomerService) mutateCustomer(ctx context.Context, id string, mutate func(*customer.Customer) error) (*customer.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
