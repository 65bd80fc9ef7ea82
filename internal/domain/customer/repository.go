package customer

import "context"

// Repository は顧客リポジトリのインターフェース
type Repository interface {
	// Create は新しい顧客を作成する（メールアドレス重複時はErrEmailAlreadyTaken）
	Create(ctx context.Context, c *Customer) error

	// GetByID はIDから顧客を取得する
	GetByID(ctx context.Context, id string) (*Customer, error)

	// GetByEmail はメールアドレスから顧客を取得する
	GetByEmail(ctx context.Context, email string) (*Customer, error)

	// List は顧客一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Customer, error)

	// Update は顧客を更新する（バージョン不一致時はErrOptimisticLockConflict）
	Update(ctx context.Context, c *Customer) error

	// Delete は顧客を削除する
	Delete(ctx context.Context, id string) error
}
