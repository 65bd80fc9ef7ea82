package room

import "context"

// Repository は上映室リポジトリのインターフェース
// Saveは集約全体を置き換える（スケジュールを含むスナップショット永続化）
type Repository interface {
	// Create は新しい上映室を保存する
	Create(ctx context.Context, r Room) (Room, error)

	// GetByUID はIDから上映室を取得する
	GetByUID(ctx context.Context, uid string) (Room, error)

	// GetByNumber は上映室番号から上映室を取得する
	GetByNumber(ctx context.Context, number int) (Room, error)

	// List は上映室一覧を番号の昇順で取得する
	List(ctx context.Context, limit, offset int) ([]Room, error)

	// Save は集約全体を置き換える（バージョン不一致時はErrOptimisticLockConflict）
	Save(ctx context.Context, r Room) (Room, error)

	// Delete は上映室を削除する
	Delete(ctx context.Context, uid string) error
}
