package customer

import "errors"

// Customer ドメインのエラー定義
var (
	ErrCustomerNotFound        = errors.New("顧客が見つかりません")
	ErrNameRequired            = errors.New("氏名は必須です")
	ErrEmailRequired           = errors.New("メールアドレスは必須です")
	ErrInvalidEmail            = errors.New("メールアドレスの形式が不正です")
	ErrEmailAlreadyTaken       = errors.New("メールアドレスは既に使用されています")
	ErrBirthDateRequired       = errors.New("生年月日は必須です")
	ErrCustomerTooYoung        = errors.New("登録には16歳以上である必要があります")
	ErrInvalidCPF              = errors.New("CPFの形式が不正です")
	ErrCPFAlreadyAssigned      = errors.New("CPFは既に登録されています")
	ErrCPFNotAssigned          = errors.New("CPFが登録されていません")
	ErrStudentCardExpired      = errors.New("学生証の有効期限が過去です")
	ErrStudentCardIncomplete   = errors.New("学生証の情報が不足しています")
	ErrStudentCardNotAssigned  = errors.New("学生証が登録されていません")
	ErrInvalidStatusTransition = errors.New("許可されていない状態遷移です")
	ErrOptimisticLockConflict  = errors.New("楽観的ロックの競合が発生しました")
)
