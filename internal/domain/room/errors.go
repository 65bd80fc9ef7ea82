package room

import "errors"

// Room ドメインのエラー定義
// Failures（業務ルール違反）とは別に、技術的・構造的な異常を表す
var (
	ErrRoomNotFound           = errors.New("上映室が見つかりません")
	ErrRoomNumberTaken        = errors.New("上映室番号は既に使用されています")
	ErrCorruptedBookingData   = errors.New("予約データが構造的に不正です")
	ErrCorruptedSeatLayout    = errors.New("座席レイアウトデータが構造的に不正です")
	ErrCorruptedRoomData      = errors.New("上映室データが構造的に不正です")
	ErrOptimisticLockConflict = errors.New("楽観的ロックの競合が発生しました")
)
