package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
)

// roomRow はroomsテーブルの行を表す構造体
type roomRow struct {
	UID        string    `db:"uid"`
	Number     int       `db:"number"`
	ScreenSize int       `db:"screen_size"`
	ScreenType string    `db:"screen_type"`
	SeatLayout []byte    `db:"seat_layout"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

// bookingRow はroom_bookingsテーブルの行を表す構造体
type bookingRow struct {
	UID          string    `db:"uid"`
	RoomUID      string    `db:"room_uid"`
	ScreeningUID *string   `db:"screening_uid"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
	BookingType  string    `db:"booking_type"`
}

// RoomRepository は上映室リポジトリのPostgreSQL実装
// 集約全体を読み出し、保存時は全体を置き換える
type RoomRepository struct {
	db  *sqlx.DB
	txm *TxManager
}

// NewRoomRepository はRoomRepositoryを作成する
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db, txm: NewTxManager(db)}
}

// Create は新しい上映室を保存する
func (r *RoomRepository) Create(ctx context.Context, rm room.Room) (room.Room, error) {
	data := rm.Data()
	layoutJSON, err := json.Marshal(data.Layout)
	if err != nil {
		return room.Room{}, fmt.Errorf("座席レイアウトのシリアライズに失敗しました: %w", err)
	}

	tx, err := r.txm.Begin(ctx)
	if err != nil {
		return room.Room{}, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()
	sqlTx := UnwrapTx(tx)

	query := `
		INSERT INTO rooms (uid, number, screen_size, screen_type, seat_layout, status, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), $7)
	`
	if _, err := sqlTx.ExecContext(ctx, query,
		data.UID, data.Number, data.Screen.Size, string(data.Screen.Type),
		layoutJSON, data.Status, data.Version,
	); err != nil {
		if isUniqueViolation(err) {
			return room.Room{}, room.ErrRoomNumberTaken
		}
		return room.Room{}, fmt.Errorf("上映室作成に失敗しました: %w", err)
	}

	if err := insertBookings(ctx, sqlTx, data.UID, data.Bookings); err != nil {
		return room.Room{}, err
	}

	if err := tx.Commit(); err != nil {
		return room.Room{}, fmt.Errorf("コミットに失敗しました: %w", err)
	}
	return rm, nil
}

// GetByUID はIDから上映室を取得する
func (r *RoomRepository) GetByUID(ctx context.Context, uid string) (room.Room, error) {
	return r.getByColumn(ctx, "uid", uid)
}

// GetByNumber は上映室番号から上映室を取得する
func (r *RoomRepository) GetByNumber(ctx context.Context, number int) (room.Room, error) {
	return r.getByColumn(ctx, "number", number)
}

func (r *RoomRepository) getByColumn(ctx context.Context, column string, value any) (room.Room, error) {
	query := fmt.Sprintf(`
		SELECT uid, number, screen_size, screen_type, seat_layout, status, created_at, updated_at, version
		FROM rooms WHERE %s = $1
	`, column)

	var row roomRow
	if err := r.db.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return room.Room{}, room.ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("上映室取得に失敗しました: %w", err)
	}
	return r.hydrate(ctx, row)
}

// List は上映室一覧を番号の昇順で取得する
func (r *RoomRepository) List(ctx context.Context, limit, offset int) ([]room.Room, error) {
	query := `
		SELECT uid, number, screen_size, screen_type, seat_layout, status, created_at, updated_at, version
		FROM rooms ORDER BY number ASC LIMIT $1 OFFSET $2
	`
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("上映室一覧取得に失敗しました: %w", err)
	}

	rooms := make([]room.Room, len(rows))
	for i, row := range rows {
		rm, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		rooms[i] = rm
	}
	return rooms, nil
}

// Save は集約全体を置き換える（楽観的ロック）
// 上映室本体のバージョンを検査し、予約行は削除・再挿入する
func (r *RoomRepository) Save(ctx context.Context, rm room.Room) (room.Room, error) {
	data := rm.Data()
	layoutJSON, err := json.Marshal(data.Layout)
	if err != nil {
		return room.Room{}, fmt.Errorf("座席レイアウトのシリアライズに失敗しました: %w", err)
	}

	tx, err := r.txm.Begin(ctx)
	if err != nil {
		return room.Room{}, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()
	sqlTx := UnwrapTx(tx)

	query := `
		UPDATE rooms
		SET number = $1, screen_size = $2, screen_type = $3, seat_layout = $4,
		    status = $5, updated_at = NOW(), version = version + 1
		WHERE uid = $6 AND version = $7
	`
	result, err := sqlTx.ExecContext(ctx, query,
		data.Number, data.Screen.Size, string(data.Screen.Type), layoutJSON,
		data.Status, data.UID, data.Version,
	)
	if err != nil {
		return room.Room{}, fmt.Errorf("上映室更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return room.Room{}, fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// 行が存在しないのか、バージョン競合なのかを区別する
		var exists bool
		if err := sqlTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE uid = $1)`, data.UID); err != nil {
			return room.Room{}, fmt.Errorf("上映室存在確認に失敗しました: %w", err)
		}
		if !exists {
			return room.Room{}, room.ErrRoomNotFound
		}
		return room.Room{}, room.ErrOptimisticLockConflict
	}

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM room_bookings WHERE room_uid = $1`, data.UID); err != nil {
		return room.Room{}, fmt.Errorf("予約行の削除に失敗しました: %w", err)
	}
	if err := insertBookings(ctx, sqlTx, data.UID, data.Bookings); err != nil {
		return room.Room{}, err
	}

	if err := tx.Commit(); err != nil {
		return room.Room{}, fmt.Errorf("コミットに失敗しました: %w", err)
	}

	data.Version++
	saved, err := room.HydrateRoom(data)
	if err != nil {
		return room.Room{}, fmt.Errorf("保存後の復元に失敗しました: %w", err)
	}
	return saved, nil
}

// Delete は上映室と紐づく予約行を削除する
func (r *RoomRepository) Delete(ctx context.Context, uid string) error {
	tx, err := r.txm.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()
	sqlTx := UnwrapTx(tx)

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM room_bookings WHERE room_uid = $1`, uid); err != nil {
		return fmt.Errorf("予約行の削除に失敗しました: %w", err)
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM rooms WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("上映室削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return room.ErrRoomNotFound
	}
	return tx.Commit()
}

// hydrate は行データから集約を復元する
func (r *RoomRepository) hydrate(ctx context.Context, row roomRow) (room.Room, error) {
	var layout []room.SeatRowConfig
	if err := json.Unmarshal(row.SeatLayout, &layout); err != nil {
		return room.Room{}, fmt.Errorf("座席レイアウトの復元に失敗しました (uid=%s): %w", row.UID, err)
	}

	query := `
		SELECT uid, room_uid, screening_uid, start_time, end_time, booking_type
		FROM room_bookings WHERE room_uid = $1 ORDER BY start_time ASC
	`
	var bookingRows []bookingRow
	if err := r.db.SelectContext(ctx, &bookingRows, query, row.UID); err != nil {
		return room.Room{}, fmt.Errorf("予約行の取得に失敗しました: %w", err)
	}

	bookings := make([]room.BookingData, len(bookingRows))
	for i, b := range bookingRows {
		var screeningUID string
		if b.ScreeningUID != nil {
			screeningUID = *b.ScreeningUID
		}
		bookings[i] = room.BookingData{
			UID:          b.UID,
			ScreeningUID: screeningUID,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			Type:         b.BookingType,
		}
	}

	return room.HydrateRoom(room.RoomData{
		UID:    row.UID,
		Number: row.Number,
		Layout: layout,
		Screen: room.Screen{
			Size: row.ScreenSize,
			Type: room.ScreenType(row.ScreenType),
		},
		Bookings: bookings,
		Status:   row.Status,
		Version:  row.Version,
	})
}

func insertBookings(ctx context.Context, tx *sqlx.Tx, roomUID string, bookings []room.BookingData) error {
	if len(bookings) == 0 {
		return nil
	}
	query := `
		INSERT INTO room_bookings (uid, room_uid, screening_uid, start_time, end_time, booking_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, b := range bookings {
		var screeningUID *string
		if b.ScreeningUID != "" {
			screeningUID = &b.ScreeningUID
		}
		if _, err := tx.ExecContext(ctx, query,
			b.UID, roomUID, screeningUID, b.StartTime, b.EndTime, b.Type,
		); err != nil {
			return fmt.Errorf("予約行の挿入に失敗しました: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// インターフェースを満たしているか確認
var _ room.Repository = (*RoomRepository)(nil)
