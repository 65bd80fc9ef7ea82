package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
	redisinfra "github.com/sanosuguru/go-cinema-room-management/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/metrics"
)

// ErrRoomBusy はロック取得に失敗し、他の操作が進行中であることを示す
var ErrRoomBusy = errors.New("上映室のスケジュールが他の操作によって処理中です")

const (
	defaultSaveRetries = 3
	lockTTL            = 10 * time.Second
	lockRetries        = 3
	lockRetryDelay     = 100 * time.Millisecond
)

// RoomService は上映室のユースケースを提供する
// スケジュール変更は上映室単位の分散ロックで直列化し、
// 永続化は楽観的ロック付きで再試行する
type RoomService struct {
	roomRepo    room.Repository
	lockManager redisinfra.LockManagerInterface
	slotCache   redisinfra.FreeSlotCacheInterface
	metrics     *metrics.Metrics
	saveRetries int
}

// NewRoomService はRoomServiceを作成する
// lockManager, slotCache, m はnilでも動作する（ロック・キャッシュ・計測なし）
func NewRoomService(rr room.Repository, lm redisinfra.LockManagerInterface, fc redisinfra.FreeSlotCacheInterface, m *metrics.Metrics, saveRetries int) *RoomService {
	if saveRetries <= 0 {
		saveRetries = defaultSaveRetries
	}
	return &RoomService{
		roomRepo:    rr,
		lockManager: lm,
		slotCache:   fc,
		metrics:     m,
		saveRetries: saveRetries,
	}
}

// CreateRoomInput は上映室作成の入力
type CreateRoomInput struct {
	Number     int
	ScreenSize int
	ScreenType string
	SeatRows   []room.SeatRowConfig
}

// CreateRoom は新しい上映室を作成する
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (room.Room, error) {
	layout, layoutFs := room.NewSeatLayout(input.SeatRows)
	screenType, typeFs := room.ParseScreenType(input.ScreenType)
	if fs := append(layoutFs, typeFs...); fs != nil {
		return room.Room{}, fs
	}

	rm, fs := room.NewRoom(input.Number, layout, room.Screen{Size: input.ScreenSize, Type: screenType})
	if fs != nil {
		return room.Room{}, fs
	}

	created, err := s.roomRepo.Create(ctx, rm)
	if err != nil {
		return room.Room{}, err
	}
	logger.Info("上映室を作成しました",
		zap.String("room_uid", created.UID()),
		zap.Int("number", created.Number()),
	)
	return created, nil
}

// GetRoom はIDから上映室を取得する
func (s *RoomService) GetRoom(ctx context.Context, uid string) (room.Room, error) {
	return s.roomRepo.GetByUID(ctx, uid)
}

// GetRoomByNumber は上映室番号から上映室を取得する
func (s *RoomService) GetRoomByNumber(ctx context.Context, number int) (room.Room, error) {
	return s.roomRepo.GetByNumber(ctx, number)
}

// ListRooms は上映室一覧を取得する
func (s *RoomService) ListRooms(ctx context.Context, limit, offset int) ([]room.Room, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.roomRepo.List(ctx, limit, offset)
}

// AddScreeningInput は上映登録の入力
type AddScreeningInput struct {
	RoomUID           string
	ScreeningUID      string
	StartTime         time.Time
	DurationInMinutes int
}

// AddScreening は上映1本とその派生予約をまとめて登録する
func (s *RoomService) AddScreening(ctx context.Context, input AddScreeningInput) (room.Room, error) {
	rm, err := s.mutateRoom(ctx, input.RoomUID, "add_screening", func(r room.Room) (room.Room, room.Failures) {
		return r.AddScreening(input.ScreeningUID, input.StartTime, input.DurationInMinutes)
	})
	if err != nil {
		return room.Room{}, err
	}
	s.countBooking(room.BookingTypeEntryTime)
	s.countBooking(room.BookingTypeScreening)
	s.countBooking(room.BookingTypeExitTime)
	s.countBooking(room.BookingTypeCleaning)
	return rm, nil
}

// ScheduleBookingInput は単発予約（清掃・メンテナンス）の入力
type ScheduleBookingInput struct {
	RoomUID           string
	StartTime         time.Time
	DurationInMinutes int
}

// ScheduleCleaning は単発の清掃予約を登録する
func (s *RoomService) ScheduleCleaning(ctx context.Context, input ScheduleBookingInput) (room.Room, error) {
	rm, err := s.mutateRoom(ctx, input.RoomUID, "schedule_cleaning", func(r room.Room) (room.Room, room.Failures) {
		return r.ScheduleCleaning(input.StartTime, input.DurationInMinutes)
	})
	if err != nil {
		return room.Room{}, err
	}
	s.countBooking(room.BookingTypeCleaning)
	return rm, nil
}

// ScheduleMaintenance は単発のメンテナンス予約を登録する
func (s *RoomService) ScheduleMaintenance(ctx context.Context, input ScheduleBookingInput) (room.Room, error) {
	rm, err := s.mutateRoom(ctx, input.RoomUID, "schedule_maintenance", func(r room.Room) (room.Room, room.Failures) {
		return r.ScheduleMaintenance(input.StartTime, input.DurationInMinutes)
	})
	if err != nil {
		return room.Room{}, err
	}
	s.countBooking(room.BookingTypeMaintenance)
	return rm, nil
}

// RemoveScreening は上映とその派生予約をまとめて取り除く
func (s *RoomService) RemoveScreening(ctx context.Context, roomUID, screeningUID string) (room.Room, error) {
	return s.mutateRoom(ctx, roomUID, "remove_screening", func(r room.Room) (room.Room, room.Failures) {
		return r.RemoveScreening(screeningUID)
	})
}

// RemoveBooking は指定IDの予約を取り除く
func (s *RoomService) RemoveBooking(ctx context.Context, roomUID, bookingUID string) (room.Room, error) {
	return s.mutateRoom(ctx, roomUID, "remove_booking", func(r room.Room) (room.Room, room.Failures) {
		return r.RemoveBookingByID(bookingUID)
	})
}

// ChangeRoomStatus は上映室の管理状態を変更する
func (s *RoomService) ChangeRoomStatus(ctx context.Context, roomUID, status string) (room.Room, error) {
	return s.mutateRoom(ctx, roomUID, "change_status", func(r room.Room) (room.Room, room.Failures) {
		return r.ChangeStatus(status)
	})
}

// GetFreeSlots は指定日の空き時間帯を返す（キャッシュあり）
func (s *RoomService) GetFreeSlots(ctx context.Context, roomUID string, date time.Time, minMinutes int) ([]room.TimeRange, error) {
	if s.slotCache != nil {
		slots, err := s.slotCache.Get(ctx, roomUID, date, minMinutes)
		if err == nil {
			s.countCache("hit")
			return slots, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("空き枠キャッシュの取得に失敗しました", zap.Error(err))
		}
		s.countCache("miss")
	}

	rm, err := s.roomRepo.GetByUID(ctx, roomUID)
	if err != nil {
		return nil, err
	}
	slots := rm.FreeSlotsFor(date, minMinutes)

	if s.slotCache != nil {
		if err := s.slotCache.Set(ctx, roomUID, date, minMinutes, slots); err != nil {
			logger.Warn("空き枠キャッシュの保存に失敗しました", zap.Error(err))
		}
	}
	return slots, nil
}

// DeleteRoom は上映室を削除する
func (s *RoomService) DeleteRoom(ctx context.Context, uid string) error {
	if err := s.roomRepo.Delete(ctx, uid); err != nil {
		return err
	}
	s.invalidateCache(ctx, uid)
	logger.Info("上映室を削除しました", zap.String("room_uid", uid))
	return nil
}

// PrunePastBookings は保持期間を過ぎた予約を全上映室から削除し、削除件数を返す
// 1件の削除失敗で全体を止めず、残りの予約の処理を続行する
func (s *RoomService) PrunePastBookings(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	pruned := 0

	const pageSize = 50
	for offset := 0; ; offset += pageSize {
		rooms, err := s.roomRepo.List(ctx, pageSize, offset)
		if err != nil {
			return pruned, fmt.Errorf("上映室一覧の取得に失敗: %w", err)
		}
		if len(rooms) == 0 {
			break
		}

		for _, rm := range rooms {
			for _, slot := range rm.Schedule().Bookings() {
				if !slot.EndTime().Before(cutoff) {
					continue
				}
				if _, err := s.RemoveBooking(ctx, rm.UID(), slot.UID()); err != nil {
					logger.Warn("過去予約の削除に失敗しました",
						zap.String("room_uid", rm.UID()),
						zap.String("booking_uid", slot.UID()),
						zap.Error(err),
					)
					continue
				}
				pruned++
			}
		}

		if len(rooms) < pageSize {
			break
		}
	}
	return pruned, nil
}

// mutateRoom はスケジュール変更の共通パス
// 上映室単位のロック取得 → 読み出し → ドメイン操作 → 保存（競合時は再読込して再試行）
func (s *RoomService) mutateRoom(ctx context.Context, roomUID, operation string, mutate func(room.Room) (room.Room, room.Failures)) (room.Room, error) {
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, "room:"+roomUID, lockTTL, lockRetries, lockRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				s.countOperation(operation, "conflict")
				return room.Room{}, ErrRoomBusy
			}
			s.countOperation(operation, "error")
			return room.Room{}, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < s.saveRetries; attempt++ {
		rm, err := s.roomRepo.GetByUID(ctx, roomUID)
		if err != nil {
			s.countOperation(operation, "error")
			return room.Room{}, err
		}

		next, fs := mutate(rm)
		if fs != nil {
			s.countOperation(operation, "rejected")
			return room.Room{}, fs
		}

		saved, err := s.roomRepo.Save(ctx, next)
		if err == nil {
			s.countOperation(operation, "success")
			s.invalidateCache(ctx, roomUID)
			return saved, nil
		}
		if !errors.Is(err, room.ErrOptimisticLockConflict) {
			s.countOperation(operation, "error")
			return room.Room{}, err
		}
		lastErr = err
		logger.Warn("バージョン競合のため再試行します",
			zap.String("room_uid", roomUID),
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
		)
	}
	s.countOperation(operation, "conflict")
	return room.Room{}, lastErr
}

func (s *RoomService) invalidateCache(ctx context.Context, roomUID string) {
	if s.slotCache == nil {
		return
	}
	if err := s.slotCache.InvalidateRoom(ctx, roomUID); err != nil {
		logger.Warn("空き枠キャッシュの無効化に失敗しました",
			zap.String("room_uid", roomUID),
			zap.Error(err),
		)
	}
}

func (s *RoomService) countOperation(operation, status string) {
	if s.metrics != nil {
		s.metrics.ScheduleOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}

func (s *RoomService) countBooking(bookingType room.BookingType) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(string(bookingType)).Inc()
	}
}

func (s *RoomService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.FreeSlotCacheTotal.WithLabelValues(result).Inc()
	}
}
