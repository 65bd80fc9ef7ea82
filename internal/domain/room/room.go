package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status は上映室の管理状態を表す
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusClosed    Status = "CLOSED"
)

// ParseStatus は文字列を管理状態に変換する
func ParseStatus(token string) (Status, Failures) {
	if token == "" {
		return "", failuresOf(CodeMissingRequiredData, map[string]any{"field": "status"})
	}
	switch Status(token) {
	case StatusAvailable, StatusClosed:
		return Status(token), nil
	default:
		return "", failuresOf(CodeInvalidEnumValue, map[string]any{"field": "status", "value": token})
	}
}

// ScreenType はスクリーンの投影方式を表す
type ScreenType string

const (
	ScreenType2D   ScreenType = "2D"
	ScreenType3D   ScreenType = "3D"
	ScreenType2D3D ScreenType = "2D_3D"
)

// ParseScreenType は文字列を投影方式に変換する
func ParseScreenType(token string) (ScreenType, Failures) {
	if token == "" {
		return "", failuresOf(CodeMissingRequiredData, map[string]any{"field": "screen_type"})
	}
	switch ScreenType(token) {
	case ScreenType2D, ScreenType3D, ScreenType2D3D:
		return ScreenType(token), nil
	default:
		return "", failuresOf(CodeInvalidEnumValue, map[string]any{"field": "screen_type", "value": token})
	}
}

// Screen はスクリーンの仕様を表す
type Screen struct {
	Size int // インチ
	Type ScreenType
}

// 上映1本に対して自動生成される派生予約の所要時間（分）
const (
	EntryTimeMinutes             = 15
	ExitTimeMinutes              = 15
	PostScreeningCleaningMinutes = 30
)

// 上映室番号の許容範囲（シネマ単位で一意）
const (
	MinRoomNumber = 1
	MaxRoomNumber = 100
)

// Room は上映室の集約ルートを表す
// 座席レイアウト・スクリーン・スケジュール・管理状態を束ね、
// すべての操作は新しいRoomを返す（レシーバは変更されない）
type Room struct {
	uid      string
	number   int
	layout   SeatLayout
	screen   Screen
	schedule RoomSchedule
	status   Status
	version  int
}

// RoomData は永続化・復元に使う上映室のプレーンな表現
type RoomData struct {
	UID      string
	Number   int
	Layout   []SeatRowConfig
	Screen   Screen
	Bookings []BookingData
	Status   string
	Version  int
}

// NewRoom は検証済みのRoomを作成する
// 状態はAVAILABLE、スケジュールは空で初期化される
func NewRoom(number int, layout SeatLayout, screen Screen) (Room, Failures) {
	var fs Failures
	if number < MinRoomNumber || number > MaxRoomNumber {
		fs = append(fs, NewFailure(CodeInvalidRoomNumber, map[string]any{
			"number": number,
			"min":    MinRoomNumber,
			"max":    MaxRoomNumber,
		}))
	}
	if layout.RowCount() == 0 {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "seat_layout"}))
	}
	if !screen.Type.isValid() {
		fs = append(fs, NewFailure(CodeInvalidEnumValue, map[string]any{
			"field": "screen_type",
			"value": string(screen.Type),
		}))
	}
	if screen.Size <= 0 {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "screen_size"}))
	}
	if fs != nil {
		return Room{}, fs
	}
	return Room{
		uid:      uuid.New().String(),
		number:   number,
		layout:   layout,
		screen:   screen,
		schedule: NewRoomSchedule(),
		status:   StatusAvailable,
	}, nil
}

func (t ScreenType) isValid() bool {
	switch t {
	case ScreenType2D, ScreenType3D, ScreenType2D3D:
		return true
	}
	return false
}

// HydrateRoom は永続化済みデータからRoomを復元する
func HydrateRoom(data RoomData) (Room, error) {
	if data.UID == "" {
		return Room{}, fmt.Errorf("uid が欠損しています: %w", ErrCorruptedRoomData)
	}
	layout, err := HydrateSeatLayout(data.Layout)
	if err != nil {
		return Room{}, err
	}
	schedule, err := HydrateRoomSchedule(data.Bookings)
	if err != nil {
		return Room{}, err
	}
	if data.Status != string(StatusAvailable) && data.Status != string(StatusClosed) {
		return Room{}, fmt.Errorf("管理状態が不正です (uid=%s, status=%q): %w", data.UID, data.Status, ErrCorruptedRoomData)
	}
	return Room{
		uid:      data.UID,
		number:   data.Number,
		layout:   layout,
		screen:   data.Screen,
		schedule: schedule,
		status:   Status(data.Status),
		version:  data.Version,
	}, nil
}

// AddScreening は上映1本とその派生予約（入場・退場・清掃）をまとめて登録する
// 入場15分 → 上映 → 退場15分 → 清掃30分 が隙間なく連結される
// いずれかの登録が失敗した場合は何も登録されない（元のRoomは無変更）
func (r Room) AddScreening(screeningUID string, startTime time.Time, durationInMinutes int) (Room, Failures) {
	var fs Failures
	if screeningUID == "" {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "screening_uid"}))
	}
	if startTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "start_time"}))
	}
	if durationInMinutes <= 0 {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "duration_in_minutes"}))
	}
	if fs != nil {
		return Room{}, fs
	}

	// 全体スパンの事前チェック。個別登録時の連鎖エラーを避ける
	totalMinutes := EntryTimeMinutes + durationInMinutes + ExitTimeMinutes + PostScreeningCleaningMinutes
	endTime := startTime.Add(time.Duration(totalMinutes) * time.Minute)
	if availFs := r.schedule.IsAvailable(startTime, endTime); availFs != nil {
		fs = failuresOf(CodeRoomPeriodUnavailable, map[string]any{
			"start_time":    startTime,
			"end_time":      endTime,
			"total_minutes": totalMinutes,
		})
		return Room{}, append(fs, availFs...)
	}

	entryEnd := startTime.Add(EntryTimeMinutes * time.Minute)
	screeningEnd := entryEnd.Add(time.Duration(durationInMinutes) * time.Minute)
	exitEnd := screeningEnd.Add(ExitTimeMinutes * time.Minute)
	cleaningEnd := exitEnd.Add(PostScreeningCleaningMinutes * time.Minute)

	// 派生予約も上映IDを持ち、上映削除時にまとめて取り除ける
	steps := []struct {
		start time.Time
		end   time.Time
		kind  BookingType
	}{
		{startTime, entryEnd, BookingTypeEntryTime},
		{entryEnd, screeningEnd, BookingTypeScreening},
		{screeningEnd, exitEnd, BookingTypeExitTime},
		{exitEnd, cleaningEnd, BookingTypeCleaning},
	}

	schedule := r.schedule
	for _, step := range steps {
		next, fs := schedule.AddBooking(screeningUID, step.start, step.end, step.kind)
		if fs != nil {
			return Room{}, fs
		}
		schedule = next
	}
	return r.withSchedule(schedule), nil
}

// ScheduleCleaning は単発の清掃予約を登録する
func (r Room) ScheduleCleaning(startTime time.Time, durationInMinutes int) (Room, Failures) {
	return r.scheduleSingle(startTime, durationInMinutes, BookingTypeCleaning)
}

// ScheduleMaintenance は単発のメンテナンス予約を登録する
func (r Room) ScheduleMaintenance(startTime time.Time, durationInMinutes int) (Room, Failures) {
	return r.scheduleSingle(startTime, durationInMinutes, BookingTypeMaintenance)
}

func (r Room) scheduleSingle(startTime time.Time, durationInMinutes int, bookingType BookingType) (Room, Failures) {
	var fs Failures
	if startTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "start_time"}))
	}
	if durationInMinutes <= 0 {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "duration_in_minutes"}))
	}
	if fs != nil {
		return Room{}, fs
	}
	endTime := startTime.Add(time.Duration(durationInMinutes) * time.Minute)
	schedule, fs := r.schedule.AddBooking("", startTime, endTime, bookingType)
	if fs != nil {
		return Room{}, fs
	}
	return r.withSchedule(schedule), nil
}

// RemoveScreening は上映とその派生予約をまとめて取り除いた新しいRoomを返す
func (r Room) RemoveScreening(screeningUID string) (Room, Failures) {
	schedule, fs := r.schedule.RemoveScreening(screeningUID)
	if fs != nil {
		return Room{}, fs
	}
	return r.withSchedule(schedule), nil
}

// RemoveBookingByID は指定IDの予約を取り除いた新しいRoomを返す
func (r Room) RemoveBookingByID(bookingUID string) (Room, Failures) {
	schedule, fs := r.schedule.RemoveBookingByID(bookingUID)
	if fs != nil {
		return Room{}, fs
	}
	return r.withSchedule(schedule), nil
}

// ChangeStatus は管理状態を変更した新しいRoomを返す
// 同一状態への変更は違反ではなく現在のRoomをそのまま返す
// 予約が残っている間はCLOSEDへ遷移できない
func (r Room) ChangeStatus(token string) (Room, Failures) {
	status, fs := ParseStatus(token)
	if fs != nil {
		return Room{}, fs
	}
	if status == r.status {
		return r, nil
	}
	if status == StatusClosed && !r.schedule.IsEmpty() {
		return Room{}, failuresOf(CodeRoomHasFutureBookings, map[string]any{
			"booking_count": r.schedule.Len(),
		})
	}
	next := r
	next.status = status
	return next, nil
}

// FreeSlotsFor は指定日の空き時間帯を返す
func (r Room) FreeSlotsFor(date time.Time, minMinutes int) []TimeRange {
	return r.schedule.FreeSlotsFor(date, minMinutes)
}

func (r Room) withSchedule(schedule RoomSchedule) Room {
	next := r
	next.schedule = schedule
	return next
}

// UID は上映室IDを返す
func (r Room) UID() string { return r.uid }

// Number は上映室番号を返す
func (r Room) Number() int { return r.number }

// Layout は座席レイアウトを返す
func (r Room) Layout() SeatLayout { return r.layout }

// Screen はスクリーン仕様を返す
func (r Room) Screen() Screen { return r.screen }

// Schedule はスケジュールを返す
func (r Room) Schedule() RoomSchedule { return r.schedule }

// Status は管理状態を返す
func (r Room) Status() Status { return r.status }

// Version は楽観的ロック用のバージョンを返す
func (r Room) Version() int { return r.version }

// Data は永続化用のプレーン表現を返す
func (r Room) Data() RoomData {
	return RoomData{
		UID:      r.uid,
		Number:   r.number,
		Layout:   r.layout.Data(),
		Screen:   r.screen,
		Bookings: r.schedule.AllBookingsData(),
		Status:   string(r.status),
		Version:  r.version,
	}
}
