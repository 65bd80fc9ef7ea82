package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingSlot は上映室スケジュール内の予約済み時間帯1件を表す
// 生成後は一切変更されない（置き換えのみ）
type BookingSlot struct {
	uid          string
	screeningUID string // SCREENING系の予約が参照する外部の上映ID（無い場合は空文字）
	startTime    time.Time
	endTime      time.Time
	bookingType  BookingType
}

// BookingData は永続化・復元に使う予約のプレーンな表現
type BookingData struct {
	UID          string
	ScreeningUID string
	StartTime    time.Time
	EndTime      time.Time
	Type         string
}

// NewBookingSlot は検証済みのBookingSlotを作成する
// 検証順序: 必須項目 → 過去日時 → 前後関係 → 区分 → 上映ID要否 → 所要時間制約
// 日時に依存する検証は最初の違反で打ち切る
func NewBookingSlot(screeningUID string, startTime, endTime time.Time, bookingType BookingType) (BookingSlot, Failures) {
	var fs Failures
	if startTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "start_time"}))
	}
	if endTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "end_time"}))
	}
	if fs != nil {
		return BookingSlot{}, fs
	}

	if startTime.Before(time.Now()) {
		return BookingSlot{}, failuresOf(CodeDateCannotBePast, map[string]any{
			"start_time": startTime,
		})
	}
	if !endTime.After(startTime) {
		return BookingSlot{}, failuresOf(CodeDateWithInvalidSequence, map[string]any{
			"start_time": startTime,
			"end_time":   endTime,
		})
	}
	if !bookingType.IsValid() {
		return BookingSlot{}, failuresOf(CodeInvalidBookingType, map[string]any{
			"value": string(bookingType),
		})
	}
	if bookingType.RequiresScreeningUID() && screeningUID == "" {
		return BookingSlot{}, failuresOf(CodeMissingRequiredData, map[string]any{
			"field": "screening_uid",
		})
	}
	if bookingType == BookingTypeMaintenance && screeningUID != "" {
		return BookingSlot{}, failuresOf(CodeInvalidBookingType, map[string]any{
			"value":  string(bookingType),
			"reason": "メンテナンス予約は上映IDを持てません",
		})
	}

	duration := minutesBetween(startTime, endTime)
	bounds := bookingType.bounds()
	if duration < bounds.min || duration > bounds.max {
		return BookingSlot{}, failuresOf(bookingType.durationFailureCode(), map[string]any{
			"duration_minutes": duration,
			"min_minutes":      bounds.min,
			"max_minutes":      bounds.max,
		})
	}

	return BookingSlot{
		uid:          uuid.New().String(),
		screeningUID: screeningUID,
		startTime:    startTime,
		endTime:      endTime,
		bookingType:  bookingType,
	}, nil
}

// HydrateBookingSlot は永続化済みデータからBookingSlotを復元する
// 検証済みデータを前提とし、構造的な欠損のみを技術エラーとして報告する
func HydrateBookingSlot(data BookingData) (BookingSlot, error) {
	if data.UID == "" {
		return BookingSlot{}, fmt.Errorf("uid が欠損しています: %w", ErrCorruptedBookingData)
	}
	if data.StartTime.IsZero() || data.EndTime.IsZero() {
		return BookingSlot{}, fmt.Errorf("予約期間が欠損しています (uid=%s): %w", data.UID, ErrCorruptedBookingData)
	}
	t := BookingType(data.Type)
	if !t.IsValid() {
		return BookingSlot{}, fmt.Errorf("予約区分が不正です (uid=%s, type=%q): %w", data.UID, data.Type, ErrCorruptedBookingData)
	}
	return BookingSlot{
		uid:          data.UID,
		screeningUID: data.ScreeningUID,
		startTime:    data.StartTime,
		endTime:      data.EndTime,
		bookingType:  t,
	}, nil
}

// UID は予約IDを返す
func (b BookingSlot) UID() string { return b.uid }

// ScreeningUID は関連する上映IDを返す（無い場合は空文字）
func (b BookingSlot) ScreeningUID() string { return b.screeningUID }

// StartTime は開始時刻を返す
func (b BookingSlot) StartTime() time.Time { return b.startTime }

// EndTime は終了時刻を返す
func (b BookingSlot) EndTime() time.Time { return b.endTime }

// Type は予約区分を返す
func (b BookingSlot) Type() BookingType { return b.bookingType }

// DurationInMinutes は所要時間（分）を返す
func (b BookingSlot) DurationInMinutes() int {
	return minutesBetween(b.startTime, b.endTime)
}

// Overlaps は半開区間 [start, end) として期間が重なるかを返す
// 端点が一致するだけの場合は重ならない扱い
func (b BookingSlot) Overlaps(start, end time.Time) bool {
	return start.Before(b.endTime) && end.After(b.startTime)
}

// Data は永続化用のプレーン表現を返す
func (b BookingSlot) Data() BookingData {
	return BookingData{
		UID:          b.uid,
		ScreeningUID: b.screeningUID,
		StartTime:    b.startTime,
		EndTime:      b.endTime,
		Type:         string(b.bookingType),
	}
}

func minutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}
