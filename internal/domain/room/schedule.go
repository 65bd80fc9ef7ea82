package room

import (
	"sort"
	"time"
)

// 上映室の営業時間とスケジュールの時間グリッド
const (
	OperatingStartHour     = 10 // 予約開始は10:00以降
	OperatingEndHour       = 22 // 予約開始は22:00より前
	BookingTimeGridMinutes = 5  // 開始時刻は5分刻み
)

// TimeRange は開始・終了の組で空き時間帯を表す
type TimeRange struct {
	StartTime time.Time
	EndTime   time.Time
}

// RoomSchedule は1つの上映室の予約集合を開始時刻の昇順で保持する
// すべての操作は元のインスタンスを変更せず、新しいスナップショットを返す
type RoomSchedule struct {
	slots []BookingSlot
}

// NewRoomSchedule は空のスケジュールを作成する
func NewRoomSchedule() RoomSchedule {
	return RoomSchedule{}
}

// HydrateRoomSchedule は永続化済みデータからスケジュールを復元する
func HydrateRoomSchedule(data []BookingData) (RoomSchedule, error) {
	slots := make([]BookingSlot, 0, len(data))
	for _, d := range data {
		slot, err := HydrateBookingSlot(d)
		if err != nil {
			return RoomSchedule{}, err
		}
		slots = append(slots, slot)
	}
	return newSortedSchedule(slots), nil
}

func newSortedSchedule(slots []BookingSlot) RoomSchedule {
	sorted := make([]BookingSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].startTime.Before(sorted[j].startTime)
	})
	return RoomSchedule{slots: sorted}
}

// IsAvailable は指定期間に予約を入れられるかを検証する
// 前後関係 → 営業時間 → 時間グリッド → 既存予約との重複 の順で検査し、
// 最初の違反で打ち切る（nil なら予約可能）
func (s RoomSchedule) IsAvailable(startTime, endTime time.Time) Failures {
	if !endTime.After(startTime) {
		return failuresOf(CodeDateWithInvalidSequence, map[string]any{
			"start_time": startTime,
			"end_time":   endTime,
		})
	}

	hour := startTime.Hour()
	if hour < OperatingStartHour || hour >= OperatingEndHour {
		return failuresOf(CodeRoomOperatingHoursViolation, map[string]any{
			"start_hour":           hour,
			"operating_start_hour": OperatingStartHour,
			"operating_end_hour":   OperatingEndHour,
		})
	}

	if startTime.Minute()%BookingTimeGridMinutes != 0 {
		return failuresOf(CodeInvalidBookingTimeInterval, map[string]any{
			"start_minute": startTime.Minute(),
			"grid_minutes": BookingTimeGridMinutes,
		})
	}

	// 半開区間での線形走査。1室あたりの予約は高々数十件のためO(n)で十分
	for _, slot := range s.slots {
		if slot.Overlaps(startTime, endTime) {
			return failuresOf(CodeRoomNotAvailableForPeriod, map[string]any{
				"booking_uid":  slot.uid,
				"booking_type": string(slot.bookingType),
				"start_time":   slot.startTime,
				"end_time":     slot.endTime,
			})
		}
	}
	return nil
}

// AddBooking は検証済みの予約を追加した新しいスケジュールを返す
func (s RoomSchedule) AddBooking(screeningUID string, startTime, endTime time.Time, bookingType BookingType) (RoomSchedule, Failures) {
	var fs Failures
	if startTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "start_time"}))
	}
	if endTime.IsZero() {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "end_time"}))
	}
	if fs == nil && bookingType.RequiresScreeningUID() && screeningUID == "" {
		fs = append(fs, NewFailure(CodeMissingRequiredData, map[string]any{"field": "screening_uid"}))
	}
	if fs != nil {
		return RoomSchedule{}, fs
	}

	if fs := s.IsAvailable(startTime, endTime); fs != nil {
		return RoomSchedule{}, fs
	}

	slot, fs := NewBookingSlot(screeningUID, startTime, endTime, bookingType)
	if fs != nil {
		return RoomSchedule{}, fs
	}

	return newSortedSchedule(append(s.copySlots(), slot)), nil
}

// RemoveBookingByID は指定IDの予約を除いた新しいスケジュールを返す
func (s RoomSchedule) RemoveBookingByID(bookingUID string) (RoomSchedule, Failures) {
	remaining := make([]BookingSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.uid != bookingUID {
			remaining = append(remaining, slot)
		}
	}
	if len(remaining) == len(s.slots) {
		return RoomSchedule{}, failuresOf(CodeBookingNotFoundInRoom, map[string]any{
			"booking_uid": bookingUID,
		})
	}
	return RoomSchedule{slots: remaining}, nil
}

// RemoveScreening は指定の上映に紐づく予約をすべて除いた新しいスケジュールを返す
// 上映本体と派生予約（入場・退場・清掃）がまとめて対象になる
func (s RoomSchedule) RemoveScreening(screeningUID string) (RoomSchedule, Failures) {
	remaining := make([]BookingSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.screeningUID != screeningUID {
			remaining = append(remaining, slot)
		}
	}
	if len(remaining) == len(s.slots) {
		return RoomSchedule{}, failuresOf(CodeBookingNotFoundForScreening, map[string]any{
			"screening_uid": screeningUID,
		})
	}
	return RoomSchedule{slots: remaining}, nil
}

// FreeSlotsFor は指定日の空き時間帯を検出する
// 営業時間に切り詰めた既存予約をマージし、グリッドに丸めた隙間のうち
// minMinutes 以上のものだけを返す
func (s RoomSchedule) FreeSlotsFor(date time.Time, minMinutes int) []TimeRange {
	if date.IsZero() || minMinutes <= 0 {
		return nil
	}

	year, month, day := date.Date()
	loc := date.Location()
	windowStart := time.Date(year, month, day, OperatingStartHour, 0, 0, 0, loc)
	windowEnd := time.Date(year, month, day, OperatingEndHour, 0, 0, 0, loc)

	// 指定日に開始する予約を営業時間に切り詰めて収集
	busy := make([]TimeRange, 0, len(s.slots))
	for _, slot := range s.slots {
		sy, sm, sd := slot.startTime.In(loc).Date()
		if sy != year || sm != month || sd != day {
			continue
		}
		start := slot.startTime
		end := slot.endTime
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.After(windowEnd) {
			end = windowEnd
		}
		if end.After(start) {
			busy = append(busy, TimeRange{StartTime: start, EndTime: end})
		}
	}

	merged := mergeRanges(busy)

	// マージ済みの使用中区間の隙間（先頭・末尾を含む）を走査する
	var free []TimeRange
	cursor := windowStart
	appendGap := func(gapStart, gapEnd time.Time) {
		gapStart = roundUpToGrid(gapStart)
		gapEnd = roundDownToGrid(gapEnd)
		if minutesBetween(gapStart, gapEnd) >= minMinutes {
			free = append(free, TimeRange{StartTime: gapStart, EndTime: gapEnd})
		}
	}
	for _, r := range merged {
		if r.StartTime.After(cursor) {
			appendGap(cursor, r.StartTime)
		}
		if r.EndTime.After(cursor) {
			cursor = r.EndTime
		}
	}
	if windowEnd.After(cursor) {
		appendGap(cursor, windowEnd)
	}
	return free
}

// mergeRanges は重なり・隣接する区間を統合する
func mergeRanges(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	merged := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !r.StartTime.After(last.EndTime) {
			if r.EndTime.After(last.EndTime) {
				last.EndTime = r.EndTime
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func roundUpToGrid(t time.Time) time.Time {
	grid := BookingTimeGridMinutes * time.Minute
	rounded := t.Truncate(grid)
	if rounded.Before(t) {
		rounded = rounded.Add(grid)
	}
	return rounded
}

func roundDownToGrid(t time.Time) time.Time {
	return t.Truncate(BookingTimeGridMinutes * time.Minute)
}

// Bookings は予約一覧のコピーを開始時刻の昇順で返す
func (s RoomSchedule) Bookings() []BookingSlot {
	return s.copySlots()
}

// AllBookingsData は永続化用のプレーン表現を返す
func (s RoomSchedule) AllBookingsData() []BookingData {
	data := make([]BookingData, len(s.slots))
	for i, slot := range s.slots {
		data[i] = slot.Data()
	}
	return data
}

// Len は予約件数を返す
func (s RoomSchedule) Len() int { return len(s.slots) }

// IsEmpty は予約が1件も無いかを返す
func (s RoomSchedule) IsEmpty() bool { return len(s.slots) == 0 }

func (s RoomSchedule) copySlots() []BookingSlot {
	slots := make([]BookingSlot, len(s.slots))
	copy(slots, s.slots)
	return slots
}
