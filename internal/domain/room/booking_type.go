package room

// BookingType は予約区分を表す
type BookingType string

const (
	BookingTypeEntryTime   BookingType = "ENTRY_TIME"
	BookingTypeScreening   BookingType = "SCREENING"
	BookingTypeExitTime    BookingType = "EXIT_TIME"
	BookingTypeCleaning    BookingType = "CLEANING"
	BookingTypeMaintenance BookingType = "MAINTENANCE"
)

// durationBounds は予約区分ごとの所要時間の下限・上限（分）
type durationBounds struct {
	min int
	max int
}

var bookingDurationBounds = map[BookingType]durationBounds{
	BookingTypeEntryTime:   {min: 1, max: 60},
	BookingTypeScreening:   {min: 30, max: 360},
	BookingTypeExitTime:    {min: 1, max: 60},
	BookingTypeCleaning:    {min: 1, max: 120},
	BookingTypeMaintenance: {min: 1, max: 4320},
}

var durationFailureCodes = map[BookingType]FailureCode{
	BookingTypeEntryTime:   CodeInvalidEntryTimeDuration,
	BookingTypeScreening:   CodeInvalidScreeningDuration,
	BookingTypeExitTime:    CodeInvalidExitTimeDuration,
	BookingTypeCleaning:    CodeInvalidCleaningDuration,
	BookingTypeMaintenance: CodeInvalidMaintenanceDuration,
}

// ParseBookingType は文字列を予約区分に変換する
// 未知のトークンは既定値に倒さず違反として返す
func ParseBookingType(token string) (BookingType, Failures) {
	if token == "" {
		return "", failuresOf(CodeMissingRequiredData, map[string]any{"field": "booking_type"})
	}
	t := BookingType(token)
	if !t.IsValid() {
		return "", failuresOf(CodeInvalidBookingType, map[string]any{"value": token})
	}
	return t, nil
}

// IsValid は定義済みの予約区分かを返す
func (t BookingType) IsValid() bool {
	_, ok := bookingDurationBounds[t]
	return ok
}

// RequiresScreeningUID は上映IDが必須の区分かを返す
func (t BookingType) RequiresScreeningUID() bool {
	return t == BookingTypeScreening
}

// bounds は区分の所要時間制約を返す
func (t BookingType) bounds() durationBounds {
	return bookingDurationBounds[t]
}

// durationFailureCode は所要時間違反時の違反コードを返す
func (t BookingType) durationFailureCode() FailureCode {
	return durationFailureCodes[t]
}
