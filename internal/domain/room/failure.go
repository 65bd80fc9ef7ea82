package room

import (
	"fmt"
	"strings"
)

// FailureCode は業務ルール違反の種別を表す
type FailureCode string

const (
	CodeMissingRequiredData         FailureCode = "MISSING_REQUIRED_DATA"
	CodeDateCannotBePast            FailureCode = "DATE_CANNOT_BE_PAST"
	CodeDateWithInvalidSequence     FailureCode = "DATE_WITH_INVALID_SEQUENCE"
	CodeInvalidBookingType          FailureCode = "INVALID_BOOKING_TYPE"
	CodeInvalidScreeningDuration    FailureCode = "INVALID_SCREENING_DURATION"
	CodeInvalidCleaningDuration     FailureCode = "INVALID_CLEANING_DURATION"
	CodeInvalidMaintenanceDuration  FailureCode = "INVALID_MAINTENANCE_DURATION"
	CodeInvalidEntryTimeDuration    FailureCode = "INVALID_ENTRY_TIME_DURATION"
	CodeInvalidExitTimeDuration     FailureCode = "INVALID_EXIT_TIME_DURATION"
	CodeRoomOperatingHoursViolation FailureCode = "ROOM_OPERATING_HOURS_VIOLATION"
	CodeInvalidBookingTimeInterval  FailureCode = "INVALID_BOOKING_TIME_INTERVAL"
	CodeRoomNotAvailableForPeriod   FailureCode = "ROOM_NOT_AVAILABLE_FOR_PERIOD"
	CodeRoomPeriodUnavailable       FailureCode = "ROOM_PERIOD_UNAVAILABLE"
	CodeBookingNotFoundInRoom       FailureCode = "BOOKING_NOT_FOUND_IN_ROOM"
	CodeBookingNotFoundForScreening FailureCode = "BOOKING_NOT_FOUND_FOR_SCREENING"
	CodeRoomHasFutureBookings       FailureCode = "ROOM_HAS_FUTURE_BOOKINGS"
	CodeInvalidEnumValue            FailureCode = "INVALID_ENUM_VALUE"
	CodeInvalidRoomNumber           FailureCode = "INVALID_ROOM_NUMBER"
	CodeInvalidSeatRow              FailureCode = "INVALID_SEAT_ROW"
	CodeDuplicatedSeatRow           FailureCode = "DUPLICATED_SEAT_ROW"
	CodeInvalidPreferentialSeat     FailureCode = "INVALID_PREFERENTIAL_SEAT"
)

// Failure は業務ルール違反1件を表す
// Details には違反した値や制約などの補足情報が入る
type Failure struct {
	Code    FailureCode
	Details map[string]any
}

// NewFailure は新しいFailureを作成する
func NewFailure(code FailureCode, details map[string]any) Failure {
	return Failure{Code: code, Details: details}
}

// Failures は業務ルール違反の集合を表す
// 例外ではなく戻り値として呼び出し元に返される（nil なら違反なし）
type Failures []Failure

// Error は error インターフェースを満たす
func (fs Failures) Error() string {
	codes := make([]string, len(fs))
	for i, f := range fs {
		codes[i] = string(f.Code)
	}
	return fmt.Sprintf("業務ルール違反: %s", strings.Join(codes, ", "))
}

// Has は指定コードの違反が含まれるかを返す
func (fs Failures) Has(code FailureCode) bool {
	for _, f := range fs {
		if f.Code == code {
			return true
		}
	}
	return false
}

// failuresOf は単一の違反からFailuresを作成するヘルパー
func failuresOf(code FailureCode, details map[string]any) Failures {
	return Failures{NewFailure(code, details)}
}
