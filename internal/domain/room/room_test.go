package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T) Room {
	t.Helper()
	layout, fs := NewSeatLayout(testLayoutConfigs())
	require.Nil(t, fs)
	r, fs := NewRoom(1, layout, Screen{Size: 200, Type: ScreenType2D3D})
	require.Nil(t, fs)
	return r
}

func TestNewRoom(t *testing.T) {
	layout, fs := NewSeatLayout(testLayoutConfigs())
	require.Nil(t, fs)

	t.Run("正常な上映室を作成できる", func(t *testing.T) {
		r, fs := NewRoom(42, layout, Screen{Size: 180, Type: ScreenType3D})
		require.Nil(t, fs)
		assert.NotEmpty(t, r.UID())
		assert.Equal(t, 42, r.Number())
		assert.Equal(t, StatusAvailable, r.Status())
		assert.True(t, r.Schedule().IsEmpty())
		assert.Equal(t, 0, r.Version())
	})

	t.Run("範囲外の番号はINVALID_ROOM_NUMBER", func(t *testing.T) {
		for _, number := range []int{0, -1, 101} {
			_, fs := NewRoom(number, layout, Screen{Size: 180, Type: ScreenType2D})
			require.NotNil(t, fs, "number=%d", number)
			assert.True(t, fs.Has(CodeInvalidRoomNumber), "number=%d", number)
		}
	})

	t.Run("未知の投影方式はINVALID_ENUM_VALUE", func(t *testing.T) {
		_, fs := NewRoom(1, layout, Screen{Size: 180, Type: ScreenType("IMAX")})
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeInvalidEnumValue))
	})

	t.Run("独立した違反は全件収集される", func(t *testing.T) {
		_, fs := NewRoom(0, SeatLayout{}, Screen{})
		require.NotNil(t, fs)
		assert.GreaterOrEqual(t, len(fs), 3)
	})
}

func TestRoom_AddScreening(t *testing.T) {
	t.Run("上映1本で4件の予約が隙間なく連結される", func(t *testing.T) {
		r := newTestRoom(t)
		start := futureDate(13, 0)

		next, fs := r.AddScreening("screening-1", start, 120)
		require.Nil(t, fs)

		bookings := next.Schedule().Bookings()
		require.Len(t, bookings, 4)
		assert.Equal(t, BookingTypeEntryTime, bookings[0].Type())
		assert.Equal(t, BookingTypeScreening, bookings[1].Type())
		assert.Equal(t, BookingTypeExitTime, bookings[2].Type())
		assert.Equal(t, BookingTypeCleaning, bookings[3].Type())

		// 各予約は前の予約の終了時刻から始まる
		for i := 1; i < len(bookings); i++ {
			assert.Equal(t, bookings[i-1].EndTime(), bookings[i].StartTime())
		}

		// 全体スパンは 15 + 120 + 15 + 30 = 180分
		total := bookings[3].EndTime().Sub(bookings[0].StartTime())
		assert.Equal(t, 180*time.Minute, total)

		// 派生予約もすべて同じ上映IDを持つ
		for _, b := range bookings {
			assert.Equal(t, "screening-1", b.ScreeningUID())
		}

		// 元のRoomは無変更
		assert.True(t, r.Schedule().IsEmpty())
	})

	t.Run("既存予約と重なる場合はROOM_PERIOD_UNAVAILABLE", func(t *testing.T) {
		r := newTestRoom(t)
		r, fs := r.AddScreening("screening-1", futureDate(10, 0), 90) // 10:00〜12:00 占有
		require.Nil(t, fs)

		_, fs = r.AddScreening("screening-2", futureDate(11, 0), 90)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeRoomPeriodUnavailable))
		assert.True(t, fs.Has(CodeRoomNotAvailableForPeriod))
		assert.Equal(t, 4, r.Schedule().Len()) // 部分的な登録は発生しない
	})

	t.Run("必須項目の欠落はMISSING_REQUIRED_DATA", func(t *testing.T) {
		r := newTestRoom(t)

		_, fs := r.AddScreening("", futureDate(13, 0), 120)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeMissingRequiredData))

		_, fs = r.AddScreening("screening-1", time.Time{}, 120)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeMissingRequiredData))

		_, fs = r.AddScreening("screening-1", futureDate(13, 0), 0)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeMissingRequiredData))
	})

	t.Run("営業時間外の開始はROOM_PERIOD_UNAVAILABLE", func(t *testing.T) {
		r := newTestRoom(t)
		_, fs := r.AddScreening("screening-1", futureDate(22, 0), 120)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeRoomPeriodUnavailable))
		assert.True(t, fs.Has(CodeRoomOperatingHoursViolation))
	})
}

func TestRoom_ScheduleCleaningAndMaintenance(t *testing.T) {
	t.Run("単発の清掃予約を登録できる", func(t *testing.T) {
		r := newTestRoom(t)
		next, fs := r.ScheduleCleaning(futureDate(14, 0), 45)
		require.Nil(t, fs)
		require.Equal(t, 1, next.Schedule().Len())
		booking := next.Schedule().Bookings()[0]
		assert.Equal(t, BookingTypeCleaning, booking.Type())
		assert.Empty(t, booking.ScreeningUID())
		assert.Equal(t, 45, booking.DurationInMinutes())
	})

	t.Run("単発のメンテナンス予約を登録できる", func(t *testing.T) {
		r := newTestRoom(t)
		next, fs := r.ScheduleMaintenance(futureDate(10, 0), 480)
		require.Nil(t, fs)
		require.Equal(t, 1, next.Schedule().Len())
		assert.Equal(t, BookingTypeMaintenance, next.Schedule().Bookings()[0].Type())
	})

	t.Run("所要時間の上限違反は区分別のコードになる", func(t *testing.T) {
		r := newTestRoom(t)
		_, fs := r.ScheduleCleaning(futureDate(10, 0), 121)
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeInvalidCleaningDuration))
	})
}

func TestRoom_ChangeStatus(t *testing.T) {
	t.Run("予約が無ければCLOSEDへ遷移できる", func(t *testing.T) {
		r := newTestRoom(t)
		next, fs := r.ChangeStatus("CLOSED")
		require.Nil(t, fs)
		assert.Equal(t, StatusClosed, next.Status())
		assert.Equal(t, StatusAvailable, r.Status()) // 元は無変更
	})

	t.Run("予約が残っている間はROOM_HAS_FUTURE_BOOKINGS", func(t *testing.T) {
		r := newTestRoom(t)
		r, fs := r.ScheduleCleaning(futureDate(14, 0), 30)
		require.Nil(t, fs)

		_, fs = r.ChangeStatus("CLOSED")
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeRoomHasFutureBookings))
	})

	t.Run("CLOSEDからAVAILABLEへは常に戻せる", func(t *testing.T) {
		r := newTestRoom(t)
		closed, fs := r.ChangeStatus("CLOSED")
		require.Nil(t, fs)

		reopened, fs := closed.ChangeStatus("AVAILABLE")
		require.Nil(t, fs)
		assert.Equal(t, StatusAvailable, reopened.Status())
	})

	t.Run("同一状態への変更は違反ではなく同じ内容を返す", func(t *testing.T) {
		r := newTestRoom(t)
		same, fs := r.ChangeStatus("AVAILABLE")
		require.Nil(t, fs)
		assert.Equal(t, r, same)
	})

	t.Run("空のトークンはMISSING_REQUIRED_DATA", func(t *testing.T) {
		r := newTestRoom(t)
		_, fs := r.ChangeStatus("")
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeMissingRequiredData))
	})

	t.Run("未知のトークンはINVALID_ENUM_VALUE", func(t *testing.T) {
		r := newTestRoom(t)
		_, fs := r.ChangeStatus("closed")
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeInvalidEnumValue))
	})
}

func TestRoom_RemoveOperations(t *testing.T) {
	t.Run("上映削除で派生予約もまとめて消える", func(t *testing.T) {
		r := newTestRoom(t)
		r, fs := r.AddScreening("screening-1", futureDate(13, 0), 120)
		require.Nil(t, fs)
		r, fs = r.ScheduleMaintenance(futureDate(19, 0), 60)
		require.Nil(t, fs)

		next, fs := r.RemoveScreening("screening-1")
		require.Nil(t, fs)
		require.Equal(t, 1, next.Schedule().Len())
		assert.Equal(t, BookingTypeMaintenance, next.Schedule().Bookings()[0].Type())
	})

	t.Run("予約IDを指定して1件だけ削除できる", func(t *testing.T) {
		r := newTestRoom(t)
		r, fs := r.ScheduleCleaning(futureDate(14, 0), 30)
		require.Nil(t, fs)
		uid := r.Schedule().Bookings()[0].UID()

		next, fs := r.RemoveBookingByID(uid)
		require.Nil(t, fs)
		assert.True(t, next.Schedule().IsEmpty())
	})

	t.Run("存在しない上映IDはBOOKING_NOT_FOUND_FOR_SCREENING", func(t *testing.T) {
		r := newTestRoom(t)
		_, fs := r.RemoveScreening("unknown")
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeBookingNotFoundForScreening))
	})
}

func TestHydrateRoom(t *testing.T) {
	t.Run("DataとHydrateで往復できる", func(t *testing.T) {
		r := newTestRoom(t)
		r, fs := r.AddScreening("screening-1", futureDate(13, 0), 120)
		require.Nil(t, fs)

		restored, err := HydrateRoom(r.Data())
		require.NoError(t, err)
		assert.Equal(t, r.Data(), restored.Data())
	})

	t.Run("uid欠損は技術エラー", func(t *testing.T) {
		data := newTestRoom(t).Data()
		data.UID = ""
		_, err := HydrateRoom(data)
		assert.ErrorIs(t, err, ErrCorruptedRoomData)
	})

	t.Run("不正な管理状態は技術エラー", func(t *testing.T) {
		data := newTestRoom(t).Data()
		data.Status = "UNKNOWN"
		_, err := HydrateRoom(data)
		assert.ErrorIs(t, err, ErrCorruptedRoomData)
	})
}

func TestParseStatusAndScreenType(t *testing.T) {
	t.Run("定義済みの管理状態を解析できる", func(t *testing.T) {
		for _, token := range []string{"AVAILABLE", "CLOSED"} {
			status, fs := ParseStatus(token)
			require.Nil(t, fs)
			assert.Equal(t, Status(token), status)
		}
	})

	t.Run("定義済みの投影方式を解析できる", func(t *testing.T) {
		for _, token := range []string{"2D", "3D", "2D_3D"} {
			st, fs := ParseScreenType(token)
			require.Nil(t, fs)
			assert.Equal(t, ScreenType(token), st)
		}
	})

	t.Run("未知の投影方式はINVALID_ENUM_VALUE", func(t *testing.T) {
		_, fs := ParseScreenType("4DX")
		require.NotNil(t, fs)
		assert.True(t, fs.Has(CodeInvalidEnumValue))
	})
}
