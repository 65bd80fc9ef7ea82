package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
)

type RoomHandler struct {
	roomService RoomServiceInterface
}

func NewRoomHandler(roomService RoomServiceInterface) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

type SeatRowRequest struct {
	RowNumber               int      `json:"row_number" validate:"required" example:"1"`
	LastColumnLetter        string   `json:"last_column_letter" validate:"required" example:"J"`
	PreferentialSeatLetters []string `json:"preferential_seat_letters" example:"A,B"`
}

type CreateRoomRequest struct {
	Number     int              `json:"number" validate:"required,gte=1,lte=100" example:"5"`
	ScreenSize int              `json:"screen_size" validate:"required,gt=0" example:"200"`
	ScreenType string           `json:"screen_type" validate:"required" example:"2D_3D"`
	SeatRows   []SeatRowRequest `json:"seat_rows" validate:"required,min=1,dive"`
}

type AddScreeningRequest struct {
	ScreeningUID      string `json:"screening_uid" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartTime         string `json:"start_time" validate:"required" example:"2026-09-15T10:00:00Z"`
	DurationInMinutes int    `json:"duration_in_minutes" validate:"required,gt=0" example:"120"`
}

type ScheduleBookingRequest struct {
	StartTime         string `json:"start_time" validate:"required" example:"2026-09-15T10:00:00Z"`
	DurationInMinutes int    `json:"duration_in_minutes" validate:"required,gt=0" example:"60"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required" example:"CLOSED"`
}

type BookingResponse struct {
	UID               string `json:"uid"`
	ScreeningUID      string `json:"screening_uid,omitempty"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	BookingType       string `json:"booking_type"`
	DurationInMinutes int    `json:"duration_in_minutes"`
}

type ScreenResponse struct {
	Size int    `json:"size"`
	Type string `json:"type"`
}

type SeatRowResponse struct {
	RowNumber               int      `json:"row_number"`
	LastColumnLetter        string   `json:"last_column_letter"`
	Capacity                int      `json:"capacity"`
	PreferentialSeatLetters []string `json:"preferential_seat_letters,omitempty"`
}

type RoomResponse struct {
	UID           string            `json:"uid"`
	Number        int               `json:"number"`
	Screen        ScreenResponse    `json:"screen"`
	SeatRows      []SeatRowResponse `json:"seat_rows"`
	TotalCapacity int               `json:"total_capacity"`
	Status        string            `json:"status"`
	Bookings      []BookingResponse `json:"bookings"`
	Version       int               `json:"version"`
}

type FreeSlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toRoomResponse(r room.Room) *RoomResponse {
	rows := r.Layout().Rows()
	seatRows := make([]SeatRowResponse, len(rows))
	for i, row := range rows {
		seatRows[i] = SeatRowResponse{
			RowNumber:               row.RowNumber(),
			LastColumnLetter:        row.LastColumnLetter(),
			Capacity:                row.Capacity(),
			PreferentialSeatLetters: row.PreferentialSeatLetters(),
		}
	}

	slots := r.Schedule().Bookings()
	bookings := make([]BookingResponse, len(slots))
	for i, slot := range slots {
		bookings[i] = BookingResponse{
			UID:               slot.UID(),
			ScreeningUID:      slot.ScreeningUID(),
			StartTime:         slot.StartTime().Format(time.RFC3339),
			EndTime:           slot.EndTime().Format(time.RFC3339),
			BookingType:       string(slot.Type()),
			DurationInMinutes: slot.DurationInMinutes(),
		}
	}

	return &RoomResponse{
		UID:    r.UID(),
		Number: r.Number(),
		Screen: ScreenResponse{
			Size: r.Screen().Size,
			Type: string(r.Screen().Type),
		},
		SeatRows:      seatRows,
		TotalCapacity: r.Layout().TotalCapacity(),
		Status:        string(r.Status()),
		Bookings:      bookings,
		Version:       r.Version(),
	}
}

// Create godoc
// @Summary 上映室を作成
// @Description 座席レイアウトとスクリーン仕様を指定して上映室を作成します
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body CreateRoomRequest true "上映室情報"
// @Success 201 {object} RoomResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms [post]
func (h *RoomHandler) Create(c echo.Context) error {
	var req CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	seatRows := make([]room.SeatRowConfig, len(req.SeatRows))
	for i, row := range req.SeatRows {
		seatRows[i] = room.SeatRowConfig{
			RowNumber:               row.RowNumber,
			LastColumnLetter:        row.LastColumnLetter,
			PreferentialSeatLetters: row.PreferentialSeatLetters,
		}
	}

	rm, err := h.roomService.CreateRoom(c.Request().Context(), application.CreateRoomInput{
		Number:     req.Number,
		ScreenSize: req.ScreenSize,
		ScreenType: req.ScreenType,
		SeatRows:   seatRows,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoomResponse(rm))
}

// GetByUID godoc
// @Summary 上映室を取得
// @Tags rooms
// @Produce json
// @Param id path string true "上映室ID"
// @Success 200 {object} RoomResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetByUID(c echo.Context) error {
	rm, err := h.roomService.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// GetByNumber godoc
// @Summary 上映室番号から上映室を取得
// @Tags rooms
// @Produce json
// @Param number path int true "上映室番号"
// @Success 200 {object} RoomResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/number/{number} [get]
func (h *RoomHandler) GetByNumber(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "上映室番号の形式が不正です"})
	}
	rm, err := h.roomService.GetRoomByNumber(c.Request().Context(), number)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// List godoc
// @Summary 上映室一覧を取得
// @Tags rooms
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} RoomResponse
// @Router /rooms [get]
func (h *RoomHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	rooms, err := h.roomService.ListRooms(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	responses := make([]*RoomResponse, len(rooms))
	for i, rm := range rooms {
		responses[i] = toRoomResponse(rm)
	}
	return c.JSON(http.StatusOK, responses)
}

// AddScreening godoc
// @Summary 上映を登録
// @Description 上映1本と入場・退場・清掃の派生予約をまとめて登録します
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param request body AddScreeningRequest true "上映情報"
// @Success 201 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/screenings [post]
func (h *RoomHandler) AddScreening(c echo.Context) error {
	var req AddScreeningRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "開始時刻の形式が不正です"})
	}

	rm, err := h.roomService.AddScreening(c.Request().Context(), application.AddScreeningInput{
		RoomUID:           c.Param("id"),
		ScreeningUID:      req.ScreeningUID,
		StartTime:         startTime,
		DurationInMinutes: req.DurationInMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoomResponse(rm))
}

// ScheduleCleaning godoc
// @Summary 清掃予約を登録
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param request body ScheduleBookingRequest true "清掃予約情報"
// @Success 201 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/cleanings [post]
func (h *RoomHandler) ScheduleCleaning(c echo.Context) error {
	return h.scheduleBooking(c, h.roomService.ScheduleCleaning)
}

// ScheduleMaintenance godoc
// @Summary メンテナンス予約を登録
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param request body ScheduleBookingRequest true "メンテナンス予約情報"
// @Success 201 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/maintenances [post]
func (h *RoomHandler) ScheduleMaintenance(c echo.Context) error {
	return h.scheduleBooking(c, h.roomService.ScheduleMaintenance)
}

func (h *RoomHandler) scheduleBooking(c echo.Context, schedule func(ctx context.Context, input application.ScheduleBookingInput) (room.Room, error)) error {
	var req ScheduleBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "開始時刻の形式が不正です"})
	}

	rm, err := schedule(c.Request().Context(), application.ScheduleBookingInput{
		RoomUID:           c.Param("id"),
		StartTime:         startTime,
		DurationInMinutes: req.DurationInMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoomResponse(rm))
}

// RemoveScreening godoc
// @Summary 上映を削除
// @Description 上映本体と派生予約をまとめて取り除きます
// @Tags rooms
// @Param id path string true "上映室ID"
// @Param screeningId path string true "上映ID"
// @Success 200 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/screenings/{screeningId} [delete]
func (h *RoomHandler) RemoveScreening(c echo.Context) error {
	rm, err := h.roomService.RemoveScreening(c.Request().Context(), c.Param("id"), c.Param("screeningId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// RemoveBooking godoc
// @Summary 予約を削除
// @Tags rooms
// @Param id path string true "上映室ID"
// @Param bookingId path string true "予約ID"
// @Success 200 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/bookings/{bookingId} [delete]
func (h *RoomHandler) RemoveBooking(c echo.Context) error {
	rm, err := h.roomService.RemoveBooking(c.Request().Context(), c.Param("id"), c.Param("bookingId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// ChangeStatus godoc
// @Summary 上映室の管理状態を変更
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param request body ChangeStatusRequest true "変更後の状態"
// @Success 200 {object} RoomResponse
// @Failure 422 {object} api.FailuresResponse
// @Router /rooms/{id}/status [patch]
func (h *RoomHandler) ChangeStatus(c echo.Context) error {
	var req ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rm, err := h.roomService.ChangeRoomStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// GetFreeSlots godoc
// @Summary 空き時間帯を取得
// @Description 指定日の営業時間内で予約可能な時間帯を返します
// @Tags rooms
// @Produce json
// @Param id path string true "上映室ID"
// @Param date query string true "対象日 (YYYY-MM-DD)"
// @Param min_minutes query int false "最低時間（分）" default(60)
// @Success 200 {array} FreeSlotResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/{id}/free-slots [get]
func (h *RoomHandler) GetFreeSlots(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "対象日の形式が不正です"})
	}
	minMinutes, _ := strconv.Atoi(c.QueryParam("min_minutes"))
	if minMinutes <= 0 {
		minMinutes = 60
	}

	slots, err := h.roomService.GetFreeSlots(c.Request().Context(), c.Param("id"), date, minMinutes)
	if err != nil {
		return err
	}

	responses := make([]FreeSlotResponse, len(slots))
	for i, slot := range slots {
		responses[i] = FreeSlotResponse{
			StartTime: slot.StartTime.Format(time.RFC3339),
			EndTime:   slot.EndTime.Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, responses)
}

// Delete godoc
// @Summary 上映室を削除
// @Tags rooms
// @Param id path string true "上映室ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/{id} [delete]
func (h *RoomHandler) Delete(c echo.Context) error {
	if err := h.roomService.DeleteRoom(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
