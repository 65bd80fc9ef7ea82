package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
)

// RoomServiceInterface は上映室サービスのインターフェース
type RoomServiceInterface interface {
	CreateRoom(ctx context.Context, input application.CreateRoomInput) (room.Room, error)
	GetRoom(ctx context.Context, uid string) (room.Room, error)
	GetRoomByNumber(ctx context.Context, number int) (room.Room, error)
	ListRooms(ctx context.Context, limit, offset int) ([]room.Room, error)
	AddScreening(ctx context.Context, input application.AddScreeningInput) (room.Room, error)
	ScheduleCleaning(ctx context.Context, input application.ScheduleBookingInput) (room.Room, error)
	ScheduleMaintenance(ctx context.Context, input application.ScheduleBookingInput) (room.Room, error)
	RemoveScreening(ctx context.Context, roomUID, screeningUID string) (room.Room, error)
	RemoveBooking(ctx context.Context, roomUID, bookingUID string) (room.Room, error)
	ChangeRoomStatus(ctx context.Context, roomUID, status string) (room.Room, error)
	GetFreeSlots(ctx context.Context, roomUID string, date time.Time, minMinutes int) ([]room.TimeRange, error)
	DeleteRoom(ctx context.Context, uid string) error
}

// CustomerServiceInterface は顧客サービスのインターフェース
type CustomerServiceInterface interface {
	Register(ctx context.Context, input application.RegisterCustomerInput) (*customer.Customer, error)
	Get(ctx context.Context, id string) (*customer.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*customer.Customer, error)
	UpdateProfile(ctx context.Context, id, name string, birthDate time.Time) (*customer.Customer, error)
	AssignCPF(ctx context.Context, id, cpf string) (*customer.Customer, error)
	RemoveCPF(ctx context.Context, id string) (*customer.Customer, error)
	AssignStudentCard(ctx context.Context, id, institution, number string, expiresAt time.Time) (*customer.Customer, error)
	RemoveStudentCard(ctx context.Context, id string) (*customer.Customer, error)
	ChangeStatus(ctx context.Context, id string, status customer.Status) (*customer.Customer, error)
	Delete(ctx context.Context, id string) error
}
