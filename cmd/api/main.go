package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-room-management/internal/api"
	"github.com/sanosuguru/go-cinema-room-management/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-cinema-room-management/internal/api/middleware"
	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/config"
	"github.com/sanosuguru/go-cinema-room-management/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-cinema-room-management/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/metrics"
	"github.com/sanosuguru/go-cinema-room-management/internal/worker"
)

func main() {
	cfg := config.Load()
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションエラー", zap.Error(err))
	}

	// Redis接続
	redisClient, err := redisinfra.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Redis接続エラー", zap.Error(err))
	}
	defer redisClient.Close()

	// リポジトリ
	roomRepo := postgres.NewRoomRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)

	// 分散ロックと空き枠キャッシュ
	lockManager := redisinfra.NewLockManager(redisClient)
	slotCache := redisinfra.NewFreeSlotCache(redisClient, cfg.Scheduler.FreeSlotCacheTTL)

	// サービス
	roomService := application.NewRoomService(roomRepo, lockManager, slotCache, m, cfg.Scheduler.SaveRetries)
	customerService := application.NewCustomerService(customerRepo)

	// Echo インスタンス作成
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// ミドルウェア設定
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ハンドラー
	roomHandler := handler.NewRoomHandler(roomService)
	customerHandler := handler.NewCustomerHandler(customerService)
	healthHandler := handler.NewHealthHandler()

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")

	rooms := v1.Group("/rooms")
	rooms.POST("", roomHandler.Create)
	rooms.GET("", roomHandler.List)
	rooms.GET("/number/:number", roomHandler.GetByNumber)
	rooms.GET("/:id", roomHandler.GetByUID)
	rooms.DELETE("/:id", roomHandler.Delete)
	rooms.PATCH("/:id/status", roomHandler.ChangeStatus)
	rooms.POST("/:id/screenings", roomHandler.AddScreening)
	rooms.DELETE("/:id/screenings/:screeningId", roomHandler.RemoveScreening)
	rooms.POST("/:id/cleanings", roomHandler.ScheduleCleaning)
	rooms.POST("/:id/maintenances", roomHandler.ScheduleMaintenance)
	rooms.DELETE("/:id/bookings/:bookingId", roomHandler.RemoveBooking)
	rooms.GET("/:id/free-slots", roomHandler.GetFreeSlots)

	customers := v1.Group("/customers")
	customers.POST("", customerHandler.Register)
	customers.GET("", customerHandler.List)
	customers.GET("/:id", customerHandler.GetByID)
	customers.PUT("/:id", customerHandler.UpdateProfile)
	customers.DELETE("/:id", customerHandler.Delete)
	customers.PATCH("/:id/status", customerHandler.ChangeStatus)
	customers.PUT("/:id/cpf", customerHandler.AssignCPF)
	customers.DELETE("/:id/cpf", customerHandler.RemoveCPF)
	customers.PUT("/:id/student-card", customerHandler.AssignStudentCard)
	customers.DELETE("/:id/student-card", customerHandler.RemoveStudentCard)

	// 過去予約プルーナー起動
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	pruner := worker.NewPastBookingPruner(roomService, cfg.Worker.PruneInterval, cfg.Worker.BookingRetention)
	go pruner.Start(workerCtx)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカー停止
	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
