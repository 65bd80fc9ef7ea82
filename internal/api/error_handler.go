package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
	"github.com/sanosuguru/go-cinema-room-management/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// FailureDetail はドメイン検証違反1件分の表現
type FailureDetail struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// FailuresResponse はドメイン検証違反のレスポンス
type FailuresResponse struct {
	Errors []FailureDetail `json:"errors"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ドメインの検証違反は422、存在しないリソースは404、競合は409に対応づける
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// ドメイン検証違反は違反コードの一覧をそのまま返す
	var fs room.Failures
	if errors.As(err, &fs) {
		details := make([]FailureDetail, len(fs))
		for i, f := range fs {
			details[i] = FailureDetail{Code: string(f.Code), Details: f.Details}
		}
		if err := c.JSON(http.StatusUnprocessableEntity, FailuresResponse{Errors: details}); err != nil {
			logger.Error("エラーレスポンス送信失敗", zap.Error(err))
		}
		return
	}

	code := http.StatusInternalServerError
	message := "内部サーバーエラー"

	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, customer.ErrCustomerNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, room.ErrRoomNumberTaken),
		errors.Is(err, room.ErrOptimisticLockConflict),
		errors.Is(err, customer.ErrEmailAlreadyTaken),
		errors.Is(err, customer.ErrOptimisticLockConflict),
		errors.Is(err, customer.ErrCPFAlreadyAssigned),
		errors.Is(err, customer.ErrInvalidStatusTransition),
		errors.Is(err, application.ErrRoomBusy):
		code = http.StatusConflict
		message = err.Error()
	case isCustomerValidationError(err):
		code = http.StatusBadRequest
		message = err.Error()
	default:
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}
	}

	// 5xx エラーの場合のみログを出力
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func isCustomerValidationError(err error) bool {
	for _, target := range []error{
		customer.ErrNameRequired,
		customer.ErrEmailRequired,
		customer.ErrInvalidEmail,
		customer.ErrBirthDateRequired,
		customer.ErrCustomerTooYoung,
		customer.ErrInvalidCPF,
		customer.ErrCPFNotAssigned,
		customer.ErrStudentCardExpired,
		customer.ErrStudentCardIncomplete,
		customer.ErrStudentCardNotAssigned,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
