package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
)

type CustomerHandler struct {
	customerService CustomerServiceInterface
}

func NewCustomerHandler(customerService CustomerServiceInterface) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

type RegisterCustomerRequest struct {
	Name      string `json:"name" validate:"required" example:"山田太郎"`
	Email     string `json:"email" validate:"required,email" example:"taro@example.com"`
	BirthDate string `json:"birth_date" validate:"required" example:"1990-04-01"`
	Password  string `json:"password" validate:"required,min=8" example:"s3cret-password"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required" example:"山田太郎"`
	BirthDate string `json:"birth_date" validate:"required" example:"1990-04-01"`
}

type AssignCPFRequest struct {
	CPF string `json:"cpf" validate:"required" example:"529.982.247-25"`
}

type AssignStudentCardRequest struct {
	Institution string `json:"institution" validate:"required" example:"東京大学"`
	Number      string `json:"number" validate:"required" example:"S-12345"`
	ExpiresAt   string `json:"expires_at" validate:"required" example:"2027-03-31"`
}

type ChangeCustomerStatusRequest struct {
	Status string `json:"status" validate:"required" example:"ACTIVE"`
}

type StudentCardResponse struct {
	Institution string `json:"institution"`
	Number      string `json:"number"`
	ExpiresAt   string `json:"expires_at"`
}

type CustomerResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	BirthDate   string               `json:"birth_date"`
	CPF         string               `json:"cpf,omitempty"`
	StudentCard *StudentCardResponse `json:"student_card,omitempty"`
	Status      string               `json:"status"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

func toCustomerResponse(c *customer.Customer) *CustomerResponse {
	resp := &CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		BirthDate: c.BirthDate.Format("2006-01-02"),
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if c.CPF != nil {
		resp.CPF = c.CPF.Formatted()
	}
	if c.StudentCard != nil {
		resp.StudentCard = &StudentCardResponse{
			Institution: c.StudentCard.Institution,
			Number:      c.StudentCard.Number,
			ExpiresAt:   c.StudentCard.ExpiresAt.Format("2006-01-02"),
		}
	}
	return resp
}

// Register godoc
// @Summary 顧客を登録
// @Tags customers
// @Accept json
// @Produce json
// @Param request body RegisterCustomerRequest true "顧客情報"
// @Success 201 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /customers [post]
func (h *CustomerHandler) Register(c echo.Context) error {
	var req RegisterCustomerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "生年月日の形式が不正です"})
	}

	created, err := h.customerService.Register(c.Request().Context(), application.RegisterCustomerInput{
		Name:      req.Name,
		Email:     req.Email,
		BirthDate: birthDate,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCustomerResponse(created))
}

// GetByID godoc
// @Summary 顧客を取得
// @Tags customers
// @Produce json
// @Param id path string true "顧客ID"
// @Success 200 {object} CustomerResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(c echo.Context) error {
	result, err := h.customerService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// List godoc
// @Summary 顧客一覧を取得
// @Tags customers
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} CustomerResponse
// @Router /customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	customers, err := h.customerService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	responses := make([]*CustomerResponse, len(customers))
	for i, result := range customers {
		responses[i] = toCustomerResponse(result)
	}
	return c.JSON(http.StatusOK, responses)
}

// UpdateProfile godoc
// @Summary 顧客プロフィールを更新
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "顧客ID"
// @Param request body UpdateProfileRequest true "プロフィール情報"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "生年月日の形式が不正です"})
	}

	result, err := h.customerService.UpdateProfile(c.Request().Context(), c.Param("id"), req.Name, birthDate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// AssignCPF godoc
// @Summary CPFを登録
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "顧客ID"
// @Param request body AssignCPFRequest true "CPF"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /customers/{id}/cpf [put]
func (h *CustomerHandler) AssignCPF(c echo.Context) error {
	var req AssignCPFRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.customerService.AssignCPF(c.Request().Context(), c.Param("id"), req.CPF)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// RemoveCPF godoc
// @Summary CPFを削除
// @Tags customers
// @Param id path string true "顧客ID"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /customers/{id}/cpf [delete]
func (h *CustomerHandler) RemoveCPF(c echo.Context) error {
	result, err := h.customerService.RemoveCPF(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// AssignStudentCard godoc
// @Summary 学生証を登録
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "顧客ID"
// @Param request body AssignStudentCardRequest true "学生証情報"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /customers/{id}/student-card [put]
func (h *CustomerHandler) AssignStudentCard(c echo.Context) error {
	var req AssignStudentCardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	expiresAt, err := time.Parse("2006-01-02", req.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "有効期限の形式が不正です"})
	}

	result, err := h.customerService.AssignStudentCard(c.Request().Context(), c.Param("id"), req.Institution, req.Number, expiresAt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// RemoveStudentCard godoc
// @Summary 学生証を削除
// @Tags customers
// @Param id path string true "顧客ID"
// @Success 200 {object} CustomerResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /customers/{id}/student-card [delete]
func (h *CustomerHandler) RemoveStudentCard(c echo.Context) error {
	result, err := h.customerService.RemoveStudentCard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// ChangeStatus godoc
// @Summary 顧客アカウントの状態を変更
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "顧客ID"
// @Param request body ChangeCustomerStatusRequest true "変更後の状態"
// @Success 200 {object} CustomerResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /customers/{id}/status [patch]
func (h *CustomerHandler) ChangeStatus(c echo.Context) error {
	var req ChangeCustomerStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.customerService.ChangeStatus(c.Request().Context(), c.Param("id"), customer.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(result))
}

// Delete godoc
// @Summary 顧客を削除
// @Tags customers
// @Param id path string true "顧客ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	if err := h.customerService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
