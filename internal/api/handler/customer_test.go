package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-cinema-room-management/internal/application"
	"github.com/sanosuguru/go-cinema-room-management/internal/domain/customer"
)

// MockCustomerService はCustomerServiceInterfaceのモック
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Register(ctx context.Context, input application.RegisterCustomerInput) (*customer.Customer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, id string) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, limit, offset int) ([]*customer.Customer, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) UpdateProfile(ctx context.Context, id, name string, birthDate time.Time) (*customer.Customer, error) {
	args := m.Called(ctx, id, name, birthDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) AssignCPF(ctx context.Context, id, cpf string) (*customer.Customer, error) {
	args := m.Called(ctx, id, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) RemoveCPF(ctx context.Context, id string) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) AssignStudentCard(ctx context.Context, id, institution, number string, expiresAt time.Time) (*customer.Customer, error) {
	args := m.Called(ctx, id, institution, number, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) RemoveStudentCard(ctx context.Context, id string) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) ChangeStatus(ctx context.Context, id string, status customer.Status) (*customer.Customer, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newHandlerTestCustomer() *customer.Customer {
	now := time.Now()
	return &customer.Customer{
		ID:        "customer-1",
		Name:      "山田太郎",
		Email:     "taro@example.com",
		BirthDate: time.Date(1990, time.April, 1, 0, 0, 0, 0, time.UTC),
		Status:    customer.StatusPendingVerification,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCustomerHandler_Register(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に顧客を登録できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()

		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterCustomerInput")).
			Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		reqBody := `{
			"name": "山田太郎",
			"email": "taro@example.com",
			"birth_date": "1990-04-01",
			"password": "s3cret-password"
		}`
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Register(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "customer-1", resp.ID)
		assert.Equal(t, "山田太郎", resp.Name)
		assert.Equal(t, "PENDING_VERIFICATION", resp.Status)
		assert.Empty(t, resp.CPF)

		mockService.AssertExpectations(t)
	})

	t.Run("不正なリクエスト形式で400", func(t *testing.T) {
		mockService := new(MockCustomerService)
		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader("invalid json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Register(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("不正な生年月日形式で400", func(t *testing.T) {
		mockService := new(MockCustomerService)
		handler := NewCustomerHandler(mockService)

		reqBody := `{
			"name": "山田太郎",
			"email": "taro@example.com",
			"birth_date": "01/04/1990",
			"password": "s3cret-password"
		}`
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Register(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("短すぎるパスワードはバリデーションエラー", func(t *testing.T) {
		mockService := new(MockCustomerService)
		handler := NewCustomerHandler(mockService)

		reqBody := `{
			"name": "山田太郎",
			"email": "taro@example.com",
			"birth_date": "1990-04-01",
			"password": "short"
		}`
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Register(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("メールアドレスが重複している場合はErrEmailAlreadyTaken", func(t *testing.T) {
		mockService := new(MockCustomerService)
		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterCustomerInput")).
			Return(nil, customer.ErrEmailAlreadyTaken)

		handler := NewCustomerHandler(mockService)

		reqBody := `{
			"name": "山田太郎",
			"email": "taro@example.com",
			"birth_date": "1990-04-01",
			"password": "s3cret-password"
		}`
		req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Register(c)

		require.Error(t, err)
		assert.ErrorIs(t, err, customer.ErrEmailAlreadyTaken)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に顧客を取得できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()

		mockService.On("Get", mock.Anything, "customer-1").Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/customers/customer-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "customer-1", resp.ID)
		assert.Equal(t, "1990-04-01", resp.BirthDate)

		mockService.AssertExpectations(t)
	})

	t.Run("顧客が見つからない場合はErrCustomerNotFound", func(t *testing.T) {
		mockService := new(MockCustomerService)
		mockService.On("Get", mock.Anything, "nonexistent").Return(nil, customer.ErrCustomerNotFound)

		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/customers/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.GetByID(c)

		require.Error(t, err)
		assert.ErrorIs(t, err, customer.ErrCustomerNotFound)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に顧客一覧を取得できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		customers := []*customer.Customer{
			newHandlerTestCustomer(),
			{
				ID:        "customer-2",
				Name:      "鈴木花子",
				Email:     "hanako@example.com",
				BirthDate: time.Date(1995, time.October, 20, 0, 0, 0, 0, time.UTC),
				Status:    customer.StatusActive,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
		}

		mockService.On("List", mock.Anything, 0, 0).Return(customers, nil)

		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []*CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 2)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_UpdateProfile(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にプロフィールを更新できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()
		expected.Name = "山田次郎"

		mockService.On("UpdateProfile", mock.Anything, "customer-1", "山田次郎", expected.BirthDate).
			Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"name": "山田次郎", "birth_date": "1990-04-01"}`
		req := httptest.NewRequest(http.MethodPut, "/customers/customer-1", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.UpdateProfile(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "山田次郎", resp.Name)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_AssignCPF(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にCPFを登録できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()
		cpf, err := customer.ParseCPF("529.982.247-25")
		require.NoError(t, err)
		expected.CPF = &cpf

		mockService.On("AssignCPF", mock.Anything, "customer-1", "529.982.247-25").Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"cpf": "529.982.247-25"}`
		req := httptest.NewRequest(http.MethodPut, "/customers/customer-1/cpf", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err = handler.AssignCPF(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "529.982.247-25", resp.CPF)

		mockService.AssertExpectations(t)
	})

	t.Run("不正なCPFの場合はErrInvalidCPF", func(t *testing.T) {
		mockService := new(MockCustomerService)
		mockService.On("AssignCPF", mock.Anything, "customer-1", "12345678900").
			Return(nil, customer.ErrInvalidCPF)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"cpf": "12345678900"}`
		req := httptest.NewRequest(http.MethodPut, "/customers/customer-1/cpf", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.AssignCPF(c)

		require.Error(t, err)
		assert.ErrorIs(t, err, customer.ErrInvalidCPF)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_RemoveCPF(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にCPFを削除できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()

		mockService.On("RemoveCPF", mock.Anything, "customer-1").Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/customers/customer-1/cpf", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.RemoveCPF(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_AssignStudentCard(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に学生証を登録できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()
		expiresAt := time.Date(2027, time.March, 31, 0, 0, 0, 0, time.UTC)
		expected.StudentCard = &customer.StudentCard{
			Institution: "東京大学",
			Number:      "S-12345",
			ExpiresAt:   expiresAt,
		}

		mockService.On("AssignStudentCard", mock.Anything, "customer-1", "東京大学", "S-12345", expiresAt).
			Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"institution": "東京大学", "number": "S-12345", "expires_at": "2027-03-31"}`
		req := httptest.NewRequest(http.MethodPut, "/customers/customer-1/student-card", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.AssignStudentCard(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.NotNil(t, resp.StudentCard)
		assert.Equal(t, "東京大学", resp.StudentCard.Institution)
		assert.Equal(t, "2027-03-31", resp.StudentCard.ExpiresAt)

		mockService.AssertExpectations(t)
	})

	t.Run("不正な有効期限形式で400", func(t *testing.T) {
		mockService := new(MockCustomerService)
		handler := NewCustomerHandler(mockService)

		reqBody := `{"institution": "東京大学", "number": "S-12345", "expires_at": "invalid-date"}`
		req := httptest.NewRequest(http.MethodPut, "/customers/customer-1/student-card", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.AssignStudentCard(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCustomerHandler_ChangeStatus(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にアカウント状態を変更できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		expected := newHandlerTestCustomer()
		expected.Status = customer.StatusActive

		mockService.On("ChangeStatus", mock.Anything, "customer-1", customer.StatusActive).
			Return(expected, nil)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"status": "ACTIVE"}`
		req := httptest.NewRequest(http.MethodPatch, "/customers/customer-1/status", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.ChangeStatus(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CustomerResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", resp.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("許可されない遷移の場合はErrInvalidStatusTransition", func(t *testing.T) {
		mockService := new(MockCustomerService)
		mockService.On("ChangeStatus", mock.Anything, "customer-1", customer.StatusSuspended).
			Return(nil, customer.ErrInvalidStatusTransition)

		handler := NewCustomerHandler(mockService)

		reqBody := `{"status": "SUSPENDED"}`
		req := httptest.NewRequest(http.MethodPatch, "/customers/customer-1/status", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.ChangeStatus(c)

		require.Error(t, err)
		assert.ErrorIs(t, err, customer.ErrInvalidStatusTransition)

		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandler_Delete(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に顧客を削除できる", func(t *testing.T) {
		mockService := new(MockCustomerService)
		mockService.On("Delete", mock.Anything, "customer-1").Return(nil)

		handler := NewCustomerHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/customers/customer-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("customer-1")

		err := handler.Delete(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		mockService.AssertExpectations(t)
	})
}
