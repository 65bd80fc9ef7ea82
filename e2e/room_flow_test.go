package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// e2eFutureTime は翌年3月15日の指定時刻（営業時間内・常に未来）を返す
func e2eFutureTime(hour, minute int) time.Time {
	return time.Date(time.Now().Year()+1, time.March, 15, hour, minute, 0, 0, time.UTC)
}

func newRoomBody(number int) map[string]interface{} {
	return map[string]interface{}{
		"number":      number,
		"screen_size": 200,
		"screen_type": "2D_3D",
		"seat_rows": []map[string]interface{}{
			{"row_number": 1, "last_column_letter": "J", "preferential_seat_letters": []string{"A", "B"}},
			{"row_number": 2, "last_column_letter": "J"},
		},
	}
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request("GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

// TestE2E_CompleteScreeningJourney は上映室作成から上映登録・削除までの一連の流れをテスト
func TestE2E_CompleteScreeningJourney(t *testing.T) {
	server := getTestServer(t)

	var roomUID string
	screeningUID := "aa0e8400-e29b-41d4-a716-446655440001"
	startTime := e2eFutureTime(13, 0)

	// 1. 上映室作成
	t.Run("上映室作成", func(t *testing.T) {
		rec := server.Request("POST", "/api/v1/rooms", newRoomBody(5))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		roomUID = resp["uid"].(string)
		assert.NotEmpty(t, roomUID)
		assert.Equal(t, float64(20), resp["total_capacity"])
		assert.Equal(t, "AVAILABLE", resp["status"])
	})

	// 2. 上映室番号で取得
	t.Run("上映室番号で取得", func(t *testing.T) {
		rec := server.Request("GET", "/api/v1/rooms/number/5", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, roomUID, resp["uid"])
	})

	// 3. 上映登録（派生予約込みで4件）
	t.Run("上映登録", func(t *testing.T) {
		body := map[string]interface{}{
			"screening_uid":       screeningUID,
			"start_time":          startTime.Format(time.RFC3339),
			"duration_in_minutes": 90,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/screenings", roomUID), body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		bookings := resp["bookings"].([]interface{})
		assert.Len(t, bookings, 4)
	})

	// 4. 重複する時間帯の上映は拒否される
	t.Run("重複する上映は422", func(t *testing.T) {
		body := map[string]interface{}{
			"screening_uid":       "bb0e8400-e29b-41d4-a716-446655440002",
			"start_time":          e2eFutureTime(13, 30).Format(time.RFC3339),
			"duration_in_minutes": 60,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/screenings", roomUID), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NotEmpty(t, resp["errors"])
	})

	// 5. 空き時間帯の確認（上映ブロックの前後が返る）
	t.Run("空き時間帯確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/rooms/%s/free-slots?date=%s", roomUID, startTime.Format("2006-01-02"))
		rec := server.Request("GET", path, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		// 10:00〜13:00 と 15:30〜22:00 の2枠
		assert.Len(t, resp, 2)
	})

	// 6. 上映削除（派生予約もまとめて消える）
	t.Run("上映削除", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/rooms/%s/screenings/%s", roomUID, screeningUID)
		rec := server.Request("DELETE", path, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		bookings := resp["bookings"].([]interface{})
		assert.Empty(t, bookings)
	})

	// 7. 予約がなくなったのでCLOSEDに変更できる
	t.Run("CLOSEDへ変更", func(t *testing.T) {
		body := map[string]interface{}{"status": "CLOSED"}
		rec := server.Request("PATCH", fmt.Sprintf("/api/v1/rooms/%s/status", roomUID), body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "CLOSED", resp["status"])
	})
}

// TestE2E_RoomConflicts は上映室の競合をテスト
func TestE2E_RoomConflicts(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request("POST", "/api/v1/rooms", newRoomBody(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	var roomResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &roomResp)
	roomUID := roomResp["uid"].(string)

	t.Run("同じ上映室番号は409", func(t *testing.T) {
		rec := server.Request("POST", "/api/v1/rooms", newRoomBody(1))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("営業時間外の予約は422", func(t *testing.T) {
		body := map[string]interface{}{
			"start_time":          e2eFutureTime(8, 0).Format(time.RFC3339),
			"duration_in_minutes": 60,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/cleanings", roomUID), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("5分グリッドに乗らない予約は422", func(t *testing.T) {
		body := map[string]interface{}{
			"start_time":          e2eFutureTime(10, 2).Format(time.RFC3339),
			"duration_in_minutes": 60,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/maintenances", roomUID), body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("予約が残る上映室のCLOSED変更は422", func(t *testing.T) {
		body := map[string]interface{}{
			"start_time":          e2eFutureTime(10, 0).Format(time.RFC3339),
			"duration_in_minutes": 30,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/cleanings", roomUID), body)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = server.Request("PATCH", fmt.Sprintf("/api/v1/rooms/%s/status", roomUID), map[string]interface{}{"status": "CLOSED"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("存在しない上映室は404", func(t *testing.T) {
		rec := server.Request("GET", "/api/v1/rooms/00000000-0000-0000-0000-000000000000", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestE2E_SingleBookingAndRemoval は単発予約の登録と削除をテスト
func TestE2E_SingleBookingAndRemoval(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request("POST", "/api/v1/rooms", newRoomBody(2))
	require.Equal(t, http.StatusCreated, rec.Code)
	var roomResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &roomResp)
	roomUID := roomResp["uid"].(string)

	var bookingUID string

	t.Run("清掃予約を登録", func(t *testing.T) {
		body := map[string]interface{}{
			"start_time":          e2eFutureTime(11, 0).Format(time.RFC3339),
			"duration_in_minutes": 30,
		}
		rec := server.Request("POST", fmt.Sprintf("/api/v1/rooms/%s/cleanings", roomUID), body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		bookings := resp["bookings"].([]interface{})
		require.Len(t, bookings, 1)
		booking := bookings[0].(map[string]interface{})
		assert.Equal(t, "CLEANING", booking["booking_type"])
		bookingUID = booking["uid"].(string)
	})

	t.Run("予約IDで削除", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/rooms/%s/bookings/%s", roomUID, bookingUID)
		rec := server.Request("DELETE", path, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		bookings := resp["bookings"].([]interface{})
		assert.Empty(t, bookings)
	})

	t.Run("存在しない予約IDの削除は422", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/rooms/%s/bookings/%s", roomUID, "00000000-0000-0000-0000-000000000000")
		rec := server.Request("DELETE", path, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("上映室削除", func(t *testing.T) {
		rec := server.Request("DELETE", "/api/v1/rooms/"+roomUID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = server.Request("GET", "/api/v1/rooms/"+roomUID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestE2E_CustomerJourney は顧客登録から削除までの一連の流れをテスト
func TestE2E_CustomerJourney(t *testing.T) {
	server := getTestServer(t)

	var customerID string

	t.Run("顧客登録", func(t *testing.T) {
		body := map[string]interface{}{
			"name":       "山田太郎",
			"email":      "taro@example.com",
			"birth_date": "1990-04-01",
			"password":   "s3cret-password",
		}
		rec := server.Request("POST", "/api/v1/customers", body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		customerID = resp["id"].(string)
		assert.NotEmpty(t, customerID)
		assert.Equal(t, "PENDING_VERIFICATION", resp["status"])
	})

	t.Run("同じメールアドレスの登録は409", func(t *testing.T) {
		body := map[string]interface{}{
			"name":       "山田次郎",
			"email":      "taro@example.com",
			"birth_date": "1992-05-10",
			"password":   "another-password",
		}
		rec := server.Request("POST", "/api/v1/customers", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("アカウント有効化", func(t *testing.T) {
		body := map[string]interface{}{"status": "ACTIVE"}
		rec := server.Request("PATCH", fmt.Sprintf("/api/v1/customers/%s/status", customerID), body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "ACTIVE", resp["status"])
	})

	t.Run("CPF登録", func(t *testing.T) {
		body := map[string]interface{}{"cpf": "529.982.247-25"}
		rec := server.Request("PUT", fmt.Sprintf("/api/v1/customers/%s/cpf", customerID), body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "529.982.247-25", resp["cpf"])
	})

	t.Run("不正なCPFは400", func(t *testing.T) {
		body := map[string]interface{}{"cpf": "111.111.111-11"}
		rec := server.Request("PUT", fmt.Sprintf("/api/v1/customers/%s/cpf", customerID), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("学生証登録", func(t *testing.T) {
		body := map[string]interface{}{
			"institution": "東京大学",
			"number":      "S-12345",
			"expires_at":  time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		}
		rec := server.Request("PUT", fmt.Sprintf("/api/v1/customers/%s/student-card", customerID), body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NotNil(t, resp["student_card"])
	})

	t.Run("プロフィール更新", func(t *testing.T) {
		body := map[string]interface{}{
			"name":       "山田太郎（改名）",
			"birth_date": "1990-04-01",
		}
		rec := server.Request("PUT", "/api/v1/customers/"+customerID, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "山田太郎（改名）", resp["name"])
	})

	t.Run("顧客削除", func(t *testing.T) {
		rec := server.Request("DELETE", "/api/v1/customers/"+customerID, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = server.Request("GET", "/api/v1/customers/"+customerID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
