package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-cinema-room-management/internal/domain/room"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// FreeSlotCacheInterface は空き時間帯キャッシュのインターフェース
type FreeSlotCacheInterface interface {
	Get(ctx context.Context, roomUID string, date time.Time, minMinutes int) ([]room.TimeRange, error)
	Set(ctx context.Context, roomUID string, date time.Time, minMinutes int, slots []room.TimeRange) error
	InvalidateRoom(ctx context.Context, roomUID string) error
}

// FreeSlotCache は空き時間帯の計算結果をキャッシュする
// キーは (上映室, 日付, 最低時間) の組で、スケジュール変更時に上映室単位で無効化する
type FreeSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFreeSlotCache は新しいFreeSlotCacheインスタンスを作成する
func NewFreeSlotCache(client *redis.Client, ttl time.Duration) *FreeSlotCache {
	return &FreeSlotCache{client: client, ttl: ttl}
}

// Get はキャッシュから空き時間帯を取得する
func (c *FreeSlotCache) Get(ctx context.Context, roomUID string, date time.Time, minMinutes int) ([]room.TimeRange, error) {
	val, err := c.client.Get(ctx, c.key(roomUID, date, minMinutes)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var slots []room.TimeRange
	if err := json.Unmarshal(val, &slots); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return slots, nil
}

// Set は空き時間帯をキャッシュに保存する
func (c *FreeSlotCache) Set(ctx context.Context, roomUID string, date time.Time, minMinutes int, slots []room.TimeRange) error {
	val, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("キャッシュのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.key(roomUID, date, minMinutes), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// InvalidateRoom は上映室に関するキャッシュをすべて無効化する
func (c *FreeSlotCache) InvalidateRoom(ctx context.Context, roomUID string) error {
	pattern := fmt.Sprintf("freeslots:%s:*", roomUID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("キャッシュ走査に失敗: %w", err)
	}
	return nil
}

func (c *FreeSlotCache) key(roomUID string, date time.Time, minMinutes int) string {
	return fmt.Sprintf("freeslots:%s:%s:%d", roomUID, date.Format("2006-01-02"), minMinutes)
}

// インターフェースを満たしているか確認
var _ FreeSlotCacheInterface = (*FreeSlotCache)(nil)
