package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/redis/go-redis/v9"
)

const publicTendersTTL = 30 * time.Second

// Client оборачивает redis-клиент для кеширования публичной выдачи тендеров.
// Кеш сквозной: промах уходит в базу, любая запись тендера сбрасывает ключи.
type Client struct {
	client *redis.Client
}

// NewClient создает новый redis-клиент и проверяет соединение.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

func listKey(limit, offset int) string {
	return fmt.Sprintf("tenders:public:%d:%d", limit, offset)
}

// GetPublicTenders возвращает закешированную страницу публичной выдачи.
// Промах кеша - (nil, nil), решение об источнике данных за вызывающим.
func (c *Client) GetPublicTenders(ctx context.Context, limit, offset int) ([]models.Tender, error) {
	payload, err := c.client.Get(ctx, listKey(limit, offset)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tenders []models.Tender
	if err = json.Unmarshal(payload, &tenders); err != nil {
		return nil, fmt.Errorf("failed to decode cached tenders: %w", err)
	}
	return tenders, nil
}

// SetPublicTenders кладёт страницу публичной выдачи в кеш с коротким TTL.
func (c *Client) SetPublicTenders(ctx context.Context, limit, offset int, tenders []models.Tender) error {
	payload, err := json.Marshal(tenders)
	if err != nil {
		return fmt.Errorf("failed to encode tenders for cache: %w", err)
	}
	return c.client.Set(ctx, listKey(limit, offset), payload, publicTendersTTL).Err()
}

// InvalidatePublicTenders сбрасывает все страницы публичной выдачи.
// Вызывается после любой записи тендера.
func (c *Client) InvalidatePublicTenders(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "tenders:public:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close закрывает соединение с redis.
func (c *Client) Close() error {
	return c.client.Close()
}
