package repo

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// Cache хранит списки досок и задач пользователя в Redis.
// Любая запись по пользователю сбрасывает оба ключа.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{redis: client, ttl: ttl}
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c == nil || c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// При ошибке redis идем в базу, не падаем
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c == nil || c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardsCacheKey(userID), tasksCacheKey(userID)).Result()
}

func boardsCacheKey(userID string) string {
	return "boards:" + userID
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

// CachedBoardRepo кэширует List, остальное проксирует
type CachedBoardRepo struct {
	BoardRepository
	cache *Cache
}

func NewCachedBoardRepo(base BoardRepository, cache *Cache) *CachedBoardRepo {
	if base == nil {
		panic("repo.NewCachedBoardRepo: base repository is nil")
	}
	return &CachedBoardRepo{BoardRepository: base, cache: cache}
}

func (r *CachedBoardRepo) List(ctx context.Context, userID string) ([]model.Board, error) {
	var boards []model.Board
	if r.cache.load(ctx, boardsCacheKey(userID), &boards) {
		return boards, nil
	}
	boards, err := r.BoardRepository.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.store(ctx, boardsCacheKey(userID), boards)
	return boards, nil
}

func (r *CachedBoardRepo) Create(ctx context.Context, b model.Board) (model.Board, error) {
	created, err := r.BoardRepository.Create(ctx, b)
	if err == nil {
		r.cache.evict(ctx, b.UserID)
	}
	return created, err
}

func (r *CachedBoardRepo) Update(ctx context.Context, b model.Board) (model.Board, error) {
	updated, err := r.BoardRepository.Update(ctx, b)
	if err == nil {
		r.cache.evict(ctx, b.UserID)
	}
	return updated, err
}

// Delete сбрасывает и задачи: они удалены каскадом
func (r *CachedBoardRepo) Delete(ctx context.Context, userID, id string) error {
	err := r.BoardRepository.Delete(ctx, userID, id)
	if err == nil {
		r.cache.evict(ctx, userID)
	}
	return err
}

// CachedTaskRepo кэширует List, остальное проксирует
type CachedTaskRepo struct {
	TaskRepository
	cache *Cache
}

func NewCachedTaskRepo(base TaskRepository, cache *Cache) *CachedTaskRepo {
	if base == nil {
		panic("repo.NewCachedTaskRepo: base repository is nil")
	}
	return &CachedTaskRepo{TaskRepository: base, cache: cache}
}

func (r *CachedTaskRepo) List(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if r.cache.load(ctx, tasksCacheKey(userID), &tasks) {
		return tasks, nil
	}
	tasks, err := r.TaskRepository.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.store(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

func (r *CachedTaskRepo) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	created, err := r.TaskRepository.Create(ctx, userID, t)
	if err == nil {
		r.cache.evict(ctx, userID)
	}
	return created, err
}

func (r *CachedTaskRepo) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	updated, err := r.TaskRepository.Update(ctx, userID, id, p)
	if err == nil {
		r.cache.evict(ctx, userID)
	}
	return updated, err
}

func (r *CachedTaskRepo) Delete(ctx context.Context, userID, id string) error {
	err := r.TaskRepository.Delete(ctx, userID, id)
	if err == nil {
		r.cache.evict(ctx, userID)
	}
	return err
}

func (r *CachedTaskRepo) RelocateOrphans(ctx context.Context, limit int) ([]model.TaskRelocation, error) {
	moved, err := r.TaskRepository.RelocateOrphans(ctx, limit)
	for _, m := range moved {
		r.cache.evict(ctx, m.UserID)
	}
	return moved, err
}
