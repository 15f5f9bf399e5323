package item

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Lua scripts keep the existence check and the write in one round trip.
var (
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], 'name', ARGV[2], 'description', ARGV[3])
redis.call('SADD', KEYS[2], ARGV[1])
return 1`)

	updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'description', ARGV[2])
return 1`)

	deleteScript = redis.NewScript(`
if redis.call('DEL', KEYS[1]) == 0 then return 0 end
redis.call('SREM', KEYS[2], ARGV[1])
return 1`)
)

// RedisRepository stores each item as a hash under "<prefix>:item:<id>" and
// tracks IDs in the set "<prefix>:items".
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-backed item repository.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) itemKey(id string) string {
	return r.prefix + ":item:" + id
}

func (r *RedisRepository) indexKey() string {
	return r.prefix + ":items"
}

// Create stores it unless its ID is taken.
func (r *RedisRepository) Create(ctx context.Context, it Item) error {
	ok, err := createScript.Run(ctx, r.client,
		[]string{r.itemKey(it.ID), r.indexKey()},
		it.ID, it.Name, it.Description,
	).Int()
	if err != nil {
		return fmt.Errorf("inserting item %s: %w", it.ID, err)
	}
	if ok == 0 {
		return ErrItemExists
	}
	return nil
}

// Get retrieves an item by ID.
func (r *RedisRepository) Get(ctx context.Context, id string) (Item, error) {
	fields, err := r.client.HGetAll(ctx, r.itemKey(id)).Result()
	if err != nil {
		return Item{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Item{}, ErrItemNotFound
	}
	return Item{ID: id, Name: fields["name"], Description: fields["description"]}, nil
}

// List returns every item ordered by name, then ID.
func (r *RedisRepository) List(ctx context.Context) ([]Item, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing item ids: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.itemKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]Item, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // deleted between SMEMBERS and HGETALL
		}
		items = append(items, Item{ID: ids[i], Name: fields["name"], Description: fields["description"]})
	}

	sortItems(items)
	return items, nil
}

// Update replaces name and description of the item with it.ID.
func (r *RedisRepository) Update(ctx context.Context, it Item) error {
	ok, err := updateScript.Run(ctx, r.client, []string{r.itemKey(it.ID)}, it.Name, it.Description).Int()
	if err != nil {
		return fmt.Errorf("updating item %s: %w", it.ID, err)
	}
	if ok == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes the item with id.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	ok, err := deleteScript.Run(ctx, r.client, []string{r.itemKey(id), r.indexKey()}, id).Int()
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	if ok == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Count returns the number of stored items.
func (r *RedisRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return int(n), nil
}
