package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyedMutex serializes critical sections per string key. The absence
// check-then-commit pair for a (group, date) tuple runs under one of these.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex builds an empty keyed mutex table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that was never
// locked panics, same as sync.Mutex.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	m.Unlock()
}

// RunLock provides exclusive named locks for batch executions. When a Redis
// client is available the lock is taken with SET NX so exclusivity holds
// across processes; otherwise a process-local table is used.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	local map[string]string
}

// NewRunLock builds a run lock manager. client may be nil.
func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunLock{client: client, ttl: ttl, local: make(map[string]string)}
}

// Acquire takes the named lock for the given owner token. It returns false
// when another owner already holds it.
func (r *RunLock) Acquire(ctx context.Context, name, owner string) (bool, error) {
	if r.client != nil {
		ok, err := r.client.SetNX(ctx, r.key(name), owner, r.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("acquire run lock %s: %w", name, err)
		}
		return ok, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.local[name]; held {
		return false, nil
	}
	r.local[name] = owner
	return true, nil
}

// Release drops the named lock if the owner still holds it.
func (r *RunLock) Release(ctx context.Context, name, owner string) error {
	if r.client != nil {
		held, err := r.client.Get(ctx, r.key(name)).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("release run lock %s: %w", name, err)
		}
		if held != owner {
			return nil
		}
		return r.client.Del(ctx, r.key(name)).Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local[name] == owner {
		delete(r.local, name)
	}
	return nil
}

func (r *RunLock) key(name string) string {
	return "runlock:" + name
}
