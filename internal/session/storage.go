package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StorageKey names the persisted session record
const StorageKey = "auth-storage"

// TokenStorage persists the access token across restarts. Nothing but the
// token is stored; the user is always fetched again.
type TokenStorage interface {
	// Load returns "" when nothing is stored
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// record is the persisted shape: {"state":{"accessToken":"..."},"version":0}
type record struct {
	State struct {
		AccessToken string `json:"accessToken"`
	} `json:"state"`
	Version int `json:"version"`
}

func encodeRecord(token string) ([]byte, error) {
	var rec record
	rec.State.AccessToken = token
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (string, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", StorageKey, err)
	}
	return rec.State.AccessToken, nil
}

// MemoryStorage keeps the token in process memory
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStorage creates an empty memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns the held token
func (m *MemoryStorage) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save holds the token in memory
func (m *MemoryStorage) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear forgets the token
func (m *MemoryStorage) Clear(ctx context.Context) error {
	return m.Save(ctx, "")
}

// FileStorage keeps the record in a JSON file
type FileStorage struct {
	path string
}

// NewFileStorage stores the record at path. The directory is created on
// first save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFilePath returns <user config dir>/portfolio-sync/auth-storage.json
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "portfolio-sync", StorageKey+".json")
}

// Path returns the file location
func (f *FileStorage) Path() string {
	return f.path
}

// Load reads the session file; a missing file means no session
func (f *FileStorage) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}
	return decodeRecord(data)
}

// Save writes the session file with owner-only permissions
func (f *FileStorage) Save(ctx context.Context, token string) error {
	data, err := encodeRecord(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	// Write then rename so a crash never leaves a half-written record
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear removes the session file
func (f *FileStorage) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// RedisStorage keeps the record in Redis under <prefix>auth-storage, so
// several processes can share one login
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage creates a Redis backed storage
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, key: prefix + StorageKey}
}

// OpenRedis connects and pings a Redis server
func OpenRedis(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Key returns the Redis key in use
func (r *RedisStorage) Key() string {
	return r.key
}

// Load reads the record; a missing key means no session
func (r *RedisStorage) Load(ctx context.Context) (string, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session from redis: %w", err)
	}
	return decodeRecord(data)
}

// Save stores the record; it expires with the token when the token says when
func (r *RedisStorage) Save(ctx context.Context, token string) error {
	data, err := encodeRecord(token)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if exp, ok := ExpiresAt(token); ok {
		ttl = time.Until(exp)
		if ttl <= 0 {
			ttl = time.Second
		}
	}

	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Clear deletes the record
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session in redis: %w", err)
	}
	return nil
}
