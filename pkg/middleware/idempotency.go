package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyKeyHeader carries the client-chosen idempotency key
const IdempotencyKeyHeader = "X-Idempotency-Key"

const idempotencyKeyPrefix = "idempotency:"

type idempotencyStatus string

const (
	idempotencyProcessing idempotencyStatus = "processing"
	idempotencyCompleted  idempotencyStatus = "completed"
)

// idempotencyRecord is the stored outcome of a keyed request
type idempotencyRecord struct {
	Key          string            `json:"key"`
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// IdempotencyStore is the Redis subset the middleware needs
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// IdempotencyConfig holds idempotent-replay settings
type IdempotencyConfig struct {
	Store IdempotencyStore
	// TTL keeps completed responses replayable for network retries
	TTL time.Duration
	// ProcessingTTL bounds how long an in-flight key blocks a duplicate
	ProcessingTTL time.Duration
}

// Idempotency replays the stored response for a repeated mutating request
// carrying the same X-Idempotency-Key. Requests without the header pass
// through untouched, as do reads; store errors fail open. Reusing a key with
// a different request body is rejected.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.ProcessingTTL <= 0 {
		config.ProcessingTTL = time.Minute
	}

	return func(c *gin.Context) {
		if config.Store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}
		hash := requestHash(c.Request.Method, c.Request.URL.Path, body)
		storeKey := idempotencyKeyPrefix + key

		ctx := c.Request.Context()
		existing, err := loadRecord(ctx, config.Store, storeKey)
		if err != nil && !errors.Is(err, goredis.Nil) {
			c.Next()
			return
		}
		if existing != nil {
			replayRecord(c, existing, hash)
			return
		}

		record := &idempotencyRecord{
			Key:         key,
			Status:      idempotencyProcessing,
			RequestHash: hash,
			CreatedAt:   time.Now().UTC(),
		}
		if !claimKey(ctx, config.Store, storeKey, record, config.ProcessingTTL) {
			// another request claimed the key between our read and write
			existing, err := loadRecord(ctx, config.Store, storeKey)
			if err == nil && existing != nil {
				replayRecord(c, existing, hash)
				return
			}
			c.Next()
			return
		}

		rw := &replayWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw

		c.Next()

		now := time.Now().UTC()
		record.Status = idempotencyCompleted
		record.ResponseCode = rw.Status()
		record.ResponseBody = rw.body.String()
		record.CompletedAt = &now
		if data, err := json.Marshal(record); err == nil {
			config.Store.Set(ctx, storeKey, string(data), config.TTL)
		}
	}
}

// replayRecord answers from the stored record: mismatched payloads are
// rejected, in-flight keys conflict, completed ones replay the response.
func replayRecord(c *gin.Context, record *idempotencyRecord, hash string) {
	if record.RequestHash != hash {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "IDEMPOTENCY_KEY_REUSED",
			"message": "idempotency key was already used with a different request",
		})
		return
	}
	if record.Status == idempotencyProcessing {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":   "REQUEST_IN_PROGRESS",
			"message": "a request with this idempotency key is still being processed",
		})
		return
	}
	c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
	c.Abort()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func loadRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	raw, err := store.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	record := &idempotencyRecord{}
	if err := json.Unmarshal([]byte(raw), record); err != nil {
		return nil, err
	}
	return record, nil
}

func claimKey(ctx context.Context, store IdempotencyStore, key string, record *idempotencyRecord, ttl time.Duration) bool {
	data, err := json.Marshal(record)
	if err != nil {
		return false
	}
	ok, err := store.SetNX(ctx, key, string(data), ttl).Result()
	if err != nil {
		return false
	}
	return ok
}

// replayWriter captures the response body for later replay
type replayWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *replayWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *replayWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
