package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdempotencyStore is an in-memory IdempotencyStore; TTLs are ignored
type fakeIdempotencyStore struct {
	mu      sync.Mutex
	data    map[string]string
	failing bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return goredis.NewStringResult("", errors.New("store unavailable"))
	}
	value, ok := s.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return goredis.NewStatusResult("", errors.New("store unavailable"))
	}
	s.data[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return goredis.NewBoolResult(false, errors.New("store unavailable"))
	}
	if _, ok := s.data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	s.data[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func idempotentRouter(store IdempotencyStore, handled *int) *gin.Engine {
	router := gin.New()
	router.Use(Idempotency(IdempotencyConfig{Store: store}))
	router.POST("/bookings", func(c *gin.Context) {
		*handled++
		c.JSON(http.StatusCreated, gin.H{"id": fmt.Sprintf("bk-%d", *handled)})
	})
	router.GET("/bookings", func(c *gin.Context) {
		*handled++
		c.JSON(http.StatusOK, gin.H{"count": *handled})
	})
	return router
}

func postBooking(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysKeyedRequest(t *testing.T) {
	handled := 0
	router := idempotentRouter(newFakeIdempotencyStore(), &handled)

	first := postBooking(router, "key-1", `{"room_type_id":"rt-1"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postBooking(router, "key-1", `{"room_type_id":"rt-1"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "the stored response is replayed")
	assert.Equal(t, 1, handled, "the handler runs once per key")
}

func TestIdempotency_WithoutKeyPassesThrough(t *testing.T) {
	handled := 0
	router := idempotentRouter(newFakeIdempotencyStore(), &handled)

	require.Equal(t, http.StatusCreated, postBooking(router, "", `{}`).Code)
	require.Equal(t, http.StatusCreated, postBooking(router, "", `{}`).Code)
	assert.Equal(t, 2, handled)
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	handled := 0
	router := idempotentRouter(newFakeIdempotencyStore(), &handled)

	require.Equal(t, http.StatusCreated, postBooking(router, "key-1", `{"units":1}`).Code)

	rec := postBooking(router, "key-1", `{"units":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, handled)
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	store := newFakeIdempotencyStore()
	handled := 0
	router := idempotentRouter(store, &handled)

	body := `{"units":1}`
	record, err := json.Marshal(idempotencyRecord{
		Key:         "key-1",
		Status:      idempotencyProcessing,
		RequestHash: requestHash(http.MethodPost, "/bookings", []byte(body)),
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	store.data[idempotencyKeyPrefix+"key-1"] = string(record)

	rec := postBooking(router, "key-1", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQUEST_IN_PROGRESS")
	assert.Equal(t, 0, handled)
}

func TestIdempotency_ReadsBypassReplay(t *testing.T) {
	handled := 0
	router := idempotentRouter(newFakeIdempotencyStore(), &handled)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, handled)
}

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.failing = true
	handled := 0
	router := idempotentRouter(store, &handled)

	require.Equal(t, http.StatusCreated, postBooking(router, "key-1", `{}`).Code)
	require.Equal(t, http.StatusCreated, postBooking(router, "key-1", `{}`).Code)
	assert.Equal(t, 2, handled)
}

func TestIdempotency_BodyStaysReadableDownstream(t *testing.T) {
	router := gin.New()
	router.Use(Idempotency(IdempotencyConfig{Store: newFakeIdempotencyStore()}))
	router.POST("/echo", func(c *gin.Context) {
		payload := map[string]string{}
		require.NoError(t, c.ShouldBindJSON(&payload))
		c.JSON(http.StatusOK, payload)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Mika"}`))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mika")
}
