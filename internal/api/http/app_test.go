package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nextread/library-service/internal/api/http/handlers"
	"github.com/nextread/library-service/internal/auth"
	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/events"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/observability"
	"github.com/nextread/library-service/internal/persistence"
	"github.com/nextread/library-service/internal/repository"
	"github.com/nextread/library-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App:         config.AppConfig{Name: "library-test", RequestTimeoutSeconds: 5},
		Auth:        config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		Reservation: config.ReservationConfig{DefaultBorrowDays: 14, WaitDaysPerPosition: 14},
	}
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	locker := lock.NewLocalLocker()

	engine := service.NewReservationService(cfg.Reservation, service.ReservationDependencies{
		BookRepo:        store.Books(),
		UserRepo:        store.Users(),
		ReservationRepo: store.Reservations(),
		TxManager:       store.TxManager(),
		Locker:          locker,
		Dispatcher:      events.NewInMemoryDispatcher(logger),
		Logger:          logger,
	})
	books := service.NewBookService(service.BookDependencies{
		BookRepo:        store.Books(),
		ReservationRepo: store.Reservations(),
		TxManager:       store.TxManager(),
		Locker:          locker,
		Engine:          engine,
	})
	users := service.NewUserService(store.Users(), store.Reservations(), store.TxManager(), locker)
	authService := service.NewAuthService(cfg.Auth, store.Users())
	metrics := observability.NewMetrics()

	return NewApp(cfg, logger, metrics, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Books:          handlers.NewBooksHandler(books, engine),
		Users:          handlers.NewUsersHandler(users),
		Reservations:   handlers.NewReservationsHandler(engine),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
	})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type idOnly struct {
	ID int64 `json:"id"`
}

type reservationBody struct {
	ID            int64   `json:"id"`
	Status        string  `json:"status"`
	Position      *int    `json:"position"`
	EstimatedWait *string `json:"estimatedWait"`
}

type bookBody struct {
	ID              int64  `json:"id"`
	AvailableCopies int    `json:"availableCopies"`
	InQueue         int    `json:"inQueue"`
	Status          string `json:"status"`
}

func register(t *testing.T, app *fiber.App, name string) (int64, string) {
	t.Helper()
	status, env := call(t, app, nethttp.MethodPost, "/api/auth/register", map[string]any{
		"name": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	out := decode[struct {
		User idOnly `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env)
	return out.User.ID, out.Auth.Token
}

func TestReservationFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, nethttp.MethodPost, "/api/books", map[string]any{
		"title": "Dune", "author": "Herbert", "genre": "SciFi", "totalCopies": 1,
	})
	require.Equal(t, nethttp.StatusCreated, status)
	bookID := decode[bookBody](t, env).ID

	alice, _ := register(t, app, "alice")
	bob, _ := register(t, app, "bob")

	status, env = call(t, app, nethttp.MethodPost, "/api/reservations/reserve", map[string]any{"userId": alice, "bookId": bookID})
	require.Equal(t, nethttp.StatusCreated, status)
	first := decode[reservationBody](t, env)
	assert.Equal(t, "Active", first.Status)

	status, env = call(t, app, nethttp.MethodPost, "/api/reservations/reserve", map[string]any{"userId": bob, "bookId": bookID})
	require.Equal(t, nethttp.StatusCreated, status)
	second := decode[reservationBody](t, env)
	assert.Equal(t, "Queue", second.Status)
	require.NotNil(t, second.Position)
	assert.Equal(t, 1, *second.Position)
	assert.Equal(t, "14 Days", *second.EstimatedWait)

	status, env = call(t, app, nethttp.MethodPost, "/api/reservations/reserve", map[string]any{"userId": bob, "bookId": bookID})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_RESERVATION", env.Error.Code)

	status, env = call(t, app, nethttp.MethodGet, fmt.Sprintf("/api/books/%d/queue", bookID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, decode[[]reservationBody](t, env), 1)

	status, _ = call(t, app, nethttp.MethodDelete, fmt.Sprintf("/api/reservations/%d", first.ID), nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, env = call(t, app, nethttp.MethodGet, fmt.Sprintf("/api/reservations/%d", second.ID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	promoted := decode[reservationBody](t, env)
	assert.Equal(t, "Active", promoted.Status)
	assert.Nil(t, promoted.Position)

	status, env = call(t, app, nethttp.MethodGet, fmt.Sprintf("/api/books/%d", bookID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	book := decode[bookBody](t, env)
	assert.Equal(t, 0, book.AvailableCopies)
	assert.Equal(t, 0, book.InQueue)
	assert.Equal(t, "Out of Stock", book.Status)

	status, env = call(t, app, nethttp.MethodGet, fmt.Sprintf("/api/reservations/user/%d?status=Active", bob), nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, decode[[]reservationBody](t, env), 1)

	status, env = call(t, app, nethttp.MethodPut, fmt.Sprintf("/api/reservations/%d/return", second.ID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "History", decode[reservationBody](t, env).Status)

	status, env = call(t, app, nethttp.MethodPut, fmt.Sprintf("/api/reservations/%d/return", second.ID), nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "RESERVATION_NOT_ACTIVE", env.Error.Code)
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, nethttp.MethodGet, "/api/books/42", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = call(t, app, nethttp.MethodGet, "/api/books/abc", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = call(t, app, nethttp.MethodDelete, "/api/reservations/7", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)

	status, env = call(t, app, nethttp.MethodGet, "/api/reservations/user/1?status=Pending", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "status")

	status, env = call(t, app, nethttp.MethodPost, "/api/reservations/reserve", map[string]any{"bookId": 1})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "userId")

	status, _ = call(t, app, nethttp.MethodGet, "/no/such/route", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)
	id, token := register(t, app, "carol")

	status, env := call(t, app, nethttp.MethodPost, "/api/auth/register", map[string]any{
		"name": "Carol", "email": "carol@example.com", "password": "password123",
	})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "EMAIL_TAKEN", env.Error.Code)

	status, _ = call(t, app, nethttp.MethodPost, "/api/auth/login", map[string]any{"email": "carol@example.com", "password": "nope-nope"})
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, env = call(t, app, nethttp.MethodPost, "/api/auth/login", map[string]any{"email": "carol@example.com", "password": "password123"})
	require.Equal(t, nethttp.StatusOK, status)

	status, env = call(t, app, nethttp.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, id, decode[idOnly](t, env).ID)

	status, _ = call(t, app, nethttp.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
}

func TestUserAndBookDeletionGuards(t *testing.T) {
	app := newTestApp(t)

	_, env := call(t, app, nethttp.MethodPost, "/api/books", map[string]any{"title": "Emma", "author": "Austen", "totalCopies": 1})
	bookID := decode[bookBody](t, env).ID
	userID, _ := register(t, app, "dave")

	_, env = call(t, app, nethttp.MethodPost, "/api/reservations/reserve", map[string]any{"userId": userID, "bookId": bookID})
	resID := decode[reservationBody](t, env).ID

	status, _ := call(t, app, nethttp.MethodDelete, fmt.Sprintf("/api/books/%d", bookID), nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	status, _ = call(t, app, nethttp.MethodDelete, fmt.Sprintf("/api/users/%d", userID), nil)
	assert.Equal(t, nethttp.StatusConflict, status)

	status, _ = call(t, app, nethttp.MethodPut, fmt.Sprintf("/api/reservations/%d/return", resID), nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, _ = call(t, app, nethttp.MethodDelete, fmt.Sprintf("/api/users/%d", userID), nil)
	assert.Equal(t, nethttp.StatusOK, status)
	status, _ = call(t, app, nethttp.MethodDelete, fmt.Sprintf("/api/books/%d", bookID), nil)
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, nethttp.MethodGet, "/health/live", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, _ = call(t, app, nethttp.MethodGet, "/health/ready", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	call(t, app, nethttp.MethodGet, "/api/books/999", nil)
	status, env := call(t, app, nethttp.MethodGet, "/metrics", nil)
	require.Equal(t, nethttp.StatusOK, status)
	snap := decode[observability.Snapshot](t, env)
	assert.NotEmpty(t, snap.Requests)
	assert.NotEmpty(t, snap.Errors)
}
