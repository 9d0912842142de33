//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/nextread/library-service/internal/domain"
	"github.com/nextread/library-service/internal/persistence"
)

// Run with: go test -tags integration ./internal/repository/...
// Docker must be reachable.

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "library",
				"POSTGRES_PASSWORD": "library",
				"POSTGRES_DB":       "library",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://library:library@%s:%s/library?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	require.NoError(t, persistence.RunMigrations(ctx, pool, migrationsDir(t), zap.NewNop()))
	return pool
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	pool := startPostgres(t)
	ctx := context.Background()
	books := NewBookRepository(pool)
	users := NewUserRepository(pool)
	reservations := NewReservationRepository(pool)
	tx := NewTxManager(pool)

	t.Run("books", func(t *testing.T) {
		book := &domain.Book{Title: "Dune", Author: "Herbert", Genre: "Sci-Fi", TotalCopies: 2}
		book.SetAvailability(2)
		require.NoError(t, books.Save(ctx, book))
		require.NotZero(t, book.ID)

		got, err := books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableCopies)
		assert.Equal(t, domain.BookStatusAvailable, got.Status)

		got.AdjustAvailability(-2)
		require.NoError(t, books.Save(ctx, got))
		again, err := books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookStatusOutOfStock, again.Status)

		scifi, err := books.FindByGenre(ctx, "Sci-Fi")
		require.NoError(t, err)
		assert.Len(t, scifi, 1)

		_, err = books.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, books.Save(ctx, &domain.Book{ID: 9999, Status: domain.BookStatusAvailable}), ErrNotFound)
	})

	t.Run("users", func(t *testing.T) {
		alice := &domain.User{Name: "Alice", Email: "alice@uni.edu", PasswordHash: "x",
			Role: domain.UserRoleStudent, MembershipStatus: domain.MembershipActive, JoinDate: time.Now()}
		require.NoError(t, users.Save(ctx, alice))

		err := users.Save(ctx, &domain.User{Name: "Clone", Email: "alice@uni.edu", PasswordHash: "x",
			Role: domain.UserRoleStudent, MembershipStatus: domain.MembershipActive, JoinDate: time.Now()})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		bob := &domain.User{Name: "Bob", Email: "bob@uni.edu", PasswordHash: "x",
			Role: domain.UserRoleStudent, MembershipStatus: domain.MembershipActive, JoinDate: time.Now()}
		require.NoError(t, users.Save(ctx, bob))
		bob.Email = "alice@uni.edu"
		assert.ErrorIs(t, users.Save(ctx, bob), ErrDuplicateEmail)

		got, err := users.GetByEmail(ctx, "alice@uni.edu")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		_, err = users.GetByEmail(ctx, "nobody@uni.edu")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, users.Save(ctx, &domain.User{ID: 9999, Email: "ghost@uni.edu"}), ErrNotFound)
	})

	t.Run("reservations keep nullable columns", func(t *testing.T) {
		book := &domain.Book{Title: "Emma", TotalCopies: 1}
		book.SetAvailability(1)
		require.NoError(t, books.Save(ctx, book))
		user := &domain.User{Name: "Cara", Email: "cara@uni.edu", PasswordHash: "x",
			Role: domain.UserRoleStudent, MembershipStatus: domain.MembershipActive, JoinDate: time.Now()}
		require.NoError(t, users.Save(ctx, user))

		reserved := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		queued := &domain.Reservation{UserID: user.ID, BookID: book.ID, ReservedDate: reserved}
		queued.Enqueue(2, 14)
		require.NoError(t, reservations.Save(ctx, queued))

		got, err := reservations.GetByID(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusQueue, got.Status)
		assert.Equal(t, 2, got.QueuePosition())
		require.NotNil(t, got.EstimatedWait)
		assert.Equal(t, "28 Days", *got.EstimatedWait)
		assert.Nil(t, got.DueDate)
		assert.True(t, reserved.Equal(got.ReservedDate))

		due := reserved.AddDate(0, 0, 14)
		got.Activate(due)
		require.NoError(t, reservations.Save(ctx, got))
		active, err := reservations.FindByBookAndStatus(ctx, book.ID, domain.ReservationStatusActive)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Nil(t, active[0].Position)
		assert.Nil(t, active[0].EstimatedWait)
		require.NotNil(t, active[0].DueDate)
		assert.True(t, due.Equal(*active[0].DueDate))

		mine, err := reservations.FindByUserAndStatus(ctx, user.ID, domain.ReservationStatusActive)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		assert.Error(t, users.Delete(ctx, user.ID), "open reservations block the delete")
		require.NoError(t, reservations.DeleteByUser(ctx, user.ID))
		require.NoError(t, users.Delete(ctx, user.ID))

		assert.ErrorIs(t, reservations.Save(ctx, &domain.Reservation{ID: 9999, UserID: user.ID, BookID: book.ID,
			Status: domain.ReservationStatusHistory}), ErrNotFound)
	})

	t.Run("transaction travels through ctx", func(t *testing.T) {
		book := &domain.Book{Title: "Ubik", TotalCopies: 1}
		book.SetAvailability(1)
		require.NoError(t, books.Save(ctx, book))

		boom := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			book.AdjustAvailability(-1)
			if err := books.Save(ctx, book); err != nil {
				return err
			}
			inside, err := books.GetByID(ctx, book.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, 0, inside.AvailableCopies, "reads in the tx see its writes")

			return tx.WithinTx(ctx, func(ctx context.Context) error {
				return boom
			})
		})
		assert.ErrorIs(t, err, boom)

		after, err := books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, after.AvailableCopies, "rolled back")

		require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
			after.AdjustAvailability(-1)
			return books.Save(ctx, after)
		}))
		committed, err := books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, committed.AvailableCopies)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, persistence.RunMigrations(ctx, pool, migrationsDir(t), zap.NewNop()))
	})
}
