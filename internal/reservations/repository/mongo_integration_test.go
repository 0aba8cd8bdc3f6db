//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mongoMigration "rsvp/internal/migrations/mongo"
	"rsvp/internal/reservations/conflict"
	"rsvp/internal/reservations/repository"
	"rsvp/pkg/client"
	"rsvp/pkg/config"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
)

// Requires a replica set, e.g. MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
func newMongoRepo(t *testing.T) repository.Repository {
	t.Helper()

	uri := os.Getenv(config.EnvMongoURI)
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx := context.Background()
	mc, err := client.ConnectMongo(ctx, uri, 10*time.Second)
	require.NoError(t, err)

	dbName := fmt.Sprintf("rsvp_test_%d", time.Now().UnixNano())
	require.NoError(t, mongoMigration.RunMigration(ctx, mc.Database(dbName), logger.Discard()))

	t.Cleanup(func() {
		_ = mc.Database(dbName).Drop(context.Background())
		_ = mc.Disconnect(context.Background())
	})

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Client:            &client.Client{Mongo: mc},
	}
	return repository.NewMongoRepository(cfg)
}

var at = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func window(user, resource string, from, to int) *model.Reservation {
	return model.NewPendingReservation(user, resource, at.Add(time.Duration(from)*time.Hour), at.Add(time.Duration(to)*time.Hour), "")
}

func TestMongo_InsertGetAndOverlap(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, window("alice", "room-1", 0, 2))
	require.NoError(t, err)
	assert.Positive(t, first.ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = repo.Insert(ctx, window("bob", "room-1", 1, 3))
	var ce *repository.ConstraintError
	require.True(t, errors.As(err, &ce), "expected ConstraintError, got %v", err)
	assert.True(t, ce.IsReservationOverlap())

	parsed, ok := conflict.Parse(ce.Detail).(conflict.Parsed)
	require.True(t, ok)
	assert.True(t, parsed.Conflict.Old.Start.Equal(first.Start))

	_, err = repo.Insert(ctx, window("bob", "room-1", 2, 3))
	assert.NoError(t, err, "touching windows do not overlap")
}

func TestMongo_ConcurrentWritersOneWinner(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()

	const writers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		overlaps int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Insert(ctx, window(fmt.Sprintf("user-%d", i), "room-9", 0, 1))
			mu.Lock()
			defer mu.Unlock()
			var ce *repository.ConstraintError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &ce):
				overlaps++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, overlaps)
}

func TestMongo_ConfirmAndFilter(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		r, err := repo.Insert(ctx, window("carol", fmt.Sprintf("desk-%d", i), 0, 1))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	confirmed, err := repo.ConfirmPending(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)

	_, err = repo.ConfirmPending(ctx, ids[0])
	assert.ErrorIs(t, err, repository.ErrNoRows)

	rows, err := repo.Filter(ctx, repository.FilterParams{UserID: "carol", Status: model.StatusPending, Cursor: ids[1], Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ids[1], rows[0].ID)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err = repo.Get(ctx, ids[1])
	assert.ErrorIs(t, err, repository.ErrNoRows)
}
