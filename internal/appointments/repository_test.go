package appointments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryCreateAssignsID(t *testing.T) {
	repo := NewInMemoryRepository()
	input := validHomeVisit()

	created, err := repo.Create(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, input.ID, "caller's record must not be mutated")

	found, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PatientName, found.PatientName)
}

func TestInMemoryRepositoryRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRepository()
	bad := validHomeVisit()
	bad.Address = ""
	_, err := repo.Create(context.Background(), bad)
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestInMemoryRepositoryListByUserOrdersByDate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	for _, date := range []string{"2025-07-10", "2025-06-01", "2025-06-15"} {
		a := validHomeVisit()
		a.Date = date
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}
	other := validHomeVisit()
	other.UserID = "user-2"
	_, err := repo.Create(ctx, other)
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-06-01", list[0].Date)
	assert.Equal(t, "2025-06-15", list[1].Date)
	assert.Equal(t, "2025-07-10", list[2].Date)
}

func TestInMemoryRepositoryUpdateStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, validHomeVisit())
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, created.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	_, err = repo.UpdateStatus(ctx, created.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.UpdateStatus(ctx, "missing", StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryRepositorySetRoomURL(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, validHomeVisit())
	require.NoError(t, err)

	require.NoError(t, repo.SetRoomURL(ctx, created.ID, "https://medexa.daily.co/room"))
	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://medexa.daily.co/room", found.RoomURL)

	assert.ErrorIs(t, repo.SetRoomURL(ctx, "missing", "x"), ErrNotFound)
}
