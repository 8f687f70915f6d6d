package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTrip(ctx context.Context, trip *types.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockRepository) UpdateTripStatus(ctx context.Context, tripID uuid.UUID, status types.TripStatus) error {
	args := m.Called(ctx, tripID, status)
	return args.Error(0)
}

func (m *MockRepository) UpsertTripDay(ctx context.Context, day *types.TripDay) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *MockRepository) InsertActivity(ctx context.Context, activity *types.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockRepository) GetTripTree(ctx context.Context, tripID uuid.UUID) (*types.TripTree, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripTree), args.Error(1)
}

func (m *MockRepository) MarkShared(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

func fallbackDays(req types.TripRequest) []types.TripDay {
	days := make([]types.TripDay, 0, req.Days)
	for _, d := range FallbackItinerary(req).Itinerary {
		day := types.TripDay{DayNumber: d.Day, Date: req.DayDate(d.Day)}
		for j, a := range d.Activities {
			day.Activities = append(day.Activities, types.Activity{Position: j + 1, TimeOfDay: a.Time, Title: a.Title, Cost: a.Cost})
		}
		days = append(days, day)
	}
	return days
}

func TestPersister_Persist(t *testing.T) {
	ctx := context.Background()
	req := parisRequest()
	tripID := uuid.New()

	t.Run("writes every day and activity", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*types.Trip")).
			Run(func(args mock.Arguments) { args.Get(1).(*types.Trip).ID = tripID }).
			Return(nil).Once()
		repo.On("UpsertTripDay", mock.Anything, mock.AnythingOfType("*types.TripDay")).
			Run(func(args mock.Arguments) { args.Get(1).(*types.TripDay).ID = uuid.New() }).
			Return(nil).Times(5)
		repo.On("InsertActivity", mock.Anything, mock.AnythingOfType("*types.Activity")).Return(nil).Times(20)

		days := fallbackDays(req)
		report, err := NewPersister(repo, testLogger()).Persist(ctx, &types.Trip{}, days)
		require.NoError(t, err)
		assert.False(t, report.Partial())
		for _, d := range days {
			assert.Equal(t, tripID, d.TripID)
			for _, a := range d.Activities {
				assert.Equal(t, d.ID, a.TripDayID)
			}
		}
		repo.AssertExpectations(t)
	})

	t.Run("trip row failure is fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTrip", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := NewPersister(repo, testLogger()).Persist(ctx, &types.Trip{}, fallbackDays(req))
		var perr *types.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.Fatal)
		repo.AssertNotCalled(t, "UpsertTripDay", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "InsertActivity", mock.Anything, mock.Anything)
	})

	t.Run("day and activity failures are counted and skipped", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateTrip", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("UpsertTripDay", mock.Anything, mock.MatchedBy(func(d *types.TripDay) bool { return d.DayNumber == 2 })).
			Return(errors.New("constraint violation")).Once()
		repo.On("UpsertTripDay", mock.Anything, mock.Anything).Return(nil).Times(4)
		repo.On("InsertActivity", mock.Anything, mock.MatchedBy(func(a *types.Activity) bool { return a.Position == 3 })).
			Return(errors.New("timeout")).Times(4)
		repo.On("InsertActivity", mock.Anything, mock.Anything).Return(nil).Times(12)

		report, err := NewPersister(repo, testLogger()).Persist(ctx, &types.Trip{}, fallbackDays(req))
		require.NoError(t, err)
		assert.Equal(t, 1, report.FailedDays)
		assert.Equal(t, 4, report.FailedActivities)
		assert.True(t, report.Partial())
		repo.AssertNumberOfCalls(t, "InsertActivity", 16)
		repo.AssertExpectations(t)
	})
}

func TestPersister_PersistDaysIsRepeatable(t *testing.T) {
	ctx := context.Background()
	req := parisRequest()
	tripID := uuid.New()
	dayIDs := map[int]uuid.UUID{}

	repo := new(MockRepository)
	repo.On("UpsertTripDay", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			d := args.Get(1).(*types.TripDay)
			if _, ok := dayIDs[d.DayNumber]; !ok {
				dayIDs[d.DayNumber] = uuid.New()
			}
			d.ID = dayIDs[d.DayNumber]
		}).
		Return(nil)
	repo.On("InsertActivity", mock.Anything, mock.Anything).Return(nil)

	p := NewPersister(repo, testLogger())
	first := fallbackDays(req)
	second := fallbackDays(req)
	assert.False(t, p.PersistDays(ctx, tripID, first).Partial())
	assert.False(t, p.PersistDays(ctx, tripID, second).Partial())

	assert.Len(t, dayIDs, 5)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
