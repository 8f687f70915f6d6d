package share

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateShare(ctx context.Context, share *types.Share) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

func (m *MockRepository) GetShare(ctx context.Context, shareID uuid.UUID) (*types.Share, error) {
	args := m.Called(ctx, shareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Share), args.Error(1)
}

func (m *MockRepository) CommitClone(ctx context.Context, shareID uuid.UUID, clone *types.TripTree) (uuid.UUID, bool, error) {
	args := m.Called(ctx, shareID, clone)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

// memTrips stands in for the trip repository.
type memTrips struct {
	mu     sync.Mutex
	trees  map[uuid.UUID]*types.TripTree
	shared map[uuid.UUID]bool
}

func newMemTrips(trees ...*types.TripTree) *memTrips {
	m := &memTrips{trees: map[uuid.UUID]*types.TripTree{}, shared: map[uuid.UUID]bool{}}
	for _, t := range trees {
		m.trees[t.Trip.ID] = t
	}
	return m
}

func (m *memTrips) GetTripTree(_ context.Context, tripID uuid.UUID) (*types.TripTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trees[tripID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t, nil
}

func (m *memTrips) MarkShared(_ context.Context, tripID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared[tripID] = true
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []types.ShareEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, e types.ShareEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func lisbonTrip(owner uuid.UUID) *types.TripTree {
	start := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	return &types.TripTree{
		Trip: types.Trip{
			ID: uuid.New(), OwnerID: owner, Title: "3 days in Lisbon", Status: types.TripStatusReady,
			Destination: "Lisbon", StartDate: start, EndDate: start.AddDate(0, 0, 2), Days: 3, Budget: 600,
			Interests: []string{"food", "history"},
		},
		Days: []types.TripDay{
			{ID: uuid.New(), DayNumber: 1, Date: start, Activities: []types.Activity{
				{ID: uuid.New(), Position: 1, TimeOfDay: "Morning", Title: "Belém Tower"},
				{ID: uuid.New(), Position: 2, TimeOfDay: "Lunch", Title: "Pastéis de Belém"},
			}},
			{ID: uuid.New(), DayNumber: 3, Date: start.AddDate(0, 0, 2), Activities: []types.Activity{
				{ID: uuid.New(), Position: 1, TimeOfDay: "Evening", Title: "Fado in Alfama"},
			}},
		},
	}
}

func TestServiceImpl_CreateShare(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	tree := lisbonTrip(owner)

	t.Run("normalises the address and notifies", func(t *testing.T) {
		repo := new(MockRepository)
		trips := newMemTrips(tree)
		notifier := &recordingNotifier{}
		shareID := uuid.New()
		repo.On("CreateShare", mock.Anything, mock.MatchedBy(func(s *types.Share) bool {
			return s.ReceiverEmail == "bea@example.com" && s.TripID == tree.Trip.ID && s.SenderID == owner
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*types.Share).ID = shareID
		}).Return(nil).Once()

		svc := NewServiceImpl(repo, trips, notifier, testLogger())
		share, err := svc.CreateShare(ctx, owner, tree.Trip.ID, "  Bea@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, shareID, share.ID)
		assert.True(t, trips.shared[tree.Trip.ID])
		require.Len(t, notifier.events, 1)
		assert.Equal(t, types.EventTripShared, notifier.events[0].Type)
		assert.False(t, notifier.events[0].OccurredAt.IsZero())
		repo.AssertExpectations(t)
	})

	t.Run("bad address", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewServiceImpl(repo, newMemTrips(tree), nil, testLogger())
		for _, email := range []string{"", "not-an-email", "Bea <bea@example.com>"} {
			_, err := svc.CreateShare(ctx, owner, tree.Trip.ID, email)
			assert.ErrorIs(t, err, types.ErrValidation, email)
		}
		repo.AssertNotCalled(t, "CreateShare", mock.Anything, mock.Anything)
	})

	t.Run("someone else's trip", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewServiceImpl(repo, newMemTrips(tree), nil, testLogger())
		_, err := svc.CreateShare(ctx, uuid.New(), tree.Trip.ID, "bea@example.com")
		assert.ErrorIs(t, err, types.ErrNotFound)
		repo.AssertNotCalled(t, "CreateShare", mock.Anything, mock.Anything)
	})

	t.Run("notification failure is not fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateShare", mock.Anything, mock.Anything).Return(nil).Once()
		svc := NewServiceImpl(repo, newMemTrips(tree), &recordingNotifier{err: errors.New("no responders")}, testLogger())
		_, err := svc.CreateShare(ctx, owner, tree.Trip.ID, "bea@example.com")
		assert.NoError(t, err)
	})
}

func TestServiceImpl_Accept(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	receiver := types.Account{ID: uuid.New(), Email: "Bea@example.com"}

	pending := func(tree *types.TripTree) *types.Share {
		return &types.Share{ID: uuid.New(), TripID: tree.Trip.ID, SenderID: owner, ReceiverEmail: "bea@example.com"}
	}

	t.Run("clones the trip for the receiver", func(t *testing.T) {
		tree := lisbonTrip(owner)
		share := pending(tree)
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		cloneID := uuid.New()

		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil).Once()
		repo.On("CommitClone", mock.Anything, share.ID, mock.Anything).
			Run(func(args mock.Arguments) {
				args.Get(2).(*types.TripTree).Trip.ID = cloneID
			}).Return(cloneID, true, nil).Once()

		svc := NewServiceImpl(repo, newMemTrips(tree), notifier, testLogger())
		clone, err := svc.Accept(ctx, share.ID, receiver)
		require.NoError(t, err)

		assert.Equal(t, cloneID, clone.Trip.ID)
		assert.Equal(t, receiver.ID, clone.Trip.OwnerID)
		assert.Equal(t, "3 days in Lisbon (shared copy)", clone.Trip.Title)
		assert.Equal(t, []string{"food", "history"}, clone.Trip.Interests)
		require.Len(t, clone.Days, 2)
		assert.Equal(t, 3, clone.Days[1].DayNumber)
		assert.Len(t, clone.Days[0].Activities, 2)
		assert.Equal(t, uuid.Nil, clone.Days[0].Activities[0].ID)
		assert.Equal(t, "Pastéis de Belém", clone.Days[0].Activities[1].Title)

		assert.Equal(t, "3 days in Lisbon", tree.Trip.Title)
		assert.NotEqual(t, uuid.Nil, tree.Days[0].Activities[0].ID)

		require.Len(t, notifier.events, 1)
		assert.Equal(t, types.EventTripShareAccepted, notifier.events[0].Type)
		assert.Equal(t, cloneID, notifier.events[0].ClonedTripID)
		repo.AssertExpectations(t)
	})

	t.Run("second accept returns the first copy", func(t *testing.T) {
		tree := lisbonTrip(owner)
		existing := lisbonTrip(receiver.ID)
		share := pending(tree)
		share.Accepted = true
		share.ClonedTripID = &existing.Trip.ID
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil)

		svc := NewServiceImpl(repo, newMemTrips(tree, existing), notifier, testLogger())
		for i := 0; i < 2; i++ {
			got, err := svc.Accept(ctx, share.ID, receiver)
			require.NoError(t, err)
			assert.Equal(t, existing.Trip.ID, got.Trip.ID)
		}
		repo.AssertNotCalled(t, "CommitClone", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, notifier.events)
	})

	t.Run("lost race returns the winner's copy", func(t *testing.T) {
		tree := lisbonTrip(owner)
		winner := lisbonTrip(receiver.ID)
		share := pending(tree)
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil).Once()
		repo.On("CommitClone", mock.Anything, share.ID, mock.Anything).Return(winner.Trip.ID, false, nil).Once()

		svc := NewServiceImpl(repo, newMemTrips(tree, winner), notifier, testLogger())
		got, err := svc.Accept(ctx, share.ID, receiver)
		require.NoError(t, err)
		assert.Equal(t, winner.Trip.ID, got.Trip.ID)
		assert.Empty(t, notifier.events)
	})

	t.Run("wrong receiver", func(t *testing.T) {
		tree := lisbonTrip(owner)
		share := pending(tree)
		repo := new(MockRepository)
		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil).Once()

		svc := NewServiceImpl(repo, newMemTrips(tree), nil, testLogger())
		_, err := svc.Accept(ctx, share.ID, types.Account{ID: uuid.New(), Email: "mallory@example.com"})
		assert.ErrorIs(t, err, types.ErrForbidden)
		repo.AssertNotCalled(t, "CommitClone", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepted copy was deleted", func(t *testing.T) {
		tree := lisbonTrip(owner)
		share := pending(tree)
		share.Accepted = true
		repo := new(MockRepository)
		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil).Once()

		svc := NewServiceImpl(repo, newMemTrips(tree), nil, testLogger())
		_, err := svc.Accept(ctx, share.ID, receiver)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("commit failure is returned", func(t *testing.T) {
		tree := lisbonTrip(owner)
		share := pending(tree)
		repo := new(MockRepository)
		notifier := &recordingNotifier{}
		repo.On("GetShare", mock.Anything, share.ID).Return(share, nil).Once()
		repo.On("CommitClone", mock.Anything, share.ID, mock.Anything).
			Return(uuid.Nil, false, &types.PersistenceError{Op: "clone trip", Fatal: true, Err: errors.New("boom")}).Once()

		svc := NewServiceImpl(repo, newMemTrips(tree), notifier, testLogger())
		_, err := svc.Accept(ctx, share.ID, receiver)
		var perr *types.PersistenceError
		assert.ErrorAs(t, err, &perr)
		assert.Empty(t, notifier.events)
	})
}
