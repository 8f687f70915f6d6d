package share

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appMiddleware "github.com/FACorreiaa/go-trip-planner/app/middleware"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateShare(ctx context.Context, ownerID, tripID uuid.UUID, receiverEmail string) (*types.Share, error) {
	args := m.Called(ctx, ownerID, tripID, receiverEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Share), args.Error(1)
}

func (m *MockService) Accept(ctx context.Context, shareID uuid.UUID, receiver types.Account) (*types.TripTree, error) {
	args := m.Called(ctx, shareID, receiver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripTree), args.Error(1)
}

func newShareRouter(svc Service, account types.Account) http.Handler {
	h := NewHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(appMiddleware.WithAccount(req.Context(), account)))
		})
	})
	r.Post("/trips/{tripID}/shares", h.CreateShare)
	r.Post("/shares/{shareID}/accept", h.AcceptShare)
	return r
}

func TestHandlerImpl_CreateShare(t *testing.T) {
	account := types.Account{ID: uuid.New(), Email: "ana@example.com"}
	tripID := uuid.New()
	url := "/trips/" + tripID.String() + "/shares"

	svc := new(MockService)
	svc.On("CreateShare", mock.Anything, account.ID, tripID, "bea@example.com").
		Return(&types.Share{ID: uuid.New(), TripID: tripID, ReceiverEmail: "bea@example.com"}, nil).Once()
	svc.On("CreateShare", mock.Anything, account.ID, tripID, "nope").
		Return(nil, types.NewValidationError("receiver_email", "must be a plain email address")).Once()
	router := newShareRouter(svc, account)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"receiver_email":"bea@example.com"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"receiver_email":"bea@example.com"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"receiver_email":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trips/not-a-uuid/shares", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestHandlerImpl_AcceptShare(t *testing.T) {
	account := types.Account{ID: uuid.New(), Email: "bea@example.com"}
	shareID, forbidden := uuid.New(), uuid.New()

	svc := new(MockService)
	svc.On("Accept", mock.Anything, shareID, account).
		Return(&types.TripTree{Trip: types.Trip{ID: uuid.New(), Title: "3 days in Lisbon (shared copy)"}}, nil).Once()
	svc.On("Accept", mock.Anything, forbidden, account).Return(nil, types.ErrForbidden).Once()
	router := newShareRouter(svc, account)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shares/"+shareID.String()+"/accept", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "(shared copy)")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shares/"+forbidden.String()+"/accept", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	svc.AssertExpectations(t)
}
