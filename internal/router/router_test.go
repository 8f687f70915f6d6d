package router

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-trip-planner/app/middleware"
	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner/internal/api/share"
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type stubTrips struct{}

func (stubTrips) CreateTrip(_ context.Context, ownerID uuid.UUID, _ types.CreateTripRequest) (*types.TripResult, error) {
	return &types.TripResult{TripTree: types.TripTree{Trip: types.Trip{ID: uuid.New(), OwnerID: ownerID}}}, nil
}

func (stubTrips) GetTrip(_ context.Context, ownerID, tripID uuid.UUID) (*types.TripTree, error) {
	return &types.TripTree{Trip: types.Trip{ID: tripID, OwnerID: ownerID, Title: "2 days in Rome"}}, nil
}

type stubChat struct{}

func (stubChat) Send(context.Context, uuid.UUID, uuid.UUID, string) (*types.ChatReply, error) {
	return &types.ChatReply{Reply: "Try Trastevere for dinner.", TurnsUsed: 1, TurnsRemaining: 7}, nil
}

func (stubChat) History(_ context.Context, _, tripID uuid.UUID) (*types.ChatHistory, error) {
	return &types.ChatHistory{TripID: tripID}, nil
}

type stubShares struct{}

func (stubShares) CreateShare(_ context.Context, ownerID, tripID uuid.UUID, email string) (*types.Share, error) {
	return &types.Share{ID: uuid.New(), TripID: tripID, SenderID: ownerID, ReceiverEmail: email}, nil
}

func (stubShares) Accept(_ context.Context, _ uuid.UUID, receiver types.Account) (*types.TripTree, error) {
	return &types.TripTree{Trip: types.Trip{ID: uuid.New(), OwnerID: receiver.ID}}, nil
}

func newTestRouter(t *testing.T, secret []byte, perMinute int) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return SetupRouter(&Config{
		TripHandler:            trip.NewHandler(stubTrips{}, logger),
		ChatHandler:            chat.NewHandler(stubChat{}, logger),
		ShareHandler:           share.NewHandler(stubShares{}, logger),
		AuthenticateMiddleware: appMiddleware.Authenticate(secret, logger),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		RequestsPerMinute: perMinute,
	})
}

func authed(t *testing.T, secret []byte, method, url, body string) *http.Request {
	t.Helper()
	token, err := appMiddleware.IssueToken(secret, types.Account{ID: uuid.New(), Email: "ana@example.com"}, time.Hour)
	require.NoError(t, err)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t, []byte("secret"), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetupRouter_ProtectedRoutes(t *testing.T) {
	secret := []byte("secret")
	router := newTestRouter(t, secret, 0)
	tripID := uuid.NewString()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trips/"+tripID, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cases := []struct {
		method, url, body string
		want              int
	}{
		{http.MethodGet, "/api/v1/trips/" + tripID, "", http.StatusOK},
		{http.MethodGet, "/api/v1/trips/" + tripID + "/chat", "", http.StatusOK},
		{http.MethodPost, "/api/v1/trips/" + tripID + "/chat", `{"message":"dinner?"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/trips/" + tripID + "/shares", `{"receiver_email":"bea@example.com"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/shares/" + uuid.NewString() + "/accept", "", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authed(t, secret, tc.method, tc.url, tc.body))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.url)
	}
}

func TestSetupRouter_ChatIsRateLimited(t *testing.T) {
	secret := []byte("secret")
	router := newTestRouter(t, secret, 2)
	url := "/api/v1/trips/" + uuid.NewString() + "/chat"

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authed(t, secret, http.MethodPost, url, `{"message":"hi"}`))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(t, secret, http.MethodGet, url, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}
