package trip

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appMiddleware "github.com/FACorreiaa/go-trip-planner/app/middleware"
	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

// CreateTrip godoc
// @Summary      Create Trip
// @Description  Validates the request and generates a trip with weather, pre-trip guidance, events and a day-by-day itinerary. Unavailable collaborators are replaced by fallbacks and reported in the response.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        request body types.CreateTripRequest true "Trip request"
// @Success      201 {object} types.TripResult "Generated trip"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      500 {object} types.Response "Trip could not be saved"
// @Security     BearerAuth
// @Router       /trips [post]
func (h *HandlerImpl) CreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "CreateTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateTrip"))

	account, ok := appMiddleware.AccountFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(attribute.String("user.id", account.ID.String()))

	var req types.CreateTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CreateTrip(ctx, account.ID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create trip")
		api.HandleServiceError(w, r, l, err)
		return
	}

	span.SetAttributes(attribute.String("trip.id", result.Trip.ID.String()))
	span.SetStatus(codes.Ok, "Trip created")
	api.WriteJSONResponse(w, r, http.StatusCreated, result)
}

// GetTrip godoc
// @Summary      Get Trip
// @Description  Returns a trip owned by the caller with all its days and activities.
// @Tags         Trips
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.TripTree "Trip"
// @Failure      400 {object} types.Response "Invalid trip ID"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Trip not found"
// @Security     BearerAuth
// @Router       /trips/{tripID} [get]
func (h *HandlerImpl) GetTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "GetTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetTrip"))

	account, ok := appMiddleware.AccountFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := api.URLParamUUID(r, "tripID")
	if err != nil {
		span.SetStatus(codes.Error, "Invalid trip ID")
		api.HandleServiceError(w, r, l, err)
		return
	}

	tree, err := h.service.GetTrip(ctx, account.ID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get trip")
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, tree)
}
