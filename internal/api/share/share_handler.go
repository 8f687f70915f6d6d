package share

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

// CreateShare godoc
// @Summary      Share Trip
// @Description  Invites another account, identified by email, to receive a copy of the trip.
// @Tags         Shares
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        request body types.CreateShareRequest true "Receiver"
// @Success      201 {object} types.Share "Share created"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Trip not found"
// @Security     BearerAuth
// @Router       /trips/{tripID}/shares [post]
func (h *HandlerImpl) CreateShare(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ShareHandler").Start(r.Context(), "CreateShare")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateShare"))

	account, ok := appMiddleware.AccountFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := api.URLParamUUID(r, "tripID")
	if err != nil {
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetAttributes(attribute.String("trip.id", tripID.String()))

	var req types.CreateShareRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	share, err := h.service.CreateShare(ctx, account.ID, tripID, req.ReceiverEmail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Share failed")
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusCreated, share)
}

// AcceptShare godoc
// @Summary      Accept Shared Trip
// @Description  Copies a shared trip into the caller's account. Repeated calls return the same copy.
// @Tags         Shares
// @Produce      json
// @Param        shareID path string true "Share ID"
// @Success      200 {object} types.TripTree "The caller's copy"
// @Failure      403 {object} types.Response "Share addressed to someone else"
// @Failure      404 {object} types.Response "Share not found"
// @Security     BearerAuth
// @Router       /shares/{shareID}/accept [post]
func (h *HandlerImpl) AcceptShare(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ShareHandler").Start(r.Context(), "AcceptShare")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AcceptShare"))

	account, ok := appMiddleware.AccountFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	shareID, err := api.URLParamUUID(r, "shareID")
	if err != nil {
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetAttributes(attribute.String("share.id", shareID.String()))

	tree, err := h.service.Accept(ctx, shareID, account)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Accept failed")
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, tree)
}
