package chat

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

// SendMessage godoc
// @Summary      Send Chat Message
// @Description  Sends one message about the trip. Each trip allows a fixed number of user messages; the reply reports how many remain.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        request body types.ChatRequest true "Message"
// @Success      200 {object} types.ChatReply "Assistant reply"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Trip not found"
// @Failure      429 {object} types.Response "Chat limit reached"
// @Security     BearerAuth
// @Router       /trips/{tripID}/chat [post]
func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SendMessage"))

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

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.service.Send(ctx, account.ID, tripID, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Send failed")
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, reply)
}

// GetHistory godoc
// @Summary      Get Chat History
// @Description  Returns the decrypted conversation for a trip together with the remaining message quota.
// @Tags         Chat
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.ChatHistory "Conversation"
// @Failure      404 {object} types.Response "Trip not found"
// @Security     BearerAuth
// @Router       /trips/{tripID}/chat [get]
func (h *HandlerImpl) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "GetHistory")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetHistory"))

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

	history, err := h.service.History(ctx, account.ID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "History failed")
		api.HandleServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, history)
}
