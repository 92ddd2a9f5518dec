package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/infrastructure/firestoreevent"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

// CloudEvents delivery id header.
const eventIDHeader = "Ce-Id"

type EventTriggers interface {
	OnChatMessageCreated(ctx context.Context, eventID string, msg *entity.Message) usecase.TriggerOutcome
	OnExchangeCreated(ctx context.Context, eventID string, exchange *entity.GoldExchange) usecase.TriggerOutcome
	OnExchangeUpdated(ctx context.Context, eventID string, before, after *entity.GoldExchange) usecase.TriggerOutcome
}

// TriggerHandler receives Firestore document events. Every decodable event
// is acknowledged with 200 whatever the push outcome, so the event source
// never retries because of a notification problem.
type TriggerHandler struct {
	triggers EventTriggers
	logger   zerolog.Logger
}

func NewTriggerHandler(triggers EventTriggers, logger zerolog.Logger) *TriggerHandler {
	return &TriggerHandler{
		triggers: triggers,
		logger:   logger.With().Str("component", "trigger_handler").Logger(),
	}
}

type triggerResponse struct {
	EventID string                 `json:"event_id"`
	Outcome usecase.TriggerOutcome `json:"outcome"`
}

func (h *TriggerHandler) ChatMessageCreated(c echo.Context) error {
	event, eventID, err := h.decode(c)
	if err != nil {
		return response.Error(c, err)
	}
	if !event.Value.Exists() {
		return response.Success(c, triggerResponse{EventID: eventID, Outcome: usecase.OutcomeSkipped})
	}

	outcome := h.triggers.OnChatMessageCreated(c.Request().Context(), eventID, firestoreevent.Message(event.Value))
	return response.Success(c, triggerResponse{EventID: eventID, Outcome: outcome})
}

func (h *TriggerHandler) ExchangeCreated(c echo.Context) error {
	event, eventID, err := h.decode(c)
	if err != nil {
		return response.Error(c, err)
	}
	if !event.Value.Exists() {
		return response.Success(c, triggerResponse{EventID: eventID, Outcome: usecase.OutcomeSkipped})
	}

	outcome := h.triggers.OnExchangeCreated(c.Request().Context(), eventID, firestoreevent.GoldExchange(event.Value))
	return response.Success(c, triggerResponse{EventID: eventID, Outcome: outcome})
}

func (h *TriggerHandler) ExchangeUpdated(c echo.Context) error {
	event, eventID, err := h.decode(c)
	if err != nil {
		return response.Error(c, err)
	}
	if !event.OldValue.Exists() || !event.Value.Exists() || !event.FieldChanged("status") {
		return response.Success(c, triggerResponse{EventID: eventID, Outcome: usecase.OutcomeSkipped})
	}

	outcome := h.triggers.OnExchangeUpdated(c.Request().Context(), eventID,
		firestoreevent.GoldExchange(event.OldValue), firestoreevent.GoldExchange(event.Value))
	return response.Success(c, triggerResponse{EventID: eventID, Outcome: outcome})
}

func (h *TriggerHandler) decode(c echo.Context) (*firestoreevent.Event, string, error) {
	var event firestoreevent.Event
	if err := json.NewDecoder(c.Request().Body).Decode(&event); err != nil {
		h.logger.Warn().Err(err).Str("path", c.Path()).Msg("undecodable trigger payload")
		return nil, "", errors.BadRequest("Invalid event payload", err)
	}
	return &event, eventID(c, &event), nil
}

// eventID prefers the delivery id. Without one the written document and its
// update time identify the write, which is stable across redeliveries.
func eventID(c echo.Context, event *firestoreevent.Event) string {
	if id := c.Request().Header.Get(eventIDHeader); id != "" {
		return id
	}
	if event.EventID != "" {
		return event.EventID
	}
	doc := event.Value
	if !doc.Exists() {
		doc = event.OldValue
	}
	if doc.Name == "" {
		return ""
	}
	return doc.Name + "@" + doc.UpdateTime.UTC().Format(time.RFC3339Nano)
}
