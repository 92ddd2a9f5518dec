package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/internal/infrastructure/dedupe"
	"goldmarket/internal/infrastructure/metrics"
)

type TriggerOutcome string

const (
	OutcomeNotified  TriggerOutcome = "notified"
	OutcomeSkipped   TriggerOutcome = "skipped"
	OutcomeDuplicate TriggerOutcome = "duplicate"
	OutcomeFailed    TriggerOutcome = "failed"
)

const (
	triggerChatMessage     = "chat_message_created"
	triggerExchangeCreated = "exchange_created"
	triggerExchangeUpdated = "exchange_updated"
)

// TriggerUseCase reacts to store change events. Every handler returns an
// outcome rather than an error so a push problem never fails the event.
type TriggerUseCase struct {
	chatRepo repository.ChatRepository
	notifier Notifier
	seen     dedupe.Store
	logger   zerolog.Logger
}

func NewTriggerUseCase(chatRepo repository.ChatRepository, notifier Notifier, seen dedupe.Store, logger zerolog.Logger) *TriggerUseCase {
	if seen == nil {
		seen = dedupe.NoopStore{}
	}
	return &TriggerUseCase{
		chatRepo: chatRepo,
		notifier: notifier,
		seen:     seen,
		logger:   logger.With().Str("component", "event_triggers").Logger(),
	}
}

// OnChatMessageCreated notifies the room's other participant.
func (uc *TriggerUseCase) OnChatMessageCreated(ctx context.Context, eventID string, msg *entity.Message) TriggerOutcome {
	log := uc.logger.With().Str("event_id", eventID).Str("trigger", triggerChatMessage).Logger()

	if msg == nil || msg.ChatID == "" || msg.Sender == "" {
		log.Warn().Msg("message event without chat or sender")
		return uc.done(triggerChatMessage, OutcomeSkipped)
	}

	room, err := uc.chatRepo.GetByID(ctx, msg.ChatID)
	if err != nil {
		log.Error().Err(err).Str("chat_id", msg.ChatID).Msg("failed to load chat for notification")
		return uc.done(triggerChatMessage, OutcomeFailed)
	}

	recipient, ok := room.OtherParticipant(msg.Sender)
	if !ok {
		log.Warn().Str("chat_id", msg.ChatID).Strs("participants", room.Participants).Msg("no recipient for message")
		return uc.done(triggerChatMessage, OutcomeSkipped)
	}

	return uc.notify(ctx, log, triggerChatMessage, eventID, recipient, ChatNotification(msg.ChatID, msg))
}

// OnExchangeCreated acknowledges a new request to its submitter.
func (uc *TriggerUseCase) OnExchangeCreated(ctx context.Context, eventID string, exchange *entity.GoldExchange) TriggerOutcome {
	log := uc.logger.With().Str("event_id", eventID).Str("trigger", triggerExchangeCreated).Logger()

	if exchange == nil || exchange.UserID == "" {
		log.Warn().Msg("exchange event without submitter")
		return uc.done(triggerExchangeCreated, OutcomeSkipped)
	}

	return uc.notify(ctx, log, triggerExchangeCreated, eventID, exchange.UserID, ExchangeCreatedNotification(exchange))
}

// OnExchangeUpdated fires only when the status actually changed and the new
// status is 교환중.
func (uc *TriggerUseCase) OnExchangeUpdated(ctx context.Context, eventID string, before, after *entity.GoldExchange) TriggerOutcome {
	log := uc.logger.With().Str("event_id", eventID).Str("trigger", triggerExchangeUpdated).Logger()

	if before == nil || after == nil {
		return uc.done(triggerExchangeUpdated, OutcomeSkipped)
	}
	if before.Status == after.Status || after.Status != entity.ExchangeStatusInProgress {
		log.Debug().Str("before", string(before.Status)).Str("after", string(after.Status)).Msg("status change not notified")
		return uc.done(triggerExchangeUpdated, OutcomeSkipped)
	}
	if after.UserID == "" {
		log.Warn().Str("exchange_id", after.ID).Msg("exchange without submitter")
		return uc.done(triggerExchangeUpdated, OutcomeSkipped)
	}

	return uc.notify(ctx, log, triggerExchangeUpdated, eventID, after.UserID, ExchangeInProgressNotification(after.ID))
}

func (uc *TriggerUseCase) notify(ctx context.Context, log zerolog.Logger, trigger, eventID, userID string, n entity.Notification) TriggerOutcome {
	if eventID != "" {
		first, err := uc.seen.FirstSeen(ctx, eventID)
		if err != nil {
			// fail open
			log.Warn().Err(err).Msg("dedupe store unavailable")
		} else if !first {
			log.Info().Msg("event already handled")
			return uc.done(trigger, OutcomeDuplicate)
		}
	}

	// The claim is kept even when delivery fails: a lost push is not retried.
	if report := uc.notifier.NotifyUser(ctx, eventID, userID, n); report.Failed() {
		return uc.done(trigger, OutcomeFailed)
	}
	return uc.done(trigger, OutcomeNotified)
}

func (uc *TriggerUseCase) done(trigger string, outcome TriggerOutcome) TriggerOutcome {
	metrics.TriggerEvents().WithLabelValues(trigger, string(outcome)).Inc()
	return outcome
}
