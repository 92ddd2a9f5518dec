package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/service"
	"goldmarket/internal/infrastructure/metrics"
	"goldmarket/pkg/errors"
)

const defaultPushBatchSize = 500

// DispatchReport summarizes one NotifyUser call.
type DispatchReport struct {
	Tokens    int      `json:"tokens"`
	Sent      int      `json:"sent"`
	Transient int      `json:"transient"`
	Pruned    []string `json:"-"`
	// BatchFailed is set when at least one chunk failed as a whole.
	BatchFailed bool `json:"batch_failed"`
	LoadFailed  bool `json:"load_failed"`
}

// Failed reports a dispatch that reached no device because of an error.
func (r DispatchReport) Failed() bool {
	return r.LoadFailed || (r.BatchFailed && r.Sent == 0)
}

type NotificationUseCase struct {
	tokens    *TokenUseCase
	transport service.PushTransport
	batchSize int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

func NewNotificationUseCase(tokens *TokenUseCase, transport service.PushTransport, batchSize int, logger zerolog.Logger) *NotificationUseCase {
	if batchSize <= 0 || batchSize > defaultPushBatchSize {
		batchSize = defaultPushBatchSize
	}
	return &NotificationUseCase{
		tokens:    tokens,
		transport: transport,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "notification_dispatcher").Logger(),
		tracer:    otel.Tracer("goldmarket/internal/usecase/notification"),
	}
}

// NotifyUser sends notification to every registered device of userID and
// prunes the tokens the transport rejected for good. It never returns an
// error: a failed push must not fail the event that caused it.
func (uc *NotificationUseCase) NotifyUser(ctx context.Context, eventID, userID string, notification entity.Notification) DispatchReport {
	var report DispatchReport

	spanCtx, span := uc.tracer.Start(ctx, "notifications.dispatch", trace.WithAttributes(
		attribute.String("notification.user_id", userID),
		attribute.String("notification.type", notification.Type()),
		attribute.String("event.id", eventID),
	))
	defer span.End()

	log := uc.logger.With().
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("type", notification.Type()).
		Logger()

	tokens, err := uc.tokens.Tokens(spanCtx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn().Msg("notify: user not found")
		} else {
			report.LoadFailed = true
			log.Error().Err(err).Msg("notify: failed to load push tokens")
			span.RecordError(err)
			span.SetStatus(codes.Error, "load tokens")
		}
		return report
	}
	report.Tokens = len(tokens)
	if len(tokens) == 0 {
		log.Info().Msg("notify: no push tokens registered")
		return report
	}

	var permanent []string
	for _, chunk := range chunkTokens(tokens, uc.batchSize) {
		results, err := uc.transport.SendMulticast(spanCtx, chunk, notification)
		if err != nil {
			report.BatchFailed = true
			metrics.NotificationsFailed().WithLabelValues(notification.Type(), "batch").Add(float64(len(chunk)))
			log.Error().Err(err).Int("batch", len(chunk)).Msg("notify: multicast failed")
			span.RecordError(err)
			continue
		}

		for _, r := range results {
			switch {
			case r.Success():
				report.Sent++
			case r.Permanent:
				permanent = append(permanent, r.Token)
				log.Info().Err(errors.PermanentDelivery(r.Token, r.Err)).Msg("notify: token rejected")
			default:
				report.Transient++
				log.Warn().Err(errors.TransientDelivery(r.Token, r.Err)).Msg("notify: delivery failed")
			}
		}
	}

	metrics.NotificationsSent().WithLabelValues(notification.Type()).Add(float64(report.Sent))
	if report.Transient > 0 {
		metrics.NotificationsFailed().WithLabelValues(notification.Type(), "transient").Add(float64(report.Transient))
	}

	if len(permanent) > 0 {
		metrics.NotificationsFailed().WithLabelValues(notification.Type(), "permanent").Add(float64(len(permanent)))
		if err := uc.tokens.PruneInvalidTokens(spanCtx, userID, permanent); err != nil {
			log.Error().Err(err).Int("tokens", len(permanent)).Msg("notify: failed to prune tokens")
			span.RecordError(err)
		} else {
			report.Pruned = permanent
			metrics.TokensPruned().Add(float64(len(permanent)))
		}
	}

	span.SetAttributes(
		attribute.Int("notification.sent", report.Sent),
		attribute.Int("notification.pruned", len(report.Pruned)),
	)
	log.Info().
		Int("tokens", report.Tokens).
		Int("sent", report.Sent).
		Int("transient", report.Transient).
		Int("pruned", len(report.Pruned)).
		Msg("notify: dispatched")

	return report
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, tokens[start:end])
	}
	return chunks
}
