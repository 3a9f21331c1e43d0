package consumer

import (
	"context"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// Broadcaster fans an event out to live subscribers
type Broadcaster interface {
	Broadcast(event models.IngestEvent)
}

// Dispatcher reacts to a stored batch: cached reports of the touched players
// are dropped, then subscribers are told.
//
// It is the stream consumer's handler, and it also serves as the ingester's
// notifier directly when no Redis stream is configured.
type Dispatcher struct {
	cache       contracts.ReportCache // may be nil
	broadcaster Broadcaster           // may be nil
	log         *logger.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(cache contracts.ReportCache, broadcaster Broadcaster, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		cache:       cache,
		broadcaster: broadcaster,
		log:         log,
	}
}

// NotifyIngested handles one event. A cache failure is returned after the
// broadcast so subscribers are still informed.
func (d *Dispatcher) NotifyIngested(ctx context.Context, event models.IngestEvent) error {
	var cacheErr error
	if d.cache != nil {
		cacheErr = d.cache.Invalidate(ctx, event.Players...)
		if cacheErr != nil {
			d.log.Warn("failed to invalidate reports", "batch_id", event.BatchID, "error", cacheErr)
		}
	}

	if d.broadcaster != nil {
		d.broadcaster.Broadcast(event)
	}

	d.log.Debug("ingest event dispatched", "batch_id", event.BatchID, "players", len(event.Players))
	return cacheErr
}
