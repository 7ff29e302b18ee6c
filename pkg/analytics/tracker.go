package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types recorded by the registry.
const (
	EventContractPublished = "contract_published"
	EventPublishRejected   = "publish_rejected"
	EventGraphQueried      = "graph_queried"
)

// Event is one row of the activity feed.
type Event struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	ContractID  string          `json:"contract_id,omitempty"`
	UserAddress string          `json:"user_address,omitempty"`
	Network     string          `json:"network,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Tracker records events into the analytics_events table.
type Tracker struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewTracker creates a tracker. A nil db disables tracking (every Track call
// becomes a no-op), which keeps memory-backed deployments wiring-free.
func NewTracker(db *sql.DB, log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.New()
	}
	return &Tracker{db: db, log: log}
}

// Track inserts one event. Best-effort: errors are logged and swallowed.
func (t *Tracker) Track(ctx context.Context, eventType, contractID, userAddress, network string, metadata interface{}) {
	if t.db == nil {
		return
	}

	var meta []byte
	if metadata != nil {
		var err error
		meta, err = json.Marshal(metadata)
		if err != nil {
			t.log.WithError(err).WithField("event_type", eventType).Warn("failed to serialize event metadata")
			meta = nil
		}
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO analytics_events (id, event_type, contract_id, user_address, network, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		uuid.NewString(), eventType, nullable(contractID), nullable(userAddress), nullable(network), meta,
	)
	if err != nil {
		t.log.WithError(err).WithFields(logrus.Fields{
			"event_type":  eventType,
			"contract_id": contractID,
		}).Warn("failed to record analytics event")
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
