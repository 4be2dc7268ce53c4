package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

const importCompletedSubject = "catalog.import.completed"

// ImportCompletedEvent is the payload published after every bulk upload run.
type ImportCompletedEvent struct {
	CompletedAt   time.Time `json:"completedAt"`
	TotalRows     int       `json:"totalRows"`
	ProcessedRows int       `json:"processedRows"`
	CreatedCount  int       `json:"createdCount"`
	FailedCount   int       `json:"failedCount"`
}

// Publisher emits catalog events to NATS. A nil Publisher is valid and drops
// every event, so the service runs unchanged without a broker configured.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// NewPublisher connects to the broker at natsURL. An empty URL disables
// publishing without error.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// ImportCompleted publishes the outcome of a bulk upload run. Publishing is
// best effort: a broker failure is logged and never fails the run.
func (p *Publisher) ImportCompleted(summary *models.ImportSummary) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(ImportCompletedEvent{
		CompletedAt:   time.Now().UTC(),
		TotalRows:     summary.TotalRows,
		ProcessedRows: summary.ProcessedRows,
		CreatedCount:  summary.CreatedCount,
		FailedCount:   summary.FailedCount,
	})
	if err != nil {
		p.logger.WithError(err).Error("Failed to encode import event")
		return
	}

	if err := p.conn.Publish(importCompletedSubject, payload); err != nil {
		p.logger.WithError(err).Warn("Failed to publish import event")
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
