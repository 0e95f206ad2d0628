package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

const (
	subjectListingCreated  = "catalog.listing.created"
	subjectListingArchived = "catalog.listing.archived"
)

// Publisher emits catalog lifecycle events for downstream services (orders,
// search indexing, moderation).
type Publisher struct {
	conn *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

type listingCreatedEvent struct {
	EventID   string    `json:"event_id"`
	ListingID string    `json:"listing_id"`
	FarmerID  string    `json:"farmer_id"`
	Title     string    `json:"title"`
	Province  string    `json:"province"`
	CreatedAt time.Time `json:"created_at"`
}

type listingArchivedEvent struct {
	EventID    string    `json:"event_id"`
	ListingID  string    `json:"listing_id"`
	ArchivedAt time.Time `json:"archived_at"`
}

func (p *Publisher) ListingCreated(_ context.Context, product *domain.Product) error {
	return p.publish(subjectListingCreated, listingCreatedEvent{
		EventID:   uuid.NewString(),
		ListingID: product.ID,
		FarmerID:  product.FarmerID,
		Title:     product.Title,
		Province:  product.Province,
		CreatedAt: product.CreatedAt,
	})
}

func (p *Publisher) ListingArchived(_ context.Context, id string) error {
	return p.publish(subjectListingArchived, listingArchivedEvent{
		EventID:    uuid.NewString(),
		ListingID:  id,
		ArchivedAt: time.Now(),
	})
}

func (p *Publisher) publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
