package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

const (
	auditCollection   = "audit_events"
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditRepository persists the account audit trail.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureAuditIndexes creates the email+time index the List query relies on.
func EnsureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

type mongoAuditEvent struct {
	UserID    string `bson:"user_id,omitempty"`
	Email     string `bson:"email"`
	Action    string `bson:"action"`
	At        int64  `bson:"at"`
	RequestID string `bson:"request_id,omitempty"`
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := mongoAuditEvent{
		UserID:    event.UserID,
		Email:     event.Email,
		Action:    string(event.Action),
		At:        event.At.Unix(),
		RequestID: event.RequestID,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, email string, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.AuditEvent
	for cursor.Next(ctx) {
		var me mongoAuditEvent
		if err := cursor.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, &domain.AuditEvent{
			UserID:    me.UserID,
			Email:     me.Email,
			Action:    domain.AuditAction(me.Action),
			At:        unixToTime(me.At),
			RequestID: me.RequestID,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
