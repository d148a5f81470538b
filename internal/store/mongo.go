package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatreport/report-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names shared with the chat application
const (
	reportsCollection  = "reports"
	chatsCollection    = "chats"
	activityCollection = "report_activity"
)

// Messages are held as raw documents; see decodeMessages and encodeMessages.
type chatDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	Title     string             `bson:"title"`
	Messages  []bson.Raw         `bson:"messages"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type reportDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ChatID      string             `bson:"chatId"`
	ReportedBy  string             `bson:"reportedBy"`
	Reason      string             `bson:"reason"`
	Description string             `bson:"description"`
	Status      string             `bson:"status,omitempty"`
	Messages    []bson.Raw         `bson:"messages"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *reportDocument) toModel() (models.Report, error) {
	messages, err := decodeMessages(d.Messages)
	if err != nil {
		return models.Report{}, fmt.Errorf("report %s: %w", d.ID.Hex(), err)
	}
	return models.Report{
		ID:          d.ID.Hex(),
		ChatID:      d.ChatID,
		ReportedBy:  d.ReportedBy,
		Reason:      d.Reason,
		Description: d.Description,
		Status:      models.ReportStatus(d.Status),
		Messages:    messages,
		CreatedAt:   d.CreatedAt,
	}, nil
}

// decodeMessages reads the modelled fields of each message and keeps the
// whole document in Raw. The result is never nil.
func decodeMessages(docs []bson.Raw) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0, len(docs))
	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		m := models.ChatMessage{Raw: bytes.Clone(doc)}
		if oid, ok := doc.Lookup("_id").ObjectIDOK(); ok {
			m.ID = oid.Hex()
		} else if id, ok := doc.Lookup("_id").StringValueOK(); ok {
			m.ID = id
		} else if id, ok := doc.Lookup("id").StringValueOK(); ok {
			m.ID = id
		}
		m.Role, _ = doc.Lookup("role").StringValueOK()
		m.Content, _ = doc.Lookup("content").StringValueOK()
		if ms, ok := doc.Lookup("createdAt").DateTimeOK(); ok {
			m.CreatedAt = time.UnixMilli(ms).UTC()
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// encodeMessages writes each message back as it was read. Messages that
// never came from Mongo are encoded from their fields; an unset createdAt
// is left out rather than stored as the zero date.
func encodeMessages(messages []models.ChatMessage) ([]bson.Raw, error) {
	docs := make([]bson.Raw, 0, len(messages))
	for i, m := range messages {
		if len(m.Raw) > 0 {
			docs = append(docs, bson.Raw(bytes.Clone(m.Raw)))
			continue
		}

		doc := bson.D{}
		if oid, err := primitive.ObjectIDFromHex(m.ID); err == nil {
			doc = append(doc, bson.E{Key: "_id", Value: oid})
		} else if m.ID != "" {
			doc = append(doc, bson.E{Key: "_id", Value: m.ID})
		}
		doc = append(doc,
			bson.E{Key: "role", Value: m.Role},
			bson.E{Key: "content", Value: m.Content},
		)
		if !m.CreatedAt.IsZero() {
			doc = append(doc, bson.E{Key: "createdAt", Value: m.CreatedAt})
		}

		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		docs = append(docs, raw)
	}
	return docs, nil
}

type activityDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ReportID     string             `bson:"reportId"`
	ActivityType string             `bson:"activityType"`
	Description  string             `bson:"description"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// MongoStore implements Backend on the chat application's MongoDB database
type MongoStore struct {
	db     *mongo.Database
	logger *zap.SugaredLogger
}

var _ Backend = (*MongoStore)(nil)

// NewMongoStore creates a new MongoDB-backed store
func NewMongoStore(db *mongo.Database, logger *zap.SugaredLogger) *MongoStore {
	return &MongoStore{db: db, logger: logger}
}

// EnsureIndexes creates the indexes the report queries rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(reportsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create report indexes: %w", err)
	}

	_, err = s.db.Collection(activityCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create activity indexes: %w", err)
	}
	return nil
}

// FindChatByID loads a chat transcript. Ids that are not valid ObjectIDs
// cannot exist and are reported as not found.
func (s *MongoStore) FindChatByID(ctx context.Context, id string) (*models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc chatDocument
	err = s.db.Collection(chatsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}

	messages, err := decodeMessages(doc.Messages)
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", id, err)
	}

	return &models.Chat{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		Title:     doc.Title,
		Messages:  messages,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// CreateReport inserts a new report document
func (s *MongoStore) CreateReport(ctx context.Context, r *models.Report) error {
	messages, err := encodeMessages(r.Messages)
	if err != nil {
		return fmt.Errorf("encode report messages: %w", err)
	}

	doc := reportDocument{
		ID:          primitive.NewObjectID(),
		ChatID:      r.ChatID,
		ReportedBy:  r.ReportedBy,
		Reason:      r.Reason,
		Description: r.Description,
		Status:      string(r.EffectiveStatus()),
		Messages:    messages,
		CreatedAt:   r.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(reportsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	r.ID = doc.ID.Hex()
	r.Status = models.ReportStatus(doc.Status)
	r.CreatedAt = doc.CreatedAt
	return nil
}

// ListReports returns every report, newest first
func (s *MongoStore) ListReports(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.findReports(ctx, bson.M{}, opts)
}

// FindPendingReports returns pending reports created at or before cutoff
func (s *MongoStore) FindPendingReports(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	// a missing status counts as pending
	filter := bson.M{
		"status":    bson.M{"$in": bson.A{string(models.StatusPending), nil}},
		"createdAt": bson.M{"$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.findReports(ctx, filter, opts)
}

func (s *MongoStore) findReports(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Report, error) {
	cur, err := s.db.Collection(reportsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reportDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}

	reports := make([]models.Report, 0, len(docs))
	for i := range docs {
		r, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// LogActivity records a report activity entry
func (s *MongoStore) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	doc := activityDocument{
		ID:           primitive.NewObjectID(),
		ReportID:     entry.ReportID,
		ActivityType: entry.ActivityType,
		Description:  entry.Description,
		CreatedAt:    entry.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(activityCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert report activity: %w", err)
	}

	entry.ID = doc.ID.Hex()
	entry.CreatedAt = doc.CreatedAt
	return nil
}

// RecentActivity returns recent activity across all reports
func (s *MongoStore) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.db.Collection(activityCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find report activity: %w", err)
	}
	defer cur.Close(ctx)

	logs := make([]models.ActivityLog, 0)
	for cur.Next(ctx) {
		var doc activityDocument
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warnw("Skipping unreadable activity document", "error", err)
			continue
		}
		logs = append(logs, models.ActivityLog{
			ID:           doc.ID.Hex(),
			ReportID:     doc.ReportID,
			ActivityType: doc.ActivityType,
			Description:  doc.Description,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return logs, cur.Err()
}

// Ping checks database connectivity
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Name identifies the backend in health output
func (s *MongoStore) Name() string { return "mongo" }
