package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkoutLogRepository stores completed workouts.
// The unique (user_id, idempotency_key) index is what makes a replayed submission a no-op.
type MongoWorkoutLogRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutLogRepository(db *mongo.Database) *MongoWorkoutLogRepository {
	coll := db.Collection("workout_logs")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}},
		},
	}
	// Idempotent replay relies on the unique index when the redis replay cache misses
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).Error("failed to ensure workout log indexes, duplicate idempotency keys will not be rejected")
	}

	return &MongoWorkoutLogRepository{
		collection: coll,
	}
}

func (r *MongoWorkoutLogRepository) Create(ctx context.Context, log *domain.WorkoutLog) error {
	log.CreatedAt = time.Now()

	doc := workoutLogDocument{
		UserID:         log.UserID,
		IdempotencyKey: log.IdempotencyKey,
		TemplateID:     log.TemplateID,
		StartedAt:      log.StartedAt,
		Exercises:      log.Exercises,
		CreatedAt:      log.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to create workout log: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		log.ID = oid.Hex()
	}
	return nil
}

func (r *MongoWorkoutLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutLog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoWorkoutLogRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.WorkoutLog, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "idempotency_key": key})
}

func (r *MongoWorkoutLogRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.WorkoutLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []workoutLogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	logs := make([]*domain.WorkoutLog, 0, len(docs))
	for i := range docs {
		logs = append(logs, docs[i].toDomain())
	}
	return logs, nil
}

func (r *MongoWorkoutLogRepository) findOne(ctx context.Context, filter bson.M) (*domain.WorkoutLog, error) {
	var doc workoutLogDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrWorkoutLogNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

type workoutLogDocument struct {
	ID             primitive.ObjectID        `bson:"_id,omitempty"`
	UserID         string                    `bson:"user_id"`
	IdempotencyKey string                    `bson:"idempotency_key"`
	TemplateID     *string                   `bson:"template_id,omitempty"`
	StartedAt      time.Time                 `bson:"started_at"`
	Exercises      []domain.ExerciseLogEntry `bson:"exercises"`
	CreatedAt      time.Time                 `bson:"created_at"`
}

func (d *workoutLogDocument) toDomain() *domain.WorkoutLog {
	exercises := d.Exercises
	if exercises == nil {
		exercises = []domain.ExerciseLogEntry{}
	}
	return &domain.WorkoutLog{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		IdempotencyKey: d.IdempotencyKey,
		TemplateID:     d.TemplateID,
		StartedAt:      d.StartedAt.UTC(),
		Exercises:      exercises,
		CreatedAt:      d.CreatedAt,
	}
}
