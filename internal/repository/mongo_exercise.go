package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Strength 2 compares base letters and accents but ignores case
var exerciseNameCollation = &options.Collation{Locale: "en", Strength: 2}

type MongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository ensures the case-insensitive unique name index.
// An index failure is logged; inserts still work but duplicates are no longer rejected.
func NewMongoExerciseRepository(db *mongo.Database) *MongoExerciseRepository {
	coll := db.Collection("exercises")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
		Options: options.Index().
			SetName("exercise_name_ci").
			SetUnique(true).
			SetCollation(exerciseNameCollation),
	})
	if err != nil {
		logrus.WithError(err).Warn("failed to ensure exercise name index")
	}

	return &MongoExerciseRepository{collection: coll}
}

func (r *MongoExerciseRepository) Create(ctx context.Context, ex *domain.Exercise) error {
	if err := ex.Normalize(); err != nil {
		return err
	}

	now := time.Now().UTC()
	doc := exerciseDocument{
		ID:          primitive.NewObjectID(),
		Name:        ex.Name,
		MuscleGroup: ex.MuscleGroup,
		Equipment:   ex.Equipment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateExercise
		}
		return fmt.Errorf("insert exercise %q: %w", ex.Name, err)
	}

	ex.ID = doc.ID.Hex()
	ex.CreatedAt = now
	ex.UpdatedAt = now
	return nil
}

func (r *MongoExerciseRepository) GetByName(ctx context.Context, name string) (*domain.Exercise, error) {
	opts := options.FindOne().SetCollation(exerciseNameCollation)

	var doc exerciseDocument
	err := r.collection.FindOne(ctx, bson.M{"name": strings.TrimSpace(name)}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find exercise %q: %w", name, err)
	}
	return doc.toDomain(), nil
}

// List returns the catalog sorted by name, optionally narrowed to one muscle group
func (r *MongoExerciseRepository) List(ctx context.Context, muscleGroup string) ([]*domain.Exercise, error) {
	filter := bson.D{}
	if muscleGroup != "" {
		filter = append(filter, bson.E{Key: "muscle_group", Value: muscleGroup})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetCollation(exerciseNameCollation)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	var docs []exerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}

	exercises := make([]*domain.Exercise, len(docs))
	for i := range docs {
		exercises[i] = docs[i].toDomain()
	}
	return exercises, nil
}

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	MuscleGroup string             `bson:"muscle_group,omitempty"`
	Equipment   string             `bson:"equipment,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *exerciseDocument) toDomain() *domain.Exercise {
	return &domain.Exercise{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		MuscleGroup: d.MuscleGroup,
		Equipment:   d.Equipment,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
