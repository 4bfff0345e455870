package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTemplateRepository stores workout templates in the workout_templates collection
type MongoTemplateRepository struct {
	collection *mongo.Collection
}

func NewMongoTemplateRepository(db *mongo.Database) *MongoTemplateRepository {
	return &MongoTemplateRepository{collection: db.Collection("workout_templates")}
}

func (r *MongoTemplateRepository) Create(ctx context.Context, tmpl *domain.WorkoutTemplate) error {
	now := time.Now().UTC()
	doc := templateDocument{
		ID:        primitive.NewObjectID(),
		Name:      tmpl.Name,
		Exercises: tmpl.Exercises,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert template %q: %w", tmpl.Name, err)
	}

	tmpl.ID = doc.ID.Hex()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	return nil
}

func (r *MongoTemplateRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutTemplate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var doc templateDocument
	err = r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find template %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// List returns every template sorted by name
func (r *MongoTemplateRepository) List(ctx context.Context) ([]*domain.WorkoutTemplate, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var docs []templateDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	templates := make([]*domain.WorkoutTemplate, len(docs))
	for i := range docs {
		templates[i] = docs[i].toDomain()
	}
	return templates, nil
}

// templateDocument holds the ObjectID _id that the string-typed domain field cannot
type templateDocument struct {
	ID        primitive.ObjectID        `bson:"_id"`
	Name      string                    `bson:"name"`
	Exercises []domain.TemplateExercise `bson:"exercises"`
	CreatedAt time.Time                 `bson:"created_at"`
	UpdatedAt time.Time                 `bson:"updated_at"`
}

func (d *templateDocument) toDomain() *domain.WorkoutTemplate {
	exercises := d.Exercises
	if exercises == nil {
		exercises = []domain.TemplateExercise{}
	}
	return &domain.WorkoutTemplate{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Exercises: exercises,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
