package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"codetrack-backend/lib/timezone"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tracker/store")

const studentsCollection = "students"

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(studentsCollection)}
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*StudentRecord, error) {
	ctx, span := tracer.Start(ctx, "GetByID")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.SetStatus(codes.Error, "malformed object id")
		return nil, ErrNotFound
	}

	// deactivated students are invisible to lookups
	var record StudentRecord
	err = s.col.FindOne(ctx, bson.M{"_id": oid, "isActive": true}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &record, nil
}

func (s *MongoStore) GetByRoll(ctx context.Context, roll string) (*StudentRecord, error) {
	ctx, span := tracer.Start(ctx, "GetByRoll")
	defer span.End()

	// roll numbers come in with inconsistent casing from bulk imports
	filter := bson.M{
		"rollNo": primitive.Regex{
			Pattern: fmt.Sprintf("^%s$", regexp.QuoteMeta(roll)),
			Options: "i",
		},
		"isActive": true,
	}

	var record StudentRecord
	err := s.col.FindOne(ctx, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &record, nil
}

func (s *MongoStore) ListStale(ctx context.Context, cutoff time.Time) ([]*StudentRecord, error) {
	ctx, span := tracer.Start(ctx, "ListStale")
	defer span.End()

	filter := bson.M{
		"isActive":      true,
		"lastScrapedAt": bson.M{"$lt": cutoff},
	}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.M{"lastScrapedAt": 1}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*StudentRecord
	for cursor.Next(ctx) {
		var record StudentRecord
		err := cursor.Decode(&record)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		records = append(records, &record)
	}
	return records, cursor.Err()
}

func (s *MongoStore) Save(ctx context.Context, record *StudentRecord) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	record.UpdatedAt = timezone.Now()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
	}

	_, err := s.col.ReplaceOne(
		ctx,
		bson.M{"_id": record.ID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *MongoStore) Deactivate(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Deactivate")
	defer span.End()

	record, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	record.IsActive = false
	return s.Save(ctx, record)
}
