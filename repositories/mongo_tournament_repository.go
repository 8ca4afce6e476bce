package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/royale-tournaments/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tournamentsCollection = "tournaments"

// tournamentDocument keeps the queried fields at the top level next to the embedded aggregate.
type tournamentDocument struct {
	ID                 string             `bson:"_id"`
	OrganizerID        string             `bson:"organizer_id"`
	Status             string             `bson:"status"`
	ScheduledPublishAt *time.Time         `bson:"scheduled_publish_at"`
	Version            int                `bson:"version"`
	CreatedAt          time.Time          `bson:"created_at"`
	Tournament         *models.Tournament `bson:"tournament"`
}

func newTournamentDocument(t *models.Tournament) tournamentDocument {
	return tournamentDocument{
		ID:                 t.ID,
		OrganizerID:        t.OrganizerID,
		Status:             string(t.Status),
		ScheduledPublishAt: t.ScheduledPublishAt,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		Tournament:         t,
	}
}

func (d *tournamentDocument) toModel() (*models.Tournament, error) {
	if d.Tournament == nil {
		return nil, fmt.Errorf("%w: document %s has no tournament", ErrTournamentDocumentBad, d.ID)
	}
	d.Tournament.Version = d.Version
	return d.Tournament, nil
}

type mongoTournamentRepository struct {
	collection *mongo.Collection
}

func NewMongoTournamentRepository(db *mongo.Database) TournamentRepository {
	return &mongoTournamentRepository{collection: db.Collection(tournamentsCollection)}
}

// EnsureMongoIndexes creates the indexes the scheduled publisher and list queries rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(tournamentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organizer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_publish_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create tournament indexes: %w", err)
	}
	return nil
}

func (r *mongoTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	_, err := r.collection.InsertOne(ctx, newTournamentDocument(t))
	if mongo.IsDuplicateKeyError(err) {
		return ErrTournamentIDConflict
	}
	return err
}

func (r *mongoTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	var doc tournamentDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *mongoTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := bson.M{}
	if filter.OrganizerID != nil {
		query["organizer_id"] = *filter.OrganizerID
	}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tournaments := make([]models.Tournament, 0)
	for cursor.Next(ctx) {
		var doc tournamentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		t, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, cursor.Err()
}

func (r *mongoTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	next := *t
	next.Version = t.Version + 1

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": t.ID, "version": t.Version},
		newTournamentDocument(&next),
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": t.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("%w: expected version %d", ErrVersionConflict, t.Version)
	}

	t.Version = next.Version
	return nil
}

func (r *mongoTournamentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (r *mongoTournamentRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]string, error) {
	query := bson.M{
		"scheduled_publish_at": bson.M{"$ne": nil, "$lte": now},
		"status":               bson.M{"$ne": string(models.StatusRegistration)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_publish_at", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
