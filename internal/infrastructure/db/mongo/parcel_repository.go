package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const collectionParcels = "parcels"

type ParcelRepository struct {
	col *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) *ParcelRepository {
	return &ParcelRepository{col: db.Collection(collectionParcels)}
}

// Create inserts a new parcel document.
func (r *ParcelRepository) Create(ctx context.Context, p *domain.Parcel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	return err
}

// FindByID retrieves a parcel by its identifier.
func (r *ParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Parcel
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns parcels newest first. A zero Limit returns every match.
func (r *ParcelRepository) List(ctx context.Context, filter ports.ListParcelsFilter) ([]*domain.Parcel, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := listQuery(filter)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		page := max(filter.Page, 1)
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	parcels := make([]*domain.Parcel, 0)
	if err := cur.All(ctx, &parcels); err != nil {
		return nil, 0, err
	}
	return parcels, total, nil
}

// Update sets the user-editable fields that are present in update.
func (r *ParcelRepository) Update(ctx context.Context, id string, update domain.ParcelUpdate, at time.Time) (*domain.Parcel, error) {
	set := bson.M{"updated_at": at}
	if update.SenderName != nil {
		set["sender_name"] = *update.SenderName
	}
	if update.Country != nil {
		set["country"] = *update.Country
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	return r.findOneAndSet(ctx, id, set)
}

// ApplyTracking replaces status and history, leaving every other field as stored.
func (r *ParcelRepository) ApplyTracking(ctx context.Context, id string, status domain.ParcelStatus, history []domain.TrackingEvent, at time.Time) (*domain.Parcel, error) {
	if history == nil {
		history = []domain.TrackingEvent{}
	}
	return r.findOneAndSet(ctx, id, bson.M{
		"status":     status,
		"history":    history,
		"updated_at": at,
	})
}

// Delete removes a parcel by its identifier.
func (r *ParcelRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrParcelNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the parcels collection.
func (r *ParcelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ParcelRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Parcel
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, err
	}
	return &p, nil
}

// listQuery builds the Mongo filter for List. Search is a case-insensitive
// substring match on tracking number or sender name.
func listQuery(filter ports.ListParcelsFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"tracking_number": pattern},
			bson.M{"sender_name": pattern},
		}
	}
	return query
}

var _ ports.ParcelRepository = (*ParcelRepository)(nil)
