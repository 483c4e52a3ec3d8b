package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parkjm/restock/internal/domain/models"
)

const (
	itemsCollection   = "products"
	historyCollection = "inventory_history"

	// Attempts for the compare-and-swap stock update before giving up.
	casRetries = 5
)

// MongoDBRepository implements the inventory.Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// ListItems returns every tracked item.
func (r *MongoDBRepository) ListItems(ctx context.Context) ([]models.Item, error) {
	coll := r.client.Database(r.dbName).Collection(itemsCollection)

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "qcode", Value: 1}}))
	if err != nil {
		return nil, upstream("list items", err)
	}
	defer cursor.Close(ctx)

	var items []models.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, upstream("decode items", err)
	}
	return items, nil
}

// GetItem returns the item for the given qcode.
func (r *MongoDBRepository) GetItem(ctx context.Context, qcode string) (*models.Item, error) {
	coll := r.client.Database(r.dbName).Collection(itemsCollection)

	var item models.Item
	err := coll.FindOne(ctx, bson.M{"qcode": qcode}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("item %s: %w", qcode, models.ErrNotFound)
	}
	if err != nil {
		return nil, upstream("get item", err)
	}
	return &item, nil
}

// ListObservations returns the item's observations at or after since,
// ascending by timestamp.
func (r *MongoDBRepository) ListObservations(ctx context.Context, qcode string, since time.Time) ([]models.Observation, error) {
	coll := r.client.Database(r.dbName).Collection(historyCollection)

	filter := bson.M{
		"qcode":     qcode,
		"timestamp": bson.M{"$gte": since},
	}
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, upstream("list observations", err)
	}
	defer cursor.Close(ctx)

	var obs []models.Observation
	if err := cursor.All(ctx, &obs); err != nil {
		return nil, upstream("decode observations", err)
	}
	return obs, nil
}

// AppendObservation updates the item's stock with a compare-and-swap on the
// previously read value, so two concurrent adjustments cannot overwrite each
// other and the recorded quantity change always reflects the stock value
// actually replaced.
func (r *MongoDBRepository) AppendObservation(ctx context.Context, qcode string, newQuantity float64, method, notes string) (*models.RecordResult, error) {
	items := r.client.Database(r.dbName).Collection(itemsCollection)
	history := r.client.Database(r.dbName).Collection(historyCollection)

	for attempt := 0; attempt < casRetries; attempt++ {
		item, err := r.GetItem(ctx, qcode)
		if err != nil {
			return nil, err
		}

		previous := item.CurrentStock
		res := items.FindOneAndUpdate(ctx,
			bson.M{"qcode": qcode, "current_stock": previous},
			bson.M{"$set": bson.M{"current_stock": newQuantity}},
		)
		if err := res.Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Lost the race against a concurrent adjustment; re-read and retry.
				continue
			}
			return nil, upstream("update stock", err)
		}

		obs := models.Observation{
			Qcode:           qcode,
			Timestamp:       time.Now().UTC(),
			Quantity:        newQuantity,
			QuantityChange:  newQuantity - previous,
			DetectionMethod: method,
			Notes:           notes,
		}
		if _, err := history.InsertOne(ctx, obs); err != nil {
			return nil, upstream("insert observation", err)
		}

		return &models.RecordResult{
			Qcode:          qcode,
			PreviousStock:  previous,
			CurrentStock:   newQuantity,
			QuantityChange: newQuantity - previous,
		}, nil
	}

	return nil, upstream("update stock", fmt.Errorf("gave up after %d contended attempts", casRetries))
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, models.ErrUpstreamUnavailable)
}
