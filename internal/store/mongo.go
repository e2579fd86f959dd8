package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"

	"github.com/nnizic/unipu-ds/internal/model"
)

var storeOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "item_store_operation_duration_seconds",
		Help:    "Duration of item store operations in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "result"},
)

// itemDocument is the stored shape of an item.
type itemDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
}

func (d itemDocument) toModel() model.Item {
	return model.Item{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
	}
}

// ConnectOptions configures the MongoDB client.
type ConnectOptions struct {
	URI            string
	AppName        string
	ConnectTimeout time.Duration
}

// Connect creates a MongoDB client and verifies it with a ping.
// Every command is traced through the global OpenTelemetry tracer provider.
func Connect(ctx context.Context, opts ConnectOptions) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetAppName(opts.AppName).
		SetMonitor(otelmongo.NewMonitor())

	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

// MongoStore implements Store on top of a MongoDB collection.
type MongoStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore creates a new MongoStore backed by coll.
func NewMongoStore(coll *mongo.Collection, logger *zap.Logger) *MongoStore {
	return &MongoStore{
		coll:   coll,
		logger: logger.With(zap.String("collection", coll.Name())),
	}
}

// Insert stores a new item and returns its generated ObjectID in hex form.
func (s *MongoStore) Insert(ctx context.Context, item model.NewItem) (id string, err error) {
	defer observe("insert", time.Now(), &err)

	res, err := s.coll.InsertOne(ctx, itemDocument{
		Name:        item.Name,
		Description: item.Description,
	})
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert item: unexpected id type %T", res.InsertedID)
	}

	return oid.Hex(), nil
}

// FindAll returns up to limit items in natural order.
func (s *MongoStore) FindAll(ctx context.Context, limit int64) (items []model.Item, err error) {
	defer observe("find_all", time.Now(), &err)

	if limit <= 0 {
		limit = DefaultListLimit
	}

	cursor, err := s.coll.Find(ctx, bson.D{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items = make([]model.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toModel())
	}

	return items, nil
}

// FindByID retrieves an item by its hex ObjectID.
func (s *MongoStore) FindByID(ctx context.Context, id string) (item *model.Item, err error) {
	defer observe("find_by_id", time.Now(), &err)

	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	return s.findOne(ctx, oid)
}

func (s *MongoStore) findOne(ctx context.Context, oid primitive.ObjectID) (*model.Item, error) {
	var doc itemDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find item %s: %w", oid.Hex(), err)
	}

	item := doc.toModel()
	return &item, nil
}

// UpdateByID applies a $set of the present patch fields and returns the updated item.
func (s *MongoStore) UpdateByID(
	ctx context.Context,
	id string,
	patch model.ItemPatch,
) (item *model.Item, err error) {
	defer observe("update_by_id", time.Now(), &err)

	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	set := SetFields(patch)
	if len(set) == 0 {
		return s.findOne(ctx, oid)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc itemDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}

	updated := doc.toModel()
	s.logger.Debug("item updated", zap.String("item_id", id), zap.Int("fields", len(set)))

	return &updated, nil
}

// DeleteByID removes an item and reports how many documents were deleted.
func (s *MongoStore) DeleteByID(ctx context.Context, id string) (count int64, err error) {
	defer observe("delete_by_id", time.Now(), &err)

	oid, err := ParseID(id)
	if err != nil {
		// A malformed id cannot match anything.
		return 0, nil
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete item %s: %w", id, err)
	}

	return res.DeletedCount, nil
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// ParseID converts a hex string into an ObjectID. A malformed id is reported
// as an error matching both ErrNotFound and ErrInvalidID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w: %q", ErrNotFound, ErrInvalidID, id)
	}
	return oid, nil
}

// SetFields builds the $set document for the present fields of a patch.
func SetFields(patch model.ItemPatch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return set
}

func observe(operation string, start time.Time, errp *error) {
	result := "ok"
	switch {
	case *errp == nil:
	case errors.Is(*errp, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	storeOperationDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
