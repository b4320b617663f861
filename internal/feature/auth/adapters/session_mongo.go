package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/clock"
)

const sessionsCollection = "sessions"

type sessionDocument struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"userId"`
	UserAgent string     `bson:"userAgent"`
	IPAddress string     `bson:"ipAddress"`
	CreatedAt time.Time  `bson:"createdAt"`
	ExpiresAt time.Time  `bson:"expiresAt"`
	RevokedAt *time.Time `bson:"revokedAt,omitempty"`
}

func (d *sessionDocument) toEntity() *entity.Session {
	return &entity.Session{
		ID:        d.ID,
		UserID:    d.UserID,
		UserAgent: d.UserAgent,
		IPAddress: d.IPAddress,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
		RevokedAt: d.RevokedAt,
	}
}

// sessionMongo is a MongoDB implementation of the SessionRepository interface.
type sessionMongo struct {
	coll  *mongo.Collection
	clock clock.Clock
}

var _ usecase.SessionRepository = (*sessionMongo)(nil)

// NewSessionMongo creates a sessionMongo backed by the sessions collection.
func NewSessionMongo(db *mongo.Database, clk clock.Clock) *sessionMongo {
	if clk == nil {
		clk = clock.Real()
	}
	return &sessionMongo{coll: db.Collection(sessionsCollection), clock: clk}
}

// EnsureIndexes creates the userId index and a TTL index so MongoDB purges expired sessions itself.
func (r *sessionMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	return err
}

func (r *sessionMongo) Create(ctx context.Context, s *entity.Session) error {
	_, err := r.coll.InsertOne(ctx, &sessionDocument{
		ID:        s.ID,
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	})
	return err
}

func (r *sessionMongo) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var doc sessionDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *sessionMongo) Revoke(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revokedAt", Value: r.clock.Now()}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

func (r *sessionMongo) RevokeAllByUserID(ctx context.Context, userID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "userId", Value: userID}, {Key: "revokedAt", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revokedAt", Value: r.clock.Now()}}}},
	)
	return err
}

func (r *sessionMongo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, r.activeFilter(userID))
}

func (r *sessionMongo) DeleteOldestByUserID(ctx context.Context, userID string) error {
	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	err := r.coll.FindOneAndDelete(ctx, r.activeFilter(userID), opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

func (r *sessionMongo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: r.clock.Now()}}}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *sessionMongo) activeFilter(userID string) bson.D {
	return bson.D{
		{Key: "userId", Value: userID},
		{Key: "revokedAt", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: r.clock.Now()}}},
	}
}
