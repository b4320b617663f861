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
)

const usersCollection = "users"

// userDocument is the BSON shape of a user.
type userDocument struct {
	ID                  string     `bson:"_id"`
	Name                string     `bson:"name"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"password"`
	Role                string     `bson:"role"`
	ResetPasswordToken  *string    `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time `bson:"resetPasswordExpire,omitempty"`
	CreatedAt           time.Time  `bson:"createdAt"`
	UpdatedAt           time.Time  `bson:"updatedAt"`
}

func userDocumentFromEntity(u *entity.User) *userDocument {
	return &userDocument{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		Role:                u.Role,
		ResetPasswordToken:  u.ResetPasswordTokenHash,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:                     d.ID,
		Name:                   d.Name,
		Email:                  d.Email,
		PasswordHash:           d.PasswordHash,
		Role:                   d.Role,
		ResetPasswordTokenHash: d.ResetPasswordToken,
		ResetPasswordExpire:    d.ResetPasswordExpire,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

// userMongo はUserRepositoryインターフェースのMongoDB実装です。
type userMongo struct {
	coll *mongo.Collection
}

var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo はusersコレクションを使うuserMongoを生成します。
func NewUserMongo(db *mongo.Database) *userMongo {
	return &userMongo{coll: db.Collection(usersCollection)}
}

// EnsureIndexes はemailのユニークインデックスとリセットトークンのインデックスを作成します。
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	return err
}

// Create はユーザーを挿入します。重複キーはusecase.ErrEmailAlreadyExistsに変換されます。
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if _, err := r.coll.InsertOne(ctx, userDocumentFromEntity(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userMongo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *userMongo) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "resetPasswordToken", Value: hash},
		{Key: "resetPasswordExpire", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

func (r *userMongo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

// SetResetToken は$setでトークン項目のみを更新します。
func (r *userMongo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "resetPasswordToken", Value: tokenHash},
		{Key: "resetPasswordExpire", Value: expiresAt},
		{Key: "updatedAt", Value: now},
	}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// ClearResetToken はトークンがまだ tokenHash の場合のみ$unsetします。
func (r *userMongo) ClearResetToken(ctx context.Context, userID, tokenHash string) error {
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "resetPasswordToken", Value: tokenHash},
	}
	update := bson.D{{Key: "$unset", Value: bson.D{
		{Key: "resetPasswordToken", Value: ""},
		{Key: "resetPasswordExpire", Value: ""},
	}}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

// ConsumeResetToken はフィルタ条件付きのUpdateOneでトークンを一度だけ消費します。
func (r *userMongo) ConsumeResetToken(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error {
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "resetPasswordToken", Value: tokenHash},
		{Key: "resetPasswordExpire", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "resetPasswordToken", Value: ""},
			{Key: "resetPasswordExpire", Value: ""},
		}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
