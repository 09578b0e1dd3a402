package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/todo-app/identity-service/internal/core/domain"
)

const usersCollection = "users"

// UserRepository stores users in MongoDB. Soft-deleted documents keep their
// row but are excluded from every lookup.
type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(usersCollection), now: time.Now}
}

type mongoUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Username      string             `bson:"username"`
	PasswordHash  string             `bson:"password_hash"`
	Role          int                `bson:"role"`
	FirstName     string             `bson:"first_name,omitempty"`
	LastName      string             `bson:"last_name,omitempty"`
	FirstNameRuby string             `bson:"first_name_ruby,omitempty"`
	LastNameRuby  string             `bson:"last_name_ruby,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
	CreatedBy     string             `bson:"created_by,omitempty"`
	UpdatedBy     string             `bson:"updated_by,omitempty"`
	Deleted       bool               `bson:"deleted"`
}

// EnsureIndexes creates the unique index on active usernames. It is what
// keeps two concurrent registrations of one name from both succeeding.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetName("username_active_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"deleted": false}),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	actor := user.CreatedBy
	if actor == "" {
		actor = user.Username
	}

	doc := mongoUser{
		Username:      user.Username,
		PasswordHash:  user.PasswordHash,
		Role:          int(user.Role),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		FirstNameRuby: user.FirstNameRuby,
		LastNameRuby:  user.LastNameRuby,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: insert user: %w", domain.ErrStoreUnavailable, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username, "deleted": false})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid, "deleted": false})
}

// Ping reports whether the server is reachable.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", domain.ErrStoreUnavailable, err)
	}
	return mu.toDomain(), nil
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:            mu.ID.Hex(),
		Username:      mu.Username,
		PasswordHash:  mu.PasswordHash,
		Role:          domain.Role(mu.Role),
		FirstName:     mu.FirstName,
		LastName:      mu.LastName,
		FirstNameRuby: mu.FirstNameRuby,
		LastNameRuby:  mu.LastNameRuby,
		CreatedAt:     mu.CreatedAt,
		UpdatedAt:     mu.UpdatedAt,
		CreatedBy:     mu.CreatedBy,
		UpdatedBy:     mu.UpdatedBy,
		Deleted:       mu.Deleted,
	}
}
