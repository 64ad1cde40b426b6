package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// User is the persisted account document.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// Users provides access to the users collection.
type Users struct {
	coll *mongo.Collection
}

// NewUsers constructs the repository over the given database.
func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection("users")}
}

// Create inserts a new user and returns it with the assigned identifier.
func (u *Users) Create(ctx context.Context, email, passwordHash string) (User, error) {
	user := User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, fmt.Errorf("insert user: %w: %w", ErrDuplicateEmail, err)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// ErrDuplicateEmail indicates the email is already registered.
var ErrDuplicateEmail = errors.New("repo: email already registered")

// FindByEmail returns the user with the given email.
func (u *Users) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// FindByID returns the user with the given identifier.
func (u *Users) FindByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	var user User
	if err := u.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// EnsureIndexes creates the unique email index.
func (u *Users) EnsureIndexes(ctx context.Context) error {
	_, err := u.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
