package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"
	userSequence       = "users"

	indexUsername = "uniq_username"
	indexEmail    = "uniq_email"
	indexPhone    = "uniq_phone_number"
)

type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}
}

// userDoc is the stored shape of a user. Optional text fields are omitted
// when empty so the partial unique indexes ignore them.
type userDoc struct {
	ID           int64      `bson:"_id"`
	Username     string     `bson:"username"`
	PasswordHash string     `bson:"password"`
	Role         string     `bson:"role"`
	Email        string     `bson:"email,omitempty"`
	Name         string     `bson:"name,omitempty"`
	Address      string     `bson:"address,omitempty"`
	Bio          string     `bson:"bio,omitempty"`
	PhoneNumber  string     `bson:"phone_number,omitempty"`
	Status       string     `bson:"status,omitempty"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
	Avatar       string     `bson:"avatar,omitempty"`
}

func toDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		Email:        u.Email,
		Name:         u.Name,
		Address:      u.Address,
		Bio:          u.Bio,
		PhoneNumber:  u.PhoneNumber,
		Status:       u.Status,
		LastLogin:    u.LastLogin,
		Avatar:       u.Avatar,
	}
}

func (d userDoc) toDomain() *domain.User {
	role, ok := domain.ParseRole(d.Role)
	if !ok {
		role = domain.Role(d.Role)
	}
	var lastLogin *time.Time
	if d.LastLogin != nil {
		t := domain.Today(*d.LastLogin)
		lastLogin = &t
	}
	return &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         role,
		Email:        d.Email,
		Name:         d.Name,
		Address:      d.Address,
		Bio:          d.Bio,
		PhoneNumber:  d.PhoneNumber,
		Status:       d.Status,
		LastLogin:    lastLogin,
		Avatar:       d.Avatar,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *UserRepository) FindByFilters(ctx context.Context, f ports.UserFilter) ([]*domain.User, error) {
	return r.find(ctx, buildFilter(f))
}

func (r *UserRepository) Count(ctx context.Context, f ports.UserFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Save inserts a user with a freshly allocated id when u.ID is zero and
// replaces the stored document otherwise.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDoc(u)
	if doc.ID == 0 {
		id, err := r.nextID(ctx)
		if err != nil {
			return nil, err
		}
		doc.ID = id
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return nil, mapWriteError("insert user", err)
		}
		return doc.toDomain(), nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return nil, mapWriteError("replace user", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique and lookup indexes on the users collection.
// Email and phone number uniqueness only applies to documents that carry them.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	present := func(field string) bson.D {
		return bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}}
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true).SetPartialFilterExpression(present("email")),
		},
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetName(indexPhone).SetUnique(true).SetPartialFilterExpression(present("phone_number")),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

// nextID atomically increments the users sequence in the counters collection.
func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}
	return counter.Seq, nil
}

// buildFilter translates a UserFilter into a Mongo query. The name regex
// never matches documents without a name.
func buildFilter(f ports.UserFilter) bson.M {
	filter := bson.M{}
	if f.Name != nil {
		// Users without a name never match a name filter, even an empty one.
		filter["name"] = bson.M{
			"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(*f.Name), Options: "i"},
			"$ne":    "",
		}
	}
	if f.Role != nil {
		filter["role"] = f.Role.String()
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	return filter
}

// mapWriteError turns unique index violations into domain errors.
func mapWriteError(op string, err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return domain.ErrDuplicateEmail
	case strings.Contains(msg, indexPhone):
		return domain.ErrDuplicatePhoneNumber
	default:
		return domain.ErrDuplicateUsername
	}
}
