package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

const roleCollection = "roles"

// RoleRepository persists the role catalog in MongoDB. Name uniqueness is
// enforced by a unique index; SetDefault flips the flag inside a transaction
// so there is never a window with zero or two default roles.
type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(roleCollection)}
}

// EnsureRoleIndexes creates the unique name index. Safe to call on every
// startup.
func EnsureRoleIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(roleCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_role_name"),
	})
	if err != nil {
		return fmt.Errorf("create role indexes: %w", err)
	}
	return nil
}

type mongoRole struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	DisplayName string             `bson:"display_name"`
	IsDefault   bool               `bson:"is_default"`
	Permissions map[string]bool    `bson:"permissions,omitempty"`
	CreatedAt   int64              `bson:"created_at"`
	UpdatedAt   int64              `bson:"updated_at"`
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	doc := mongoRole{
		Name:        role.Name,
		DisplayName: role.DisplayName,
		IsDefault:   role.IsDefault,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt.Unix(),
		UpdatedAt:   role.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRole
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}

	created := *role
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	oid, err := primitive.ObjectIDFromHex(role.ID)
	if err != nil {
		return domain.ErrRoleNotFound
	}

	update := bson.M{"$set": bson.M{
		"display_name": role.DisplayName,
		"permissions":  role.Permissions,
		"updated_at":   role.UpdatedAt.Unix(),
	}}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRoleNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRoleNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *RoleRepository) FindDefault(ctx context.Context) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"is_default": true})
}

// SetDefault clears the default flag on every other role and sets it on the
// given role inside one transaction, keeping the single-default invariant
// even under concurrent callers.
func (r *RoleRepository) SetDefault(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRoleNotFound
	}

	session, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	now := time.Now().UTC().Unix()
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.coll.UpdateByID(sc, oid, bson.M{"$set": bson.M{"is_default": true, "updated_at": now}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrRoleNotFound
		}
		_, err = r.coll.UpdateMany(sc,
			bson.M{"_id": bson.M{"$ne": oid}, "is_default": true},
			bson.M{"$set": bson.M{"is_default": false, "updated_at": now}},
		)
		return nil, err
	})
	if err == domain.ErrRoleNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("set default role: %w", err)
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cursor.Close(ctx)

	var roles []*domain.Role
	for cursor.Next(ctx) {
		var mr mongoRole
		if err := cursor.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		roles = append(roles, mr.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, filter).Decode(&mr); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return mr.toDomain(), nil
}

func (mr *mongoRole) toDomain() *domain.Role {
	perms := mr.Permissions
	if perms == nil {
		perms = map[string]bool{}
	}
	return &domain.Role{
		ID:          mr.ID.Hex(),
		Name:        mr.Name,
		DisplayName: mr.DisplayName,
		IsDefault:   mr.IsDefault,
		Permissions: perms,
		CreatedAt:   unixToTime(mr.CreatedAt),
		UpdatedAt:   unixToTime(mr.UpdatedAt),
	}
}
