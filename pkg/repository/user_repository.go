package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository stores users together with their embedded cart, wishlist
// and orders.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(collection *mongo.Collection) *UserRepository {
	return &UserRepository{collection: collection}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.JoinDate.IsZero() {
		user.JoinDate = now
	}
	user.Normalize()

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.Normalize()
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindAll streams every user; the password hash is included so the
// migration command can rewrite it.
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, u := range users {
		u.Normalize()
	}
	return users, nil
}

func userFilter(q models.UserQuery) bson.M {
	filter := bson.M{}
	if q.Keyword != "" {
		pattern := regexp.QuoteMeta(q.Keyword)
		filter["$or"] = []bson.M{
			{"full_name": bson.M{"$regex": pattern, "$options": "i"}},
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	switch q.Filter {
	case models.UserFilterBlocked:
		filter["is_blocked"] = true
	case models.UserFilterAdmin:
		filter["is_admin"] = true
	}
	return filter
}

func (r *UserRepository) List(ctx context.Context, q models.UserQuery) ([]*models.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := userFilter(q)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "join_date", Value: -1}}).
		SetSkip(int64(models.Skip(q.Page, q.PageSize))).
		SetLimit(int64(q.PageSize))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	for _, u := range users {
		u.Normalize()
	}
	return users, total, nil
}

func userPatchSet(p *models.UserPatch) bson.M {
	set := bson.M{}
	if p.FullName != nil {
		set["full_name"] = *p.FullName
	}
	if p.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.PasswordHash != nil {
		set["password"] = *p.PasswordHash
	}
	if p.IsAdmin != nil {
		set["is_admin"] = *p.IsAdmin
	}
	if p.IsBlocked != nil {
		set["is_blocked"] = *p.IsBlocked
	}
	return set
}

// update applies an update document and returns the user after the change.
func (r *UserRepository) update(ctx context.Context, filter bson.M, update bson.M, notFound error) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	user.Normalize()
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error) {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	set := userPatchSet(patch)
	set["updated_at"] = time.Now().UTC()
	return r.update(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, apperr.ErrUserNotFound)
}

func (r *UserRepository) SetCart(ctx context.Context, id string, cart []models.CartItem) (*models.User, error) {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = []models.CartItem{}
	}
	return r.update(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"cart": cart, "updated_at": time.Now().UTC()}}, apperr.ErrUserNotFound)
}

func (r *UserRepository) SetWishlist(ctx context.Context, id string, wishlist []string) (*models.User, error) {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if wishlist == nil {
		wishlist = []string{}
	}
	return r.update(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"wishlist": wishlist, "updated_at": time.Now().UTC()}}, apperr.ErrUserNotFound)
}

// SetCartAndWishlist writes both lists in one update.
func (r *UserRepository) SetCartAndWishlist(ctx context.Context, id string, cart []models.CartItem, wishlist []string) (*models.User, error) {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"cart":       cart,
		"wishlist":   wishlist,
		"updated_at": time.Now().UTC(),
	}}, apperr.ErrUserNotFound)
}

// AppendOrder pushes the order and empties the cart in a single update.
func (r *UserRepository) AppendOrder(ctx context.Context, id string, order models.Order) error {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return err
	}
	_, err = r.update(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{"orders": order},
		"$set":  bson.M{"cart": []models.CartItem{}, "updated_at": time.Now().UTC()},
	}, apperr.ErrUserNotFound)
	return err
}

// SetOrderStatus overwrites the status of one embedded order.
func (r *UserRepository) SetOrderStatus(ctx context.Context, userID string, orderID int64, status models.OrderStatus) error {
	oid, err := parseID(userID, apperr.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "orders.id": orderID},
		bson.M{"$set": bson.M{"orders.$.status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperr.ErrOrderNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, apperr.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Stats(ctx context.Context) (models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats models.UserStats
	var err error
	if stats.TotalUsers, err = r.collection.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	if stats.Admins, err = r.collection.CountDocuments(ctx, bson.M{"is_admin": true}); err != nil {
		return stats, fmt.Errorf("count admins: %w", err)
	}
	if stats.Blocked, err = r.collection.CountDocuments(ctx, bson.M{"is_blocked": true}); err != nil {
		return stats, fmt.Errorf("count blocked users: %w", err)
	}
	stats.ActiveUsers = stats.TotalUsers - stats.Blocked
	return stats, nil
}

func orderStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$orders"}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"total_orders":  bson.M{"$sum": 1},
			"total_revenue": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$orders.total", 0}}},
			"shipped_orders": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$toLower": "$orders.status"}, "shipped"}}, 1, 0,
			}}},
		}}},
	}
}

// OrderStats scans every user's embedded orders.
func (r *UserRepository) OrderStats(ctx context.Context) (models.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats models.OrderStats
	cursor, err := r.collection.Aggregate(ctx, orderStatsPipeline())
	if err != nil {
		return stats, fmt.Errorf("aggregate order stats: %w", err)
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return stats, fmt.Errorf("decode order stats: %w", err)
		}
	}
	return stats, cursor.Err()
}

// orderListPipeline flattens embedded orders into one row per order.
func orderListPipeline(q models.OrderQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$orders"}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"order_id":     "$orders.id",
			"order_id_str": bson.M{"$toString": "$orders.id"},
			"customer":     "$full_name",
			"user_id":      bson.M{"$toString": "$_id"},
			"total":        "$orders.total",
			"status":       "$orders.status",
			"date":         "$orders.date",
			"items":        "$orders.items",
		}}},
	}

	if q.Status != "" {
		match := bson.M{"status": bson.M{"$regex": "^" + regexp.QuoteMeta(q.Status) + "$", "$options": "i"}}
		if strings.EqualFold(q.Status, string(models.OrderPending)) {
			// Legacy orders are stored as "placed" or without a status.
			match = bson.M{"$or": bson.A{
				match,
				bson.M{"status": bson.M{"$regex": "^placed$", "$options": "i"}},
				bson.M{"status": bson.M{"$in": bson.A{nil, ""}}},
			}}
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	if q.Keyword != "" {
		pattern := regexp.QuoteMeta(q.Keyword)
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"customer": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"order_id_str": bson.M{"$regex": pattern, "$options": "i"}},
		}}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "date", Value: -1}, {Key: "order_id", Value: -1}}}},
		bson.D{{Key: "$facet", Value: bson.M{
			"total": bson.A{bson.M{"$count": "count"}},
			"orders": bson.A{
				bson.M{"$skip": models.Skip(q.Page, q.PageSize)},
				bson.M{"$limit": q.PageSize},
			},
		}}},
	)
	return pipeline
}

func (r *UserRepository) ListOrders(ctx context.Context, q models.OrderQuery) ([]models.OrderSummary, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, orderListPipeline(q))
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
		Orders []models.OrderSummary `bson:"orders"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return nil, 0, fmt.Errorf("decode orders: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if len(result.Total) > 0 {
		total = result.Total[0].Count
	}
	orders := result.Orders
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	for i := range orders {
		orders[i].Status = models.NormalizeStoredStatus(orders[i].Status)
	}
	return orders, total, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.collection.CountDocuments(ctx, bson.M{})
}
