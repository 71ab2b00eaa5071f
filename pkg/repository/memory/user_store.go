package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[primitive.ObjectID]*models.User)}
}

// clone copies the user and its embedded collections so callers never
// share memory with the store.
func clone(u *models.User) *models.User {
	c := *u
	c.Wishlist = append([]string{}, u.Wishlist...)
	c.Cart = append([]models.CartItem{}, u.Cart...)
	c.Orders = make([]models.Order, len(u.Orders))
	for i, o := range u.Orders {
		o.Items = append([]models.OrderItem{}, o.Items...)
		c.Orders[i] = o
	}
	c.Normalize()
	return &c
}

func (s *UserStore) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if s.emailTaken(email, primitive.NilObjectID) {
		return apperr.ErrEmailTaken
	}

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.JoinDate.IsZero() {
		user.JoinDate = now
	}
	user.Normalize()
	s.users[user.ID] = clone(user)
	return nil
}

func (s *UserStore) get(id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrUserNotFound
	}
	u, ok := s.users[oid]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *UserStore) FindAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, clone(u))
	}
	return users, nil
}

func matchesUser(u *models.User, q models.UserQuery) bool {
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(u.FullName), kw) &&
			!strings.Contains(strings.ToLower(u.Email), kw) {
			return false
		}
	}
	switch q.Filter {
	case models.UserFilterBlocked:
		return u.IsBlocked
	case models.UserFilterAdmin:
		return u.IsAdmin
	}
	return true
}

func (s *UserStore) List(_ context.Context, q models.UserQuery) ([]*models.User, int64, error) {
	s.mu.RLock()
	users := make([]*models.User, 0)
	for _, u := range s.users {
		if matchesUser(u, q) {
			users = append(users, clone(u))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].JoinDate.After(users[j].JoinDate)
		}
		return users[i].ID.Hex() > users[j].ID.Hex()
	})
	total := int64(len(users))
	return paginate(users, q.Page, q.PageSize), total, nil
}

// mutate runs fn on the stored user under the write lock and returns a copy
// of the result.
func (s *UserStore) mutate(id string, fn func(u *models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (s *UserStore) Update(_ context.Context, id string, patch *models.UserPatch) (*models.User, error) {
	return s.mutate(id, func(u *models.User) error {
		p := *patch
		if p.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*p.Email))
			if s.emailTaken(email, u.ID) {
				return apperr.ErrEmailTaken
			}
			p.Email = &email
		}
		p.Apply(u)
		return nil
	})
}

func (s *UserStore) SetCart(_ context.Context, id string, cart []models.CartItem) (*models.User, error) {
	return s.mutate(id, func(u *models.User) error {
		u.Cart = append([]models.CartItem{}, cart...)
		return nil
	})
}

func (s *UserStore) SetWishlist(_ context.Context, id string, wishlist []string) (*models.User, error) {
	return s.mutate(id, func(u *models.User) error {
		u.Wishlist = append([]string{}, wishlist...)
		return nil
	})
}

func (s *UserStore) SetCartAndWishlist(_ context.Context, id string, cart []models.CartItem, wishlist []string) (*models.User, error) {
	return s.mutate(id, func(u *models.User) error {
		u.Cart = append([]models.CartItem{}, cart...)
		u.Wishlist = append([]string{}, wishlist...)
		return nil
	})
}

func (s *UserStore) AppendOrder(_ context.Context, id string, order models.Order) error {
	_, err := s.mutate(id, func(u *models.User) error {
		order.Items = append([]models.OrderItem{}, order.Items...)
		u.Orders = append(u.Orders, order)
		u.Cart = []models.CartItem{}
		return nil
	})
	return err
}

func (s *UserStore) SetOrderStatus(_ context.Context, userID string, orderID int64, status models.OrderStatus) error {
	_, err := s.mutate(userID, func(u *models.User) error {
		_, order := u.FindOrder(orderID)
		if order == nil {
			return apperr.ErrOrderNotFound
		}
		order.Status = status
		return nil
	})
	return err
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.get(id)
	if err != nil {
		return err
	}
	delete(s.users, u.ID)
	return nil
}

func (s *UserStore) Stats(_ context.Context) (models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.UserStats
	for _, u := range s.users {
		stats.TotalUsers++
		if u.IsAdmin {
			stats.Admins++
		}
		if u.IsBlocked {
			stats.Blocked++
		}
	}
	stats.ActiveUsers = stats.TotalUsers - stats.Blocked
	return stats, nil
}

func (s *UserStore) OrderStats(_ context.Context) (models.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.OrderStats
	revenue := decimal.Zero
	for _, u := range s.users {
		for _, o := range u.Orders {
			stats.TotalOrders++
			revenue = revenue.Add(decimal.NewFromFloat(o.Total))
			if strings.EqualFold(string(o.Status), string(models.OrderShipped)) {
				stats.ShippedOrders++
			}
		}
	}
	stats.TotalRevenue = revenue.Round(2).InexactFloat64()
	return stats, nil
}

func matchesOrder(o *models.OrderSummary, q models.OrderQuery) bool {
	if q.Status != "" && !strings.EqualFold(string(o.Status), q.Status) {
		return false
	}
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(o.Customer), kw) &&
			!strings.Contains(strconv.FormatInt(o.OrderID, 10), kw) {
			return false
		}
	}
	return true
}

func (s *UserStore) ListOrders(_ context.Context, q models.OrderQuery) ([]models.OrderSummary, int64, error) {
	s.mu.RLock()
	orders := make([]models.OrderSummary, 0)
	for _, u := range s.users {
		for _, o := range u.Orders {
			summary := models.OrderSummary{
				OrderID:  o.ID,
				Customer: u.FullName,
				UserID:   u.ID.Hex(),
				Total:    o.Total,
				Status:   models.NormalizeStoredStatus(o.Status),
				Date:     o.Date,
				Items:    append([]models.OrderItem{}, o.Items...),
			}
			if matchesOrder(&summary, q) {
				orders = append(orders, summary)
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Date.Equal(orders[j].Date) {
			return orders[i].Date.After(orders[j].Date)
		}
		return orders[i].OrderID > orders[j].OrderID
	})
	total := int64(len(orders))
	return paginate(orders, q.Page, q.PageSize), total, nil
}

func (s *UserStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// Ping always succeeds.
func (s *UserStore) Ping(context.Context) error {
	return nil
}
