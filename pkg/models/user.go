package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FullName     string             `json:"fullName" bson:"full_name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password"`
	IsAdmin      bool               `json:"isAdmin" bson:"is_admin"`
	IsBlocked    bool               `json:"isBlocked" bson:"is_blocked"`
	JoinDate     time.Time          `json:"joinDate" bson:"join_date"`
	Wishlist     []string           `json:"wishlist" bson:"wishlist"`
	Cart         []CartItem         `json:"cart" bson:"cart"`
	Orders       []Order            `json:"orders" bson:"orders"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CartItem is a snapshot of a product taken when it was added to the cart.
type CartItem struct {
	ProductID string  `json:"id" bson:"id"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
	Image     string  `json:"image" bson:"image"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Normalize replaces nil collections so they serialize as empty arrays.
func (u *User) Normalize() {
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}
	if u.Cart == nil {
		u.Cart = []CartItem{}
	}
	if u.Orders == nil {
		u.Orders = []Order{}
	}
	for i := range u.Orders {
		u.Orders[i].Status = NormalizeStoredStatus(u.Orders[i].Status)
	}
}

func (u *User) FindOrder(orderID int64) (int, *Order) {
	for i := range u.Orders {
		if u.Orders[i].ID == orderID {
			return i, &u.Orders[i]
		}
	}
	return -1, nil
}

func (u *User) CartIndex(productID string) int {
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (u *User) InWishlist(productID string) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

// RegisterInput is the public sign-up payload.
type RegisterInput struct {
	FullName string `json:"fullName" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserPatch enumerates the mutable user fields. Password is the plain
// value from the caller; the service replaces it with PasswordHash before
// the patch reaches a store.
type UserPatch struct {
	FullName     *string `json:"fullName,omitempty" binding:"omitempty,min=3,max=50"`
	Email        *string `json:"email,omitempty" binding:"omitempty,email"`
	Password     *string `json:"password,omitempty" binding:"omitempty,min=6"`
	IsAdmin      *bool   `json:"isAdmin,omitempty"`
	IsBlocked    *bool   `json:"isBlocked,omitempty"`
	PasswordHash *string `json:"-"`
}

func (p *UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.Password == nil &&
		p.IsAdmin == nil && p.IsBlocked == nil && p.PasswordHash == nil
}

// TouchesPrivileges reports whether the patch changes admin-only fields.
func (p *UserPatch) TouchesPrivileges() bool {
	return p.IsAdmin != nil || p.IsBlocked != nil
}

func (p *UserPatch) Apply(user *User) {
	if p.FullName != nil {
		user.FullName = *p.FullName
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.PasswordHash != nil {
		user.PasswordHash = *p.PasswordHash
	}
	if p.IsAdmin != nil {
		user.IsAdmin = *p.IsAdmin
	}
	if p.IsBlocked != nil {
		user.IsBlocked = *p.IsBlocked
	}
}
