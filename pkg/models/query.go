package models

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 1000
)

type ProductSort string

const (
	SortNewest    ProductSort = ""
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
)

// ParseProductSort also understands the storefront's lowToHigh/highToLow values.
func ParseProductSort(s string) ProductSort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price_asc", "lowtohigh", "price":
		return SortPriceAsc
	case "price_desc", "hightolow", "-price":
		return SortPriceDesc
	default:
		return SortNewest
	}
}

type ProductQuery struct {
	Keyword  string
	Category string
	Premium  *bool
	Sort     ProductSort
	Page     int
	PageSize int
}

// Normalize fills pagination defaults and folds the "premium" pseudo
// category into the premium selector.
func (q *ProductQuery) Normalize() {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Category = strings.TrimSpace(q.Category)
	if strings.EqualFold(q.Category, "premium") {
		premium := true
		q.Premium = &premium
		q.Category = ""
	}
	if strings.EqualFold(q.Category, "all") {
		q.Category = ""
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize, DefaultPageSize)
}

func NormalizePage(page, pageSize, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = fallback
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// Keeps Skip within a 32-bit offset; such pages are simply empty.
	if maxPage := math.MaxInt32/pageSize + 1; page > maxPage {
		page = maxPage
	}
	return page, pageSize
}

// PageCount is ceil(total/pageSize).
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Skip is the offset of page. Out-of-range input saturates instead of
// wrapping.
func Skip(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt32/pageSize {
		return math.MaxInt32
	}
	return (page - 1) * pageSize
}

type UserFilter string

const (
	UserFilterAll     UserFilter = "all"
	UserFilterBlocked UserFilter = "blocked"
	UserFilterAdmin   UserFilter = "admin"
)

type UserQuery struct {
	Keyword  string
	Filter   UserFilter
	Page     int
	PageSize int
}

func (q *UserQuery) Normalize() {
	q.Keyword = strings.TrimSpace(q.Keyword)
	switch UserFilter(strings.ToLower(string(q.Filter))) {
	case UserFilterBlocked:
		q.Filter = UserFilterBlocked
	case UserFilterAdmin:
		q.Filter = UserFilterAdmin
	default:
		q.Filter = UserFilterAll
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize, 10)
}

type OrderQuery struct {
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

func (q *OrderQuery) Normalize() {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Status = strings.TrimSpace(q.Status)
	if strings.EqualFold(q.Status, "all") {
		q.Status = ""
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize, 10)
}

// OrderSummary is one row of the cross-user order listing.
type OrderSummary struct {
	OrderID  int64       `json:"orderId" bson:"order_id"`
	Customer string      `json:"customer" bson:"customer"`
	UserID   string      `json:"userId" bson:"user_id"`
	Total    float64     `json:"total" bson:"total"`
	Status   OrderStatus `json:"status" bson:"status"`
	Date     time.Time   `json:"date" bson:"date"`
	Items    []OrderItem `json:"items" bson:"items"`
}

type DashboardStats struct {
	UsersCount    int64   `json:"usersCount"`
	ProductsCount int64   `json:"productsCount"`
	TotalOrders   int64   `json:"totalOrders"`
	TotalSales    float64 `json:"totalSales"`
	ShippedOrders int64   `json:"shippedOrders"`
}

type UserStats struct {
	TotalUsers  int64 `json:"totalUsers"`
	Admins      int64 `json:"admins"`
	Blocked     int64 `json:"blocked"`
	ActiveUsers int64 `json:"activeUsers"`
}

type OrderStats struct {
	TotalOrders   int64   `json:"totalOrders" bson:"total_orders"`
	TotalRevenue  float64 `json:"totalRevenue" bson:"total_revenue"`
	ShippedOrders int64   `json:"shippedOrders" bson:"shipped_orders"`
}
