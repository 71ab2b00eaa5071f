package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductQueryNormalize(t *testing.T) {
	q := ProductQuery{Category: "Premium", Page: -3, PageSize: 5000}
	q.Normalize()

	require.NotNil(t, q.Premium)
	assert.True(t, *q.Premium)
	assert.Empty(t, q.Category)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)

	q = ProductQuery{Category: " men "}
	q.Normalize()
	assert.Equal(t, "men", q.Category)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestParseProductSort(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseProductSort("lowToHigh"))
	assert.Equal(t, SortPriceDesc, ParseProductSort("highToLow"))
	assert.Equal(t, SortPriceDesc, ParseProductSort("price_desc"))
	assert.Equal(t, SortNewest, ParseProductSort("whatever"))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(5, 0))
	assert.Equal(t, 20, Skip(3, 10))
}

func TestHugePageDoesNotOverflow(t *testing.T) {
	page, size := NormalizePage(math.MaxInt, 12, DefaultPageSize)
	assert.Equal(t, 12, size)
	skip := Skip(page, size)
	assert.Positive(t, skip)
	assert.LessOrEqual(t, skip, math.MaxInt32)

	assert.Equal(t, math.MaxInt32, Skip(math.MaxInt, MaxPageSize))
	assert.Zero(t, Skip(0, 10))
	assert.Zero(t, Skip(-5, 10))

	q := ProductQuery{Page: math.MaxInt, PageSize: MaxPageSize}
	q.Normalize()
	assert.GreaterOrEqual(t, Skip(q.Page, q.PageSize), 0)
}

func TestUserQueryNormalize(t *testing.T) {
	q := UserQuery{Filter: "BLOCKED"}
	q.Normalize()
	assert.Equal(t, UserFilterBlocked, q.Filter)
	assert.Equal(t, 10, q.PageSize)

	q = UserQuery{Filter: "nope"}
	q.Normalize()
	assert.Equal(t, UserFilterAll, q.Filter)
}

func TestPatches(t *testing.T) {
	var pp ProductPatch
	assert.True(t, pp.IsEmpty())
	stock := 4
	pp.Stock = &stock
	p := Product{Stock: 1, Name: "x"}
	pp.Apply(&p)
	assert.Equal(t, 4, p.Stock)
	assert.Equal(t, "x", p.Name)

	admin := true
	up := UserPatch{IsAdmin: &admin}
	assert.True(t, up.TouchesPrivileges())
	u := User{}
	up.Apply(&u)
	assert.True(t, u.IsAdmin)
}
