package repository

import (
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := parseID(oid.Hex(), apperr.ErrProductNotFound)
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseID("not-an-id", apperr.ErrProductNotFound)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestProductFilter(t *testing.T) {
	premium := true
	q := models.ProductQuery{Keyword: "a.b", Category: "Shoes", Premium: &premium}
	filter := productFilter(q)

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"$regex": `a\.b`, "$options": "i"}, or[0]["name"])
	assert.Equal(t, bson.M{"$regex": "^Shoes$", "$options": "i"}, filter["category"])
	assert.Equal(t, true, filter["premium"])

	assert.Empty(t, productFilter(models.ProductQuery{}))
}

func TestProductSort(t *testing.T) {
	assert.Equal(t, "price", productSort(models.SortPriceAsc)[0].Key)
	assert.Equal(t, 1, productSort(models.SortPriceAsc)[0].Value)
	assert.Equal(t, -1, productSort(models.SortPriceDesc)[0].Value)
	assert.Equal(t, "created_at", productSort(models.SortNewest)[0].Key)
}

func TestProductPatchSet(t *testing.T) {
	name := "Lamp"
	stock := 0
	set := productPatchSet(&models.ProductPatch{Name: &name, Stock: &stock})
	assert.Equal(t, bson.M{"name": "Lamp", "stock": 0}, set)
}

func TestUserFilter(t *testing.T) {
	filter := userFilter(models.UserQuery{Keyword: "ann", Filter: models.UserFilterBlocked})
	assert.Equal(t, true, filter["is_blocked"])
	assert.Contains(t, filter, "$or")

	filter = userFilter(models.UserQuery{Filter: models.UserFilterAdmin})
	assert.Equal(t, bson.M{"is_admin": true}, filter)

	assert.Empty(t, userFilter(models.UserQuery{Filter: models.UserFilterAll}))
}

func TestUserPatchSetLowercasesEmail(t *testing.T) {
	email := " Ann@Example.COM "
	hash := "$2a$10$hash"
	blocked := true
	set := userPatchSet(&models.UserPatch{Email: &email, PasswordHash: &hash, IsBlocked: &blocked})
	assert.Equal(t, bson.M{"email": "ann@example.com", "password": hash, "is_blocked": true}, set)
}

func stageKeys(p []bson.D) []string {
	keys := make([]string, 0, len(p))
	for _, stage := range p {
		keys = append(keys, stage[0].Key)
	}
	return keys
}

func TestOrderListPipeline(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		q := models.OrderQuery{}
		q.Normalize()
		p := orderListPipeline(q)
		assert.Equal(t, []string{"$unwind", "$project", "$sort", "$facet"}, stageKeys(p))
	})

	t.Run("status and keyword", func(t *testing.T) {
		q := models.OrderQuery{Status: "shipped", Keyword: "17", Page: 3, PageSize: 5}
		q.Normalize()
		p := orderListPipeline(q)
		assert.Equal(t, []string{"$unwind", "$project", "$match", "$match", "$sort", "$facet"}, stageKeys(p))

		status := p[2][0].Value.(bson.M)["status"]
		assert.Equal(t, bson.M{"$regex": "^shipped$", "$options": "i"}, status)

		facet := p[5][0].Value.(bson.M)
		page := facet["orders"].(bson.A)
		assert.Equal(t, bson.M{"$skip": 10}, page[0])
		assert.Equal(t, bson.M{"$limit": 5}, page[1])
	})

	t.Run("pending matches legacy statuses", func(t *testing.T) {
		q := models.OrderQuery{Status: "Pending"}
		q.Normalize()
		p := orderListPipeline(q)
		match := p[2][0].Value.(bson.M)
		or, ok := match["$or"].(bson.A)
		require.True(t, ok)
		assert.Len(t, or, 3)
	})
}

func TestOrderStatsPipeline(t *testing.T) {
	p := orderStatsPipeline()
	assert.Equal(t, []string{"$unwind", "$group"}, stageKeys(p))
	group := p[1][0].Value.(bson.M)
	assert.Contains(t, group, "total_orders")
	assert.Contains(t, group, "total_revenue")
	assert.Contains(t, group, "shipped_orders")
}
