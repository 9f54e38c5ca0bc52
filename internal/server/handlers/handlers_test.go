package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/internal/service/commands"
	"github.com/mamadbah2/stockroom/internal/service/stock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenAuth map[string]models.UserProfile

func (t tokenAuth) Authenticate(_ context.Context, token string) (models.UserProfile, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return models.UserProfile{}, auth.ErrInvalidToken
}

var tokens = tokenAuth{
	"admin-token": {UID: "u1", Role: models.RoleAdmin},
	"user-token":  {UID: "u2", Role: models.RoleUser},
}

type fakeInventory struct {
	items     []models.StockItem
	snapshots []stock.Snapshot
	err       error
}

func (f *fakeInventory) List(context.Context) ([]models.StockItem, error) { return f.items, f.err }

func (f *fakeInventory) Get(_ context.Context, id string) (models.StockItem, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.StockItem{}, stock.ErrNotFound
}

func (f *fakeInventory) Create(_ context.Context, _ models.UserProfile, item models.StockItem) (models.StockItem, error) {
	item.ID = "new"
	return item, f.err
}

func (f *fakeInventory) Update(_ context.Context, _ models.UserProfile, id string, patch models.StockPatch) (models.StockItem, error) {
	it, err := f.Get(context.Background(), id)
	if err != nil {
		return it, err
	}
	return patch.Apply(it), nil
}

func (f *fakeInventory) Delete(context.Context, models.UserProfile, string) error { return f.err }

func (f *fakeInventory) DeleteByField(context.Context, models.UserProfile, models.ClassificationField, string) (int64, error) {
	return 2, f.err
}

func (f *fakeInventory) Subscribe(context.Context) (<-chan stock.Snapshot, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	ch := make(chan stock.Snapshot, len(f.snapshots))
	for _, s := range f.snapshots {
		ch <- s
	}
	close(ch)
	return ch, func() {}, nil
}

var glass = []models.StockItem{
	{ID: "a", ItemName: "Clear 12mm", Category: "Glass", Type: "Tempered", Location: "Rack A", Quantity: 3, MinStock: 5, PurchasePrice: 60, SellingPrice: 100, GST: 18},
	{ID: "b", ItemName: "Frosted 8mm", Category: "Glass", Type: "Frosted", Quantity: 20, MinStock: 5, PurchasePrice: 10, SellingPrice: 20},
}

func newEngine(inv InventoryService) *gin.Engine {
	h := NewInventoryHandler(inv, nil)
	r := gin.New()
	g := r.Group("/items", RequireAuth(tokens, nil))
	g.GET("", h.List)
	g.GET("/grouped", h.Grouped)
	g.GET("/low-stock", h.LowStock)
	g.GET("/options", h.Options)
	g.GET("/stream", h.Stream)
	g.GET("/:id", h.Get)
	g.POST("", RequireAdmin(), h.Create)
	g.PATCH("/:id", h.Update)
	return r
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestItemViewHidesPurchasePriceFromUsers(t *testing.T) {
	userJSON, err := json.Marshal(NewItemView(glass[0], false))
	require.NoError(t, err)
	assert.NotContains(t, string(userJSON), "purchasePrice")
	assert.Contains(t, string(userJSON), `"priceIncGst":118`)
	assert.Contains(t, string(userJSON), `"lowStock":true`)

	adminJSON, err := json.Marshal(NewItemView(glass[0], true))
	require.NoError(t, err)
	assert.Contains(t, string(adminJSON), `"purchasePrice":60`)
}

func TestRequireAuth(t *testing.T) {
	r := newEngine(&fakeInventory{items: glass})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/items", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/items", "bogus", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/items?access_token=user-token", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/items", "user-token", `{"itemName":"x"}`).Code)
}

func TestListSearchAndLowStock(t *testing.T) {
	r := newEngine(&fakeInventory{items: glass})

	w := do(r, http.MethodGet, "/items?q=frosted", "user-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []ItemView `json:"items"`
		Count int        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "b", list.Items[0].ID)
	assert.Nil(t, list.Items[0].PurchasePrice)

	w = do(r, http.MethodGet, "/items/low-stock", "admin-token", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "a", list.Items[0].ID)
	require.NotNil(t, list.Items[0].PurchasePrice)
}

func TestGrouped(t *testing.T) {
	r := newEngine(&fakeInventory{items: glass})

	w := do(r, http.MethodGet, "/items/grouped?by=location", "user-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Categories []struct {
			Name  string `json:"name"`
			Types []struct {
				Name      string `json:"name"`
				Locations []struct {
					Name  string     `json:"name"`
					Items []ItemView `json:"items"`
				} `json:"locations"`
			} `json:"types"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Categories, 1)
	assert.Equal(t, "Glass", body.Categories[0].Name)
	require.Len(t, body.Categories[0].Types, 2)
	assert.Equal(t, "Tempered", body.Categories[0].Types[0].Name)
	assert.Equal(t, "Rack A", body.Categories[0].Types[0].Locations[0].Name)
	assert.Equal(t, models.DefaultLocation, body.Categories[0].Types[1].Locations[0].Name)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/items/grouped?by=sku", "user-token", "").Code)
}

func TestOptions(t *testing.T) {
	r := newEngine(&fakeInventory{items: glass})

	w := do(r, http.MethodGet, "/items/options?category=Glass", "user-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Glass"}, body["categories"])
	assert.Equal(t, []string{"Frosted", "Tempered"}, body["types"])
	assert.Equal(t, []string{"Rack A"}, body["locations"])
}

func TestGetCreateUpdate(t *testing.T) {
	r := newEngine(&fakeInventory{items: glass})

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/items/zzz", "user-token", "").Code)

	w := do(r, http.MethodPost, "/items", "admin-token", `{"itemName":"Mirror","quantity":2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created ItemView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.DefaultMinStock, created.MinStock)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/items", "admin-token", `{"quantity":2}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/items", "admin-token", `{"itemName":"x","unit":"kg"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/items/a", "user-token", `{"quantity":-1}`).Code)

	w = do(r, http.MethodPatch, "/items/a", "user-token", `{"quantity":9}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated ItemView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 9.0, updated.Quantity)
	assert.False(t, updated.LowStock)
}

func TestStreamSendsSnapshots(t *testing.T) {
	inv := &fakeInventory{snapshots: []stock.Snapshot{
		{Seq: 1, At: time.Now(), Items: glass[:1]},
		{Seq: 2, At: time.Now(), Items: glass},
	}}
	srv := httptest.NewServer(newEngine(inv))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/items/stream?access_token=user-token")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(body), "event:snapshot"))
	assert.Contains(t, string(body), `"seq":2`)
	assert.Contains(t, string(body), `"name":"Glass"`)
	assert.NotContains(t, string(body), "purchasePrice")
}

func TestStreamSubscribeFailure(t *testing.T) {
	r := newEngine(&fakeInventory{err: errors.New("mongo down")})
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/items/stream", "user-token", "").Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", stock.ErrInvalidItem), http.StatusBadRequest},
		{commands.ErrInvalidArguments, http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized},
		{stock.ErrForbidden, http.StatusForbidden},
		{stock.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, _ := statusFor(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}
