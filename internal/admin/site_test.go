package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productcatalog/internal/accounts"
	"productcatalog/internal/catalog"
	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/db/dbtest"
	"productcatalog/internal/models"
)

type harness struct {
	t         *testing.T
	client    *db.Client
	accounts  *accounts.Service
	catalog   *catalog.Service
	router    *gin.Engine
	mediaRoot string
	cookie    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	client := dbtest.Open(t)
	h := &harness{
		t:         t,
		client:    client,
		accounts:  accounts.NewService(client, nil, accounts.CreateProfile),
		catalog:   catalog.NewService(client, nil),
		router:    gin.New(),
		mediaRoot: t.TempDir(),
	}
	site := NewSite(Deps{
		DB:       client,
		Accounts: h.accounts,
		Catalog:  h.catalog,
		Uploads:  NewUploader(h.mediaRoot, 1),
	})
	site.Register(h.router, SessionMiddleware(config.SessionConfig{Secret: "test-secret", CookieName: "catalog_admin"}, false))

	_, err := h.accounts.EnsureAdmin(context.Background(), "root", "s3cret")
	require.NoError(t, err)
	return h
}

func loggedIn(t *testing.T) *harness {
	h := newHarness(t)
	rec := h.login("root", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return h
}

func (h *harness) login(username, password string) *httptest.ResponseRecorder {
	rec := h.do(http.MethodPost, "/admin/login", gin.H{"username": username, "password": password})
	for _, c := range rec.Result().Cookies() {
		if c.Name == "catalog_admin" {
			h.cookie = c.Name + "=" + c.Value
		}
	}
	return rec
}

func (h *harness) send(req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != "" {
		req.Header.Set("Cookie", h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) seller(email string) models.Seller {
	h.t.Helper()
	s := models.Seller{Email: email, StoreName: email}
	require.NoError(h.t, h.accounts.CreateSeller(context.Background(), &s))
	return s
}

func (h *harness) product(name, price string, sellerID uint) models.Product {
	h.t.Helper()
	p := models.Product{Name: name, Description: name + " description", Price: decimal.RequireFromString(price), SellerID: sellerID}
	require.NoError(h.t, h.catalog.CreateProduct(context.Background(), &p))
	return p
}

func resultNames(t *testing.T, body map[string]any, key string) []string {
	t.Helper()
	rows, ok := body["results"].([]any)
	require.True(t, ok, "results missing: %v", body)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.(map[string]any)[key].(string))
	}
	return names
}

func TestAdminRequiresAdminSession(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/admin/products", nil).Code)

	buyer := models.User{Username: "bob"}
	require.NoError(t, h.accounts.CreateUser(context.Background(), &buyer, "pw"))
	assert.Equal(t, http.StatusForbidden, h.login("bob", "pw").Code)
	assert.Empty(t, h.cookie)

	assert.Equal(t, http.StatusUnauthorized, h.login("root", "wrong").Code)

	require.Equal(t, http.StatusOK, h.login("root", "s3cret").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/products", nil).Code)

	rec := h.do(http.MethodPost, "/admin/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "catalog_admin" {
			h.cookie = c.Name + "=" + c.Value
		}
	}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/admin/products", nil).Code)
}

func TestIndexListsRegistrations(t *testing.T) {
	h := loggedIn(t)
	body := decode(t, h.do(http.MethodGet, "/admin/", nil))
	assert.Equal(t, "root", body["user"])

	var names []string
	for _, m := range body["models"].([]any) {
		names = append(names, m.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"products", "productimages", "productvariations", "sellers", "users"}, names)
}

func TestProductChangelistSearchAndOrdering(t *testing.T) {
	h := loggedIn(t)
	alpha := h.seller("alpha@example.com")
	beta := h.seller("beta@example.com")
	h.product("Red Lamp", "30.00", alpha.ID)
	h.product("Blue Chair", "80.00", beta.ID)
	h.product("Red Chair", "75.00", alpha.ID)

	body := decode(t, h.do(http.MethodGet, "/admin/products", nil))
	assert.EqualValues(t, 3, body["count"])
	assert.Equal(t, []string{"Red Chair", "Blue Chair", "Red Lamp"}, resultNames(t, body, "name"), "newest first")

	body = decode(t, h.do(http.MethodGet, "/admin/products?q=ALPHA@", nil))
	assert.ElementsMatch(t, []string{"Red Lamp", "Red Chair"}, resultNames(t, body, "name"))

	body = decode(t, h.do(http.MethodGet, "/admin/products?"+url.Values{"q": {"red chair"}}.Encode(), nil))
	assert.Equal(t, []string{"Red Chair"}, resultNames(t, body, "name"))

	body = decode(t, h.do(http.MethodGet, "/admin/products?o=price", nil))
	assert.Equal(t, []string{"Red Lamp", "Red Chair", "Blue Chair"}, resultNames(t, body, "name"))

	body = decode(t, h.do(http.MethodGet, "/admin/products?o=price&per_page=1&page=2", nil))
	assert.EqualValues(t, 3, body["count"])
	assert.Equal(t, []string{"Red Chair"}, resultNames(t, body, "name"))

	rows := body["results"].([]any)
	seller := rows[0].(map[string]any)["seller"].(map[string]any)
	assert.Equal(t, "alpha@example.com", seller["repr"])
	assert.Equal(t, "75.00", rows[0].(map[string]any)["price"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/admin/products?o=description", nil).Code)
}

func TestProductChangelistFilters(t *testing.T) {
	h := loggedIn(t)
	alpha := h.seller("alpha@example.com")
	beta := h.seller("beta@example.com")
	fresh := h.product("Fresh", "1.00", alpha.ID)
	old := h.product("Old", "2.00", beta.ID)
	h.product("Other", "3.00", beta.ID)

	backdated := time.Now().AddDate(-2, 0, 0)
	require.NoError(t, h.client.DB(context.Background()).Exec("UPDATE products SET created_at = ? WHERE id = ?", backdated, old.ID).Error)

	body := decode(t, h.do(http.MethodGet, fmt.Sprintf("/admin/products?seller=%d", alpha.ID), nil))
	assert.Equal(t, []string{fresh.Name}, resultNames(t, body, "name"))

	body = decode(t, h.do(http.MethodGet, "/admin/products?created_at=this_year", nil))
	assert.ElementsMatch(t, []string{"Fresh", "Other"}, resultNames(t, body, "name"))

	lt := backdated.AddDate(0, 0, 1).Format(time.DateOnly)
	body = decode(t, h.do(http.MethodGet, "/admin/products?created_at__lt="+lt, nil))
	assert.Equal(t, []string{"Old"}, resultNames(t, body, "name"))

	body = decode(t, h.do(http.MethodGet, fmt.Sprintf("/admin/products?created_at=today&seller=%d", beta.ID), nil))
	assert.Equal(t, []string{"Other"}, resultNames(t, body, "name"))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/admin/products?stock=1", nil).Code)
}

func TestProductAddWithInlines(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")

	rec := h.do(http.MethodPost, "/admin/products", gin.H{
		"name":        "Shirt",
		"description": "cotton",
		"price":       "19.99",
		"seller":      s.ID,
		"images": []gin.H{
			{"image": "product_images/front.jpg", "alt_text": "ignored"},
			{},
		},
		"variations": []gin.H{
			{"variation_name": "Size", "variation_value": "M"},
			{"variation_name": "Size", "variation_value": "XS", "price": "5.00"},
			{},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)

	object := body["object"].(map[string]any)
	assert.Equal(t, "Shirt", object["name"])
	assert.Equal(t, "19.99", object["price"])
	assert.Equal(t, []any{"created_at"}, body["readonly_fields"])

	inlines := body["inlines"].([]any)
	require.Len(t, inlines, 2)
	images := inlines[0].(map[string]any)
	assert.Equal(t, []any{"alt_text"}, images["readonly_fields"])
	imgRows := images["rows"].([]any)
	require.Len(t, imgRows, 1)
	assert.Equal(t, "", imgRows[0].(map[string]any)["alt_text"])
	assert.Equal(t, "/media/product_images/front.jpg", imgRows[0].(map[string]any)["url"])

	prices := map[string]string{}
	for _, r := range inlines[1].(map[string]any)["rows"].([]any) {
		row := r.(map[string]any)
		prices[row["variation_value"].(string)] = row["price"].(string)
	}
	assert.Equal(t, map[string]string{"M": "19.99", "XS": "5.00"}, prices)
}

func TestProductChangeIgnoresReadOnlyFields(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")
	p := h.product("Desk", "120.00", s.ID)
	img := models.ProductImage{ProductID: p.ID, Image: "product_images/desk.jpg", AltText: "oak desk"}
	require.NoError(t, h.catalog.AddImage(context.Background(), &img))

	before, err := h.catalog.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)

	rec := h.do(http.MethodPut, fmt.Sprintf("/admin/products/%d", p.ID), gin.H{
		"name":       "Standing Desk",
		"price":      "150.00",
		"seller":     s.ID,
		"created_at": "2001-01-01T00:00:00Z",
		"images":     []gin.H{{"id": img.ID, "image": "product_images/desk2.jpg", "alt_text": "changed"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	after, err := h.catalog.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standing Desk", after.Name)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	require.Len(t, after.Images, 1)
	assert.Equal(t, "product_images/desk2.jpg", after.Images[0].Image)
	assert.Equal(t, "oak desk", after.Images[0].AltText)
}

func TestProductValidationAndMissing(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")

	rec := h.do(http.MethodPost, "/admin/products", gin.H{"name": "No price", "seller": s.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decode(t, rec)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "is required", details["price"])

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/admin/products/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/admin/products/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/admin/products/999", gin.H{"name": "x", "price": "1", "seller": s.ID}).Code)
}

func TestProductDeleteCascades(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")
	p := h.product("Lamp", "30.00", s.ID)
	ctx := context.Background()
	require.NoError(t, h.catalog.AddImage(ctx, &models.ProductImage{ProductID: p.ID, Image: "product_images/l.jpg"}))
	require.NoError(t, h.catalog.SaveVariation(ctx, &models.ProductVariation{ProductID: p.ID, VariationName: "Color", VariationValue: "Red"}))

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, fmt.Sprintf("/admin/products/%d", p.ID), nil).Code)
	assert.Zero(t, dbtest.Count(t, h.client, &models.ProductImage{}, ""))
	assert.Zero(t, dbtest.Count(t, h.client, &models.ProductVariation{}, ""))
}

func multipartImage(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestImageUpload(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")
	p := h.product("Rug", "60.00", s.ID)

	body, ctype := multipartImage(t, map[string]string{"product": fmt.Sprint(p.ID), "alt_text": "red rug"}, "rug.PNG")
	req := httptest.NewRequest(http.MethodPost, "/admin/productimages", body)
	req.Header.Set("Content-Type", ctype)
	rec := h.send(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	object := decode(t, rec)["object"].(map[string]any)
	stored := object["image"].(string)
	assert.Regexp(t, `^product_images/[0-9a-f-]+\.png$`, stored)
	_, err := os.Stat(filepath.Join(h.mediaRoot, filepath.FromSlash(stored)))
	assert.NoError(t, err)
	assert.Equal(t, "Rug", object["product"].(map[string]any)["repr"])

	body, ctype = multipartImage(t, map[string]string{"product": fmt.Sprint(p.ID)}, "rug.gif")
	req = httptest.NewRequest(http.MethodPost, "/admin/productimages", body)
	req.Header.Set("Content-Type", ctype)
	assert.Equal(t, http.StatusBadRequest, h.send(req).Code)

	body, ctype = multipartImage(t, map[string]string{"alt_text": "new alt"}, "")
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/productimages/%d", uint(object["id"].(float64))), body)
	req.Header.Set("Content-Type", ctype)
	rec = h.send(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	object = decode(t, rec)["object"].(map[string]any)
	assert.Equal(t, stored, object["image"], "image kept without a new file")
	assert.Equal(t, "new alt", object["alt_text"])
}

func TestVariationAdminDefaultsPrice(t *testing.T) {
	h := loggedIn(t)
	s := h.seller("shop@example.com")
	p := h.product("Shirt", "19.99", s.ID)

	rec := h.do(http.MethodPost, "/admin/productvariations", gin.H{"product": p.ID, "variation_name": "Size", "variation_value": "L"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	object := decode(t, rec)["object"].(map[string]any)
	assert.Equal(t, "19.99", object["price"])

	rec = h.do(http.MethodPost, "/admin/productvariations", gin.H{"product": 999, "variation_name": "Size", "variation_value": "L"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decode(t, h.do(http.MethodGet, "/admin/productvariations?q=shirt", nil))
	assert.EqualValues(t, 1, body["count"])
}

func TestSellerAdminLifecycle(t *testing.T) {
	h := loggedIn(t)

	rec := h.do(http.MethodPost, "/admin/sellers", gin.H{"email": "new@example.com", "store_name": "New"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	object := decode(t, rec)["object"].(map[string]any)
	id := uint(object["id"].(float64))
	assert.NotNil(t, object["profile"])
	assert.EqualValues(t, 1, dbtest.Count(t, h.client, &models.Profile{}, "seller_id = ?", id))

	rec = h.do(http.MethodPut, fmt.Sprintf("/admin/sellers/%d", id), gin.H{"email": "renamed@example.com", "store_name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, dbtest.Count(t, h.client, &models.Profile{}, "seller_id = ?", id))

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/admin/sellers", gin.H{"email": "renamed@example.com"}).Code)

	h.product("Lamp", "10.00", id)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, fmt.Sprintf("/admin/sellers/%d", id), nil).Code)
	assert.Zero(t, dbtest.Count(t, h.client, &models.Product{}, ""))
	assert.Zero(t, dbtest.Count(t, h.client, &models.Profile{}, "seller_id = ?", id))
}

func TestUserAdminPasswordReset(t *testing.T) {
	h := loggedIn(t)

	rec := h.do(http.MethodPost, "/admin/users", gin.H{"username": "carol", "role": "admin", "password": "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint(decode(t, rec)["object"].(map[string]any)["id"].(float64))

	rec = h.do(http.MethodPut, fmt.Sprintf("/admin/users/%d", id), gin.H{"username": "carol", "role": "admin", "password": "second"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := h.accounts.Authenticate(context.Background(), "carol", "second")
	assert.NoError(t, err)

	body := decode(t, h.do(http.MethodGet, "/admin/users?role=admin", nil))
	assert.ElementsMatch(t, []string{"carol", "root"}, resultNames(t, body, "username"))
}
