package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/repository"
	"github.com/Lixing-Zhang/product-catalog/internal/service"
	"github.com/Lixing-Zhang/product-catalog/pkg/logger"
)

func newTestRouter() http.Handler {
	repo := repository.NewInMemoryProductRepository(repository.SeedProducts())
	svc := service.NewProductService(repo)
	return NewRouter(svc, logger.Discard())
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeProducts(t *testing.T, w *httptest.ResponseRecorder) []models.Product {
	t.Helper()
	var products []models.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return products
}

func TestListProducts(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodGet, "/Products", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	products := decodeProducts(t, w)
	if len(products) != len(repository.SeedProducts()) {
		t.Errorf("expected %d products, got %d", len(repository.SeedProducts()), len(products))
	}
}

func TestGetProduct_Success(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodGet, "/Products/1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var product models.Product
	if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if product.ID != 1 {
		t.Errorf("expected product ID 1, got %d", product.ID)
	}
	if product.Name != "Claw Hammer" {
		t.Errorf("expected product name 'Claw Hammer', got %s", product.Name)
	}
	if product.Category != "Tools" {
		t.Errorf("expected product category 'Tools', got %s", product.Category)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodGet, "/Products/999", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if response["error"] != "Product not found" {
		t.Errorf("expected error message 'Product not found', got %s", response["error"])
	}
}

func TestProductID_Invalid(t *testing.T) {
	r := newTestRouter()

	testCases := []struct {
		name   string
		method string
		id     string
		body   string
	}{
		{"get letters", http.MethodGet, "invalid", ""},
		{"get float", http.MethodGet, "12.34", ""},
		{"put letters", http.MethodPut, "abc", `{"name":"a","description":"b","price":1,"category":"c"}`},
		{"delete special chars", http.MethodDelete, "abc@123", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, tc.method, "/Products/"+tc.id, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for ID %s, got %d", tc.id, w.Code)
			}
		})
	}
}

func TestCreateProduct(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodPost, "/Products", `{"name":"Widget","description":"A widget","price":9.99,"category":"Tools"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var id int64
	if err := json.NewDecoder(w.Body).Decode(&id); err != nil {
		t.Fatalf("expected bare integer id: %v", err)
	}
	if id != 7 {
		t.Errorf("expected id 7, got %d", id)
	}

	list := decodeProducts(t, serve(r, http.MethodGet, "/Products", ""))
	want := models.Product{ID: 7, Name: "Widget", Description: "A widget", Price: 9.99, Category: "Tools"}
	if list[len(list)-1] != want {
		t.Errorf("expected %+v at end of list, got %+v", want, list[len(list)-1])
	}
}

func TestCreateProduct_Rejected(t *testing.T) {
	r := newTestRouter()

	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"a","description":"b","price":1,"category":"c","id":3}`},
		{"missing name", `{"description":"b","price":1,"category":"c"}`},
		{"negative price", `{"name":"a","description":"b","price":-1,"category":"c"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/Products", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodPut, "/Products/2", `{"name":"Drill","description":"Corded","price":49.5,"category":"Power Tools"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}

	w = serve(r, http.MethodGet, "/Products/2", "")
	var product models.Product
	if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := models.Product{ID: 2, Name: "Drill", Description: "Corded", Price: 49.5, Category: "Power Tools"}
	if product != want {
		t.Errorf("expected %+v, got %+v", want, product)
	}

	w = serve(r, http.MethodPut, "/Products/999", `{"name":"a","description":"b","price":1,"category":"c"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown id, got %d", w.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodDelete, "/Products/3", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	for _, p := range decodeProducts(t, serve(r, http.MethodGet, "/Products", "")) {
		if p.ID == 3 {
			t.Fatalf("product 3 still listed after delete")
		}
	}

	w = serve(r, http.MethodDelete, "/Products/3", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter()

	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
}
