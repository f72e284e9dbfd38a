package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/userdir/userdir/internal/handler"
	"github.com/userdir/userdir/internal/metrics"
	"github.com/userdir/userdir/internal/repository"
	"github.com/userdir/userdir/internal/service"
)

// loadOpenAPI loads and validates the embedded OpenAPI document.
func loadOpenAPI(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(OpenAPISpec)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec: %v", err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}

	return spec, router
}

func newStrictTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemory()
	svc := service.NewUserService(store, true, metrics.NewNoop())

	return NewRouter(RouterConfig{
		Users:              handler.NewUserHandler(svc, logger),
		Health:             handler.NewHealthHandler(store, "memory"),
		Logger:             logger,
		CORSAllowedOrigins: []string{"*"},
		MaxRequestBodySize: 1 << 10,
		IsDevelopment:      true,
	})
}

// validateExchange sends a request to srv and checks the response against
// the OpenAPI document.
func validateExchange(t *testing.T, router routers.Router, srv *httptest.Server, method, path, body string) int {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("Could not find route in OpenAPI document for %s %s: %v", method, path, err)
	}

	requestValidationInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	responseValidationInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestValidationInput,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(respBody)),
	}

	if err := openapi3filter.ValidateResponse(context.Background(), responseValidationInput); err != nil {
		t.Errorf("%s %s: response validation failed: %v\nBody: %s", method, path, err, respBody)
	}

	return resp.StatusCode
}

func TestOpenAPISpecValid(t *testing.T) {
	spec, _ := loadOpenAPI(t)

	for _, path := range []string{"/users", "/healthz", "/readyz"} {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in OpenAPI document", path)
		}
	}
}

func TestContract_Responses(t *testing.T) {
	_, router := loadOpenAPI(t)

	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"ListUsers", http.MethodGet, "/users", "", http.StatusOK},
		{"AppendUser", http.MethodPost, "/users", `{"id":9,"name":"auto"}`, http.StatusCreated},
		{"AppendEmptyObject", http.MethodPost, "/users", `{}`, http.StatusCreated},
		{"AppendInvalidJSON", http.MethodPost, "/users", `{"id":`, http.StatusBadRequest},
		{"AppendTooLarge", http.MethodPost, "/users", `{"id":1,"name":"` + strings.Repeat("x", 2<<10) + `"}`, http.StatusRequestEntityTooLarge},
		{"Healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"Readyz", http.MethodGet, "/readyz", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := validateExchange(t, router, srv, tc.method, tc.path, tc.body); got != tc.status {
				t.Errorf("status = %d, want %d", got, tc.status)
			}
		})
	}
}

func TestContract_StrictErrors(t *testing.T) {
	_, router := loadOpenAPI(t)

	srv := httptest.NewServer(newStrictTestRouter(t))
	defer srv.Close()

	if got := validateExchange(t, router, srv, http.MethodPost, "/users", `{"id":1,"name":"again"}`); got != http.StatusConflict {
		t.Errorf("duplicate id status = %d, want 409", got)
	}
	if got := validateExchange(t, router, srv, http.MethodPost, "/users", `{"id":0,"name":""}`); got != http.StatusBadRequest {
		t.Errorf("invalid user status = %d, want 400", got)
	}
}

func TestRouter_ServesOpenAPI(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), OpenAPISpec) {
		t.Error("served document differs from embedded spec")
	}
}
