package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gallery-api/internal/application/services"
	"gallery-api/internal/domain/image"
	"gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/jwt"
	"gallery-api/internal/infrastructure/mq"
	"gallery-api/internal/interface/api/rest/middleware"
)

const testSecret = "test-secret"

type memUsers struct {
	mu    sync.Mutex
	users map[user.UUID]*user.User
}

func (m *memUsers) FetchUserByID(_ context.Context, id user.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memUsers) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, user.ErrEmailAlreadyExists
		}
	}
	req.UUID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	m.users[req.UUID] = &req
	return &req, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id user.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	delete(m.users, id)
	return u, nil
}

type memImages struct {
	mu     sync.Mutex
	images []*image.Image
}

func (m *memImages) find(id uuid.UUID) *image.Image {
	for _, img := range m.images {
		if img.UUID == id {
			return img
		}
	}
	return nil
}

func (m *memImages) copyOf(img *image.Image) *image.Image {
	cp := *img
	cp.URLs = slices.Clone(img.URLs)
	cp.Keys = slices.Clone(img.Keys)
	return &cp
}

func (m *memImages) CreateImage(_ context.Context, req image.Image) (*image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.UUID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	m.images = append(m.images, m.copyOf(&req))
	return &req, nil
}

func (m *memImages) FetchImageByID(_ context.Context, id uuid.UUID) (*image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img := m.find(id); img != nil {
		return m.copyOf(img), nil
	}
	return nil, nil
}

func (m *memImages) FetchImagesByOwner(_ context.Context, owner uuid.UUID, page, limit int) (image.Images, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all image.Images
	for i := len(m.images) - 1; i >= 0; i-- {
		if m.images[i].UserUUID == owner {
			all = append(all, m.copyOf(m.images[i]))
		}
	}
	from := min((page-1)*limit, len(all))
	to := min(from+limit, len(all))
	return all[from:to], int64(len(all)), nil
}

func (m *memImages) FetchKeysByOwner(_ context.Context, owner uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, img := range m.images {
		if img.UserUUID == owner {
			keys = append(keys, img.Keys...)
		}
	}
	return keys, nil
}

func (m *memImages) UpdateTitle(_ context.Context, id uuid.UUID, title string) (*image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img := m.find(id)
	if img == nil {
		return nil, nil
	}
	img.Title = title
	return m.copyOf(img), nil
}

func (m *memImages) AppendURL(_ context.Context, id uuid.UUID, url, key string) (*image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img := m.find(id)
	if img == nil || len(img.URLs) >= image.MaxURLs {
		return nil, nil
	}
	img.URLs = append(img.URLs, url)
	if key != "" {
		img.Keys = append(img.Keys, key)
	}
	return m.copyOf(img), nil
}

func (m *memImages) DeleteImage(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.images {
		if img.UUID == id {
			m.images = slices.Delete(m.images, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

func (m *memImages) DeleteImagesByOwner(_ context.Context, owner uuid.UUID) (image.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.images)
	m.images = slices.DeleteFunc(m.images, func(img *image.Image) bool { return img.UserUUID == owner })
	return image.DeleteResult{Acknowledged: true, Deleted: int64(before - len(m.images))}, nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func (s *memStorage) GetBucket() string { return "test" }

func (s *memStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = b
	s.mu.Unlock()
	return s.GetPublicURL(key), nil
}

func (s *memStorage) Download(_ context.Context, key string, _ int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

func (s *memStorage) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

type nopPublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *nopPublisher) Publish(e mq.Event) bool {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	return true
}

type nopBgRemover struct{}

func (nopBgRemover) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (nopBgRemover) RemoveBackground(context.Context, string, []byte) ([]byte, error) {
	return nil, errors.New("not used")
}

type testServer struct {
	router  *gin.Engine
	jwt     *jwt.Service
	users   *memUsers
	images  *memImages
	storage *memStorage
	events  *nopPublisher
}

// newTestServer wires the real services and middleware over in-memory stores.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		router:  gin.New(),
		jwt:     jwt.New(testSecret, time.Hour),
		users:   &memUsers{users: map[user.UUID]*user.User{}},
		images:  &memImages{},
		storage: &memStorage{objects: map[string][]byte{}},
		events:  &nopPublisher{},
	}
	logger := zap.NewNop()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})

	authService := services.NewAuthService(ts.jwt, ts.users, ts.events, counter)
	userService := services.NewUserService(logger, ts.users, ts.images, ts.storage, ts.events, counter)
	imageService := services.NewImageService(logger, ts.images, ts.storage, nopBgRemover{}, ts.events, counter)

	authMW := middleware.AuthMiddleware(ts.jwt, userService, logger)
	ts.router.Use(middleware.Recovery(logger))
	NewAuthController(ts.router, logger, userService, authService, authMW)
	NewImageController(ts.router, imageService, logger, authMW)

	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf io.Reader = http.NoBody
	switch v := body.(type) {
	case nil:
	case string:
		buf = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

// signup creates an account through the API and returns its id and token.
func (ts *testServer) signup(t *testing.T, username, email string) (string, string) {
	t.Helper()
	rr, body := ts.do(t, http.MethodPost, RouteSignup, gin.H{
		"username": username,
		"email":    email,
		"password": "Aa1!aaaa",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	data := body["data"].(map[string]any)
	u := data["user"].(map[string]any)
	return u["id"].(string), data["token"].(string)
}

func (ts *testServer) createImage(t *testing.T, token string, keys ...string) string {
	t.Helper()
	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		urls = append(urls, "https://cdn.example.com/"+k)
	}
	rr, body := ts.do(t, http.MethodPost, RouteImages, gin.H{
		"url":      urls,
		"keys":     keys,
		"title":    "Sunset",
		"size":     2048,
		"mimeType": "image/png",
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	return dataImage(t, body)["id"].(string)
}

func dataImage(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "no data in %v", body)
	img, ok := data["image"].(map[string]any)
	require.True(t, ok, "no image in %v", data)
	return img
}

func (p *nopPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}
