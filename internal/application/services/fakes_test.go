package services

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"gallery-api/internal/domain/image"
	"gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/mq"
	"gallery-api/internal/infrastructure/s3"
)

var errStore = errors.New("store unavailable")

func testCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})
}

type FakeUserRepository struct {
	mu    sync.Mutex
	users map[user.UUID]*user.User
	err   error
}

func newFakeUserRepository(users ...*user.User) *FakeUserRepository {
	r := &FakeUserRepository{users: map[user.UUID]*user.User{}}
	for _, u := range users {
		r.users[u.UUID] = u
	}
	return r
}

func (r *FakeUserRepository) FetchUserByID(_ context.Context, id user.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

func (r *FakeUserRepository) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == req.Email {
			return nil, user.ErrEmailAlreadyExists
		}
	}
	req.UUID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.users[req.UUID] = &req
	return &req, nil
}

func (r *FakeUserRepository) DeleteUser(_ context.Context, id user.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	delete(r.users, id)
	return u, nil
}

type FakeImageRepository struct {
	mu     sync.Mutex
	images map[uuid.UUID]*image.Image
	seq    int
	err    error
	// when set, DeleteImagesByOwner reports an unacknowledged delete
	unacked bool
	calls   []string
}

func newFakeImageRepository(images ...*image.Image) *FakeImageRepository {
	r := &FakeImageRepository{images: map[uuid.UUID]*image.Image{}}
	for _, img := range images {
		r.images[img.UUID] = img
	}
	return r
}

func (r *FakeImageRepository) clone(img *image.Image) *image.Image {
	cp := *img
	cp.URLs = slices.Clone(img.URLs)
	cp.Keys = slices.Clone(img.Keys)
	return &cp
}

func (r *FakeImageRepository) CreateImage(_ context.Context, req image.Image) (*image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "CreateImage")
	if r.err != nil {
		return nil, r.err
	}
	r.seq++
	req.UUID = uuid.New()
	req.CreatedAt = time.Unix(int64(r.seq), 0)
	req.UpdatedAt = req.CreatedAt
	r.images[req.UUID] = r.clone(&req)
	return &req, nil
}

func (r *FakeImageRepository) FetchImageByID(_ context.Context, id uuid.UUID) (*image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	img, ok := r.images[id]
	if !ok {
		return nil, nil
	}
	return r.clone(img), nil
}

func (r *FakeImageRepository) owned(owner uuid.UUID) image.Images {
	var out image.Images
	for _, img := range r.images {
		if img.UserUUID == owner {
			out = append(out, r.clone(img))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *FakeImageRepository) FetchImagesByOwner(_ context.Context, owner uuid.UUID, page, limit int) (image.Images, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	all := r.owned(owner)
	from := min((page-1)*limit, len(all))
	to := min(from+limit, len(all))
	return all[from:to], int64(len(all)), nil
}

func (r *FakeImageRepository) FetchKeysByOwner(_ context.Context, owner uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "FetchKeysByOwner")
	if r.err != nil {
		return nil, r.err
	}
	var keys []string
	for _, img := range r.owned(owner) {
		keys = append(keys, img.Keys...)
	}
	return keys, nil
}

func (r *FakeImageRepository) UpdateTitle(_ context.Context, id uuid.UUID, title string) (*image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	img, ok := r.images[id]
	if !ok {
		return nil, nil
	}
	img.Title = title
	return r.clone(img), nil
}

func (r *FakeImageRepository) AppendURL(_ context.Context, id uuid.UUID, url, key string) (*image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	img, ok := r.images[id]
	if !ok || len(img.URLs) >= image.MaxURLs {
		return nil, nil
	}
	img.URLs = append(img.URLs, url)
	if key != "" {
		img.Keys = append(img.Keys, key)
	}
	return r.clone(img), nil
}

func (r *FakeImageRepository) DeleteImage(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "DeleteImage")
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.images[id]
	delete(r.images, id)
	return ok, nil
}

func (r *FakeImageRepository) DeleteImagesByOwner(_ context.Context, owner uuid.UUID) (image.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "DeleteImagesByOwner")
	if r.err != nil {
		return image.DeleteResult{}, r.err
	}
	if r.unacked {
		return image.DeleteResult{}, nil
	}
	var n int64
	for id, img := range r.images {
		if img.UserUUID == owner {
			delete(r.images, id)
			n++
		}
	}
	return image.DeleteResult{Acknowledged: true, Deleted: n}, nil
}

type FakeStorage struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	downloads []string
	failOnKey string
	uploadErr error
}

func newFakeStorage() *FakeStorage {
	return &FakeStorage{uploaded: map[string][]byte{}}
}

func (s *FakeStorage) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func (s *FakeStorage) GetBucket() string { return "test" }

func (s *FakeStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.uploaded[key] = b
	s.mu.Unlock()
	return s.GetPublicURL(key), nil
}

func (s *FakeStorage) Download(_ context.Context, key string, limit int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, key)
	b, ok := s.uploaded[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	if int64(len(b)) > limit {
		return nil, errors.New("too large")
	}
	return b, nil
}

func (s *FakeStorage) Delete(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, k := range keys {
		if k == s.failOnKey {
			errs = append(errs, &s3.DeleteError{Key: k, Err: errors.New("access denied")})
			continue
		}
		s.deleted = append(s.deleted, k)
	}
	return errors.Join(errs...)
}

type FakePublisher struct {
	mu     sync.Mutex
	events []mq.Event
	full   bool
}

func (p *FakePublisher) Publish(e mq.Event) bool {
	if p.full {
		return false
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	return true
}

func (p *FakePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type FakeBgRemover struct {
	FetchFunc  func(ctx context.Context, url string) ([]byte, error)
	RemoveFunc func(ctx context.Context, filename string, img []byte) ([]byte, error)
}

func (f *FakeBgRemover) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.FetchFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FetchFunc(ctx, url)
}

func (f *FakeBgRemover) RemoveBackground(ctx context.Context, filename string, img []byte) ([]byte, error) {
	if f.RemoveFunc == nil {
		return nil, errors.New("not used")
	}
	return f.RemoveFunc(ctx, filename, img)
}
