package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/middleware"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/internal/repositories"
)

var testNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) AppendVideo(ctx context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Videos = append(u.Videos, videoID)
	s.users[userID] = u
	return nil
}

func (s *memUserStore) RemoveVideo(ctx context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	kept := []string{}
	for _, id := range u.Videos {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	u.Videos = kept
	s.users[userID] = u
	return nil
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memUserStore) get(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

type memVideoStore struct {
	mu      sync.Mutex
	videos  map[string]models.Video
	err     error
	updates int
}

func newMemVideoStore(videos ...models.Video) *memVideoStore {
	s := &memVideoStore{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *memVideoStore) Create(ctx context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.videos[video.ID] = video
	return nil
}

func (s *memVideoStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Video{}, s.err
	}
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *memVideoStore) Update(ctx context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	s.updates++
	return nil
}

func (s *memVideoStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *memVideoStore) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Video{}
	for _, v := range s.videos {
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Category != "" && v.Category != filter.Category {
			continue
		}
		if filter.Tag != "" && !contains(v.Tags, filter.Tag) {
			continue
		}
		if filter.Search != "" {
			if !matchesSearch(v, filter.Search) {
				continue
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memVideoStore) AddLike(ctx context.Context, videoID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	if contains(v.Likes, userID) {
		return repositories.ErrConflict
	}
	v.Likes = append(v.Likes, userID)
	s.videos[videoID] = v
	return nil
}

func (s *memVideoStore) RemoveLike(ctx context.Context, videoID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !contains(v.Likes, userID) {
		return repositories.ErrConflict
	}
	kept := []string{}
	for _, id := range v.Likes {
		if id != userID {
			kept = append(kept, id)
		}
	}
	v.Likes = kept
	s.videos[videoID] = v
	return nil
}

func (s *memVideoStore) AddComment(ctx context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[comment.VideoID]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Comments = append(v.Comments, comment)
	s.videos[comment.VideoID] = v
	return nil
}

func (s *memVideoStore) DeleteComment(ctx context.Context, videoID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	kept := []models.Comment{}
	for _, c := range v.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	v.Comments = kept
	s.videos[videoID] = v
	return nil
}

func (s *memVideoStore) get(id string) (models.Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	return v, ok
}

func matchesSearch(v models.Video, query string) bool {
	needle := strings.ToLower(query)
	for _, field := range append([]string{v.Title, v.Description}, v.Tags...) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

type uploadCall struct {
	Namespace string
	Filename  string
	Body      string
}

type fakeMedia struct {
	mu        sync.Mutex
	uploads   []uploadCall
	deleted   []string
	uploadErr error
	deleteErr error
}

func (m *fakeMedia) Upload(ctx context.Context, namespace, filename, contentType string, r io.Reader) (models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return models.Asset{}, m.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return models.Asset{}, err
	}
	m.uploads = append(m.uploads, uploadCall{Namespace: namespace, Filename: filename, Body: string(body)})
	handle := namespace + "/" + filename
	return models.Asset{URL: "https://cdn.test/" + handle, Handle: handle}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, handle)
	return nil
}

var errStoreDown = errors.New("store unavailable")

// testEnv is a fully wired router backed by in-memory stores.
type testEnv struct {
	mux    *http.ServeMux
	users  *memUserStore
	videos *memVideoStore
	media  *fakeMedia
	codec  *auth.Codec
}

func newTestEnv(t *testing.T, users []models.User, videos []models.Video) *testEnv {
	t.Helper()
	env := &testEnv{
		mux:    http.NewServeMux(),
		users:  newMemUserStore(users...),
		videos: newMemVideoStore(videos...),
		media:  &fakeMedia{},
		codec:  auth.NewCodec("test-secret", 0).WithNowFunc(fixedNow),
	}
	RegisterRoutes(env.mux, Dependencies{
		Users:          env.users,
		Videos:         env.videos,
		Media:          env.media,
		Sessions:       env.codec,
		Cookie:         CookieSettings{Name: "token", Secure: true},
		MaxUploadBytes: 1 << 20,
		NowFunc:        fixedNow,
	})
	return env
}

// do sends the request through the router, authenticating as user when it is non-nil.
func (e *testEnv) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, _, err := e.codec.Issue(*user)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func testUser(id, email string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password-"+id), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return models.User{
		ID:          id,
		ChannelName: "channel-" + id,
		Email:       email,
		Phone:       "555-0100",
		Password:    string(hash),
		LogoURL:     "https://cdn.test/logos/" + id + ".png",
		LogoID:      "logos/" + id + ".png",
		Videos:      []string{},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func testVideo(id, ownerID string, createdAt time.Time) models.Video {
	return models.Video{
		ID:           id,
		Title:        "Title " + id,
		Description:  "Description " + id,
		Category:     "general",
		Tags:         []string{},
		VideoURL:     "https://cdn.test/videos/" + id + ".mp4",
		VideoID:      "videos/" + id + ".mp4",
		ThumbnailURL: "https://cdn.test/thumbnails/" + id + ".png",
		ThumbnailID:  "thumbnails/" + id + ".png",
		OwnerID:      ownerID,
		Likes:        []string{},
		Comments:     []models.Comment{},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

// multipartRequest builds a multipart request with the given fields and files,
// where files maps a form field to an uploaded file name.
func multipartRequest(t *testing.T, method, target string, fields, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("content-of-" + name)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withPrincipal(r *http.Request, user models.User) context.Context {
	return middleware.WithPrincipal(r.Context(), user)
}

// decodeMessage reads the {"message": ...} envelope from a response.
func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return resp.Message
}

// oversizedJSON returns a JSON object whose string field exceeds the JSON body cap.
func oversizedJSON(field string) *bytes.Reader {
	var buf bytes.Buffer
	buf.WriteString(`{"` + field + `":"`)
	buf.Write(bytes.Repeat([]byte("a"), maxJSONBodyBytes+1))
	buf.WriteString(`"}`)
	return bytes.NewReader(buf.Bytes())
}
