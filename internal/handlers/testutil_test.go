package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"naksha-backend/internal/domain"
	"naksha-backend/internal/middleware"
	"naksha-backend/internal/models"
	"naksha-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

type fakeUserStore struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return domain.ErrDuplicateEmail
	}
	u := *user
	s.byID[u.ID] = &u
	s.byEmail[key] = &u
	return nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type fakeAnalysisStore struct {
	records []*models.AnalysisResult
}

func (s *fakeAnalysisStore) Create(ctx context.Context, rec *models.AnalysisResult) error {
	r := *rec
	s.records = append(s.records, &r)
	return nil
}

func (s *fakeAnalysisStore) ListRecent(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	var out []*models.AnalysisResult
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*models.AnalysisResult{}
	}
	return out, nil
}

// testEnv wires real services over fake stores behind the production route
// layout.
type testEnv struct {
	router      chi.Router
	userStore   *fakeUserStore
	analyses    *fakeAnalysisStore
	userService *services.UserService
}

func newTestEnv(recognizer services.Recognizer) *testEnv {
	userStore := newFakeUserStore()
	analyses := &fakeAnalysisStore{}

	userService := services.NewUserService(userStore, "test-secret", 24*time.Hour)
	recognition := services.NewRecognitionService(analyses, recognizer, nil, nil)

	authHandler := NewAuthHandler(userService, 24*time.Hour, false)
	analysisHandler := NewAnalysisHandler(recognition)
	mapsHandler := NewMapsHandler("test-maps-key")

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(userService))
			r.Get("/user/profile", authHandler.Profile)
			r.Post("/analyze-image", analysisHandler.Analyze)
			r.Get("/analysis-history", analysisHandler.History)
			r.Get("/maps-config", mapsHandler.Config)
		})
	})

	return &testEnv{
		router:      r,
		userStore:   userStore,
		analyses:    analyses,
		userService: userService,
	}
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}
