package handlers

import (
	"net/http"
	"time"

	"github.com/vidshare/backend/internal/middleware"
)

const apiPrefix = "/api/v1"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Health}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Cookie:         deps.Cookie,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Users:          deps.Users,
		Media:          deps.Media,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	queries := VideoQueryHandler{Videos: deps.Videos}
	engagement := EngagementHandler{Videos: deps.Videos, NowFunc: deps.NowFunc}

	cookieName := deps.Cookie.Name
	if cookieName == "" {
		cookieName = "token"
	}
	gate := middleware.Authenticate(cookieName, deps.Sessions, deps.Users)
	protected := func(h http.HandlerFunc) http.Handler { return gate(h) }

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("GET "+apiPrefix+"/healthz", health.Handle)

	mux.HandleFunc("POST "+apiPrefix+"/user/signup", users.SignUp)
	mux.HandleFunc("POST "+apiPrefix+"/user/login", users.Login)
	mux.HandleFunc("POST "+apiPrefix+"/user/logout", users.Logout)
	mux.Handle("GET "+apiPrefix+"/user/profile", protected(users.Profile))

	mux.Handle("POST "+apiPrefix+"/video/upload", protected(videos.Upload))
	mux.Handle("PUT "+apiPrefix+"/video/update/{id}", protected(videos.Update))
	mux.Handle("DELETE "+apiPrefix+"/video/delete/{id}", protected(videos.Delete))

	mux.HandleFunc("GET "+apiPrefix+"/video/all-videos", queries.All)
	mux.Handle("GET "+apiPrefix+"/video/my-videos", protected(queries.Mine))
	mux.Handle("GET "+apiPrefix+"/video/{id}", protected(queries.Get))
	mux.HandleFunc("GET "+apiPrefix+"/video/category/{category}", queries.ByCategory)
	mux.HandleFunc("GET "+apiPrefix+"/video/tag/{tag}", queries.ByTag)
	mux.HandleFunc("GET "+apiPrefix+"/video/search/{query}", queries.Search)
	mux.HandleFunc("GET "+apiPrefix+"/video/user/{userId}", queries.ByOwner)

	mux.Handle("GET "+apiPrefix+"/video/liked-video", protected(engagement.LikeByQuery))
	mux.Handle("GET "+apiPrefix+"/video/disliked-video", protected(engagement.DislikeByQuery))
	mux.Handle("PUT "+apiPrefix+"/video/like/{id}", protected(engagement.Like))
	mux.Handle("PUT "+apiPrefix+"/video/dislike/{id}", protected(engagement.Dislike))
	mux.Handle("POST "+apiPrefix+"/video/comment/{id}", protected(engagement.AddComment))
	mux.Handle("DELETE "+apiPrefix+"/video/comment/{id}/{commentId}", protected(engagement.DeleteComment))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Health         Pinger
	Users          UserStore
	Videos         VideoStore
	Media          MediaGateway
	Sessions       SessionCodec
	Cookie         CookieSettings
	MaxUploadBytes int64
	NowFunc        func() time.Time
}
