// Package router wires handlers and middleware into the HTTP route table.
package router

import (
	"io"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/vedran77/feedline/internal/service"
	"github.com/vedran77/feedline/internal/transport/http/handlers"
	"github.com/vedran77/feedline/internal/transport/http/middleware"
	"github.com/vedran77/feedline/internal/transport/ws"
)

// UploadsPrefix is the URL prefix uploaded images are served under.
const UploadsPrefix = "/uploads/"

type Deps struct {
	AuthService    *service.AuthService
	PostService    *service.PostService
	Hub            *ws.Hub
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string
	AccessLog      io.Writer
}

func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.AuthService)
	postHandler := handlers.NewPostHandler(d.PostService, d.MaxUploadBytes)

	auth := middleware.Auth(d.AuthService)
	optionalAuth := middleware.OptionalAuth(d.AuthService)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /users", authHandler.ListUsers)
	mux.Handle("GET /posts/user/{userName}", optionalAuth(http.HandlerFunc(postHandler.ListByUser)))
	mux.Handle("GET "+UploadsPrefix, http.StripPrefix(UploadsPrefix, noDirListing(http.FileServer(http.Dir(d.UploadDir)))))

	// Protected
	mux.Handle("GET /user", auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /posts", auth(http.HandlerFunc(postHandler.List)))
	mux.Handle("GET /posts/{id}", auth(http.HandlerFunc(postHandler.Get)))
	mux.Handle("POST /posts", auth(http.HandlerFunc(postHandler.Create)))
	mux.Handle("POST /like/{postId}", auth(http.HandlerFunc(postHandler.ToggleLike)))

	// Live feed
	if d.Hub != nil {
		mux.Handle("GET /ws", ws.ServeWS(d.Hub, d.AuthService, d.CORSOrigins))
	}

	var h http.Handler = mux
	h = gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(d.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
	if d.AccessLog != nil {
		h = gorillahandlers.LoggingHandler(d.AccessLog, h)
	}
	return gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(true))(h)
}

// noDirListing hides directory indexes of the upload folder.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
