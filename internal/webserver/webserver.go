package webserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/y0ug/colourlife/pkg/auth"
)

// WebServer holds the data needed for handling HTTP requests.
type WebServer struct {
	config      *WebserverConfig
	authHandler *auth.Handler
	Logger      *logrus.Logger
}

// NewWebServer initializes a new WebServer.
func NewWebServer(config *WebserverConfig, authHandler *auth.Handler, logger *logrus.Logger) *WebServer {
	return &WebServer{
		config:      config,
		authHandler: authHandler,
		Logger:      logger,
	}
}

// Handler returns the router wrapped with CORS.
func (ws *WebServer) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   ws.config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		Debug:            false,
	}

	return cors.New(corsOptions).Handler(ws.InitRouter())
}

// Serve runs the HTTP server until ctx is done, then shuts it down
// gracefully.
func (ws *WebServer) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:    ws.config.ListenTo,
		Handler: ws.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ws.config.ShutdownTimeout)
	defer cancel()

	ws.Logger.Info("Shutting down web server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(ws.loggingMiddleware)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/providers", ws.authHandler.HandleProviders).Methods(http.MethodGet)
	authRouter.HandleFunc("/login", ws.authHandler.HandleLogin).Methods(http.MethodGet)
	authRouter.HandleFunc("/callback", ws.authHandler.HandleCallback).Methods(http.MethodGet)

	r.HandleFunc("/healthz", ws.handleHealth).Methods(http.MethodGet)
	return r
}

// handleHealth handles the GET /healthz endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	auth.WriteSuccessResponse(w, "OK", nil)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every request with its status and duration.
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ws.Logger.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    rec.status,
			"duration":  time.Since(start).String(),
			"client_ip": auth.GetClientIP(r),
		}).Info("Request handled")
	})
}
