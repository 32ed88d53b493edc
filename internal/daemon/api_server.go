package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipstudio/internal/api"
	"clipstudio/internal/config"
	"clipstudio/internal/library"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

const maxRequestBody = 64 << 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.API.Token)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("GET /api/session", authMiddleware(token, s.handleSession))
	mux.HandleFunc("POST /api/session/{action}", authMiddleware(token, s.handleSessionAction))
	mux.HandleFunc("GET /api/library", authMiddleware(token, s.handleLibrary))
	mux.HandleFunc("GET /api/library/{id}", authMiddleware(token, s.handleVideo))
	mux.HandleFunc("DELETE /api/library/{id}", authMiddleware(token, s.handleDeleteVideo))
	mux.HandleFunc("POST /api/library/compile", authMiddleware(token, s.handleCompile))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// address reports the bound listener address, which differs from the
// configured bind when it uses port 0.
func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleSession(w http.ResponseWriter, _ *http.Request) {
	session, err := s.daemon.Sessions().Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: session})
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// untouched.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return services.Wrap(services.ErrValidation, "api", "read body", "", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode body", "", err)
	}
	return nil
}

func (s *apiServer) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	var req api.ActionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	action := r.PathValue("action")
	session, err := s.daemon.Sessions().Perform(r.Context(), action, req)
	if err != nil {
		s.log().Debug("session action rejected",
			logging.String("action", action),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: session})
}

func (s *apiServer) handleLibrary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := library.ListOptions{SessionID: strings.TrimSpace(query.Get("session"))}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, services.Wrap(services.ErrValidation, "api", "library", "invalid limit", nil))
			return
		}
		opts.Limit = limit
	}
	videos, err := s.daemon.Library().List(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.LibraryListResponse{Videos: videos})
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.daemon.Library().Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.VideoResponse{Video: video})
}

func (s *apiServer) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.daemon.Library().Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.log().Info("library video deleted",
		logging.String("record_id", id),
		logging.String(logging.FieldEventType, "video_deleted"),
	)
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{ID: id, Deleted: true})
}

func (s *apiServer) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req api.CompileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	// Stitching can outlast the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	video, err := s.daemon.Library().Compile(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.VideoResponse{Video: video})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, api.StatusCode(err), api.NewErrorResponse(err))
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
