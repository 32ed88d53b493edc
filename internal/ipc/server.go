package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/api"
	"clipstudio/internal/daemon"
	"clipstudio/internal/library"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

const (
	serviceName        = "Studio"
	defaultWaitTimeout = 5 * time.Minute
	maxWaitTimeout     = 30 * time.Minute
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

// Close stops the server, drops open client connections, and removes the
// socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun clipstudio stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

// requestContext tags each call with a request id for log correlation.
func (s *service) requestContext() context.Context {
	return services.WithRequestID(s.ctx, uuid.NewString())
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.requestContext())
	return nil
}

func (s *service) Session(_ SessionRequest, resp *SessionResponse) error {
	session, err := s.daemon.Sessions().Current()
	if err != nil {
		return err
	}
	resp.Session = session
	return nil
}

func (s *service) Act(req ActionRequest, resp *SessionResponse) error {
	ctx := s.requestContext()
	session, err := s.daemon.Sessions().Perform(ctx, req.Action, api.ActionRequest{Prompt: req.Prompt})
	if err != nil {
		resp.Session, _ = s.daemon.Sessions().Current()
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
		s.log().Debug("action rejected",
			logging.String("action", req.Action),
			logging.String(logging.FieldErrorKind, resp.ErrorKind),
			logging.Error(err))
		return nil
	}
	resp.Session = session
	return nil
}

func (s *service) Wait(req WaitRequest, resp *SessionResponse) error {
	timeout := defaultWaitTimeout
	if req.TimeoutSeconds > 0 {
		timeout = min(time.Duration(req.TimeoutSeconds)*time.Second, maxWaitTimeout)
	}
	session, err := s.daemon.Sessions().WaitSettled(s.requestContext(), timeout)
	resp.Session = session
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
	}
	return nil
}

func (s *service) LibraryList(req LibraryListRequest, resp *LibraryListResponse) error {
	videos, err := s.daemon.Library().List(s.requestContext(), library.ListOptions{Limit: req.Limit, SessionID: req.SessionID})
	if err != nil {
		return err
	}
	resp.Videos = videos
	return nil
}

func (s *service) LibraryShow(req LibraryShowRequest, resp *LibraryShowResponse) error {
	video, err := s.daemon.Library().Describe(s.requestContext(), req.ID)
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
		return nil
	}
	resp.Video = video
	return nil
}

func (s *service) LibraryDelete(req LibraryDeleteRequest, resp *LibraryDeleteResponse) error {
	if err := s.daemon.Library().Delete(s.requestContext(), req.ID); err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
		return nil
	}
	s.log().Info("library video deleted",
		logging.String("record_id", req.ID),
		logging.String(logging.FieldEventType, "video_deleted"),
	)
	resp.Deleted = true
	return nil
}

// LibraryCompile replies with the new video in a LibraryShowResponse.
func (s *service) LibraryCompile(req LibraryCompileRequest, resp *LibraryShowResponse) error {
	video, err := s.daemon.Library().Compile(s.requestContext(), req.IDs)
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
		return nil
	}
	resp.Video = video
	return nil
}

func (s *service) Preflight(_ PreflightRequest, resp *PreflightResponse) error {
	resp.Results = s.daemon.Preflight(s.requestContext())
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.requestContext())
	if err != nil {
		s.log().Warn("test notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_test_failed"),
			logging.String(logging.FieldErrorHint, "verify notifications.ntfy_topic is reachable"))
		resp.Sent = false
		resp.Message = fmt.Sprintf("%s: %v", message, err)
		return nil
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
