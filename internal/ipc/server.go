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

	"mintwatch/internal/daemon"
	"mintwatch/internal/logging"
	"mintwatch/internal/mintlog"
)

// ServiceName prefixes every RPC method.
const ServiceName = "Mintwatch"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
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
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx)
	resp.PID = os.Getpid()
	return nil
}

func (s *service) WatcherStart(_ WatcherStartRequest, resp *WatcherStartResponse) error {
	if s.daemon.WatcherActive() {
		resp.Message = "watcher already running"
		return nil
	}
	if err := s.daemon.StartWatcher(); err != nil {
		return err
	}
	resp.Started = true
	resp.Message = "watching " + s.daemon.Status(s.ctx).Inbox
	s.logger.Info("watcher started via ipc", logging.String(logging.FieldEventType, "ipc_watcher_start"))
	return nil
}

func (s *service) WatcherStop(_ WatcherStopRequest, resp *WatcherStopResponse) error {
	resp.Stopped = s.daemon.StopWatcher()
	resp.InFlight = s.daemon.Status(s.ctx).InFlight
	return nil
}

func (s *service) Minted(req MintedRequest, resp *MintedResponse) error {
	records, err := s.daemon.ListMinted(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Records = make([]mintlog.Record, 0, len(records))
	for _, rec := range records {
		resp.Records = append(resp.Records, *rec)
	}
	total, err := s.daemon.CountMinted(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = total
	return nil
}

func (s *service) Failures(req FailuresRequest, resp *FailuresResponse) error {
	failures, err := s.daemon.ListFailures(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Failures = make([]mintlog.Failure, 0, len(failures))
	for _, f := range failures {
		resp.Failures = append(resp.Failures, *f)
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
