package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"lectern/internal/engine"
	"lectern/internal/logging"
	"lectern/internal/plan"
)

// Server exposes engine control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	engine    *engine.Engine
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, e *engine.Engine, logger *slog.Logger) (*Server, error) {
	if e == nil {
		return nil, errors.New("ipc server requires engine")
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

	rpcServer := rpc.NewServer()
	svc := &service{engine: e, logger: logging.NewComponentLogger(logger, "ipc")}
	if err := rpcServer.RegisterName("Lectern", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		engine:    e,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
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
				s.logger.Warn("ipc accept failed", logging.Error(err))
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
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	engine *engine.Engine
	logger *slog.Logger
}

// rpcTimeout bounds request handling; log follows get a longer window so
// waiting fetches can park without tripping it.
const (
	rpcTimeout     = 30 * time.Second
	rpcWaitTimeout = 120 * time.Second
)

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	resp.Status = s.engine.Status(ctx)
	return nil
}

func (s *service) PlanList(_ PlanListRequest, resp *PlanListResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	plans, err := s.engine.ListPlans(ctx)
	if err != nil {
		return err
	}
	resp.Plans = plans
	return nil
}

func (s *service) PlanShow(req PlanShowRequest, resp *PlanShowResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	summary, err := s.engine.GetPlan(ctx, req.PlanID)
	if err != nil {
		return err
	}
	resp.Plan = summary
	return nil
}

func (s *service) PlanCreate(req PlanCreateRequest, resp *PlanCreateResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	summary, err := s.engine.CreatePlan(ctx, req.Title)
	if err != nil {
		return err
	}
	resp.Plan = summary
	return nil
}

func (s *service) PlanImport(req PlanImportRequest, resp *PlanImportResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	var p plan.Plan
	if err := json.Unmarshal(req.Document, &p); err != nil {
		return fmt.Errorf("decode plan document: %w", err)
	}
	summary, err := s.engine.ImportPlan(ctx, &p)
	if err != nil {
		return err
	}
	resp.Plan = summary
	return nil
}

func (s *service) Diagnose(req DiagnoseRequest, resp *DiagnoseResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	diagnostics, err := s.engine.GetDiagnostics(ctx, req.PlanID)
	if err != nil {
		return err
	}
	resp.Diagnostics = diagnostics
	return nil
}

func (s *service) Repair(req RepairRequest, resp *RepairResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	run, err := s.engine.RequestRepair(ctx, req.PlanID, req.Phases)
	if err != nil {
		return err
	}
	resp.Run = run
	return nil
}

func (s *service) RunShow(req RunShowRequest, resp *RunShowResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	run, err := s.engine.GetRun(ctx, req.RunID)
	if err != nil {
		return err
	}
	resp.Run = run
	return nil
}

func (s *service) RunList(req RunListRequest, resp *RunListResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	runs, err := s.engine.ListRuns(ctx, req.PlanID)
	if err != nil {
		return err
	}
	resp.Runs = runs
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	if err := s.engine.CancelRepair(ctx, req.RunID); err != nil {
		return err
	}
	resp.Cancelled = true
	return nil
}

func (s *service) Logs(req LogsRequest, resp *LogsResponse) error {
	timeout := rpcTimeout
	if req.Wait {
		timeout = rpcWaitTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	page, err := s.engine.FetchLogs(ctx, req.RunID, req.Since, req.Wait)
	if err != nil {
		return err
	}
	resp.Page = page
	return nil
}
