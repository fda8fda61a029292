package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/zeptools/certmerge/svc"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests
const ShutdownTimeout = 10 * time.Second

type Service struct {
	Ctx    context.Context    // Service Context
	Cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel
	Server *http.Server
	addr   net.Addr
}

// Ensure Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		Cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
		},
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Start binds the listener, then serves in the background.
// Bootstrapping errors are returned immediately. Runtime errors are pushed into Done().
func (s *Service) Start() error {
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.addr = ln.Addr()
	s.state = svc.StateRUNNING
	go func() {
		<-s.Ctx.Done()
		log.Printf("[INFO][WEB] stopping")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.Server.Shutdown(ctx); err != nil {
			log.Printf("[ERROR][WEB] shutdown: %v", err)
		}
	}()
	go func() {
		log.Printf("[INFO][WEB] listening on %s ...", s.addr)
		err := s.Server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil // clean shutdown
		}
		s.done <- err
	}()
	return nil
}

func (s *Service) Stop() {
	s.Cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][WEB] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// Addr is the bound address, valid after Start
func (s *Service) Addr() net.Addr {
	return s.addr
}
