// Package uds is the unix domain socket control channel: one line per command,
// the reply, then the connection closes. `help` and blank lines keep it open.
package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"net"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/zeptools/certmerge/svc"
)

// MaxLineBytes bounds a single command line
const MaxLineBytes = 64 << 10

type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	CmdMap     map[string]CmdHnd
	listener   net.Listener
}

// Ensure Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, cmdMap map[string]CmdHnd) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		CmdMap:     cmdMap,
	}
}

// Start binds the socket (mode 0600) and serves in the background.
// Bootstrapping errors are returned immediately. Runtime errors are pushed into Done().
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("uds: cannot start from state %d", s.state)
	}
	_ = os.Remove(s.SocketPath) // stale socket from a crashed run
	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.SocketPath, err)
	}
	if err = os.Chmod(s.SocketPath, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod(%q) failed: %w", s.SocketPath, err)
	}
	s.listener = ln
	s.state = svc.StateRUNNING
	go s.closeOnDone()
	go s.run()
	return nil
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][UDS] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

func (s *Service) closeOnDone() {
	<-s.Ctx.Done()
	log.Printf("[INFO][UDS] stopping")
	if err := s.listener.Close(); err != nil {
		log.Printf("[ERROR][UDS] cannot close listener: %v", err)
	}
	if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("[ERROR][UDS] cannot remove socket file: %v", err)
	}
}

func (s *Service) run() {
	log.Printf("[INFO][UDS] listening on %q ...", s.SocketPath)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.done <- nil // clean shutdown
				return
			}
			log.Println("[ERROR][UDS] accept failed:", err)
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Service) serveConn(c net.Conn) {
	stop := context.AfterFunc(s.Ctx, func() { _ = c.Close() })
	defer stop()
	defer func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[ERROR][UDS] closing connection: %v", err)
		}
	}()

	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 1024), MaxLineBytes)
	for sc.Scan() {
		if !s.dispatch(strings.Fields(sc.Text()), c) {
			return
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Printf("[ERROR][UDS] read: %v", err)
	}
}

// dispatch runs one command line and reports whether the connection stays open
func (s *Service) dispatch(args []string, w io.Writer) bool {
	if len(args) == 0 {
		return true
	}
	name := args[0]
	switch name {
	case "quit":
		return false
	case "help":
		s.writeHelp(w)
		return true
	}
	h, ok := s.CmdMap[name]
	if !ok {
		_, _ = fmt.Fprintf(w, "unknown command: %s (try help)\n", name)
		return true
	}
	log.Printf("[INFO][UDS] command %q", strings.Join(args, " "))
	if err := h.Fn(s.Ctx, args[1:], w); err != nil {
		log.Printf("[ERROR][UDS] command %q: %v", name, err)
		_, _ = fmt.Fprintf(w, "error: %v\n", err)
	}
	return false
}

func (s *Service) writeHelp(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	for _, name := range slices.Sorted(maps.Keys(s.CmdMap)) {
		h := s.CmdMap[name]
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", strings.TrimSpace(name+" "+h.Usage), h.Desc)
	}
	for _, name := range []string{"help", "quit"} {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, builtins[name])
	}
	_ = tw.Flush()
}
