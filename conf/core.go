package conf

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/zeptools/certmerge/batch"
	"github.com/zeptools/certmerge/db/kvdb"
	"github.com/zeptools/certmerge/db/kvdb/impls/memory"
	"github.com/zeptools/certmerge/db/kvdb/impls/redis"
	"github.com/zeptools/certmerge/db/kvdb/impls/sqlite"
	"github.com/zeptools/certmerge/svc"
	"github.com/zeptools/certmerge/templates"
	"github.com/zeptools/certmerge/throttle"
	"github.com/zeptools/certmerge/uds"
	"github.com/zeptools/certmerge/web"
	"github.com/zeptools/certmerge/web/api"
)

const DefaultListen = "127.0.0.1:8650"

// DebugOpts toggles extra diagnostics
type DebugOpts struct {
	Verbose bool `json:"verbose"`
}

// APIConf for the editor API served by `certmerge serve`
type APIConf struct {
	Secret string `json:"secret"` // HS256 secret. empty = no auth
	Issuer string `json:"issuer"`
}

// Core - common config
type Core struct {
	AppName           string                    `json:"app_name"`
	Listen            string                    `json:"listen"`     // HTTP Server Listen IP:PORT Address
	DebugOpts         DebugOpts                 `json:"debug_opts"` // Debug Options
	Batch             batch.Options             `json:"batch"`
	MaxBundleMB       int64                     `json:"max_bundle_mb"` // 0 = unlimited
	Fonts             map[string]string         `json:"fonts"`         // font family -> TTF path, relative to AppRoot
	API               APIConf                   `json:"api"`
	RateLimit         throttle.Conf             `json:"rate_limit"`  // per client IP, on API uploads
	TrustProxy        bool                      `json:"trust_proxy"` // client IPs from X-Forwarded-For
	AppRoot           string                    `json:"-"`           // Filled from compiled paths
	RootCtx           context.Context           `json:"-"`           // Global Context with RootCancel
	RootCancel        context.CancelFunc        `json:"-"`           // CancelFunc for RootCtx
	UDSService        *uds.Service              `json:"-"`           // PrepareUDSService
	WebService        *web.Service              `json:"-"`           // PrepareWebService
	Throttle          *throttle.Limiter[string] `json:"-"`           // PrepareThrottle
	BackendHttpClient *http.Client              `json:"-"`           // remote image sources
	KVDBConf          kvdb.Conf                 `json:"-"`           // loadKVDBConf
	BackendKVDBClient kvdb.Client               `json:"-"`           // prepareKVDBClient
	Templates         *templates.Repository     `json:"-"`           // PrepareTemplates

	services []svc.Service // Services to Manage
	done     chan error
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file (optional)
// 3. prepare base fields
// 4. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	c.AppName = "certmerge"
	c.Listen = DefaultListen
	c.Batch = batch.DefaultOptions()
	c.RateLimit = throttle.Conf{Burst: 30, Increment: 1, Period: 2 * time.Second}
	if err := readJSON(filepath.Join(appRoot, "config", ".core.json"), c); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		log.Printf("[WARN][CORE] no config/.core.json under %s. using defaults", appRoot)
	}
	if c.DebugOpts.Verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.prepareDefaultFeatures()
	c.startShutdownSignalListener()
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (c *Core) prepareDefaultFeatures() {
	c.BackendHttpClient = &http.Client{Timeout: 30 * time.Second}
}

// FontFiles resolves configured font paths against AppRoot
func (c *Core) FontFiles() map[string]string {
	files := make(map[string]string, len(c.Fonts))
	for family, path := range c.Fonts {
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.AppRoot, path)
		}
		files[family] = path
	}
	return files
}

func (c *Core) AddService(s svc.Service) {
	log.Printf("[INFO] adding service: %s", s.Name())
	c.services = append(c.services, s)
	log.Printf("[INFO] total services: %d", len(c.services))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return err
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s)
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

func (c *Core) PrepareUDSService(sockPath string, cmds map[string]uds.CmdHnd) {
	c.UDSService = uds.NewService(c.RootCtx, sockPath, cmds)
	c.AddService(c.UDSService)
}

func (c *Core) PrepareWebService(addr string, router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, addr, router)
	c.AddService(c.WebService)
}

// PrepareThrottle builds the upload limiter from RateLimit and registers its cleanup service
func (c *Core) PrepareThrottle(cleanupCycle time.Duration, cleanupOlderThan time.Duration) {
	c.Throttle = throttle.NewLimiter[string](c.RootCtx, cleanupCycle, cleanupOlderThan)
	c.Throttle.SetGroup(api.UploadGroup, c.RateLimit)
	c.AddService(c.Throttle)
}

// PrepareKVDatabase loads config/.kv-databases.json and opens the client.
// override, when its Type is set, replaces the file config (CLI flags).
func (c *Core) PrepareKVDatabase(override *kvdb.Conf) error {
	if err := c.loadKVDBConf(); err != nil {
		return err
	}
	if override != nil && override.Type != "" {
		c.KVDBConf = *override
	}
	return c.prepareKVDBClient()
}

func (c *Core) loadKVDBConf() error {
	c.KVDBConf = kvdb.Conf{Type: "sqlite"}
	err := readJSON(filepath.Join(c.AppRoot, "config", ".kv-databases.json"), &c.KVDBConf)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Core) prepareKVDBClient() error {
	// Registering Supported Implementations
	redis.Register()
	sqlite.Register()
	memory.Register()

	if c.KVDBConf.Type == "sqlite" {
		switch {
		case c.KVDBConf.Path == "":
			c.KVDBConf.Path = filepath.Join(c.AppRoot, "data", sqlite.DefaultPath)
		case c.KVDBConf.Path != ":memory:" && !filepath.IsAbs(c.KVDBConf.Path):
			c.KVDBConf.Path = filepath.Join(c.AppRoot, c.KVDBConf.Path)
		}
	}
	client, err := kvdb.New(&c.KVDBConf)
	if err != nil {
		return err
	}
	if err = client.Init(); err != nil {
		return err
	}
	c.BackendKVDBClient = client
	log.Printf("[INFO][KVDB] %s client ready", c.KVDBConf.Type)
	return nil
}

// PrepareTemplates builds the template repository
// Prerequisite: BackendKVDBClient
func (c *Core) PrepareTemplates() error {
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	c.Templates = templates.NewRepository(c.BackendKVDBClient)
	return nil
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	if c.BackendKVDBClient != nil {
		kvdb.CloseClient(c.KVDBConf.Type+" kv client", c.BackendKVDBClient)
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
