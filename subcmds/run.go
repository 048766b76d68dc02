// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
	"github.com/bvk/stockwatch/daemonize"
	"github.com/bvk/stockwatch/httputil"
	"github.com/bvk/stockwatch/server"
	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/bvk/stockwatch/subcmds/defaults"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	notifyChanges bool
	quoteCacheTTL time.Duration
	sessionTTL    time.Duration

	secretsPath string
	dataDir     string
	logDir      string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.BoolVar(&c.notifyChanges, "notify-changes", false, "when true, watchlist changes are sent to the notification services")
	fset.DurationVar(&c.quoteCacheTTL, "quote-cache-ttl", time.Minute, "lifetime of the cached market quotes")
	fset.DurationVar(&c.sessionTTL, "session-ttl", 0, "lifetime of the sign-in sessions (default 30 days)")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file (default is secrets.json in the data directory)")
	fset.StringVar(&c.dataDir, "data-dir", defaults.DataDir(), "path to the data directory")
	fset.StringVar(&c.logDir, "log-dir", defaults.LogDir(), "path to the log directory")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the stockwatch server in foreground or background"
}

func (c *Run) Description() string {
	return `
Command "run" starts the stockwatch service. Service keeps the user accounts
and watchlists in the data directory and serves the watchlist api over http.

SECRETS FILE

Market quotes are fetched from Finnhub, which requires an api token. Optional
Pushover and Telegram credentials enable notifications. Users are expected to
create a secrets file in JSON format. A example secrets file is given below:

    {
        "finnhub":{
            "token":"111111111"
        },
        "pushover":{
            "application_key":"2222222222",
            "user_key":"3333333333"
        }
    }

Service runs without market quotes when the secrets file doesn't exist.
`
}

func (c *Run) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := c.ServerFlags.TCPAddr()
	if err != nil {
		return err
	}

	if _, err := os.Stat(c.dataDir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets := new(server.Secrets)
	if _, err := os.Stat(c.secretsPath); err == nil {
		v, err := server.SecretsFromFile(c.secretsPath)
		if err != nil {
			return err
		}
		secrets = v
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, child *os.Process) (bool, error) {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		if pid := string(data); pid != fmt.Sprintf("%d", child.Pid) {
			return c.restart, fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", child.Pid, pid)
		}
		return false, nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, "STOCKWATCH_DAEMONIZE", check); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(c.logDir, 0700); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", c.logDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{c.logDir},
	})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	slog.InfoContext(ctx, "using data directory and secrets file", "data-dir", dataDir, "secrets", c.secretsPath, "log-dir", c.logDir)

	lockPath := filepath.Join(dataDir, "stockwatch.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			slog.InfoContext(ctx, "waiting for the previous instance to shutdown", "pid", owner.Pid)
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(dataDir).WithLogger(nil)
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	// Start the watchlist service.
	sopts := &server.Options{
		QuoteCacheTTL: c.quoteCacheTTL,
		SessionTTL:    c.sessionTTL,
		NotifyChanges: c.notifyChanges,
	}
	service, err := server.New(ctx, secrets, db, sopts)
	if err != nil {
		return err
	}
	defer service.Close()

	handlers := service.HandlerMap()
	s.AddHandlers(handlers)
	defer func() {
		for k := range handlers {
			s.RemoveHandler(k)
		}
	}()

	slog.InfoContext(ctx, "started stockwatch server", "addr", addr)
	service.SendMessage(ctx, time.Now(), "Stockwatch server is started at %s", addr)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	slog.InfoContext(ctx, "stockwatch server is shutting down")
	return nil
}
