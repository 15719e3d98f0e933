// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
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

	"github.com/bvk/sentinel/ctxutil"
	"github.com/bvk/sentinel/daemonize"
	"github.com/bvk/sentinel/httputil"
	"github.com/bvk/sentinel/server"
	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/steamsim"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

type Run struct {
	cmdutil.ServerFlags
	cmdutil.DataDirFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	debug    bool
	noPprof  bool
	noNotify bool
	testMode bool

	backend     string
	manualLogin bool

	journalRetention time.Duration
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	c.DataDirFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.debug, "debug", false, "when true, debug messages are logged")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.BoolVar(&c.noNotify, "no-notify", false, "when true, notifications are not sent")
	fset.BoolVar(&c.testMode, "test-mode", false, "when true, trade listeners are hooked without joining the web session")
	fset.StringVar(&c.backend, "backend", "sim", "steam network backend; only \"sim\" is supported")
	fset.BoolVar(&c.manualLogin, "manual-login", false, "when true, simulated sessions wait for /sim/login requests to login")
	fset.DurationVar(&c.journalRetention, "journal-retention", 0, "when non-zero, journal entries older than this are removed")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the sentinel daemon in foreground or background"
}

func (c *Run) Description() string {
	return `

Command "run" logs into the steam account and keeps the session alive. Session
events are recorded in the journal, streamed to websocket clients at /events
and delivered as notifications when Telegram or Pushover is configured.

SECRETS FILE

Steam account credentials and the optional notification keys are read from
the secrets file. Use "sentinel setup" commands to create it. An example
secrets file is given below:

    {
        "steam":{
            "steamid":"76561197960287930",
            "accountName":"mybot",
            "password":"********",
            "sharedSecret":"MTIzNDU2Nzg5MDEyMzQ1Njc4OTA="
        }
    }

SIMULATOR BACKEND

The "sim" backend runs an in-memory steam network. Events are injected with
POST requests to the /sim/ endpoints or with the "sentinel sim" commands.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	dataDir, err := c.DataDir()
	if err != nil {
		return err
	}
	secretsPath, err := c.SecretsPath()
	if err != nil {
		return err
	}
	secrets, err := server.SecretsFromFile(secretsPath)
	if err != nil {
		return err
	}

	addr, err := c.TCPAddr()
	if err != nil {
		return err
	}

	var backend steam.Backend
	var simBackend *steamsim.Backend
	switch c.backend {
	case "sim":
		var steamID steam.SteamID
		if len(secrets.Steam.SteamID) != 0 {
			if steamID, err = steam.ParseSteamID(secrets.Steam.SteamID); err != nil {
				return fmt.Errorf("invalid steamid in secrets: %w", err)
			}
		}
		simBackend = steamsim.New(&steamsim.Options{SteamID: steamID, AutoLogin: !c.manualLogin})
		backend = simBackend
	default:
		return fmt.Errorf("unsupported steam backend %q", c.backend)
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
		if err := daemonize.Daemonize(ctx, "SENTINEL_DAEMONIZE", check); err != nil {
			return err
		}
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("could not create log directory: %w", err)
	}
	logBackend := sglog.NewBackend(&sglog.Options{LogDirs: []string{logDir}})
	defer logBackend.Close()
	if c.debug {
		logBackend.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(logBackend.Handler()))

	slog.Info("using data directory", "dir", dataDir, "secrets", secretsPath)

	lockPath := filepath.Join(dataDir, "sentinel.lock")
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
			slog.Info("waiting for the previous instance to shutdown", "pid", owner.Pid)
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
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bopts.Logger = nil
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	if simBackend != nil {
		s.AddHandler("/sim/", simBackend.Handler())
	}

	sopts := &server.Options{
		TestMode:         c.testMode,
		NoNotify:         c.noNotify,
		JournalRetention: c.journalRetention,
	}
	sentinel, err := server.New(ctx, secrets, db, backend, sopts)
	if err != nil {
		return err
	}
	defer sentinel.Close()

	apis := sentinel.HandlerMap()
	for k, v := range apis {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range apis {
			s.RemoveHandler(k)
		}
	}()

	if err := sentinel.Start(ctx); err != nil {
		return err
	}

	slog.Info("started sentinel server", "addr", addr, "backend", c.backend, "test-mode", c.testMode)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	slog.Info("sentinel server is shutting down", "cause", context.Cause(ctx))
	return nil
}
