package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/config"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/internal/tokenstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds what the commands share. Tests fill log, store and api before
// running a command; otherwise they are built from flags on first use.
type app struct {
	cfg     config.ClientConfig
	verbose bool

	in     *bufio.Reader
	stdin  *os.File
	out    io.Writer
	log    *zap.Logger
	store  tokenstore.Store
	closer io.Closer
	api    *authapi.Client
	nav    *terminalNavigator
}

func newApp(cfg config.ClientConfig, in io.Reader, out io.Writer) *app {
	a := &app{cfg: cfg, in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok {
		a.stdin = f
	}
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "janus",
		Short:         "Terminal client for the janus ERP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.cfg.APIURL, "api-url", a.cfg.APIURL, "base URL of the janus API")
	root.PersistentFlags().StringVar(&a.cfg.SessionPath, "session-db", a.cfg.SessionPath, "path of the session database")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSignupCmd(a),
		newSigninCmd(a),
		newSignoutCmd(a),
		newWhoamiCmd(a),
		newPasswordCmd(a),
		newInviteCmd(a),
		newTotalsCmd(a),
		newDueDateCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.log == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if a.verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.log = logger
	}
	if a.api == nil {
		a.api = authapi.New(a.cfg.APIURL)
	}
	if a.nav == nil {
		a.nav = newTerminalNavigator(a.out, a.log)
	}
	return nil
}

// session opens the durable session store on first use. When the file
// cannot be opened the session only lives for this run.
func (a *app) session() tokenstore.Store {
	if a.store != nil {
		return a.store
	}
	s, err := tokenstore.OpenSQLite(a.cfg.SessionPath)
	if err != nil {
		a.log.Warn("session store unavailable, using memory", zap.String("path", a.cfg.SessionPath), zap.Error(err))
		a.store = tokenstore.NewMemory()
		return a.store
	}
	a.store, a.closer = s, s
	return a.store
}

func (a *app) close() {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.log.Warn("close session store", zap.Error(err))
		}
		a.closer = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// terminalNavigator prints page changes and keeps the history.
type terminalNavigator struct {
	*routes.History
	out io.Writer
	log *zap.Logger
}

func newTerminalNavigator(out io.Writer, log *zap.Logger) *terminalNavigator {
	return &terminalNavigator{History: routes.NewHistory(routes.SignIn), out: out, log: log}
}

func (n *terminalNavigator) Navigate(ctx context.Context, to routes.Route, mode routes.Mode) error {
	n.log.Debug("navigate", zap.String("route", string(to)), zap.Bool("replace", mode == routes.Replace))
	return n.History.Navigate(ctx, to, mode)
}
