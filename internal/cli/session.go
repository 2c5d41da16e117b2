package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/aesprefs/internal/backend"
	"github.com/roach88/aesprefs/internal/config"
	"github.com/roach88/aesprefs/internal/metrics"
	"github.com/roach88/aesprefs/internal/prefs"
)

// session is one configured store, open for the duration of a command.
type session struct {
	cfg      *config.Config
	registry backend.Registry
	store    *prefs.Store
	gatherer *prometheus.Registry
	out      *OutputFormatter
}

// openSession loads the config, opens the backing store and binds the
// namespace. With complete set it also bumps the launch counter and stamps
// the installation date.
func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions, complete bool) (*session, error) {
	out := opts.formatter(cmd)

	cfg, err := config.Load(config.LoadOptions{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		out.Error(CodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	out.VerboseLog("backend %s at %q, namespace %q", cfg.Backend, cfg.Path, cfg.Namespace)

	reg, err := cfg.OpenRegistry()
	if err != nil {
		out.Error(CodeBackend, err.Error(), map[string]string{"backend": cfg.Backend, "path": cfg.Path})
		return nil, WrapExitError(ExitCommandError, "failed to open backing store", err)
	}

	gatherer := prometheus.NewRegistry()
	observer, err := metrics.NewObserver(gatherer)
	if err != nil {
		reg.Close()
		return nil, err
	}

	storeOpts, err := cfg.StoreOptions(newLogger(opts, cmd.ErrOrStderr()))
	if err != nil {
		reg.Close()
		out.Error(CodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	storeOpts = append(storeOpts, prefs.WithObserver(observer))

	s := &session{
		cfg:      cfg,
		registry: reg,
		store:    prefs.New(reg, storeOpts...),
		gatherer: gatherer,
		out:      out,
	}

	if complete {
		err = s.store.InitCompleteConfig(ctx, cfg.Namespace, cfg.Password)
	} else {
		err = s.store.Init(ctx, cfg.Namespace, cfg.Password)
	}
	if err != nil {
		reg.Close()
		out.Error(CodeBackend, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to initialize store", err)
	}
	return s, nil
}

// close releases the backing store and, with --metrics, prints the
// operation counts.
func (s *session) close(cmd *cobra.Command, opts *RootOptions) error {
	if opts.Metrics {
		counts, err := metrics.Summarize(s.gatherer)
		if err != nil {
			return err
		}
		w := cmd.ErrOrStderr()
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%s\t%.0f\n", c.Op, c.Outcome, c.Count)
		}
		fmt.Fprintf(w, "total\t%s\n", s.store.ExecutionTime())
	}
	return s.registry.Close()
}

// withSession runs fn against a bound store and closes it afterwards.
func withSession(cmd *cobra.Command, opts *RootOptions, complete bool, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cmd, opts, complete)
	if err != nil {
		return err
	}

	runErr := fn(ctx, s)
	if err := s.close(cmd, opts); err != nil && runErr == nil {
		runErr = WrapExitError(ExitCommandError, "failed to close backing store", err)
	}
	return runErr
}
