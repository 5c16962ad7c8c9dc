package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/logger"
	ksvc "github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// Program runs the scheduler under the OS service manager.
type Program struct {
	cfg    *config.Config
	app    *app
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *Program) Start(s ksvc.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	a, err := newApp(ctx, p.cfg, false)
	if err != nil {
		cancel()
		return err
	}
	p.app, p.cancel = a, cancel
	p.done = make(chan struct{})
	go p.run(ctx)
	return nil
}

func (p *Program) run(ctx context.Context) {
	defer close(p.done)
	if err := p.app.scheduler.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("scheduler stopped")
	}
}

func (p *Program) Stop(s ksvc.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.done
	p.app.Close()
	return nil
}

func newServiceConfig() (*ksvc.Config, error) {
	path, err := filepath.Abs(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	return &ksvc.Config{
		Name:        "DMArchiver",
		DisplayName: "DM Archiver Service",
		Description: "This service archives posts shared with the bot account by direct message.",
		Arguments:   []string{"service", "run", "--config", path},
	}, nil
}

func newServiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "service [install|uninstall|start|stop|restart|run]",
		Short:     "Control the OS service",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: append([]string{"run"}, ksvc.ControlAction[:]...),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcConfig, err := newServiceConfig()
			if err != nil {
				return err
			}

			prg := &Program{}
			if args[0] == "run" {
				if prg.cfg, err = loadConfig(); err != nil {
					return err
				}
			}

			s, err := ksvc.New(prg, svcConfig)
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			if args[0] == "run" {
				if err := s.Run(); err != nil {
					logger.Logger.Error().Err(err).Msg("error running service")
					return err
				}
				return nil
			}

			if err := ksvc.Control(s, args[0]); err != nil {
				return fmt.Errorf("service %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service %s: ok\n", args[0])
			return nil
		},
	}
}
