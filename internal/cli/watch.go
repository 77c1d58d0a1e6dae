package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"puzzle-helper/internal/daemon"
	"puzzle-helper/internal/logger"
)

// watchCmd groups the watch-daemon lifecycle. Images dropped into the watch
// directory are registered as puzzles and uploaded automatically; a
// subdirectory named after a piece count ({watch}/1000/fuji.jpg) sets the
// count for its files.
func watchCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run or manage the drop-folder watch daemon",
	}

	svcConfig := &service.Config{
		Name:        "pzl-watch",
		DisplayName: "Puzzle Helper Watch Daemon",
		Description: "Watches a drop folder and uploads images as puzzle projects.",
		Arguments:   []string{"watch", "run"},
		Option: service.KeyValue{
			"UserService": true,
		},
	}

	newService := func() (service.Service, error) {
		return service.New(&daemon.Daemon{
			Logger:  a.Logger,
			Cfg:     a.Cfg,
			CfgPath: a.CfgPath,
		}, svcConfig)
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the watch daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &daemon.Daemon{
				Logger:  a.Logger,
				Cfg:     a.Cfg,
				CfgPath: a.CfgPath,
			}
			s, err := service.New(d, svcConfig)
			if err != nil {
				return err
			}
			// Daemon logs go to the OS service log (the console when run
			// interactively) and the log file.
			if svcLogger, err := s.Logger(nil); err == nil {
				d.Logger = logger.NewService(svcLogger, &logger.Rotator{Filename: a.Cfg.LogPath})
			}
			return s.Run()
		},
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install the watch daemon as a system service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := s.Install(); err != nil {
				return fmt.Errorf("failed to install service: %w", err)
			}
			a.printf("Service installed. Start it with: pzl watch start\n")
			return nil
		},
	}

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the watch daemon service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := s.Uninstall(); err != nil {
				return fmt.Errorf("failed to uninstall service: %w", err)
			}
			a.printf("Service uninstalled.\n")
			return nil
		},
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start the installed watch daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := s.Start(); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			a.printf("Service started.\n")
			return nil
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the watch daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := s.Stop(); err != nil {
				return fmt.Errorf("failed to stop: %w", err)
			}
			a.printf("Service stopped.\n")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the watch daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			st, err := s.Status()
			if err != nil {
				return fmt.Errorf("error getting status: %w", err)
			}
			switch st {
			case service.StatusRunning:
				a.printf("Running\n")
			case service.StatusStopped:
				a.printf("Stopped\n")
			default:
				a.printf("Unknown\n")
			}
			return nil
		},
	}

	logs := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(a.Cfg.LogPath)
			if err != nil {
				if os.IsNotExist(err) {
					a.printf("No logs found.\n")
					return nil
				}
				return err
			}
			defer f.Close()
			_, err = io.Copy(a.Out, f)
			return err
		},
	}

	cmd.AddCommand(run, install, uninstall, start, stop, status, logs)
	return cmd
}
