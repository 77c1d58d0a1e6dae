package cli

import (
	"github.com/spf13/cobra"

	"puzzle-helper/internal/sysinfo"
)

func doctorCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printf("Host\n")
			for _, kv := range sysinfo.Collect() {
				a.printf("  %-12s %s\n", kv[0], kv[1])
			}

			a.printf("\nConfiguration (%s)\n", a.CfgPath)
			a.printf("  %-12s %s\n", "Endpoint", a.Cfg.Endpoint)
			a.printf("  %-12s %s\n", "Web", a.Cfg.WebBaseURL)
			if a.Cfg.AuthConfigured() {
				a.printf("  %-12s configured (pool %s)\n", "Identity", a.Cfg.UserPoolID)
			} else {
				a.printf("  %-12s not configured, anonymous mode as %q\n", "Identity", a.Cfg.UserID)
			}
			a.printf("  %-12s %s\n", "Watch dir", a.Cfg.WatchPath)
			a.printf("  %-12s %s\n", "Database", a.Cfg.DBPath)

			a.printf("\nWatch journal\n")
			pending, err := a.Store.GetPendingDrops(1000)
			if err != nil {
				a.printf("  unreadable: %v\n", err)
			} else {
				total, _ := a.Store.GetTotalDropSize()
				a.printf("  %-12s %d\n", "Pending", len(pending))
				a.printf("  %-12s %.1f MB\n", "Tracked", float64(total)/(1024*1024))
			}

			a.printf("\nAPI\n")
			a.Session.Resolve(cmd.Context())
			if _, err := a.API.ListPuzzles(cmd.Context(), a.Session.UserID()); err != nil {
				a.printf("  unreachable: %v\n", err)
			} else {
				a.printf("  reachable as %q\n", a.Session.UserID())
			}
			return nil
		},
	}
}
