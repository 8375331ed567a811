// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"pinion-cli/internal/config"
	"pinion-cli/internal/selfupdate"
)

// finalizePendingUpdate runs the self-update finalizer before any command
// logic. It is the single top-level reducer for finalize outcomes: every
// non-success degrades to "proceed with the current executable", and the
// only always-on output is the rollback-failed warning — a swap that
// succeeded on disk but whose binary could not be restarted.
func finalizePendingUpdate() {
	cfg, _ := config.Load()

	if cfg != nil && cfg.Update.Disabled {
		return
	}

	verboseOn := os.Getenv(selfupdate.EnvVerbose) != "" || (cfg != nil && cfg.UI.Verbose)

	opts := make([]selfupdate.Option, 0, 3)
	if verboseOn {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			Level:  log.DebugLevel,
			Prefix: "selfupdate",
		})
		opts = append(opts, selfupdate.WithLogger(logger))
	}
	if cfg != nil {
		if cfg.Update.LockStaleMinutes > 0 {
			opts = append(opts, selfupdate.WithStalenessPolicy(selfupdate.StalenessPolicy{
				MaxAge: time.Duration(cfg.Update.LockStaleMinutes) * time.Minute,
			}))
		}
		if cfg.Update.RetentionHours > 0 {
			opts = append(opts, selfupdate.WithRetention(time.Duration(cfg.Update.RetentionHours)*time.Hour))
		}
	}

	// Run either returns (continue on the current binary) or exits the
	// process mirroring the promoted binary's termination.
	outcome := selfupdate.New(opts...).Run(context.Background(), os.Args)

	if outcome.RollbackFailed {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
			"self-update could not start the new binary and rolling back failed; "+
			"the installed binary may not match the one running. "+
			"Reinstall pinion to repair the installation.")
	}
}
