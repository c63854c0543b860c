package main

import (
	"context"
	"fmt"

	"github.com/mlefebvre/tunesync/internal/formatter"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/mlefebvre/tunesync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun synchronizes the local library with a platform's saved tracks.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	platform := cmd.StringArg("platform")
	if platform == "" {
		return fmt.Errorf("%w: platform argument is required", shared.ErrInvalidInput)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "platform", platform, "user", user.Email())
	r.writePlain("Syncing library with %s...\n\n", platform)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchLibrary:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ReconcileTracks:
				if update.Step == 1 {
					r.writePlain("\n🔍 Reconciling tracks\n")
				}
				r.writePlain("   %s\n", update.Message)
			case tasks.FanOutLinks:
				r.writePlain("   🔗 %s\n", update.Message)
			case tasks.RemoveTracks:
				r.writePlain("\n🗑  %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Sync(ctx, user.ID(), platform, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("%s", formatter.FormatSyncResult(result))

	return nil
}
