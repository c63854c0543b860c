package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/server"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the login flow waits for the user to finish
// the consent page.
const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization flow for a platform.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// stores the exchanged tokens as a platform credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
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

	auth, err := r.registry.Authenticator(platform)
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	authURL := auth.AuthURL(state)
	handler := server.NewOAuthHandler(auth, user.ID(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)

	r.writePlain("→ Opening browser for %s authorization...\n", platform)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	cred, err := server.WaitForCallback(waitCtx, addr, handler, router)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := r.creds.Upsert(cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	r.writePlainln("✓ %s connected for %s", platform, user.Email())
	r.writePlain("You can now run: tunesync sync %s\n", platform)

	return nil
}

// AuthStatus shows the credential state for every configured platform.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	r.writePlain("Account: %s\n\n", user.Email())

	for _, name := range r.registry.Names() {
		cred, err := r.creds.GetByUserPlatform(user.ID(), name)
		switch {
		case errors.Is(err, shared.ErrNoCredential):
			r.writePlain("%s: not connected\n", name)
		case err != nil:
			return fmt.Errorf("failed to read credential for %s: %w", name, err)
		case cred.Expired(now) && cred.RefreshToken() == "":
			r.writePlain("%s: ✗ token expired, run 'tunesync auth login %s'\n", name, name)
		case cred.Expired(now):
			r.writePlain("%s: ✓ connected (token stale, will refresh)\n", name)
		default:
			r.writePlain("%s: ✓ connected\n", name)
		}
	}

	return nil
}

// AuthDisconnect removes the stored credential for a platform.
func (r *Runner) AuthDisconnect(ctx context.Context, cmd *cli.Command) error {
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

	if err := r.engine.Disconnect(user.ID(), platform); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", platform, err)
	}

	r.writePlain("✓ %s disconnected\n", platform)
	return nil
}

// AuthLog prints the recorded platform actions, newest first.
func (r *Runner) AuthLog(ctx context.Context, cmd *cli.Command) error {
	platform := cmd.String("platform")
	useJSON := cmd.Bool("json")

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	entries, err := r.engine.ActionLog(user.ID(), platform)
	if err != nil {
		return fmt.Errorf("failed to read action log: %w", err)
	}

	if useJSON {
		rows := make([]map[string]any, len(entries))
		for i, entry := range entries {
			rows[i] = map[string]any{
				"platform":   entry.Platform(),
				"action":     entry.Action(),
				"metadata":   entry.Metadata(),
				"created_at": entry.CreatedAt().Format(time.RFC3339),
			}
		}
		return r.writeJSON(rows, true)
	}

	if len(entries) == 0 {
		r.writePlain("No actions recorded.\n")
		return nil
	}

	for _, entry := range entries {
		r.writePlain("%s  %-8s  %s", entry.CreatedAt().Format(time.RFC3339), entry.Platform(), entry.Action())
		if errMsg, ok := entry.Metadata()["error"]; ok {
			r.writePlain("  (error: %v)", errMsg)
		}
		r.writePlain("\n")
	}

	return nil
}
