package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"school-schedule/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the schedule over HTTP (JSON API, image uploads, live summary page)",
		Long: strings.TrimSpace(`
Serve the household schedule from a local HTTP server.

- GET  /             live summary page (updates as the store changes)
- GET  /api/snapshot full state; POST /api/commands applies one command
- POST /api/upload   multipart image upload; GET /images/{name} serves it
- GET  /api/summary  today's (or ?date=) checklist; ?format=md for markdown
- GET  /api/calendar ?child=&from=&to= resolved lists per day
- GET  /events       server-sent snapshot stream

When token_secret is configured every route except /health needs a bearer token
(see: school-schedule web token).
`),
		Example: strings.TrimSpace(`
# Serve on localhost
school-schedule web --addr 127.0.0.1:8765
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Addr
			}
			h, err := app.host()
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := h.Snapshot(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			srv, err := web.NewServer(web.ServerConfig{
				Addr:        listenAddr,
				TokenSecret: app.cfg.TokenSecret,
			}, h, app.images(), app.log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := ctxOf(cmd)
			go func() {
				if err := h.Run(ctx); err != nil {
					app.log.Error("store_watch_failed", "err", err)
				}
			}()

			fmt.Fprintf(cmd.ErrOrStderr(), "school-schedule web running at http://%s/\n", srv.Addr())
			if err := srv.ListenAndServe(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port, default from config)")
	cmd.AddCommand(newWebTokenCmd(app))
	return cmd
}

type tokenOut struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t tokenOut) Table() ([]string, [][]string) {
	return []string{"SUBJECT", "EXPIRES", "TOKEN"}, [][]string{{t.Subject, t.ExpiresAt.Local().Format(time.DateTime), t.Token}}
}

func newWebTokenCmd(app *App) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the web API (needs token_secret)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := web.IssueToken(app.cfg.TokenSecret, subject, ttl)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, tokenOut{Token: tok, Subject: subject, ExpiresAt: time.Now().Add(ttl).UTC()})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "household", "Who the token is for")
	cmd.Flags().DurationVar(&ttl, "ttl", web.DefaultTokenTTL, "Token lifetime")
	return cmd
}
