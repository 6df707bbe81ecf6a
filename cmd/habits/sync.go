// ABOUTME: CLI commands for encrypted remote sync.
// ABOUTME: Supports signup, signin, push, pull, status, and signout against Supabase or Postgres.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/habits/internal/config"
	"github.com/harperreed/habits/internal/habits"
	"github.com/harperreed/habits/internal/logger"
	"github.com/harperreed/habits/internal/remote"
	habitsync "github.com/harperreed/habits/internal/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	syncYes bool
)

// openRemote builds the configured remote backend. Tests replace it.
var openRemote = func(ctx context.Context) (remote.Backend, func(), error) {
	r, err := config.LoadRemote()
	if err != nil {
		return nil, func() {}, err
	}
	return r.OpenRemote(ctx)
}

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync habits across devices",
	Long: `Sync habits and logs through a remote account.

Everything is encrypted on this device with your password (PBKDF2 +
AES-256-GCM) before upload. The server stores one encrypted row per
account and never sees your habits. Lose the password and the remote
copy cannot be recovered.

CONFIGURATION:

  Supabase:  HABITS_SUPABASE_URL, HABITS_SUPABASE_ANON_KEY
             HABITS_SUPABASE_TABLE (default sync_data)
  Postgres:  HABITS_POSTGRES_DSN
  Either:    HABITS_REMOTE=supabase|postgres to choose when both are set
             HABITS_REMOTE_TIMEOUT (default 30s)

  Variables may also be placed in a .env file in the working directory.

COMMANDS:

  signup     Create an account and upload local data
  signin     Check credentials and remember the account email
  push       Replace the remote copy with local data
  pull       Replace local data with the remote copy
  status     Show the remembered account and last sync
  signout    Forget the remembered account

Passwords are read from the terminal, or from stdin when it is not a terminal.`,
}

// prompter reads answers and passwords from one input stream.
type prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.ErrOrStderr(), r: bufio.NewReader(in)}
}

func (p *prompter) terminal() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// password reads a password without echo on a terminal, or one line otherwise.
func (p *prompter) password(prompt string) (string, error) {
	if fd, ok := p.terminal(); ok {
		fmt.Fprint(p.out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

// newPassword asks twice on a terminal.
func (p *prompter) newPassword() (string, error) {
	pw, err := p.password("Choose a sync password: ")
	if err != nil {
		return "", err
	}
	if _, ok := p.terminal(); ok {
		again, err := p.password("Repeat password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", errors.New("passwords do not match")
		}
	}
	return pw, nil
}

// syncSession is one command's coordinator and its metrics registry.
type syncSession struct {
	coord   *habitsync.Coordinator
	reg     *prometheus.Registry
	profile *habitsync.Profile
	close   func()
}

func openSyncSession(ctx context.Context) (*syncSession, error) {
	backend, closeFn, err := openRemote(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := habitsync.LoadProfile()
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to read sync profile: %w", err)
	}

	reg := prometheus.NewRegistry()
	return &syncSession{
		coord:   habitsync.NewCoordinator(backend, habitsync.WithMetrics(habitsync.NewMetrics(reg))),
		reg:     reg,
		profile: profile,
		close:   closeFn,
	}, nil
}

// finish signs out, saves the profile, and logs the operation counters.
func (s *syncSession) finish(ctx context.Context) {
	st := s.coord.Status()
	if st.SignedIn {
		s.profile.Record(st)
		if err := habitsync.SaveProfile(s.profile); err != nil {
			logger.Warn("failed to save sync profile", "error", err)
		}
		if err := s.coord.SignOut(ctx); err != nil {
			logger.Debug("sign out failed", "error", err)
		}
	}
	s.logMetrics()
	s.close()
}

func (s *syncSession) logMetrics() {
	families, err := s.reg.Gather()
	if err != nil {
		logger.Debug("failed to gather sync metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			kv := []interface{}{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				kv = append(kv, lp.GetName(), lp.GetValue())
			}
			if c := m.GetCounter(); c != nil {
				kv = append(kv, "value", c.GetValue())
			}
			if h := m.GetHistogram(); h != nil {
				kv = append(kv, "count", h.GetSampleCount(), "seconds", h.GetSampleSum())
			}
			logger.Debug("sync metric", kv...)
		}
	}
}

// email picks the account from args or the remembered profile.
func (s *syncSession) email(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if s.profile.Email != "" {
		return s.profile.Email, nil
	}
	return "", errors.New("no account email (pass one, or run 'habits sync signin <email>' first)")
}

// withSync runs fn with a fresh sync session under an interruptible context.
func withSync(cmd *cobra.Command, fn func(ctx context.Context, s *syncSession) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openSyncSession(ctx)
	if err != nil {
		return err
	}
	defer s.finish(context.Background())
	return fn(ctx, s)
}

func snapshotCounts(snap habits.Snapshot) string {
	return fmt.Sprintf("%d habits and %d logs", len(snap.Habits), len(snap.Logs))
}

var syncSignUpCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create a sync account and upload local data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(cmd, func(ctx context.Context, s *syncSession) error {
			email, err := s.email(args)
			if err != nil {
				return err
			}
			pw, err := newPrompter(cmd).newPassword()
			if err != nil {
				return err
			}

			snap := store.Export()
			out := cmd.OutOrStdout()
			err = s.coord.SignUp(ctx, email, pw, snap)
			if errors.Is(err, remote.ErrConfirmationPending) {
				s.profile.Email = email
				if serr := habitsync.SaveProfile(s.profile); serr != nil {
					logger.Warn("failed to save sync profile", "error", serr)
				}
				color.New(color.FgYellow).Fprintln(out, "Account created. Confirm your email, then run 'habits sync push'.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}

			color.New(color.FgGreen).Fprintf(out, "✓ Account %s created\n", email)
			fmt.Fprintf(out, "  Uploaded %s\n", snapshotCounts(snap))
			return nil
		})
	},
}

var syncSignInCmd = &cobra.Command{
	Use:   "signin [email]",
	Short: "Check credentials and remember the account",
	Long: `Sign in to check the email and password, and remember the email for
later push and pull. Local data is not changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(cmd, func(ctx context.Context, s *syncSession) error {
			email, err := s.email(args)
			if err != nil {
				return err
			}
			pw, err := newPrompter(cmd).password("Sync password: ")
			if err != nil {
				return err
			}

			snap, err := s.coord.SignIn(ctx, email, pw)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "✓ Signed in as %s\n", email)
			if snap == nil {
				fmt.Fprintln(out, "  No remote data yet. Run 'habits sync push' to upload.")
			} else {
				fmt.Fprintf(out, "  Remote has %s\n", snapshotCounts(*snap))
			}
			return nil
		})
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push [email]",
	Short: "Replace the remote copy with local data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(cmd, func(ctx context.Context, s *syncSession) error {
			email, err := s.email(args)
			if err != nil {
				return err
			}
			pw, err := newPrompter(cmd).password("Sync password: ")
			if err != nil {
				return err
			}
			if _, err := s.coord.SignIn(ctx, email, pw); err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}

			snap := store.Export()
			if err := s.coord.PushSession(ctx, snap); err != nil {
				return fmt.Errorf("push failed: %w", err)
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Pushed %s\n", snapshotCounts(snap))
			return nil
		})
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull [email]",
	Short: "Replace local data with the remote copy",
	Long: `Download and decrypt the remote copy and replace every local habit and log.

You are asked to confirm unless --yes is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSync(cmd, func(ctx context.Context, s *syncSession) error {
			email, err := s.email(args)
			if err != nil {
				return err
			}
			p := newPrompter(cmd)
			pw, err := p.password("Sync password: ")
			if err != nil {
				return err
			}

			snap, err := s.coord.SignIn(ctx, email, pw)
			if err != nil {
				return fmt.Errorf("pull failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if snap == nil {
				fmt.Fprintln(out, "No remote data yet.")
				return nil
			}

			if !syncYes {
				ok, err := confirm(p.r, p.out, fmt.Sprintf("Replace local data with %s from the remote?", snapshotCounts(*snap)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Canceled.")
					return nil
				}
			}

			if err := store.Import(*snap); err != nil {
				return fmt.Errorf("failed to apply pulled data: %w", err)
			}
			color.New(color.FgGreen).Fprintf(out, "✓ Pulled %s\n", snapshotCounts(*snap))
			return nil
		})
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		r, err := config.LoadRemote()
		if err != nil {
			return err
		}
		if provider := r.ResolvedProvider(); provider != "" {
			fmt.Fprintf(out, "Remote:      %s\n", provider)
		} else {
			color.New(color.FgYellow).Fprintln(out, "Remote:      not configured")
		}

		profile, err := habitsync.LoadProfile()
		if err != nil {
			return fmt.Errorf("failed to read sync profile: %w", err)
		}
		if profile.Email == "" {
			fmt.Fprintln(out, "Account:     none (run 'habits sync signin <email>')")
		} else {
			fmt.Fprintf(out, "Account:     %s\n", profile.Email)
		}
		if profile.LastSynced.IsZero() {
			fmt.Fprintln(out, "Last sync:   never")
		} else {
			fmt.Fprintf(out, "Last sync:   %s (%s)\n", profile.LastSynced.Local().Format(time.DateTime), profile.LastOp)
		}

		snap := store.Export()
		fmt.Fprintf(out, "Local data:  %s\n", snapshotCounts(snap))
		return nil
	},
}

var syncSignOutCmd = &cobra.Command{
	Use:         "signout",
	Short:       "Forget the remembered account",
	Long:        `Forget the remembered account email. Local data and the remote copy are kept.`,
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := habitsync.ClearProfile(); err != nil {
			return fmt.Errorf("failed to clear sync profile: %w", err)
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Signed out")
		return nil
	},
}

func init() {
	syncPullCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "skip confirmation")

	syncCmd.AddCommand(syncSignUpCmd, syncSignInCmd, syncPushCmd, syncPullCmd, syncStatusCmd, syncSignOutCmd)
	rootCmd.AddCommand(syncCmd)
}
