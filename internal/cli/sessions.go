// internal/cli/sessions.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/profiler/internal/auth"
	"github.com/law-makers/profiler/internal/ui"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var sessionsDeleteYes bool

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved LinkedIn sessions",
	Long: `List, view, and delete saved LinkedIn sessions.

Sessions are stored in your OS keyring, or as files under ~/.profiler/sessions
where no keyring is available. They hold the cookies that keep the browser
logged in between runs.`,
	Example: `  # List all saved sessions
  profiler sessions list

  # View details of a specific session
  profiler sessions view linkedin

  # Delete a session without asking
  profiler sessions delete work --yes`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	RunE:  func(cmd *cobra.Command, args []string) error { return finish(cmd, runSessionsList(cmd, args)) },
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return finish(cmd, runSessionsView(cmd, args)) },
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return finish(cmd, runSessionsDelete(cmd, args)) },
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	sessionsDeleteCmd.Flags().BoolVarP(&sessionsDeleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	names, err := a.Sessions.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "\nNo saved sessions found.")
		fmt.Fprintln(out, "\nCreate a session with:")
		fmt.Fprintln(out, "  profiler login")
		fmt.Fprintln(out)
		return nil
	}

	fmt.Fprintf(out, "\n📋 Saved Sessions (%d) in %s\n", len(names), a.Sessions.Location())
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out)

	now := time.Now()
	for i, name := range names {
		fmt.Fprintf(out, "%d. %s\n", i+1, name)

		session, err := a.Sessions.Load(name)
		if session == nil {
			fmt.Fprintf(out, "   ⚠️  Error loading: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "   URL: %s\n", session.URL)
		fmt.Fprintf(out, "   Cookies: %d\n", len(session.Cookies))
		fmt.Fprintf(out, "   Created: %s\n", session.CreatedAt.Format(time.RFC1123))
		if !session.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "   Status: %s\n", expiryStatus(session.ExpiresAt, now))
		}

		if i < len(names)-1 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	return nil
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	name := args[0]

	session, err := a.Sessions.Load(name)
	if session == nil {
		return fmt.Errorf("failed to load session '%s': %w", name, err)
	}

	fmt.Fprintf(out, "\n🔍 Session Details: %s\n", name)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Name:     %s\n", session.Name)
	fmt.Fprintf(out, "URL:      %s\n", session.URL)
	fmt.Fprintf(out, "Created:  %s\n", session.CreatedAt.Format(time.RFC1123))
	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires:  %s\n", session.ExpiresAt.Format(time.RFC1123))
		fmt.Fprintf(out, "Status:   %s\n", expiryStatus(session.ExpiresAt, time.Now()))
	}

	fmt.Fprintf(out, "\nCookies (%d):\n", len(session.Cookies))
	for i, cookie := range session.Cookies {
		if i >= 5 {
			fmt.Fprintf(out, "  ... and %d more\n", len(session.Cookies)-5)
			break
		}
		fmt.Fprintf(out, "  • %s (domain: %s)\n", cookie.Name, cookie.Domain)
	}

	fmt.Fprintln(out)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	name := args[0]

	if !sessionsDeleteYes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("\n⚠️  Delete session '%s'? [y/N]: ", name)) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	if _, err := a.Sessions.Load(name); errors.Is(err, auth.ErrSessionNotFound) {
		return fmt.Errorf("session '%s' does not exist", name)
	}
	if err := a.Sessions.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n\n", ui.Success(fmt.Sprintf("Session '%s' deleted successfully.", name)))
	return nil
}

// expiryStatus describes an expiry time relative to now
func expiryStatus(expires, now time.Time) string {
	if now.After(expires) {
		return fmt.Sprintf("⚠️  Expired (%s ago)", now.Sub(expires).Round(time.Hour))
	}
	return fmt.Sprintf("✓ Valid (expires in %s)", expires.Sub(now).Round(time.Hour))
}

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
