// internal/cli/login.go
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/profiler/internal/app"
	"github.com/law-makers/profiler/internal/ui"
)

var loginFresh bool

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to LinkedIn and save the session",
	Long: `Opens a visible Chrome window on the LinkedIn login page. Credentials from
LINKEDIN_EMAIL and LINKEDIN_PASSWORD are filled in when set; otherwise log in
by hand, completing any verification LinkedIn asks for.

Once the feed loads, the session cookies are saved so that later analyze and
batch runs start logged in.`,
	Example: `  # Log in and save the default session
  profiler login

  # Replace a stored session under another name
  profiler login --fresh --session=work`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return finish(cmd, runLogin(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().BoolVar(&loginFresh, "fresh", false, "Ignore the stored session and log in again")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, ui.Info(fmt.Sprintf("🔐 Opening browser for session '%s' (waiting up to %s)", a.Config.SessionName, a.Config.LoginTimeout)))

	session, err := a.OpenSession(ctx, app.LoginOptions{Interactive: true, Fresh: loginFresh})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Error closing browser session")
		}
	}()

	if err := session.Authenticate(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n", ui.Success(fmt.Sprintf("Logged in. Session '%s' saved to %s", a.Config.SessionName, a.Sessions.Location())))
	return nil
}
