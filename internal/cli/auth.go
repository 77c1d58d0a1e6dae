package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"puzzle-helper/internal/session"
)

func loginCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in with your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			if err := a.Session.Login(cmd.Context(), args[0], password); err != nil {
				return describeAuthErr(err)
			}

			user := a.Session.User()
			a.printf("Signed in as %s\n", user.Email)
			return nil
		},
	}
}

func registerCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register <email>",
		Short: "Create a new account",
		Long: `Create a new account. The identity provider emails a confirmation
code; finish the registration with 'pzl confirm <email> <code>'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password (min 8 chars, upper/lower/digit): ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Repeat password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			if err := a.Session.Register(cmd.Context(), args[0], password); err != nil {
				return describeAuthErr(err)
			}

			a.printf("Confirmation code sent to %s.\n", args[0])
			a.printf("Finish with: pzl confirm %s <code>\n", args[0])
			return nil
		},
	}
}

func confirmCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <email> <code>",
		Short: "Confirm a registration with the emailed code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.ConfirmRegistration(cmd.Context(), args[0], args[1]); err != nil {
				return describeAuthErr(err)
			}
			a.printf("Account confirmed. Sign in with: pzl login %s\n", args[0])
			return nil
		},
	}
}

func logoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Session.Logout(cmd.Context()); err != nil {
				return describeAuthErr(err)
			}
			a.printf("Signed out.\n")
			return nil
		},
	}
}

func whoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Session.Resolve(cmd.Context())
			user := a.Session.User()
			if user == nil {
				a.printf("Not signed in.\n")
				return nil
			}
			if user.Email != "" {
				a.printf("%s (%s)\n", user.Email, user.UserID)
			} else {
				a.printf("%s\n", user.UserID)
			}
			return nil
		},
	}
}

// readPassword prompts without echoing. Falls back to a plain line read when
// stdin is not a terminal (tests, pipes).
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describeAuthErr turns the anonymous-mode sentinel into a friendlier hint;
// provider errors pass through with their own message.
func describeAuthErr(err error) error {
	if errors.Is(err, session.ErrNotConfigured) {
		return errors.New("no identity provider configured; set PZL_COGNITO_USER_POOL_ID and PZL_COGNITO_CLIENT_ID or edit the config file")
	}
	return err
}
