package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/secrets"
	"github.com/spigell/peanuts-cli/internal/session"
)

const passwordEnv = "PEANUTS_PASSWORD"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		return d.fail(login(cmd, d))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		if err := d.sessions.End(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Uitgelogd.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		return d.fail(whoami(cmd, d))
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("email", "e", "", "account email")
	loginCmd.Flags().String("password-file", "", "file with the password (default is "+passwordEnv+" or a prompt)")
	loginCmd.Flags().String("role", "", "fail unless the account has this role (candidate or employer)")
}

func login(cmd *cobra.Command, d *deps) error {
	email, _ := cmd.Flags().GetString("email")
	passwordFile, _ := cmd.Flags().GetString("password-file")
	roleFlag, _ := cmd.Flags().GetString("role")

	var expected session.Role
	if roleFlag != "" {
		role, err := session.ParseRole(roleFlag)
		if err != nil {
			return err
		}
		expected = role
	}

	if strings.TrimSpace(email) == "" {
		p := promptui.Prompt{Label: "E-mailadres"}
		value, err := p.Run()
		if err != nil {
			return promptErr(err)
		}
		email = value
	}
	email = strings.TrimSpace(email)

	src := secrets.Source{Name: "password", File: passwordFile, Env: passwordEnv}
	var password string
	if src.Configured() {
		value, err := secrets.Load(src)
		if err != nil {
			return err
		}
		password = value
	} else {
		p := promptui.Prompt{Label: "Wachtwoord", Mask: '*'}
		value, err := p.Run()
		if err != nil {
			return promptErr(err)
		}
		password = value
	}

	token, err := d.client.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if err := d.sessions.Begin(session.Session{Token: token.AccessToken, Email: email}); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	user, err := d.client.Me(cmd.Context())
	if err != nil {
		d.endSession()
		return err
	}

	role, err := session.ParseRole(user.Role)
	if err != nil {
		d.endSession()
		return err
	}
	if expected != "" && role != expected {
		d.endSession()
		return fmt.Errorf("account %s is a %s account, not %s", email, role, expected)
	}

	if err := d.sessions.Begin(session.Session{Token: token.AccessToken, Role: role, Email: email}); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	d.logger.Info("logged in", zap.String("role", string(role)))
	fmt.Fprintf(cmd.OutOrStdout(), "Ingelogd als %s (%s).\n", email, role)
	return nil
}

func whoami(cmd *cobra.Command, d *deps) error {
	s, err := d.requireSession()
	if err != nil {
		return err
	}

	user, err := d.client.Me(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s>\n", user.FullName, user.Email)
	fmt.Fprintf(out, "rol: %s\n", user.Role)
	if claims, err := session.Inspect(s.Token); err == nil && !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "sessie geldig tot: %s\n", claims.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}
