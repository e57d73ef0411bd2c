package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
)

type authResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func newAuthCmd(st *cliState) *cobra.Command {
	authCmd := &cobra.Command{Use: "auth", Short: "Register, log in and out"}

	var username, password string
	credentials := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
		cmd.Flags().StringVarP(&password, "password", "p", "", "password (required)")
		_ = cmd.MarkFlagRequired("username")
		_ = cmd.MarkFlagRequired("password")
	}
	authenticate := func(path, verb string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			var res authResult
			body := map[string]string{"username": username, "password": password}
			if err := st.client().do(http.MethodPost, path, body, &res); err != nil {
				return fmt.Errorf("%s failed: %w", verb, err)
			}
			if err := saveToken(res.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(st.out, "✓ %s as %s (%s)\n", verb, res.Username, res.UserID)
			return nil
		}
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its token",
		RunE:  authenticate("/api/auth/register", "registered"),
	}
	credentials(registerCmd)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token",
		RunE:  authenticate("/api/auth/login", "logged in"),
	}
	credentials(loginCmd)

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Remove(tokenFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Fprintln(st.out, "✓ Logged out")
			return nil
		},
	}

	whoCmd := &cobra.Command{
		Use:   "who",
		Short: "Show the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := loadToken()
			if token == "" {
				fmt.Fprintln(st.out, "Not logged in")
				return nil
			}
			claims, err := peekClaims(token)
			if err != nil {
				return err
			}
			fmt.Fprintf(st.out, "✓ Logged in as %s (%s), token expires %s\n",
				claims.Username, claims.UserID, claims.ExpiresAt.Time.Format("2006-01-02 15:04"))
			return nil
		},
	}

	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoCmd)
	return authCmd
}

// peekClaims reads token claims without verifying the signature; the server does that
func peekClaims(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, fmt.Errorf("stored token is unreadable: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("stored token has no expiry")
	}
	return claims, nil
}
