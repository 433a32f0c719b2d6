package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/config"
	"github.com/spf13/cobra"
)

const sessionFileName = ".taskapp_session"
const sessionCookieName = "taskapp_session"

// InitAuth registers auth-related CLI commands (login, logout) on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd())
}

// loginCmd creates a command that logs in a user and stores the session
// cookie locally for subsequent CLI commands.
func loginCmd() *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Task Tracker API",
		Long:  "Authenticate with the Task Tracker API and store the session cookie for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				fmt.Print("Username: ")
				fmt.Scanln(&username)
			}
			if password == "" {
				fmt.Print("Password: ")
				fmt.Scanln(&password)
			}

			cookie, err := login(username, password)
			if err != nil {
				return err
			}

			if err := SaveSession(cookie); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Println("Login successful. Session stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sessionPath()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Println("No user logged in.")
				return nil
			}
			if err := os.Remove(path); err != nil {
				return err
			}
			fmt.Println("Logged out successfully.")
			return nil
		},
	}
}

// login posts the credentials as a form, the same way the browser login page
// does, and returns the session cookie on success. The server answers a
// successful login with a redirect, so redirects are not followed.
func login(username, password string) (string, error) {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	form := url.Values{
		"username": {username},
		"password": {password},
	}

	resp, err := client.PostForm(config.APIURL()+"/login", form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("invalid username or password")
	}

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c.Name + "=" + c.Value, nil
		}
	}

	return "", fmt.Errorf("login succeeded but no session cookie returned")
}

// SaveSession writes the session cookie to the user's home directory.
func SaveSession(cookie string) error {
	return os.WriteFile(sessionPath(), []byte(cookie), 0600)
}

// LoadSession reads the stored session cookie. Callers should treat an error
// as "not logged in".
func LoadSession() (string, error) {
	data, err := os.ReadFile(sessionPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func sessionPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, sessionFileName)
}
