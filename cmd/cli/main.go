package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:8080"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliState is shared by every subcommand
type cliState struct {
	api string
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	st := &cliState{out: out}
	root := &cobra.Command{
		Use:           "dreammatch",
		Short:         "CLI client for the DreamMatch API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&st.api, "api", "a", apiFromEnv(), "DreamMatch base URL (DREAMMATCH_API)")

	root.AddCommand(newAuthCmd(st), newDreamsCmd(st), newMatchesCmd(st), newScoreCmd(st))
	return root
}

func apiFromEnv() string {
	if url := os.Getenv("DREAMMATCH_API"); url != "" {
		return url
	}
	return defaultAPI
}

func (st *cliState) client() *apiClient {
	return &apiClient{
		base:  strings.TrimRight(st.api, "/"),
		token: loadToken(),
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// apiClient calls the REST API with the stored token
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

// do sends body as JSON and decodes the response into out when it is non-nil
func (c *apiClient) do(method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dreammatch", "token")
}

func saveToken(token string) error {
	path := tokenFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}
