// Package cmd contains the nodectl commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	nodeURL string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:5000", "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Time to wait for the node to answer.")
}

var rootCmd = &cobra.Command{
	Use:          "nodectl",
	Short:        "Talk to a proof of work ledger node",
	SilenceUsage: true,
}

// Execute runs the command selected by the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// call sends the request to the node and writes the indented JSON reply to
// the command's output. Any status outside of 2xx is returned as an error.
func call(cmd *cobra.Command, method string, path string, dataSend any) error {
	data, err := do(cmd, method, path, dataSend)
	if data != nil {
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			out.Reset()
			out.Write(data)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
	}

	return err
}

// do sends the request to the node and returns the raw reply. The reply is
// returned along with the error when the node answers outside of 2xx.
func do(cmd *cobra.Command, method string, path string, dataSend any) ([]byte, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/v1%s", strings.TrimSuffix(nodeURL, "/"), path)

	req, err := http.NewRequestWithContext(cmd.Context(), method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return data, fmt.Errorf("node answered %s", resp.Status)
	}

	return data, nil
}
