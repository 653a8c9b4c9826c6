// Package cmd holds the interpctl operator commands. interpctl talks to
// the routing server's REST surface: it binds booths to rooms, tears
// bindings down, and lists what is still free.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverAddress string

const serverAddressKey = "server_address"

var rootCmd = &cobra.Command{
	Use:   "interpctl",
	Short: "Operator console for the interpretation routing server",
	Long: `interpctl drives the routing server's operator API. It can bind an
interpreter booth to a meeting room, end a binding, and list the rooms
and booths still available for assignment.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Address of the routing server")
	viper.BindPFlag(serverAddressKey, rootCmd.PersistentFlags().Lookup("server"))
	viper.SetDefault(serverAddressKey, "http://localhost:8080")
}

func initConfig() {
	viper.SetEnvPrefix("interpctl")
	viper.AutomaticEnv()
	serverAddress = viper.GetString(serverAddressKey)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// callAPI issues one REST call and decodes the JSON reply into out when
// out is non-nil.
func callAPI(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverAddress+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("server: %s", errBody.Error)
		}
		return fmt.Errorf("server: %s", resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
