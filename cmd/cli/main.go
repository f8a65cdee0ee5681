package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "smashclub-cli",
	Short: "A CLI to interact with the smashclub match server",
	Long: `A command-line interface for making requests to the various endpoints
of the smashclub match session server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SMASHCLUB_TOKEN"), "Bearer token used to authenticate requests")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
