package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "readsum",
	Short:         "Summarize web articles with an LLM",
	Long:          "readsum fetches readable article text through a reader proxy and asks OpenAI or Gemini for a short bullet summary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
