/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quizdeck",
	Short: "QuizDeck backend services",
	Long: `QuizDeck backend services. Each service runs as its own process:

	quizdeck identity
	quizdeck users
	quizdeck questions
	quizdeck attempts
	quizdeck mailworker
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
