/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/server"
	"github.com/spf13/cobra"
)

// identityCmd represents the identity command
var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Starts the identity service",
	Long: `Starts the identity service: login, registration, email
verification, password reset, and the session validation endpoints
the other services delegate to.`,
	Run: func(cmd *cobra.Command, args []string) {
		runService(cmd.Context(), server.NewIdentity)
	},
}

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Starts the user-record service",
	Long: `Starts the user-record service: the credential store the
identity service drives over the trust channel, plus profile and
avatar routes.`,
	Run: func(cmd *cobra.Command, args []string) {
		runService(cmd.Context(), server.NewUsers)
	},
}

// questionsCmd represents the questions command
var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Starts the question-catalog service",
	Run: func(cmd *cobra.Command, args []string) {
		runService(cmd.Context(), server.NewQuestions)
	},
}

// attemptsCmd represents the attempts command
var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Starts the attempt-history service",
	Run: func(cmd *cobra.Command, args []string) {
		runService(cmd.Context(), server.NewAttempts)
	},
}

func runService(ctx context.Context, build func(context.Context, config.Config) (*server.Server, error)) {
	cfg := config.LoadConfig()

	srv, err := build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(attemptsCmd)
}
