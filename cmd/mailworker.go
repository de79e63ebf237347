/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/mailer"
	"github.com/quizdeck/backend/internal/mq"
	"github.com/spf13/cobra"
)

// mailworkerCmd represents the mailworker command
var mailworkerCmd = &cobra.Command{
	Use:   "mailworker",
	Short: "Consumes queued email jobs and delivers them",
	Long: `Consumes outbound-email jobs from the message queue and
delivers them through the Resend API. Run this alongside the identity
service when MAIL_DRIVER=queue.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		broker, err := mq.NewBroker(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		defer broker.Close()

		sender, err := mailer.NewResendMailer(cfg.Mail)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build mailer: %v\n", err)
			os.Exit(1)
		}

		if err := mailer.RunWorker(cmd.Context(), broker, sender); err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mailworkerCmd)
}
