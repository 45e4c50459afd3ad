package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmater/waitlist/internal/config"
)

var hashCodeCmd = &cobra.Command{
	Use:   "hash-code <code>",
	Short: "Print the bcrypt hash to use as registration.code_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := config.HashCode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCodeCmd)
}
