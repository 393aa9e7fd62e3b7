package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agileboard-api",
	Short: "Agileboard API - Multi-tenant project and task tracking backend",
	Long:  `A Go API with workspace-scoped role permissions, kanban boards, task watchers and store-and-forward notifications.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
