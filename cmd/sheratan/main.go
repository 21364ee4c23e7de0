package main

import (
	"fmt"
	"os"

	"github.com/J3r3C0/sheratan-core-v2/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "sheratan"}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
