package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EvanAranda/go-ext/procpool"
)

func init() {
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List registered tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range procpool.Tasks() {
			fmt.Println(name)
		}
		return nil
	},
}
