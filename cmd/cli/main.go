package main

import (
	"fmt"
	"os"

	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/root"
	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/tasks"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	tasks.InitTasks(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
