package main

import (
	"github.com/EvanAranda/go-ext/internal/cli"
	"github.com/EvanAranda/go-ext/internal/tasks"
	"github.com/EvanAranda/go-ext/procpool"
)

var version = "0.1.0"

func main() {
	// Tasks must be registered before the worker guard so pool
	// children share the registry. WorkerMain never returns in a
	// worker child.
	tasks.RegisterAll()
	procpool.WorkerMain()

	cli.Execute(version)
}
