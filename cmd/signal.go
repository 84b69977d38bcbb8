package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	interruptChannel      chan os.Signal
	addHandlerChannel     = make(chan func())
	interruptHandlersDone = make(chan struct{})

	interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
)

// mainInterruptHandler runs the registered handlers in reverse order on the
// first interrupt signal and then closes interruptHandlersDone.
func mainInterruptHandler() {
	var interruptCallbacks []func()

	for {
		select {
		case sig := <-interruptChannel:
			fmt.Fprintf(os.Stderr, "Received signal (%s). Shutting down...\n", sig)
			for i := len(interruptCallbacks) - 1; i >= 0; i-- {
				interruptCallbacks[i]()
			}
			close(interruptHandlersDone)
			return

		case handler := <-addHandlerChannel:
			interruptCallbacks = append(interruptCallbacks, handler)
		}
	}
}

// addInterruptHandler registers handler to run when the process is
// interrupted.
func addInterruptHandler(handler func()) {
	if interruptChannel == nil {
		interruptChannel = make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)
		go mainInterruptHandler()
	}

	addHandlerChannel <- handler
}
