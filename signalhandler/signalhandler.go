package signalhandler

import (
	"os"
	"os/signal"
	"syscall"
)

// SetupHandler runs cleanup and exits when the process is interrupted, so the
// log file and OpenCV resources are not left half written
func SetupHandler(cleanup func()) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			if cleanup != nil {
				cleanup()
			}
			os.Exit(ExitCode(sig))
		case <-done:
		}
	}()

	// the returned stop function detaches the handler
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// ExitCode maps a terminating signal to the conventional shell exit status
func ExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
