package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	debugLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
	isSetup     bool

	// warnings are always shown, independent of the debug log
	console io.Writer = os.Stderr
)

// SetupLogger initializes the debug logger with the specified log file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Check if logger is already set up
	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = log.New(logFile, "", log.LstdFlags)
	debugLogger.Printf("--- imagecert debug log started at %s ---\n", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetOutput attaches the debug logger to an arbitrary writer (used by tests)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	debugLogger = log.New(w, "", 0)
	isSetup = true
}

// SetConsole redirects warning output, nil silences it
func SetConsole(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		w = io.Discard
	}
	console = w
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Printf("--- imagecert debug log closed at %s ---\n", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil
	isSetup = false
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("INFO: "+format, args...)
	}
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("ERROR: "+format, args...)
	}
}

// LogWarning logs a warning to the debug log and to the console
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("WARNING: "+format, args...)
	}
	fmt.Fprintf(console, "Warning: "+format+"\n", args...)
}

// LogCaseEvaluated logs the outcome of one test case
func LogCaseEvaluated(name string, pass bool, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger == nil {
		return
	}
	switch {
	case errMsg != "":
		debugLogger.Printf("ERRORED: %s - Error: %s", name, errMsg)
	case pass:
		debugLogger.Printf("PASSED: %s", name)
	default:
		debugLogger.Printf("FAILED: %s", name)
	}
}
