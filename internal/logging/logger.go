package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	mainLogName  = "ChatServerLog.txt"
	traceLogName = "ChatTraceLog.txt"

	stampFormat = "2006-01-02 15:04:05.000"

	// Rotated logs older than this many days are removed.
	retentionDays = 40
)

// Logger writes leveled messages to a file in the log directory, with
// line-count based rotation and an optional trace file for wire traffic.
type Logger struct {
	logPath   string
	logFile   *os.File
	traceFile *os.File
	mu        sync.Mutex
	lineCount int
	maxLines  int
}

// NewLogger creates a new logger writing under logPath.
func NewLogger(logPath string) *Logger {
	if err := os.MkdirAll(logPath, 0755); err != nil {
		fmt.Printf("Error creating log directory: %v\n", err)
	}

	logger := &Logger{
		logPath:  logPath,
		maxLines: 600, // rotate after 600 lines
	}

	var err error
	logger.logFile, err = openAppend(filepath.Join(logPath, mainLogName))
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
	}

	logger.Info("==============================")
	logger.Info("Log started at %s", time.Now().Format("2006-01-02 15:04:05"))
	logger.Info("==============================")

	return logger
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Close closes all log files
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		l.logFile.Close()
	}
	if l.traceFile != nil {
		l.traceFile.Close()
	}
}

// EnableTrace enables trace logging to a separate file
func (l *Logger) EnableTrace() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.traceFile != nil {
		return nil
	}

	var err error
	l.traceFile, err = openAppend(filepath.Join(l.logPath, traceLogName))
	if err != nil {
		return fmt.Errorf("error opening trace log file: %v", err)
	}
	return nil
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.log("WARNING", format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log("DEBUG", format, args...)
}

// Trace logs a trace message (only if trace is enabled)
func (l *Logger) Trace(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.traceFile == nil {
		return
	}

	message := fmt.Sprintf(format, args...)
	l.traceFile.WriteString(fmt.Sprintf("%s [TRACE] %s\n", time.Now().Format(stampFormat), message))
}

// UserLog appends a message to a per-user log file, one file per chat name.
func (l *Logger) UserLog(userName, format string, args ...interface{}) {
	if userName == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.logPath, fmt.Sprintf("UserLog_%s.txt", userName))
	userFile, err := openAppend(path)
	if err != nil {
		fmt.Printf("Error opening user log file: %v\n", err)
		return
	}
	defer userFile.Close()

	message := fmt.Sprintf(format, args...)
	userFile.WriteString(fmt.Sprintf("%s %s\n", time.Now().Format(stampFormat), message))
}

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return
	}

	message := fmt.Sprintf(format, args...)
	l.logFile.WriteString(fmt.Sprintf("%s [%s] %s\n", time.Now().Format(stampFormat), level, message))
	l.lineCount++

	if l.lineCount >= l.maxLines {
		l.rotateLog()
	}
}

// rotateLog renames the current files with a timestamp prefix and starts
// fresh ones. Caller must hold l.mu.
func (l *Logger) rotateLog() {
	if l.logFile == nil {
		return
	}

	l.logFile.Close()

	timestamp := time.Now().Format("060102_150405")
	oldPath := filepath.Join(l.logPath, mainLogName)
	newPath := filepath.Join(l.logPath, timestamp+"_"+mainLogName)

	if err := os.Rename(oldPath, newPath); err != nil {
		fmt.Printf("Error rotating log file: %v\n", err)
		var reopenErr error
		l.logFile, reopenErr = openAppend(oldPath)
		if reopenErr != nil {
			fmt.Printf("Error reopening log file: %v\n", reopenErr)
		}
		return
	}

	var err error
	l.logFile, err = os.OpenFile(oldPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Printf("Error creating new log file: %v\n", err)
		return
	}

	l.lineCount = 0
	l.logFile.WriteString(fmt.Sprintf("%s [INFO] Log rotated. Previous log: %s\n",
		time.Now().Format(stampFormat), newPath))

	if l.traceFile != nil {
		l.traceFile.Close()

		oldTracePath := filepath.Join(l.logPath, traceLogName)
		newTracePath := filepath.Join(l.logPath, timestamp+"_"+traceLogName)

		if err := os.Rename(oldTracePath, newTracePath); err != nil {
			fmt.Printf("Error rotating trace log file: %v\n", err)
		}

		l.traceFile, err = os.OpenFile(oldTracePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Printf("Error creating new trace log file: %v\n", err)
			l.traceFile = nil
		}
	}

	l.cleanupOldLogs()
}

// cleanupOldLogs removes log files past the retention window.
func (l *Logger) cleanupOldLogs() {
	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(l.logPath)
	if err != nil {
		fmt.Printf("Error reading log directory: %v\n", err)
		return
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		fileInfo, err := file.Info()
		if err != nil {
			continue
		}
		if fileInfo.ModTime().Before(cutoffTime) {
			filePath := filepath.Join(l.logPath, fileInfo.Name())
			if err := os.Remove(filePath); err != nil {
				fmt.Printf("Error deleting old log file %s: %v\n", filePath, err)
			}
		}
	}
}
