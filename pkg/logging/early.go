package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// EarlyLog writes log lines shaped like the zap JSON output for the short
// window before the configured logger exists.
type EarlyLog struct {
	service string
	out     io.Writer
	exit    func(int)
}

func NewEarlyLog(service string) *EarlyLog {
	return &EarlyLog{service: service, out: os.Stderr, exit: os.Exit}
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.write("info", msg, args...)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	l.write("warn", msg, args...)
}

func (l *EarlyLog) Fatal(msg string, args ...interface{}) {
	l.write("fatal", msg, args...)
	l.exit(1)
}

func (l *EarlyLog) write(level, msg string, args ...interface{}) {
	line, err := json.Marshal(map[string]string{
		"level":        level,
		"timestamp":    time.Now().UTC().Format("2006-01-02T15:04:05.000Z0700"),
		"message":      fmt.Sprintf(msg, args...),
		"service_name": l.service,
	})
	if err != nil {
		return
	}
	fmt.Fprintln(l.out, string(line))
}
