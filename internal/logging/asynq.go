package logging

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"
)

type asynqLogger struct {
	l *log.Logger
}

// Asynq adapts l to the logger interface asynq servers and schedulers accept.
func Asynq(l *log.Logger) asynq.Logger {
	return asynqLogger{l: l}
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal(fmt.Sprint(args...)) }
