package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger пишет структурированные записи в формате "сообщение + пары ключ/значение".
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New создает логгер с указанным уровнем (debug, info, warn, error).
// Неизвестный уровень трактуется как info.
func New(level string) Logger {
	return NewWithOutput(level, os.Stdout, false)
}

// NewJSON создает логгер с JSON-форматом, используется в production.
func NewJSON(level string) Logger {
	return NewWithOutput(level, os.Stdout, true)
}

func NewWithOutput(level string, out io.Writer, jsonFormat bool) Logger {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Nop возвращает логгер, который ничего не пишет. Удобен в тестах.
func Nop() Logger {
	return NewWithOutput("panic", io.Discard, false)
}

func (l *logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Error(msg)
}

func (l *logrusLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues)).Fatal(msg)
}

func (l *logrusLogger) With(keysAndValues ...interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(toFields(keysAndValues))}
}

// toFields превращает пары ключ/значение в logrus.Fields.
// Нечетный хвост попадает под ключ "extra".
func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			fields["extra"] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		value := keysAndValues[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields[key] = value
	}
	return fields
}
