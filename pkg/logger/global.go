// pkg/logger/global.go
package logger

var globalLogger *Logger

func InitGlobal(opts Options) error {
	l, err := NewLogger(opts)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debug(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Info(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warn(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Error(format, v...)
	}
}

func Status(title string, stats map[string]string) {
	if globalLogger != nil {
		globalLogger.Status(title, stats)
	}
}

func Close() {
	if globalLogger != nil {
		globalLogger.Close()
	}
}
