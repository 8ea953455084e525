package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger envuelve un SugaredLogger de zap con pares clave/valor
type Logger struct {
	*zap.SugaredLogger
}

// New crea un logger estructurado. format "json" usa la configuración de
// producción; cualquier otro valor usa la de desarrollo (consola).
func New(level, format string) *Logger {
	var config zap.Config

	switch format {
	case "json":
		config = zap.NewProductionConfig()
	default:
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zapLogger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		panic(err)
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}
}

// Nop retorna un logger que descarta todo (tests)
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithFields añade campos al contexto del log
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(zapFieldsFromMap(fields)...),
	}
}

// WithSample añade el índice de la muestra generada
func (l *Logger) WithSample(index int) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("sample", index),
	}
}

// WithRange añade el rango de índices que procesa un worker
func (l *Logger) WithRange(start, end int) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("range_start", start, "range_end", end),
	}
}

// WithError añade información de error
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("error", err.Error()),
	}
}

func zapFieldsFromMap(fields map[string]interface{}) []interface{} {
	result := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		result = append(result, key, value)
	}
	return result
}
