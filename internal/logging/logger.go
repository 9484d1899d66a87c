package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consoleTimeLayout = "2006-01-02 15:04:05,000"

func rotating(logDir, name string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, name),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}), nil
}

// NewLogger writes JSON lines to logDir/name and, when console is non-nil,
// mirrors every entry as "time - LEVEL - message fields".
func NewLogger(logDir, name string, console io.Writer) (*zap.Logger, error) {
	w, err := rotating(logDir, name)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
	}
	if console != nil {
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.AddSync(console), zap.InfoLevel))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// NewAlertLogger writes "time - ALERT - message" lines to logDir/name for
// warning level and above.
func NewAlertLogger(logDir, name string) (*zap.Logger, error) {
	w, err := rotating(logDir, name)
	if err != nil {
		return nil, err
	}
	enc := consoleEncoderConfig()
	enc.LevelKey = ""
	core := zapcore.NewCore(alertEncoder{zapcore.NewConsoleEncoder(enc)}, w, zap.WarnLevel)
	return zap.New(core), nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(consoleTimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(consoleEncoderConfig())
}

// alertEncoder prefixes every message with the ALERT marker.
type alertEncoder struct {
	zapcore.Encoder
}

func (e alertEncoder) Clone() zapcore.Encoder {
	return alertEncoder{e.Encoder.Clone()}
}

func (e alertEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = "ALERT - " + ent.Message
	return e.Encoder.EncodeEntry(ent, fields)
}
