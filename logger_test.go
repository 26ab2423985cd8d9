package tinyflag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicLogger_Levels(t *testing.T) {
	var lines []string
	log := BasicLogger(BasicLoggerOptions{
		Level:       LevelWarn,
		Destination: func(args ...any) { lines = append(lines, fmt.Sprint(args...)) },
	})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("slow stream")
	log.Error("bad env id")

	assert.Equal(t, []string{
		"[tinyflag] WARN: slow stream",
		"[tinyflag] ERROR: bad env id",
	}, lines)
}

func TestBasicLogger_None(t *testing.T) {
	called := false
	log := BasicLogger(BasicLoggerOptions{
		Level:       LevelNone,
		Prefix:      "[app]",
		Destination: func(...any) { called = true },
	})
	log.Error("x")
	assert.False(t, called)
}

func TestConsoleLogger(t *testing.T) {
	c := &fakeConsole{}
	log := ConsoleLogger(LevelDebug, c)

	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	assert.Equal(t, []string{"[tinyflag] d", "[tinyflag] i"}, c.logs)
	assert.Equal(t, []string{"[tinyflag] w"}, c.warns)
	assert.Equal(t, []string{"[tinyflag] e"}, c.errs)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelNone, ParseLogLevel("none"))
	assert.Equal(t, LevelInfo, ParseLogLevel("verbose"))
	assert.Equal(t, "unknown", LogLevel(99).String())
}
