package hooking

import (
	"github.com/fatih/structs"
	"github.com/sirupsen/logrus"
)

// A LogHook writes every hook invocation as a structured log entry.
type LogHook struct {
	logger *logrus.Logger
	level  logrus.Level
}

// NewLogHook creates a LogHook that writes to the given logger at the given
// level.
func NewLogHook(logger *logrus.Logger, level logrus.Level) *LogHook {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogHook{
		logger: logger,
		level:  level,
	}
}

// Func logs the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	if !h.logger.IsLevelEnabled(h.level) {
		return
	}

	fields := logrus.Fields{}

	if ctx.Pos != nil {
		fields["pos"] = ctx.Pos.Name
	}

	if named, ok := ctx.Domain.(NamedHookable); ok {
		fields["where"] = named.Name()
	}

	addItemFields(fields, ctx.Item)

	if ctx.Detail != nil {
		fields["detail"] = ctx.Detail
	}

	h.logger.WithFields(fields).Log(h.level, "hook")
}

func addItemFields(fields logrus.Fields, item any) {
	if item == nil {
		return
	}

	if !structs.IsStruct(item) {
		fields["item"] = item
		return
	}

	for k, v := range structs.Map(item) {
		fields[k] = v
	}
}
