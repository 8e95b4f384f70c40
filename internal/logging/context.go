package logging

import (
	"context"

	"go.uber.org/zap"
)

type commandCtxKey struct{}

// WithCommand tags ctx with the running subcommand name.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandCtxKey{}, name)
}

// CommandFromContext returns the subcommand name stored by WithCommand.
func CommandFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(commandCtxKey{}).(string)
	return name
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 1)
	if name := CommandFromContext(ctx); name != "" {
		fields = append(fields, zap.String("command", name))
	}
	return fields
}
