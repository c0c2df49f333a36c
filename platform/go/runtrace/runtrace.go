package runtrace

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	ctxRunInfo contextKey = "MBUPGRADE_RUN_TRACE"
)

// ActorKind represents who started an upgrade run.
type ActorKind string

const (
	ActorKindOperator ActorKind = "operator"
	ActorKindSystem   ActorKind = "system"
)

// RunInfo identifies one upgrade run for logs and release records.
// Operator is set only when ActorKind is operator.
type RunInfo struct {
	ActorKind ActorKind
	Operator  string
	RunID     uuid.UUID
}

// Fields returns the zap fields attached to every log line of the run.
func (r RunInfo) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("run_id", r.RunID.String()),
		zap.String("actor_kind", string(r.ActorKind)),
	}
	if r.Operator != "" {
		fields = append(fields, zap.String("operator", r.Operator))
	}
	return fields
}

// IntoContext stores the RunInfo in the provided context.
func IntoContext(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, ctxRunInfo, info)
}

// FromContext extracts the RunInfo from context, returning false when not present.
func FromContext(ctx context.Context) (RunInfo, bool) {
	if ctx == nil {
		return RunInfo{}, false
	}
	v := ctx.Value(ctxRunInfo)
	if v == nil {
		return RunInfo{}, false
	}

	info, ok := v.(RunInfo)
	return info, ok
}

// FromContextOrSystem returns the RunInfo stored on the context, or a fresh
// system run when absent.
func FromContextOrSystem(ctx context.Context) RunInfo {
	if info, ok := FromContext(ctx); ok {
		if info.RunID == uuid.Nil {
			info.RunID = uuid.New()
		}
		return info
	}
	return System()
}

// Operator builds a RunInfo for a run started by a named person.
func Operator(name string) (RunInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RunInfo{}, errors.New("operator name is required to build run info")
	}
	return RunInfo{ActorKind: ActorKindOperator, Operator: name, RunID: uuid.New()}, nil
}

// System builds a RunInfo for unattended runs (deploy hooks, jobs).
func System() RunInfo {
	return RunInfo{ActorKind: ActorKindSystem, RunID: uuid.New()}
}
