package depgraph

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/facts"
)

func TestPassIsDeterministic(t *testing.T) {
	forward := runPass(t, sampleUniverse(false))
	reversed := runPass(t, sampleUniverse(true))
	assert.Equal(t, summarise(forward), summarise(reversed))
}

func TestPassRunIsRepeatable(t *testing.T) {
	pass, err := NewPass(sampleUniverse(false))
	assert.NoError(t, err)
	first, err := pass.Run()
	assert.NoError(t, err)
	firstSummary := summarise(first)
	second, err := pass.Run()
	assert.NoError(t, err)
	assert.Equal(t, firstSummary, summarise(second))
	assert.Equal(t, 2, pass.Registry().Uses(ScopeKey{Type: "Logger", Scope: RootScope}))
}

func TestPassLogsWarnings(t *testing.T) {
	logger := class("Logger")
	logger.Singleton = true
	buf := &bytes.Buffer{}
	pass, err := NewPass(
		&facts.Universe{Classes: []*facts.ClassDecl{class("App", field("logger", "Logger")), logger}},
		WithOptions(WithLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn})))),
	)
	assert.NoError(t, err)
	_, err = pass.Run()
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Logger is declared singleton but only used once")
	assert.Contains(t, buf.String(), "key=ROOT:Logger")
}

func TestPassOptions(t *testing.T) {
	_, err := NewPass(&facts.Universe{}, WithLogger(nil))
	assert.EqualError(t, err, "logger must not be nil")
}

func TestPassFailsWithoutPartialResult(t *testing.T) {
	pass, err := NewPass(&facts.Universe{Classes: []*facts.ClassDecl{
		class("A", field("ok", "Dep")),
		class("B", field("missing", "Missing")),
		class("Dep"),
	}})
	assert.NoError(t, err)
	result, err := pass.Run()
	assert.Error(t, err)
	assert.Zero(t, result)
}

// sampleUniverse exercises interfaces, qualifiers, singletons, modules and inheritance. If reverse is true every
// declaration list is reversed.
func sampleUniverse(reverse bool) *facts.Universe {
	logger := class("Logger")
	logger.Singleton = true
	primary := provides("PrimaryStore", "Store")
	primary.Qualifier = "primary"
	primaryField := field("primary", "Store")
	primaryField.Qualifier = "primary"
	handler := class("Handler", field("logger", "Logger"), field("store", "Store"), primaryField)
	handler.Parent = "BaseHandler"
	classes := []*facts.ClassDecl{
		class("BaseHandler", field("config", "Config")),
		handler,
		class("Worker", field("logger", "Logger"), field("db", "DB"), field("service", "Service")),
		withCtor(class("Service"), ctor("NewService", param("store", "Store"), param("config", "Config"))),
		iface("Store"),
		primary,
		provides("MemStore", "Store"),
		class("Config"),
		class("DB"),
		logger,
	}
	dbModule := module("DBModule", factory("OpenDB", "DB", param("config", "Config")))
	modules := []*facts.Module{dbModule, module("EmptyModule")}
	if reverse {
		slices.Reverse(classes)
		slices.Reverse(modules)
		for _, class := range classes {
			slices.Reverse(class.Points)
		}
	}
	return &facts.Universe{Classes: classes, Modules: modules}
}

func summarise(result *Result) []string {
	out := []string{}
	for _, unit := range result.Targets {
		out = append(out, fmt.Sprintf("target %s parent=%d inject=%d", unit.Type(), unit.Parent, unit.InjectParent))
		for _, point := range unit.Points {
			point.Ref.Walk(func(ref Ref, depth int) bool {
				out = append(out, fmt.Sprintf("%d %s #%d w=%d %s=%s via %s shared=%v",
					depth, point.Point.Name, point.Rank, point.Weight, unit.Ident(ref.Node), ref.Node.Type, ref.Node.Binding.BindingKey(), ref.IsShared()))
				return true
			})
		}
	}
	for _, shared := range result.Shared {
		out = append(out, fmt.Sprintf("shared %s uses=%d", shared.Key, shared.Uses))
	}
	for _, warning := range result.Warnings {
		out = append(out, warning.String())
	}
	return out
}
