package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/toolregistry"
)

// RegistryToolCaller adapts a toolregistry.Registry into a ToolCaller: it
// treats the tool's canonical Name as the registry's toolType and the
// call's Args as the executor's JSON input, and flattens the resulting
// OutputContainer back down to a string for the ReAct loop's tool message
// (spec §4.7 decouples the LLM loop from any specific tool-execution
// mechanism; spec §4.6 is the registry this adapts).
type RegistryToolCaller struct {
	Registry *toolregistry.Registry
	Context  execctx.ExecutionContext
}

// CallTool implements ToolCaller.
func (r RegistryToolCaller) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("llmclient: marshal tool args for %q: %w", name, err)
	}

	out, err := r.Registry.Execute(ctx, r.Context, name, raw)
	if err != nil {
		return "", err
	}
	return flattenOutput(out), nil
}

func flattenOutput(out execctx.OutputContainer) string {
	switch out.Kind {
	case execctx.ContainerSingle:
		return outputText(out.Single)
	case execctx.ContainerList:
		s := ""
		for i, o := range out.List {
			if i > 0 {
				s += "\n"
			}
			s += outputText(o)
		}
		return s
	case execctx.ContainerMetadata:
		if len(out.List) > 0 {
			return flattenOutput(execctx.ListOutput(out.List...))
		}
		return outputText(out.Single)
	default:
		return ""
	}
}

func outputText(o execctx.Output) string {
	switch o.Kind {
	case execctx.OutputText:
		return o.Text
	case execctx.OutputSQL:
		return o.SQL
	case execctx.OutputFile:
		return o.FilePath
	case execctx.OutputTable:
		b, _ := json.Marshal(o.TableRows)
		return string(b)
	case execctx.OutputViz:
		b, _ := json.Marshal(o.VizParams)
		return string(b)
	default:
		return ""
	}
}
