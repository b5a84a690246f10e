package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// VisualizationFormat represents the output format of the registry surface.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// Descriptor is the externally consumable record of one registered stage.
type Descriptor struct {
	Order        int            `json:"order"`
	Name         string         `json:"name"`
	Phase        Phase          `json:"phase"`
	Config       map[string]any `json:"config,omitempty"`
	Provides     []Capability   `json:"provides,omitempty"`
	Requires     []Capability   `json:"requires,omitempty"`
	Follows      []Capability   `json:"follows,omitempty"`
	MustRunAfter []string       `json:"mustRunAfter,omitempty"`
	Terminal     bool           `json:"terminal,omitempty"`
}

// Surface returns the ordered (name, phase, config) list of the registry.
func (r *Registry) Surface() []Descriptor {
	out := make([]Descriptor, len(r.stages))
	for i, s := range r.stages {
		deps := s.Dependencies()
		out[i] = Descriptor{
			Order:        i + 1,
			Name:         s.Name(),
			Phase:        s.Phase(),
			Config:       s.Config(),
			Provides:     deps.Provides,
			Requires:     deps.Requires,
			Follows:      deps.Follows,
			MustRunAfter: deps.MustRunAfter,
			Terminal:     deps.Terminal,
		}
	}
	return out
}

// Visualize renders the registry surface in the given format.
func (r *Registry) Visualize(format VisualizationFormat) (string, error) {
	surface := r.Surface()
	switch format {
	case FormatText:
		return visualizeText(surface), nil
	case FormatMermaid:
		return visualizeMermaid(surface), nil
	case FormatDOT:
		return visualizeDOT(surface), nil
	case FormatJSON:
		return visualizeJSON(surface)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func byPhase(surface []Descriptor) map[Phase][]Descriptor {
	out := make(map[Phase][]Descriptor)
	for _, d := range surface {
		out[d.Phase] = append(out[d.Phase], d)
	}
	return out
}

func visualizeText(surface []Descriptor) string {
	var sb strings.Builder

	sb.WriteString("Stage Pipeline\n")
	sb.WriteString("==============\n\n")

	grouped := byPhase(surface)
	for i, phase := range PhaseOrder {
		stages := grouped[phase]
		if len(stages) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "┌─ Phase %d: %s\n", i+1, phase)
		sb.WriteString("│\n")

		for j, d := range stages {
			isLast := j == len(stages)-1
			prefix, connector := "├──", "│   "
			if isLast {
				prefix, connector = "└──", "    "
			}
			fmt.Fprintf(&sb, "│ %s %2d. [%s]\n", prefix, d.Order, d.Name)
			if len(d.Config) > 0 {
				fmt.Fprintf(&sb, "│ %s   ⚙ %s\n", connector, formatConfig(d.Config))
			}
			if len(d.Provides) > 0 {
				fmt.Fprintf(&sb, "│ %s   ⤶ provides: %s\n", connector, joinCaps(d.Provides))
			}
			if needs := append(append([]Capability(nil), d.Requires...), d.Follows...); len(needs) > 0 {
				fmt.Fprintf(&sb, "│ %s   ⤷ needs: %s\n", connector, joinCaps(needs))
			}
			if d.Terminal {
				fmt.Fprintf(&sb, "│ %s   ■ last in phase\n", connector)
			}
		}

		sb.WriteString("│\n")
		if i < len(PhaseOrder)-1 {
			sb.WriteString("↓\n")
		}
	}

	fmt.Fprintf(&sb, "\nTotal: %d stages across %d phases\n", len(surface), len(grouped))
	return sb.String()
}

func formatConfig(cfg map[string]any) string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, cfg[k])
	}
	return strings.Join(parts, " ")
}

func joinCaps(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// mermaidID sanitizes a stage name for use as a Mermaid node id.
func mermaidID(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func visualizeMermaid(surface []Descriptor) string {
	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	grouped := byPhase(surface)
	for _, phase := range PhaseOrder {
		stages := grouped[phase]
		if len(stages) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"Phase: %s\"]\n", mermaidID(string(phase)), phase)
		for _, d := range stages {
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", mermaidID(d.Name), d.Name)
		}
		sb.WriteString("    end\n")
	}
	sb.WriteString("\n")

	for i := 1; i < len(surface); i++ {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(surface[i-1].Name), mermaidID(surface[i].Name))
	}
	for _, e := range capabilityEdges(surface) {
		fmt.Fprintf(&sb, "    %s -. %s .-> %s\n", mermaidID(e.from), e.cap, mermaidID(e.to))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(surface []Descriptor) string {
	var sb strings.Builder

	sb.WriteString("digraph StagePipeline {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")

	grouped := byPhase(surface)
	for i, phase := range PhaseOrder {
		stages := grouped[phase]
		if len(stages) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph cluster_%d {\n", i)
		fmt.Fprintf(&sb, "        label=\"Phase: %s\";\n", phase)
		sb.WriteString("        style=filled;\n")
		sb.WriteString("        color=lightgrey;\n\n")
		for _, d := range stages {
			fmt.Fprintf(&sb, "        %q;\n", d.Name)
		}
		sb.WriteString("    }\n\n")
	}

	for i := 1; i < len(surface); i++ {
		fmt.Fprintf(&sb, "    %q -> %q;\n", surface[i-1].Name, surface[i].Name)
	}
	for _, e := range capabilityEdges(surface) {
		fmt.Fprintf(&sb, "    %q -> %q [style=dashed, label=%q];\n", e.from, e.to, e.cap)
	}

	sb.WriteString("}\n")
	return sb.String()
}

type capEdge struct {
	from, to string
	cap      Capability
}

// capabilityEdges links every provider to every consumer of a capability.
func capabilityEdges(surface []Descriptor) []capEdge {
	var edges []capEdge
	for _, consumer := range surface {
		needs := append(append([]Capability(nil), consumer.Requires...), consumer.Follows...)
		for _, c := range needs {
			for _, provider := range surface {
				for _, p := range provider.Provides {
					if p == c && provider.Name != consumer.Name {
						edges = append(edges, capEdge{from: provider.Name, to: consumer.Name, cap: c})
					}
				}
			}
		}
	}
	return edges
}

type surfaceJSON struct {
	Stages      []Descriptor `json:"stages"`
	TotalStages int          `json:"totalStages"`
}

func visualizeJSON(surface []Descriptor) (string, error) {
	data, err := json.MarshalIndent(surfaceJSON{Stages: surface, TotalStages: len(surface)}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode surface: %w", err)
	}
	return string(data) + "\n", nil
}

// SupportedFormats returns the supported visualization formats.
func SupportedFormats() []VisualizationFormat {
	return []VisualizationFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// FormatDescription returns a description of a visualization format.
func FormatDescription(format VisualizationFormat) string {
	descriptions := map[VisualizationFormat]string{
		FormatText:    "Human-readable text with ASCII art",
		FormatMermaid: "Mermaid diagram (for GitHub, GitLab, etc.)",
		FormatDOT:     "Graphviz DOT format (render with `dot -Tpng stages.dot -o stages.png`)",
		FormatJSON:    "Structured JSON representation",
	}
	return descriptions[format]
}
