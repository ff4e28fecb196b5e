package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/migmoroni/vaudio/internal/registry"
)

const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

// 颜色定义，只在 w 是终端时生效
type tableStyles struct {
	header lipgloss.Style
	name   lipgloss.Style
	result lipgloss.Style
	dim    lipgloss.Style
}

func newTableStyles(w io.Writer) tableStyles {
	r := lipgloss.NewRenderer(w)
	return tableStyles{
		header: r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		name:   r.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
		result: r.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#6272A4")),
	}
}

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output %q (want json or yaml)", format)
}

// writeValue renders v in the requested format.
func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

// writeRaw renders a JSON document. JSON output keeps the bytes as sent;
// YAML output goes through a generic decode.
func writeRaw(w io.Writer, format string, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if format == outputYAML {
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("render result: %w", err)
		}
		return writeValue(w, format, v)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// writeCommandTable renders descriptors one per line:
// name, parameters in declared order, result type.
func writeCommandTable(w io.Writer, descs []registry.Descriptor) error {
	width := len("COMMAND")
	for _, d := range descs {
		width = max(width, len(d.Name))
	}
	width += 2
	st := newTableStyles(w)

	lines := make([]string, 0, len(descs)+1)
	lines = append(lines, st.header.Width(width).Render("COMMAND")+st.header.Render("SIGNATURE"))
	for _, d := range descs {
		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			name := p.Name
			if !p.Required {
				name += "?"
			}
			params = append(params, name+": "+p.Type)
		}
		sig := st.dim.Render("("+strings.Join(params, ", ")+")") + " -> " + st.result.Render(d.Result)
		lines = append(lines, st.name.Width(width).Render(d.Name)+sig)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
