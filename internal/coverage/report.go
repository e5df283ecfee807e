package coverage

import (
	"fmt"
	"strings"
)

// ContractMarkdown renders a contract view as a markdown report.
func ContractMarkdown(view ContractView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", view.Contract.Name)
	if view.Contract.Responsible != "" {
		fmt.Fprintf(&b, "**Responsable:** %s\n\n", view.Contract.Responsible)
	}
	if view.Contract.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", view.Contract.Summary)
	}
	if len(view.Sections) == 0 {
		b.WriteString("_Sin actividades asociadas._\n")
		return b.String()
	}
	for _, section := range view.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.AssetName)
		b.WriteString("| Categoría | Actividad | Estado | Frecuencia | Comentario | Validación |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, row := range section.Rows {
			name := escapeCell(row.ActivityName)
			if row.IsDependent {
				name = strings.Repeat("↳ ", max(row.Depth, 1)) + name
			}
			validation := row.ValidationStatus.Label()
			if row.ValidatorComment != "" {
				validation += ": " + escapeCell(row.ValidatorComment)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				escapeCell(row.Category),
				name,
				row.Status.Label(),
				escapeCell(row.Frequency),
				escapeCell(row.Comment),
				validation,
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// escapeCell keeps a value on one markdown table line.
func escapeCell(v string) string {
	v = strings.ReplaceAll(v, "|", "\\|")
	return strings.Join(strings.Fields(v), " ")
}
