package types

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatFieldTable renders the field definitions of a schema as a markdown
// table for embedding in oracle prompts.
func FormatFieldTable(fields []FieldDefinition) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Label", "Type", "Required", "Help")
	for _, f := range fields {
		required := "no"
		if f.Required {
			required = "yes"
		}
		help := f.Help
		if len(f.Options) > 0 {
			help += " (one of: " + strings.Join(f.Options, ", ") + ")"
		}
		_ = table.Append(f.ID, f.Label, string(f.Type), required, strings.TrimSpace(help))
	}
	_ = table.Render()
	return buf.String()
}

// FormatSchemaTable renders a one-row-per-form summary of the catalog: id,
// detection keywords and the required field list.
func FormatSchemaTable(schemas []*FormSchema) string {
	if len(schemas) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Form", "Title", "Keywords", "Required fields")
	for _, s := range schemas {
		_ = table.Append(s.ID, s.Title, strings.Join(s.Keywords, ", "), strings.Join(s.RequiredIDs(), ", "))
	}
	_ = table.Render()
	return buf.String()
}

// FormatFieldErrors renders validation errors as a markdown table.
func FormatFieldErrors(errors []FieldError) string {
	if len(errors) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Error")
	for _, e := range errors {
		_ = table.Append(e.FieldID, e.Message)
	}
	_ = table.Render()
	return buf.String()
}
