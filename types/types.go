package types

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldBoolean  FieldType = "boolean"
	FieldFile     FieldType = "file"
)

// FieldDefinition describes one field of a form schema. Definitions are
// immutable once the catalog is built.
type FieldDefinition struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Help     string    `json:"help,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// FormSchema is an ordered set of field definitions describing one document
// type. Field order determines the default question order.
type FormSchema struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Keywords []string          `json:"keywords,omitempty"`
	Fields   []FieldDefinition `json:"fields"`
}

// Field returns the definition for id, or nil when the schema has no such field.
func (s *FormSchema) Field(id string) *FieldDefinition {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// RequiredIDs returns the required field ids in schema order.
func (s *FormSchema) RequiredIDs() []string {
	ids := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// OptionalIDs returns the non-required field ids in schema order.
func (s *FormSchema) OptionalIDs() []string {
	var ids []string
	for _, f := range s.Fields {
		if !f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// ExtractionResult is the outcome of one classify-and-extract round trip.
// It is immutable once created; later rounds supersede it wholesale.
// Invariant: ExtractedFields keys are disjoint from MissingRequired and
// MissingOptional, and every required field of the chosen schema appears in
// exactly one of the three.
type ExtractionResult struct {
	FormTypeID       string         `json:"form_type_id"`
	Confidence       float64        `json:"confidence"`
	DetectedLanguage string         `json:"detected_language"`
	ExtractedFields  map[string]any `json:"extracted_fields"`
	MissingRequired  []string       `json:"missing_required"`
	MissingOptional  []string       `json:"missing_optional,omitempty"`
}

// Question is a follow-up question for one missing field, rendered in the
// conversation language. Generated on demand, not stored beyond the turn.
type Question struct {
	FieldID  string `json:"field_id"`
	Text     string `json:"text"`
	Language string `json:"language"`
	Help     string `json:"help,omitempty"`
	Priority int    `json:"priority"`
}

type FieldError struct {
	FieldID string `json:"field_id"`
	Message string `json:"message"`
}

// ValidationReport is the outcome of validating a completed field set.
type ValidationReport struct {
	Valid           bool         `json:"valid"`
	Errors          []FieldError `json:"errors,omitempty"`
	MissingRequired []string     `json:"missing_required,omitempty"`
}
