package models

// OutputFormat is a supported artifact serialization.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatXML  OutputFormat = "xml"
)

// SupportedFormats lists the formats offered in the format-selection prompt,
// in the order they are presented to the user.
var SupportedFormats = []OutputFormat{FormatJSON, FormatCSV, FormatXML}

// ParseFormat maps a user-supplied format string to an OutputFormat.
func ParseFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(s) {
	case FormatJSON, FormatCSV, FormatXML:
		return OutputFormat(s), true
	}
	return "", false
}

// Ext returns the artifact file extension for the format.
func (f OutputFormat) Ext() string {
	return string(f)
}
