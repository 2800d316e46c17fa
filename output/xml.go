package output

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/use-agent/scrapechat/models"
)

var reInvalidTagChar = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// marshalXML renders records under a fixed <items> root. Map keys become
// element names (sanitized), list entries render as repeated <item>
// elements, and keys are emitted in sorted order so output is stable.
func marshalXML(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<items>\n")
	for _, rec := range records {
		if err := writeElement(&buf, "item", map[string]any(rec), 1); err != nil {
			return nil, err
		}
	}
	buf.WriteString("</items>\n")
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, tag string, value any, depth int) error {
	indent := strings.Repeat("  ", depth)
	tag = sanitizeTag(tag)

	switch v := value.(type) {
	case map[string]any:
		fmt.Fprintf(buf, "%s<%s>\n", indent, tag)
		for _, k := range sortedKeys(v) {
			if err := writeElement(buf, k, v[k], depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
	case map[string]string:
		fmt.Fprintf(buf, "%s<%s>\n", indent, tag)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeElement(buf, k, v[k], depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
	case map[string]map[string]string:
		fmt.Fprintf(buf, "%s<%s>\n", indent, tag)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeElement(buf, k, v[k], depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
	case []string:
		fmt.Fprintf(buf, "%s<%s>\n", indent, tag)
		for _, item := range v {
			if err := writeElement(buf, "item", item, depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
	case []any:
		fmt.Fprintf(buf, "%s<%s>\n", indent, tag)
		for _, item := range v {
			if err := writeElement(buf, "item", item, depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, tag)
	default:
		var text bytes.Buffer
		if err := xml.EscapeText(&text, []byte(fmt.Sprint(v))); err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s<%s>%s</%s>\n", indent, tag, text.String(), tag)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sanitizeTag turns arbitrary record keys into valid element names.
func sanitizeTag(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), " ", "_")
	tag = reInvalidTagChar.ReplaceAllString(tag, "_")
	if tag == "" || (tag[0] >= '0' && tag[0] <= '9') {
		tag = "field_" + tag
	}
	return tag
}
