package models

// Record is one extracted entity: a mapping from field name to value.
// Values are strings, nested maps (grouped specifications) or string slices
// (image lists, feature bullets). Fields with empty values are never stored;
// Set drops them so that serialized records only carry resolved data.
type Record map[string]any

// Set stores value under key unless the value is empty.
func (r Record) Set(key string, value any) {
	if key == "" || isEmptyValue(value) {
		return
	}
	r[key] = value
}

// Merge copies all fields of other into r. Other's values win on conflict.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r.Set(k, v)
	}
}

// String returns the string stored under key, or "" when absent or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case map[string]string:
		return len(val) == 0
	case map[string]map[string]string:
		return len(val) == 0
	case Record:
		return len(val) == 0
	default:
		return false
	}
}

// ExtractionResult is the aggregated output of one strategy run.
// Records preserve discovery order.
type ExtractionResult struct {
	Records []Record
}

// IsEmpty reports whether the run yielded no records.
func (er *ExtractionResult) IsEmpty() bool {
	return len(er.Records) == 0
}
