package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/use-agent/scrapechat/models"
)

// marshalCSV flattens records into a table whose header is the sorted union
// of all record keys. Nested values (maps, slices) are JSON-encoded into
// their cell.
func marshalCSV(records []models.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to tabulate")
	}

	keySet := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			keySet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := make([]string, len(header))
		for i, k := range header {
			v, ok := rec[k]
			if !ok || v == nil {
				continue
			}
			row[i] = cellValue(v)
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(encoded)
	}
}
