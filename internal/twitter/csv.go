package twitter

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// CSVRow is one source-native record from a third-party backup CSV.
type CSVRow struct {
	ID        string
	Link      string
	Text      string
	CreatedAt string
	Likes     int
	Retweets  int
	Replies   int
}

var numericID = regexp.MustCompile(`^\d+$`)

// csvHeaderAliases maps the column names seen across backup tools onto
// the canonical fields.
var csvHeaderAliases = map[string]string{
	"id":         "id",
	"tweet id":   "id",
	"tweet_id":   "id",
	"link":       "link",
	"url":        "link",
	"tweet url":  "link",
	"text":       "text",
	"tweet text": "text",
	"full_text":  "text",
	"date":       "created_at",
	"created at": "created_at",
	"created_at": "created_at",
	"timestamp":  "created_at",
	"likes":      "likes",
	"favorites":  "likes",
	"retweets":   "retweets",
	"replies":    "replies",
}

// positionalFields is the column order assumed when the file carries no
// recognized header row.
var positionalFields = []string{"id", "link", "text", "created_at", "likes", "retweets", "replies"}

// ParseCSV parses a quoted, comma-separated backup file. Fields may
// contain embedded newlines and doubled-quote escapes; a naive line
// split would break such rows, so parsing goes through encoding/csv.
//
// The header row is optional. When the first row carries recognized
// column names it is consumed as a header; when it already looks like
// data (numeric id, status URL) the positional layout is assumed and
// the row is kept. Rows whose identifier is not purely numeric or whose
// link column does not look like a URL are reported in the returned
// error list and skipped; a bad row never aborts the import. The fatal
// error is reserved for files whose layout cannot be determined at all.
func ParseCSV(r io.Reader) ([]CSVRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	first, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read first row: %w", err)
	}

	fieldIndex := make(map[string]int)
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := csvHeaderAliases[name]; ok {
			if _, taken := fieldIndex[canonical]; !taken {
				fieldIndex[canonical] = i
			}
		}
	}

	headerless := false
	for _, required := range []string{"id", "link", "text"} {
		if _, ok := fieldIndex[required]; !ok {
			if !looksLikeDataRow(first) {
				return nil, nil, fmt.Errorf("missing required column: %s", required)
			}
			headerless = true
			break
		}
	}
	if headerless {
		fieldIndex = make(map[string]int, len(positionalFields))
		for i, name := range positionalFields {
			fieldIndex[name] = i
		}
	}

	var rows []CSVRow
	var rowErrors []string
	lineNum := 1

	addRow := func(record []string) {
		row := CSVRow{
			ID:        getField(record, fieldIndex, "id"),
			Link:      getField(record, fieldIndex, "link"),
			Text:      getField(record, fieldIndex, "text"),
			CreatedAt: getField(record, fieldIndex, "created_at"),
			Likes:     getCount(record, fieldIndex, "likes"),
			Retweets:  getCount(record, fieldIndex, "retweets"),
			Replies:   getCount(record, fieldIndex, "replies"),
		}

		if !numericID.MatchString(row.ID) {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: skipped - identifier %q is not numeric", lineNum, row.ID))
			return
		}
		if !looksLikeURL(row.Link) {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: skipped - link %q is not a URL", lineNum, row.Link))
			return
		}

		rows = append(rows, row)
	}

	if headerless {
		// The first row was data, not a header.
		addRow(first)
	}

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		addRow(record)
	}

	return rows, rowErrors, nil
}

// looksLikeDataRow reports whether a row reads as data under the
// positional layout: a numeric identifier followed by a status URL.
func looksLikeDataRow(record []string) bool {
	if len(record) < 2 {
		return false
	}
	return numericID.MatchString(strings.TrimSpace(record[0])) && looksLikeURL(strings.TrimSpace(record[1]))
}

func getField(record []string, fieldIndex map[string]int, name string) string {
	if idx, ok := fieldIndex[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func getCount(record []string, fieldIndex map[string]int, name string) int {
	n, err := strconv.Atoi(getField(record, fieldIndex, name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func looksLikeURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// ScreenNameFromLink extracts the author embedded in a status link such
// as https://twitter.com/alice/status/123. Returns "" for links in any
// other shape.
func ScreenNameFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 3 && (parts[1] == "status" || parts[1] == "statuses") {
		return parts[0]
	}
	return ""
}
