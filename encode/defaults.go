package encode

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/julianedwards/formatter/bind"
	"github.com/pkg/errors"
)

// TEXT writes one key=value line per field, sorted by key, with a blank line
// between records. Values that would not survive the round trip are quoted.
// Records without fields cannot be written.
const TEXT = "plain_text"

type textEncoding struct{}

func (e *textEncoding) String() string    { return TEXT }
func (e *textEncoding) Extension() string { return "txt" }
func (e *textEncoding) Marshal(records []bind.Fields) ([]byte, error) {
	var buf bytes.Buffer
	for i, record := range records {
		if len(record) == 0 {
			return nil, errors.Errorf("record %d has no fields", i)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, k := range record.Keys() {
			if k == "" || strings.ContainsAny(k, "=\n") {
				return nil, errors.Errorf("cannot write field name '%s' as plain text", k)
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(quoteText(record[k]))
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes(), nil
}

func quoteText(v string) string {
	if v != strings.TrimSpace(v) || strings.ContainsAny(v, "\n\r") || strings.HasPrefix(v, `"`) {
		return strconv.Quote(v)
	}

	return v
}

func (e *textEncoding) Unmarshal(data []byte) ([]bind.Fields, error) {
	var (
		records []bind.Fields
		current bind.Fields
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			current = nil
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			return nil, errors.Errorf("line %d is not a key=value pair", lineNum)
		}
		value := line[idx+1:]
		if strings.HasPrefix(value, `"`) {
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, errors.Wrapf(err, "unquoting value on line %d", lineNum)
			}
			value = unquoted
		}

		if current == nil {
			current = bind.Fields{}
			records = append(records, current)
		}
		current[line[:idx]] = value
	}

	return records, errors.WithStack(scanner.Err())
}

const JSON = "json"

type jsonEncoding struct{}

func (e *jsonEncoding) String() string    { return JSON }
func (e *jsonEncoding) Extension() string { return JSON }
func (e *jsonEncoding) Marshal(records []bind.Fields) ([]byte, error) {
	if records == nil {
		records = []bind.Fields{}
	}

	return json.Marshal(records)
}

// Unmarshal accepts an array of records or a single record object.
func (e *jsonEncoding) Unmarshal(data []byte) ([]bind.Fields, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		record := bind.Fields{}
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, errors.Wrap(err, "unmarshaling JSON record")
		}
		return []bind.Fields{record}, nil
	}

	var records []bind.Fields
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "unmarshaling JSON records")
	}

	return records, nil
}

// FORM writes one URL-encoded record per line, which makes it the natural
// encoding for followed files. Records without fields cannot be written.
const FORM = "form"

type formEncoding struct{}

func (e *formEncoding) String() string    { return FORM }
func (e *formEncoding) Extension() string { return FORM }
func (e *formEncoding) Marshal(records []bind.Fields) ([]byte, error) {
	var buf bytes.Buffer
	for i, record := range records {
		if len(record) == 0 {
			return nil, errors.Errorf("record %d has no fields", i)
		}
		values := url.Values{}
		for k, v := range record {
			values.Set(k, v)
		}
		buf.WriteString(values.Encode())
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

func (e *formEncoding) Unmarshal(data []byte) ([]bind.Fields, error) {
	var records []bind.Fields
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		values, err := url.ParseQuery(line)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing form record on line %d", i+1)
		}

		record := make(bind.Fields, len(values))
		for k := range values {
			record[k] = values.Get(k)
		}
		records = append(records, record)
	}

	return records, nil
}
