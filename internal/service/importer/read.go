package importer

import (
    "bufio"
    "bytes"
    "encoding/csv"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "strings"
)

// Format names a supported import file layout.
type Format string

const (
    FormatCSV   Format = "csv"
    FormatJSONL Format = "jsonl"
)

func ParseFormat(s string) (Format, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "csv":
        return FormatCSV, nil
    case "jsonl", "ndjson", "json":
        return FormatJSONL, nil
    }
    return "", fmt.Errorf("unknown import format %q (want csv or jsonl)", s)
}

// ReadFile loads raw records from path; "-" reads standard input.
func ReadFile(path string, f Format) ([]map[string]any, error) {
    if path == "-" { return Read(os.Stdin, f) }
    fh, err := os.Open(path)
    if err != nil { return nil, err }
    defer fh.Close()
    return Read(fh, f)
}

func Read(r io.Reader, f Format) ([]map[string]any, error) {
    switch f {
    case FormatCSV:
        return ReadCSV(r)
    case FormatJSONL:
        return ReadJSONL(r)
    }
    return nil, fmt.Errorf("unknown import format %q", f)
}

// ReadCSV reads a header row followed by records. Short records leave the
// trailing columns unset.
func ReadCSV(r io.Reader) ([]map[string]any, error) {
    cr := csv.NewReader(r)
    cr.FieldsPerRecord = -1
    header, err := cr.Read()
    if err == io.EOF { return nil, nil }
    if err != nil { return nil, fmt.Errorf("read csv header: %w", err) }
    if len(header) > 0 { header[0] = strings.TrimPrefix(header[0], "\ufeff") }
    var out []map[string]any
    for {
        rec, err := cr.Read()
        if err == io.EOF { break }
        if err != nil { return nil, fmt.Errorf("read csv: %w", err) }
        row := make(map[string]any, len(header))
        for i, h := range header {
            if i < len(rec) { row[h] = rec[i] }
        }
        out = append(out, row)
    }
    return out, nil
}

// ReadJSONL reads one JSON object per line; blank lines are skipped. Numbers
// stay json.Number so amounts are parsed from their decimal text.
func ReadJSONL(r io.Reader) ([]map[string]any, error) {
    sc := bufio.NewScanner(r)
    sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
    var out []map[string]any
    line := 0
    for sc.Scan() {
        line++
        b := bytes.TrimSpace(sc.Bytes())
        if len(b) == 0 { continue }
        dec := json.NewDecoder(bytes.NewReader(b))
        dec.UseNumber()
        var row map[string]any
        if err := dec.Decode(&row); err != nil { return nil, fmt.Errorf("line %d: %w", line, err) }
        out = append(out, row)
    }
    if err := sc.Err(); err != nil { return nil, err }
    return out, nil
}
