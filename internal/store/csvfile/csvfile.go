// Package csvfile stores the roster and the ledger as two comma-separated
// files with a mandatory header row:
//
//	members.csv  name
//	fines.csv    id,member,fine,amount,date
//
// Columns are located by header name, so files edited by hand in a
// spreadsheet keep working as long as the headers survive. Every save
// renders the whole file and atomically replaces the previous one.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"

	"bodekasse/internal/core"
	"bodekasse/internal/store"
)

const (
	MembersFile = "members.csv"
	FinesFile   = "fines.csv"
)

var _ store.Store = (*Store)(nil)

// Store reads and writes CSV files in a data directory.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) membersPath() string { return filepath.Join(s.dir, MembersFile) }
func (s *Store) finesPath() string   { return filepath.Join(s.dir, FinesFile) }

func (s *Store) LoadMembers(_ context.Context) ([]core.Member, error) {
	rows, err := readTable(s.membersPath(), store.MemberColumns)
	if err != nil {
		return nil, err
	}
	members := make([]core.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, core.Member{Name: row.get("name")})
	}
	store.SortMembers(members)
	return members, nil
}

func (s *Store) LoadFines(_ context.Context) ([]core.Fine, error) {
	path := s.finesPath()
	rows, err := readTable(path, store.FineColumns)
	if err != nil {
		return nil, err
	}
	fines := make([]core.Fine, 0, len(rows))
	for _, row := range rows {
		amount, err := core.ParseAmount(row.get("amount"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: amount %q: %w", path, row.line, row.get("amount"), err)
		}
		date, err := core.ParseDate(row.get("date"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: date %q: %w", path, row.line, row.get("date"), err)
		}
		fines = append(fines, core.Fine{
			ID:       row.get("id"),
			Member:   row.get("member"),
			FineType: row.get("fine"),
			Amount:   amount,
			Date:     date,
		})
	}
	return fines, nil
}

func (s *Store) SaveMembers(_ context.Context, members []core.Member) error {
	records := make([][]string, 0, len(members))
	for _, m := range members {
		records = append(records, []string{m.Name})
	}
	return s.writeTable(s.membersPath(), store.MemberColumns, records)
}

func (s *Store) SaveFines(_ context.Context, fines []core.Fine) error {
	records := make([][]string, 0, len(fines))
	for _, f := range fines {
		records = append(records, []string{
			f.ID,
			f.Member,
			f.FineType,
			strconv.FormatInt(f.Amount, 10),
			f.Date.String(),
		})
	}
	return s.writeTable(s.finesPath(), store.FineColumns, records)
}

type row struct {
	line   int
	values []string
	index  map[string]int
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// readTable returns the data rows of a CSV file. A missing or empty file is
// an empty table.
func readTable(path string, columns []string) ([]row, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q in header %v", path, col, header)
		}
	}

	var rows []row
	for {
		values, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if isBlank(values) {
			continue
		}
		rows = append(rows, row{line: line, values: values, index: index})
	}
	return rows, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *Store) writeTable(path string, columns []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
