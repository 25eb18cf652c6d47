// Package google stores the roster and the ledger in two tabs of a Google
// Sheets spreadsheet, authenticated with a service account. Each tab holds a
// header row followed by one row per record. A save rewrites the tab in a
// single values update, blanking rows left over from a longer previous
// version, so a failed save leaves the previous rows in place.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/store"
)

const (
	DefaultMembersSheet = "Members"
	DefaultFinesSheet   = "Fines"
)

var _ store.Store = (*Client)(nil)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	MembersSheet    string
	FinesSheet      string
	CredentialsJSON string // inline service account key
	CredentialsFile string // path to a service account key
	Logger          *log.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	membersSheet  string
	finesSheet    string
	logger        *log.Logger
}

// New creates a Sheets-backed store from service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg, sheetsLogger(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	members := strings.TrimSpace(cfg.MembersSheet)
	if members == "" {
		members = DefaultMembersSheet
	}
	fines := strings.TrimSpace(cfg.FinesSheet)
	if fines == "" {
		fines = DefaultFinesSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		membersSheet:  members,
		finesSheet:    fines,
		logger:        sheetsLogger(cfg.Logger),
	}
}

func sheetsLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Wrap(nil, log.ComponentSheets)
	}
	return l.WithComponent(log.ComponentSheets)
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials. Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither
// inline JSON nor a file path is configured.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		logger.InfoContext(ctx, "Using inline service account credentials")
	case file != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", file)
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) LoadMembers(ctx context.Context) ([]core.Member, error) {
	values, err := c.readTab(ctx, c.membersSheet, len(store.MemberColumns))
	if err != nil {
		return nil, err
	}
	members, err := parseMembers(values)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", c.membersSheet, err)
	}
	store.SortMembers(members)
	return members, nil
}

func (c *Client) LoadFines(ctx context.Context) ([]core.Fine, error) {
	values, err := c.readTab(ctx, c.finesSheet, len(store.FineColumns))
	if err != nil {
		return nil, err
	}
	fines, err := parseFines(values)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", c.finesSheet, err)
	}
	return fines, nil
}

func (c *Client) SaveMembers(ctx context.Context, members []core.Member) error {
	return c.writeTab(ctx, c.membersSheet, len(store.MemberColumns), encodeMembers(members))
}

func (c *Client) SaveFines(ctx context.Context, fines []core.Fine) error {
	return c.writeTab(ctx, c.finesSheet, len(store.FineColumns), encodeFines(fines))
}

// readTab returns the tab's rows. A tab that does not exist yet reads as
// empty.
func (c *Client) readTab(ctx context.Context, sheet string, width int) ([][]interface{}, error) {
	values, _, err := c.getTab(ctx, sheet, width)
	return values, err
}

func (c *Client) getTab(ctx context.Context, sheet string, width int) (values [][]interface{}, exists bool, err error) {
	if c.svc == nil {
		return nil, false, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", sheet, columnLetter(width))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if isMissingTab(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, true, nil
}

// writeTab replaces the tab's rows with a single values update. Rows beyond
// len(values) that held data before are overwritten with blanks in the same
// request, so the tab is either fully rewritten or left untouched.
func (c *Client) writeTab(ctx context.Context, sheet string, width int, values [][]interface{}) error {
	prev, exists, err := c.getTab(ctx, sheet, width)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.addTab(ctx, sheet); err != nil {
			return err
		}
	}

	rows := values
	for len(rows) < len(prev) {
		rows = append(rows, blankRow(width))
	}
	if len(rows) == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A1:%s%d", sheet, columnLetter(width), len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.DebugContext(ctx, "Sheet rewritten", "sheet", sheet, "rows", len(values)-1)
	return nil
}

func (c *Client) addTab(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return nil
}

// isMissingTab reports whether err is the API's answer to a range naming a
// tab that does not exist.
func isMissingTab(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Message, "Unable to parse range") ||
		strings.Contains(apiErr.Body, "Unable to parse range")
}

func blankRow(width int) []interface{} {
	row := make([]interface{}, width)
	for i := range row {
		row[i] = ""
	}
	return row
}

// columnLetter maps 1..26 to A..Z.
func columnLetter(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 26 {
		n = 26
	}
	return string(rune('A' + n - 1))
}
