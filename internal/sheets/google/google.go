package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "cloudbudget/internal/sheets"
)

// Client stores backups in one spreadsheet, a sheet per collection.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	now           func() time.Time
}

var _ ports.Backup = (*Client)(nil)

// Credentials selects the service account. JSON wins over File; with
// neither, GOOGLE_APPLICATION_CREDENTIALS is used.
type Credentials struct {
	JSON string
	File string
}

// New creates a client for spreadsheetID.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, now: time.Now}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and the service account variables.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), Credentials{
		JSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		File: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(creds.JSON)
	serviceAccountFile := strings.TrimSpace(creds.File)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
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

// Save replaces the content of every backup sheet, creating missing ones.
func (c *Client) Save(ctx context.Context, b ports.BackupData) error {
	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return err
	}
	if err := c.addSheets(ctx, missing(existing)); err != nil {
		return err
	}

	ranges := make([]string, len(AllSheets))
	copy(ranges, AllSheets)
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear backup sheets: %w", err)
	}

	tables := encodeBackup(b)
	data := make([]*gsheet.ValueRange, 0, len(AllSheets))
	for _, name := range AllSheets {
		data = append(data, &gsheet.ValueRange{
			Range:  name + "!A1",
			Values: tables[name],
		})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write backup sheets: %w", err)
	}

	slog.InfoContext(ctx, "Backup written to Google Sheets",
		"transactions", len(b.Transactions),
		"accounts", len(b.Accounts))
	return nil
}

// Load reads the backup sheets concurrently. A spreadsheet holding neither
// a transactions nor a metadata sheet has no backup.
func (c *Client) Load(ctx context.Context) (ports.BackupData, error) {
	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return ports.BackupData{}, err
	}
	if !existing[SheetTransactions] && !existing[SheetMetadata] {
		return ports.BackupData{}, ports.ErrNoBackup
	}

	var mu sync.Mutex
	values := make(map[string][][]interface{}, len(AllSheets))
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range AllSheets {
		if !existing[name] {
			continue
		}
		g.Go(func() error {
			resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, name).Context(gctx).Do()
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			mu.Lock()
			values[name] = resp.Values
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ports.BackupData{}, err
	}

	b := decodeBackup(values, c.now())
	slog.InfoContext(ctx, "Backup read from Google Sheets",
		"transactions", len(b.Transactions),
		"accounts", len(b.Accounts),
		"export_date", b.ExportDate)
	return b, nil
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = true
		}
	}
	return titles, nil
}

func (c *Client) addSheets(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	reqs := make([]*gsheet.Request, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		})
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheets %v: %w", names, err)
	}
	slog.InfoContext(ctx, "Created missing backup sheets", "sheets", names)
	return nil
}

// missing returns the backup sheets absent from existing.
func missing(existing map[string]bool) []string {
	var out []string
	for _, name := range AllSheets {
		if !existing[name] {
			out = append(out, name)
		}
	}
	return out
}

// newWithService wraps an existing service, for tests against a fake
// endpoint.
func newWithService(svc *gsheet.Service, spreadsheetID string, now func() time.Time) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, now: now}
}
