package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"outreach-engine/internal/logging"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string // wins over SpreadsheetName
	SpreadsheetName string
	Worksheet       string // empty = first worksheet
}

// Sheets appends rows to a Google Sheets worksheet using a service account.
type Sheets struct {
	Cfg SheetsConfig
	// ClientOptions replace the credentials-file options when set.
	ClientOptions []option.ClientOption
	Log           *zap.Logger

	mu            sync.Mutex
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

func NewSheets(cfg SheetsConfig, log *zap.Logger) *Sheets {
	return &Sheets{Cfg: cfg, Log: logging.OrNop(log)}
}

func (s *Sheets) clientOptions() []option.ClientOption {
	if len(s.ClientOptions) > 0 {
		return s.ClientOptions
	}
	return []option.ClientOption{
		option.WithCredentialsFile(s.Cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
}

// Open authenticates and resolves the target spreadsheet and worksheet.
func (s *Sheets) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return nil
	}
	if len(s.ClientOptions) == 0 && strings.TrimSpace(s.Cfg.CredentialsFile) == "" {
		return errors.New("sheets: credentials file is not set")
	}
	opts := s.clientOptions()

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("sheets client: %w", err)
	}

	id := strings.TrimSpace(s.Cfg.SpreadsheetID)
	if id == "" {
		id, err = findSpreadsheetByName(ctx, opts, s.Cfg.SpreadsheetName)
		if err != nil {
			return err
		}
	}

	ws := strings.TrimSpace(s.Cfg.Worksheet)
	if ws == "" {
		ss, err := svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("sheets get %s: %w", id, err)
		}
		if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
			return fmt.Errorf("sheets: spreadsheet %s has no worksheets", id)
		}
		ws = ss.Sheets[0].Properties.Title
	}

	s.svc = svc
	s.spreadsheetID = id
	s.worksheet = ws
	s.Log.Info("sheet opened", zap.String("spreadsheet_id", id), zap.String("worksheet", ws))
	return nil
}

func findSpreadsheetByName(ctx context.Context, opts []option.ClientOption, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("sheets: neither spreadsheet id nor name is set")
	}
	dsvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("drive client: %w", err)
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	res, err := dsvc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive lookup %q: %w", name, err)
	}
	if len(res.Files) == 0 {
		return "", fmt.Errorf("sheets: no spreadsheet named %q is shared with the service account", name)
	}
	return res.Files[0].Id, nil
}

// Append adds one row after the last row of the worksheet.
func (s *Sheets) Append(ctx context.Context, row []string) error {
	s.mu.Lock()
	svc, id, ws := s.svc, s.spreadsheetID, s.worksheet
	s.mu.Unlock()

	if svc == nil {
		return ErrNotOpen
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	_, err := svc.Spreadsheets.Values.
		Append(id, quoteSheet(ws), &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

func (s *Sheets) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc = nil
	return nil
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
