package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing card
)

// maxImportLineBytes bounds one JSONL record.
const maxImportLineBytes = 4 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	card *card.Card
}

// Import imports cards from a JSONL export file.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := CheckPath(input.Path, AccessRead, JSONLFile, cfg); err != nil {
		return nil, err
	}
	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file, cfg)

	out := &ImportOutput{Errors: []ImportError{}}

	// For mode:error, fail on any parse errors
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		out.Errors = parseErrors
		return out, nil
	}

	switch input.Mode {
	case ImportModeError:
		return importAtomic(ctx, database, records)
	default:
		out.Errors = append(out.Errors, parseErrors...)
		out.Skipped = len(parseErrors)
		return importEach(ctx, database, records, input.Mode, out)
	}
}

// parseExportFile reads every record, skipping the header line. Records are
// re-rendered from their markup and checked against the size limits.
func parseExportFile(r io.Reader, cfg *config.Config) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLineBytes)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record card.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if record.DeckExport {
			continue
		}

		if record.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}

		c := record.ToCard()
		if err := lintDocument(cfg, c.Document()); err != nil {
			dErr := errors.As(err)
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    string(dErr.Code),
				Message: dErr.Message,
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, card: c})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// importAtomic inserts every record in one transaction, or nothing if any
// ID already exists.
func importAtomic(ctx context.Context, database *sql.DB, records []importRecord) (*ImportOutput, error) {
	// Collisions are checked before the transaction opens so a pool of one
	// connection cannot deadlock on the lookup.
	for _, rec := range records {
		exists, err := db.Exists(ctx, database, rec.card.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return &ImportOutput{Errors: []ImportError{{
				Line:    rec.line,
				ID:      rec.card.ID,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("card with id %q already exists", rec.card.ID),
			}}}, nil
		}
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		if err := db.InsertTx(ctx, tx, rec.card); err != nil {
			if err == db.ErrUniqueConstraint {
				return &ImportOutput{Errors: []ImportError{{
					Line:    rec.line,
					ID:      rec.card.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("card with id %q appears more than once", rec.card.ID),
				}}}, nil
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ImportOutput{Imported: len(records), Errors: []ImportError{}}, nil
}

// importEach applies records one by one for the replace and skip modes.
func importEach(ctx context.Context, database *sql.DB, records []importRecord, mode ImportMode, out *ImportOutput) (*ImportOutput, error) {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}

		if mode == ImportModeReplace {
			if err := db.Upsert(ctx, database, rec.card); err != nil {
				return nil, err
			}
			out.Imported++
			continue
		}

		exists, err := db.Exists(ctx, database, rec.card.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			out.Skipped++
			continue
		}
		if err := db.Insert(ctx, database, rec.card); err != nil {
			return nil, err
		}
		out.Imported++
	}
	return out, nil
}
