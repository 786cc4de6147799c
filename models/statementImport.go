package models

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Statement import normalizer.
//
// Bank exports in the supported format carry inconsistent, partially
// localized (Croatian) column naming, metadata rows above the real header,
// and a mix of numeric and textual cells. The importer locates the header
// row heuristically, extracts (date, direction, amount, description) per
// row by ordered header-fragment search, files everything under a synthetic
// "Imported" category, and keeps the period aggregates in step row by row.
// Rows it cannot understand are counted and skipped, never fatal.

const (
	importedCategoryName = "Imported"
	fallbackDescription  = "Imported transaction"

	// Spreadsheet serial day of the Unix epoch (1970-01-01). Serial dates
	// convert via unix_ms = (serial - 25569) * 86400 * 1000; existing
	// exports depend on this exact offset.
	excelEpochOffsetDays = 25569

	importYearMin = 1900
	importYearMax = 2100

	// Header detection scans only the top-left corner of the sheet.
	headerScanRows = 10
	headerScanCols = 10
)

// Ordered header-fragment tables, most specific first. Matching is
// case-insensitive substring search on the normalized header text.
var (
	dateHeaderFields      = []string{"datum knjiženja", "datum"}
	directionHeaderFields = []string{"uplata/isplata", "uplata"}
	creditAmountFields    = []string{"iznos uplate", "uplate"}
	debitAmountFields     = []string{"iznos isplate", "isplate"}

	descriptionFields = []string{
		"opis plaćanja",
		"opis",
		"naziv primatelja",
		"naziv platitelja",
		"krajnji primatelj",
		"stvarni dužnik",
	}
)

// Category icon rules, evaluated top to bottom; first match wins.
var categoryIconRules = []struct {
	keywords []string
	icon     string
}{
	{[]string{"tobacco", "cigarete"}, "🚬"},
	{[]string{"studenac", "konzum", "lidl"}, "🛒"},
	{[]string{"fitness", "gym"}, "💪"},
	{[]string{"wolt", "uber", "glovo"}, "🍔"},
	{[]string{"spotify", "netflix", "rtl"}, "🎵"},
	{[]string{"steam", "riot", "game"}, "🎮"},
	{[]string{"petrol", "benzin", "fuel"}, "⛽"},
	{[]string{"ljekarna", "pharmacy", "apteka"}, "💊"},
	{[]string{"prijenos", "transfer"}, "💸"},
	{[]string{"pozajmica", "loan"}, "💰"},
}

const defaultCategoryIcon = "💳"

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// statementRow is one data row keyed by normalized header text. Header
// order is preserved so fragment search is deterministic.
type statementRow struct {
	headers []string
	cells   map[string]any
}

// importedRow is the normalized output of one accepted statement row.
type importedRow struct {
	Date        time.Time
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
}

// importStore is the persistence seam of the pipeline. The production
// implementation writes through gorm; tests use an in-memory fake.
type importStore interface {
	ResolveImportCategory(ctx context.Context, userID string, txnType TransactionType, icon string) (string, error)
	SaveImportedTransaction(ctx context.Context, userID string, row *importedRow, categoryID string) error
}

// ImportStatement parses an uploaded CSV or spreadsheet statement and
// imports its rows for the given user. File-level failures return an error
// and import nothing; row-level failures only increment the skip count.
func ImportStatement(ctx context.Context, userID string, reader io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("could not read uploaded file: %v", err)
	}
	if len(data) == 0 {
		return nil, errors.New("no file provided")
	}

	grid, err := readStatementGrid(data)
	if err != nil {
		return nil, err
	}

	headerIdx := locateHeaderRow(grid)
	rows := gridToRows(grid, headerIdx)
	if len(rows) == 0 {
		return nil, errors.New("no data found in file")
	}

	store := &gormImportStore{db: config.GetDB()}
	return runImportPipeline(ctx, store, userID, rows), nil
}

// readStatementGrid decodes the container into a cell grid. Zip magic means
// an xlsx workbook; everything else is treated as CSV. Numeric-looking cells
// are coerced to float64 so serial dates and plain amounts keep their type.
func readStatementGrid(data []byte) ([][]any, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return readWorkbookGrid(data)
	}
	return readCSVGrid(data)
}

func readWorkbookGrid(data []byte) ([][]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("invalid file format, please upload a valid CSV or Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no data found in file")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}

	grid := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, 0, len(row))
		for _, cell := range row {
			cells = append(cells, coerceCell(cell))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func readCSVGrid(data []byte) ([][]any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffCSVDelimiter(data)

	var grid [][]any
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New("invalid file format, please upload a valid CSV or Excel file")
		}
		cells := make([]any, 0, len(record))
		for _, cell := range record {
			cells = append(cells, coerceCell(cell))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// Croatian bank CSV exports commonly use semicolons.
func sniffCSVDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

// coerceCell turns plain numeric text into float64 and leaves everything
// else as a string.
func coerceCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return ""
	}
	if isPlainNumber(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return trimmed
}

// isPlainNumber accepts only digit/dot/sign shapes, keeping ParseFloat's
// exotic inputs (hex floats, Inf, NaN) out of the numeric path.
func isPlainNumber(s string) bool {
	dots := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return s != "" && s != "-" && s != "."
}

// locateHeaderRow scans the top-left corner for the row most likely to be
// the real header. A row qualifies when at least two of three independent
// signals appear somewhere in it:
//   - a posting-date header ("datum" together with "knjiženja"; a bare
//     "datum" alone would also match a created-at column, so both tokens
//     are required),
//   - a combined direction header ("uplata" together with "isplata"),
//   - an amount header ("iznos").
//
// Bank exports put title and metadata rows above the header; requiring two
// co-occurring signals avoids locking onto those. Falls back to row 0.
func locateHeaderRow(grid [][]any) int {
	maxRows := headerScanRows
	if len(grid) < maxRows {
		maxRows = len(grid)
	}

	for rowIdx := 0; rowIdx < maxRows; rowIdx++ {
		row := grid[rowIdx]
		maxCols := headerScanCols
		if len(row) < maxCols {
			maxCols = len(row)
		}

		hasDate := false
		hasDirection := false
		hasAmount := false
		for colIdx := 0; colIdx < maxCols; colIdx++ {
			text := strings.ToLower(cellText(row[colIdx]))
			if text == "" {
				continue
			}
			if strings.Contains(text, "datum") && strings.Contains(text, "knjiženja") {
				hasDate = true
			}
			if strings.Contains(text, "uplata") && strings.Contains(text, "isplata") {
				hasDirection = true
			}
			if strings.Contains(text, "iznos") {
				hasAmount = true
			}
		}

		signals := 0
		for _, present := range []bool{hasDate, hasDirection, hasAmount} {
			if present {
				signals++
			}
		}
		if signals >= 2 {
			return rowIdx
		}
	}
	return 0
}

// gridToRows re-keys the data rows below the header by normalized header
// text. Header noise (newlines, runs of spaces) is collapsed to single
// spaces; cells under unnamed headers stay addressable under a positional
// key so blank-row detection still sees them.
func gridToRows(grid [][]any, headerIdx int) []statementRow {
	if headerIdx >= len(grid) {
		return nil
	}

	headerCells := grid[headerIdx]
	headers := make([]string, len(headerCells))
	for i, cell := range headerCells {
		name := collapseWhitespace(cellText(cell))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = name
	}

	var rows []statementRow
	for _, gridRow := range grid[headerIdx+1:] {
		row := statementRow{headers: headers, cells: make(map[string]any, len(headers))}
		for i, header := range headers {
			if i < len(gridRow) {
				row.cells[header] = gridRow[i]
			} else {
				row.cells[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cellText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format("2006-01-02")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// findValue returns the first non-empty cell whose header contains any of
// the fragments, trying fragments most specific first. String values come
// back trimmed; numeric values pass through unchanged.
func (r statementRow) findValue(fragments []string) (any, bool) {
	for _, fragment := range fragments {
		want := strings.ToLower(fragment)
		for _, header := range r.headers {
			if !strings.Contains(strings.ToLower(header), want) {
				continue
			}
			value := r.cells[header]
			if value == nil || value == "" {
				continue
			}
			if s, ok := value.(string); ok {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				return s, true
			}
			return value, true
		}
	}
	return nil, false
}

func (r statementRow) nonEmptyCells() int {
	count := 0
	for _, v := range r.cells {
		if v == nil || v == "" {
			continue
		}
		count++
	}
	return count
}

// parseStatementDate normalizes the three date shapes bank exports produce:
// spreadsheet serial numbers, native date values, and strings (strict
// DD/MM/YYYY first, then generic layouts). Anything whose year falls
// outside [1900, 2100] is rejected.
func parseStatementDate(v any) (time.Time, bool) {
	switch value := v.(type) {
	case float64:
		unixMs := (value - excelEpochOffsetDays) * 86400 * 1000
		// Serial values are whole days, so the timestamp is midnight UTC;
		// read the calendar fields in UTC to keep the date stable across
		// server timezones.
		t := time.UnixMilli(int64(unixMs)).UTC()
		if !yearInRange(t.Year()) {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true

	case time.Time:
		if !yearInRange(value.Year()) {
			return time.Time{}, false
		}
		return value, true

	case string:
		return parseDateString(value)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(s), "/")

	// Strict DD/MM/YYYY. Out-of-range day/month values normalize the same
	// way the source exports expect (e.g. 32/01 rolls into February).
	parts := strings.Split(cleaned, "/")
	if len(parts) == 3 {
		day, dayErr := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, monthErr := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, yearErr := strconv.Atoi(strings.TrimSpace(parts[2]))
		if dayErr == nil && monthErr == nil && yearErr == nil && yearInRange(year) {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
		}
	}

	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"02.01.2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			if !yearInRange(t.Year()) {
				return time.Time{}, false
			}
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

func yearInRange(year int) bool {
	return year >= importYearMin && year <= importYearMax
}

// parseStatementAmount accepts positive numbers and decimal-comma strings,
// rounding to 2 fractional digits via round(v*100)/100. Zero, negative and
// unparseable amounts are rejected; the format has no refund rows.
func parseStatementAmount(v any) (decimal.Decimal, bool) {
	switch value := v.(type) {
	case float64:
		return roundedPositiveAmount(value)

	case string:
		cleaned := stripSpaces(value)
		if cleaned == "" {
			return decimal.Decimal{}, false
		}
		if strings.Contains(cleaned, ",") {
			// Dots before the decimal comma are thousand separators.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return roundedPositiveAmount(f)
	}
	return decimal.Decimal{}, false
}

func roundedPositiveAmount(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || f <= 0 {
		return decimal.Decimal{}, false
	}
	rounded := math.Round(f*100) / 100
	if rounded <= 0 {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(rounded), true
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// extractDescription tries the payment-description header first, then
// payer/payee names; a fixed placeholder covers rows with none populated.
func extractDescription(row statementRow) string {
	value, ok := row.findValue(descriptionFields)
	if !ok {
		return fallbackDescription
	}
	text := strings.TrimSpace(cellText(value))
	if text == "" {
		return fallbackDescription
	}
	return text
}

// classifyDirection decides the transaction kind from the direction cell.
// "uplata" is a substring of "isplata", so income requires the credit
// keyword WITHOUT the debit keyword; a cell naming both is an expense.
func classifyDirection(text string) TransactionType {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "uplata") && !strings.Contains(lower, "isplata") {
		return TransactionTypeIncome
	}
	return TransactionTypeExpense
}

func categoryIconForDescription(description string) string {
	lower := strings.ToLower(description)
	for _, rule := range categoryIconRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.icon
			}
		}
	}
	return defaultCategoryIcon
}

// processStatementRow runs the pure part of the pipeline: blank detection,
// date, direction, kind-dependent amount, description. It returns either a
// normalized row or the skip reason.
func processStatementRow(row statementRow) (*importedRow, string) {
	// Blank and summary rows carry fewer than 3 populated cells.
	if row.nonEmptyCells() < 3 {
		return nil, "blank row"
	}

	dateValue, ok := row.findValue(dateHeaderFields)
	if !ok {
		return nil, "no date field"
	}
	date, ok := parseStatementDate(dateValue)
	if !ok {
		return nil, "invalid date"
	}

	directionValue, ok := row.findValue(directionHeaderFields)
	if !ok {
		return nil, "no direction field"
	}
	txnType := classifyDirection(cellText(directionValue))

	// The amount column depends on the direction just decided.
	amountFields := debitAmountFields
	if txnType == TransactionTypeIncome {
		amountFields = creditAmountFields
	}
	amountValue, ok := row.findValue(amountFields)
	if !ok {
		return nil, "no amount field"
	}
	amount, ok := parseStatementAmount(amountValue)
	if !ok {
		return nil, "invalid amount"
	}

	return &importedRow{
		Date:        date,
		Type:        txnType,
		Amount:      amount,
		Description: extractDescription(row),
	}, ""
}

// runImportPipeline drives rows through parse, classify and persist, one at
// a time. No row-level failure aborts the batch.
func runImportPipeline(ctx context.Context, store importStore, userID string, rows []statementRow) *ImportResult {
	logger := config.GetLogger()
	imported := 0
	skipped := 0

	for _, row := range rows {
		parsed, reason := processStatementRow(row)
		if parsed == nil {
			logger.WithField("reason", reason).Debug("skipping statement row")
			skipped++
			continue
		}

		icon := categoryIconForDescription(parsed.Description)
		categoryID, err := store.ResolveImportCategory(ctx, userID, parsed.Type, icon)
		if err != nil {
			config.LogError(logger, "statementImport.go", "runImportPipeline", "ResolveImportCategory", userID, err)
			skipped++
			continue
		}

		if err := store.SaveImportedTransaction(ctx, userID, parsed, categoryID); err != nil {
			config.LogError(logger, "statementImport.go", "runImportPipeline", "SaveImportedTransaction", userID, err)
			skipped++
			continue
		}
		imported++
	}

	message := fmt.Sprintf("Successfully imported %d transaction(s)", imported)
	if skipped > 0 {
		message += fmt.Sprintf("; skipped %d row(s), please verify the imported data", skipped)
	}
	return &ImportResult{Imported: imported, Skipped: skipped, Message: message}
}

// gormImportStore is the production persistence behind the pipeline.
type gormImportStore struct {
	db *gorm.DB
}

// ResolveImportCategory finds or creates the user's "Imported" category for
// the given kind. The icon is derived from the first row that triggers
// creation and never updated afterwards. Creation is serialized with a
// per-(user, kind) redis lock when available; the unique index on
// (user_id, name, type) plus re-fetch covers the unlocked window.
func (s *gormImportStore) ResolveImportCategory(ctx context.Context, userID string, txnType TransactionType, icon string) (string, error) {
	var category Category
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND type = ?", userID, importedCategoryName, txnType).
		First(&category).Error
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	release, err := utils.ObtainUserLock(ctx, "import-category", userID+":"+string(txnType))
	if err != nil {
		return "", err
	}
	defer release()

	// Re-check under the lock.
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND type = ?", userID, importedCategoryName, txnType).
		First(&category).Error
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	category = Category{
		ID:     uuid.NewString(),
		UserId: userID,
		Name:   importedCategoryName,
		Icon:   icon,
		Type:   txnType,
	}
	err = s.db.WithContext(ctx).Create(&category).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			var existing Category
			fetchErr := s.db.WithContext(ctx).
				Where("user_id = ? AND name = ? AND type = ?", userID, importedCategoryName, txnType).
				First(&existing).Error
			if fetchErr == nil {
				return existing.ID, nil
			}
		}
		return "", err
	}
	return category.ID, nil
}

func isDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry")
}

// SaveImportedTransaction persists one row and both period aggregates as a
// single unit of work; the unit boundary is per row, not per file.
func (s *gormImportStore) SaveImportedTransaction(ctx context.Context, userID string, row *importedRow, categoryID string) error {
	txn := Transaction{
		ID:          uuid.NewString(),
		UserId:      userID,
		Amount:      row.Amount,
		Description: row.Description,
		Date:        row.Date,
		Type:        row.Type,
		CategoryId:  categoryID,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return applyHistoryIncrement(tx, userID, txn.Date, txn.Type, txn.Amount)
	})
}
