package models

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeImportStore records what the pipeline persists, keeping one category
// per transaction kind the way the real store does.
type fakeImportStore struct {
	categories map[TransactionType]string // kind -> icon at creation time
	saved      []savedImport
}

type savedImport struct {
	row        importedRow
	categoryID string
}

func newFakeImportStore() *fakeImportStore {
	return &fakeImportStore{categories: map[TransactionType]string{}}
}

func (s *fakeImportStore) ResolveImportCategory(_ context.Context, _ string, txnType TransactionType, icon string) (string, error) {
	if _, ok := s.categories[txnType]; !ok {
		s.categories[txnType] = icon
	}
	return "cat-" + string(txnType), nil
}

func (s *fakeImportStore) SaveImportedTransaction(_ context.Context, _ string, row *importedRow, categoryID string) error {
	s.saved = append(s.saved, savedImport{row: *row, categoryID: categoryID})
	return nil
}

func makeRow(headers []string, values ...any) statementRow {
	row := statementRow{headers: headers, cells: make(map[string]any, len(headers))}
	for i, header := range headers {
		if i < len(values) {
			row.cells[header] = values[i]
		} else {
			row.cells[header] = ""
		}
	}
	return row
}

var statementHeaders = []string{"Datum knjiženja", "Opis plaćanja", "Uplata/Isplata", "Iznos uplate", "Iznos isplate"}

func TestLocateHeaderRow_SkipsMetadataRows(t *testing.T) {
	grid := [][]any{
		{"Pregled prometa po računu", "", ""},
		{"Razdoblje:", "01/01/2024", "31/01/2024"},
		{"Datum knjiženja", "Opis plaćanja", "Uplata/Isplata", "Iznos uplate", "Iznos isplate"},
		{"05/01/2024", "LIDL 123", "Isplata", "", "45,50"},
	}
	if got := locateHeaderRow(grid); got != 2 {
		t.Fatalf("locateHeaderRow expected 2, got %d", got)
	}
}

func TestLocateHeaderRow_DefaultsToFirstRow(t *testing.T) {
	grid := [][]any{
		{"date", "amount", "note"},
		{"05/01/2024", 12.0, "something"},
	}
	if got := locateHeaderRow(grid); got != 0 {
		t.Fatalf("locateHeaderRow expected 0, got %d", got)
	}
}

func TestLocateHeaderRow_DecoyDateColumnLoses(t *testing.T) {
	// Row 1 has a bare date-noun header (a created-at column, no posting
	// qualifier) plus an amount header: one signal only. Row 2 carries the
	// posting-qualified date header and the combined direction header.
	grid := [][]any{
		{"Izvod po računu"},
		{"Datum", "Iznos ukupno", "Napomena"},
		{"Datum knjiženja", "Uplata/Isplata", "Opis plaćanja"},
	}
	if got := locateHeaderRow(grid); got != 2 {
		t.Fatalf("locateHeaderRow expected 2, got %d", got)
	}
}

func TestLocateHeaderRow_TwoSignalsSuffice(t *testing.T) {
	// No combined direction column, but date + amount headers still qualify.
	grid := [][]any{
		{"Izvod broj 1"},
		{"Datum knjiženja", "Opis", "Iznos uplate", "Iznos isplate"},
	}
	if got := locateHeaderRow(grid); got != 1 {
		t.Fatalf("locateHeaderRow expected 1, got %d", got)
	}
}

func TestParseStatementDate_SerialNumbers(t *testing.T) {
	cases := []struct {
		serial   float64
		expected string
	}{
		{25569, "1970-01-01"},
		{25570, "1970-01-02"},
		{45292, "2024-01-01"},
	}
	for _, tc := range cases {
		got, ok := parseStatementDate(tc.serial)
		if !ok {
			t.Fatalf("parseStatementDate(%v) rejected", tc.serial)
		}
		if got.Format("2006-01-02") != tc.expected {
			t.Fatalf("parseStatementDate(%v) expected %s, got %s", tc.serial, tc.expected, got.Format("2006-01-02"))
		}
	}
}

func TestParseStatementDate_Strings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		ok       bool
	}{
		{"05/01/2024", "2024-01-05", true},
		{"05/01/2024/", "2024-01-05", true}, // trailing slash from sloppy exports
		{" 28/02/2023 ", "2023-02-28", true},
		{"2024-03-10", "2024-03-10", true},
		{"10.03.2024", "2024-03-10", true},
		{"05/01/1899", "", false},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parseStatementDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("parseStatementDate(%q) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
		if ok && got.Format("2006-01-02") != tc.expected {
			t.Fatalf("parseStatementDate(%q) expected %s, got %s", tc.in, tc.expected, got.Format("2006-01-02"))
		}
	}
}

func TestParseStatementDate_RejectsOutOfRangeSerial(t *testing.T) {
	// Serial 0 is 1899-12-30, below the accepted year range.
	if _, ok := parseStatementDate(float64(0)); ok {
		t.Fatal("expected serial 0 to be rejected")
	}
}

func TestParseStatementAmount(t *testing.T) {
	cases := []struct {
		in       any
		expected string
		ok       bool
	}{
		{"1.234,56", "1234.56", true},
		{"1234,56", "1234.56", true},
		{"12,5", "12.5", true},
		{"100", "100", true},
		{" 45,50 ", "45.5", true},
		{100.456, "100.46", true},
		{45.5, "45.5", true},
		{"0", "", false},
		{"-12,50", "", false},
		{float64(0), "", false},
		{-3.0, "", false},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parseStatementAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("parseStatementAmount(%v) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
		if ok && got.String() != tc.expected {
			t.Fatalf("parseStatementAmount(%v) expected %s, got %s", tc.in, tc.expected, got.String())
		}
	}
}

func TestClassifyDirection(t *testing.T) {
	cases := []struct {
		in       string
		expected TransactionType
	}{
		{"Uplata", TransactionTypeIncome},
		{"uplata", TransactionTypeIncome},
		{"Isplata", TransactionTypeExpense}, // contains "uplata" as a substring
		{"Uplata/Isplata", TransactionTypeExpense},
		{"something else", TransactionTypeExpense},
	}
	for _, tc := range cases {
		if got := classifyDirection(tc.in); got != tc.expected {
			t.Fatalf("classifyDirection(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestCategoryIconForDescription(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"LIDL d.o.o. Zagreb", "🛒"},
		{"SPOTIFY AB", "🎵"},
		{"Tobacco shop Konzum", "🚬"}, // first matching rule wins
		{"INA benzinska postaja", "⛽"},
		{"Ljekarna Centar", "💊"},
		{"Prijenos na štednju", "💸"},
		{"random merchant", "💳"},
	}
	for _, tc := range cases {
		if got := categoryIconForDescription(tc.in); got != tc.expected {
			t.Fatalf("categoryIconForDescription(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestExtractDescription_FragmentOrder(t *testing.T) {
	headers := []string{"Opis plaćanja", "Naziv primatelja"}
	row := makeRow(headers, "Račun za struju", "HEP d.d.")
	if got := extractDescription(row); got != "Račun za struju" {
		t.Fatalf("expected payment description first, got %q", got)
	}

	row = makeRow(headers, "", "HEP d.d.")
	if got := extractDescription(row); got != "HEP d.d." {
		t.Fatalf("expected payee fallback, got %q", got)
	}

	row = makeRow(headers, "", "")
	if got := extractDescription(row); got != fallbackDescription {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestProcessStatementRow(t *testing.T) {
	t.Run("expense row reads the debit column", func(t *testing.T) {
		row := makeRow(statementHeaders, "05/01/2024", "LIDL 123", "Isplata", "", "45,50")
		parsed, reason := processStatementRow(row)
		if parsed == nil {
			t.Fatalf("row skipped: %s", reason)
		}
		if parsed.Type != TransactionTypeExpense {
			t.Fatalf("expected expense, got %s", parsed.Type)
		}
		if parsed.Amount.String() != "45.5" {
			t.Fatalf("expected amount 45.5, got %s", parsed.Amount.String())
		}
		if parsed.Description != "LIDL 123" {
			t.Fatalf("expected description LIDL 123, got %q", parsed.Description)
		}
	})

	t.Run("income row reads the credit column", func(t *testing.T) {
		row := makeRow(statementHeaders, "10/01/2024", "Plaća siječanj", "Uplata", "1.234,56", "")
		parsed, reason := processStatementRow(row)
		if parsed == nil {
			t.Fatalf("row skipped: %s", reason)
		}
		if parsed.Type != TransactionTypeIncome {
			t.Fatalf("expected income, got %s", parsed.Type)
		}
		if parsed.Amount.String() != "1234.56" {
			t.Fatalf("expected amount 1234.56, got %s", parsed.Amount.String())
		}
	})

	t.Run("blank row is skipped", func(t *testing.T) {
		row := makeRow(statementHeaders, "", "", "", "", "")
		if parsed, reason := processStatementRow(row); parsed != nil || reason != "blank row" {
			t.Fatalf("expected blank-row skip, got %v / %s", parsed, reason)
		}
	})

	t.Run("summary row with two cells is skipped", func(t *testing.T) {
		row := makeRow(statementHeaders, "Ukupno", "", "", "", "999,99")
		if parsed, reason := processStatementRow(row); parsed != nil || reason != "blank row" {
			t.Fatalf("expected blank-row skip, got %v / %s", parsed, reason)
		}
	})

	t.Run("unparseable date is skipped", func(t *testing.T) {
		row := makeRow(statementHeaders, "soon™", "LIDL 123", "Isplata", "", "45,50")
		if parsed, reason := processStatementRow(row); parsed != nil || reason != "invalid date" {
			t.Fatalf("expected invalid-date skip, got %v / %s", parsed, reason)
		}
	})

	t.Run("missing amount is skipped", func(t *testing.T) {
		row := makeRow(statementHeaders, "05/01/2024", "LIDL 123", "Isplata", "100,00", "")
		if parsed, reason := processStatementRow(row); parsed != nil || reason != "no amount field" {
			t.Fatalf("expected no-amount skip, got %v / %s", parsed, reason)
		}
	})
}

func TestRunImportPipeline(t *testing.T) {
	rows := []statementRow{
		makeRow(statementHeaders, "05/01/2024", "Plaća siječanj", "Uplata", "100,00", ""),
		makeRow(statementHeaders, "06/01/2024", "LIDL 123", "Isplata", "", "45,50"),
		makeRow(statementHeaders, "garbage", "junk", "Isplata", "", "10,00"),
		makeRow(statementHeaders, "", "", "", "", ""),
	}

	store := newFakeImportStore()
	result := runImportPipeline(context.Background(), store, "user-1", rows)

	if result.Imported != 2 || result.Skipped != 2 {
		t.Fatalf("expected 2 imported / 2 skipped, got %d / %d", result.Imported, result.Skipped)
	}
	if result.Message != "Successfully imported 2 transaction(s); skipped 2 row(s), please verify the imported data" {
		t.Fatalf("unexpected message: %q", result.Message)
	}

	if len(store.saved) != 2 {
		t.Fatalf("expected 2 saved transactions, got %d", len(store.saved))
	}
	income := store.saved[0]
	if income.row.Type != TransactionTypeIncome || income.row.Amount.String() != "100" {
		t.Fatalf("unexpected income row: %+v", income.row)
	}
	if income.row.Date.Format("2006-01-02") != "2024-01-05" {
		t.Fatalf("unexpected income date: %s", income.row.Date)
	}
	expense := store.saved[1]
	if expense.row.Type != TransactionTypeExpense || expense.row.Amount.String() != "45.5" {
		t.Fatalf("unexpected expense row: %+v", expense.row)
	}

	if store.categories[TransactionTypeExpense] != "🛒" {
		t.Fatalf("expected expense category created with LIDL icon, got %q", store.categories[TransactionTypeExpense])
	}
}

func TestRunImportPipeline_CategoryIconFixedAtCreation(t *testing.T) {
	rows := []statementRow{
		makeRow(statementHeaders, "05/01/2024", "LIDL 123", "Isplata", "", "45,50"),
		makeRow(statementHeaders, "06/01/2024", "SPOTIFY AB", "Isplata", "", "9,99"),
	}

	store := newFakeImportStore()
	result := runImportPipeline(context.Background(), store, "user-1", rows)

	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", result.Imported)
	}
	// Second row reuses the category; its Spotify icon never replaces the
	// one chosen at creation time.
	if store.categories[TransactionTypeExpense] != "🛒" {
		t.Fatalf("expected icon 🛒 kept, got %q", store.categories[TransactionTypeExpense])
	}
	if store.saved[0].categoryID != store.saved[1].categoryID {
		t.Fatal("expected both rows filed under the same category")
	}
}

func TestRunImportPipeline_ReimportDuplicates(t *testing.T) {
	rows := []statementRow{
		makeRow(statementHeaders, "05/01/2024", "LIDL 123", "Isplata", "", "45,50"),
	}

	store := newFakeImportStore()
	runImportPipeline(context.Background(), store, "user-1", rows)
	runImportPipeline(context.Background(), store, "user-1", rows)

	// Importing the same file twice records every row twice; there is no
	// cross-import dedup.
	if len(store.saved) != 2 {
		t.Fatalf("expected 2 saved transactions after re-import, got %d", len(store.saved))
	}
}

func TestRunImportPipeline_CleanFileMessage(t *testing.T) {
	rows := []statementRow{
		makeRow(statementHeaders, "05/01/2024", "LIDL 123", "Isplata", "", "45,50"),
	}
	store := newFakeImportStore()
	result := runImportPipeline(context.Background(), store, "user-1", rows)

	if result.Message != "Successfully imported 1 transaction(s)" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestReadCSVGrid_SemicolonDelimited(t *testing.T) {
	data := []byte("Datum knjiženja;Opis plaćanja;Uplata/Isplata;Iznos uplate;Iznos isplate\n05/01/2024;LIDL 123;Isplata;;45,50\n")
	grid, err := readStatementGrid(data)
	if err != nil {
		t.Fatalf("readStatementGrid error: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(grid))
	}
	if grid[1][0] != "05/01/2024" {
		t.Fatalf("unexpected first cell: %v", grid[1][0])
	}
}

func TestCoerceCell(t *testing.T) {
	cases := []struct {
		in       string
		expected any
	}{
		{"45292", float64(45292)},
		{"45.5", 45.5},
		{"-3", float64(-3)},
		{"45,50", "45,50"}, // comma keeps it a string; the amount parser handles it
		{"05/01/2024", "05/01/2024"},
		{"", ""},
		{"  ", ""},
		{"Inf", "Inf"},
		{"0x10", "0x10"},
	}
	for _, tc := range cases {
		if got := coerceCell(tc.in); got != tc.expected {
			t.Fatalf("coerceCell(%q) expected %v (%T), got %v (%T)", tc.in, tc.expected, tc.expected, got, got)
		}
	}
}

func TestGridToRows_NormalizesHeaders(t *testing.T) {
	grid := [][]any{
		{"Datum\nknjiženja", "  Opis   plaćanja ", ""},
		{"05/01/2024", "LIDL 123", "extra"},
	}
	rows := gridToRows(grid, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, ok := rows[0].cells["Datum knjiženja"]; !ok {
		t.Fatalf("expected collapsed header, have %v", rows[0].headers)
	}
	if _, ok := rows[0].cells["Opis plaćanja"]; !ok {
		t.Fatalf("expected trimmed header, have %v", rows[0].headers)
	}
	// Unnamed header still addressable, so blank-row counting sees the cell.
	if rows[0].cells["column_3"] != "extra" {
		t.Fatalf("expected positional key for unnamed header, cells: %v", rows[0].cells)
	}
}

func TestGridToRows_ShortDataRows(t *testing.T) {
	grid := [][]any{
		{"Datum knjiženja", "Opis plaćanja", "Iznos isplate"},
		{"05/01/2024"},
	}
	rows := gridToRows(grid, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].cells["Iznos isplate"] != "" {
		t.Fatalf("expected missing cell to read as empty, got %v", rows[0].cells["Iznos isplate"])
	}
}

func TestFindValue_HonorsHeaderOrder(t *testing.T) {
	// Both headers contain "uplate"; the specific fragment must win over
	// the generic one regardless of column position.
	headers := []string{"Uplate ukupno", "Iznos uplate"}
	row := makeRow(headers, "999", "100,00")

	value, ok := row.findValue(creditAmountFields)
	if !ok {
		t.Fatal("expected a match")
	}
	if value != "100,00" {
		t.Fatalf("expected the 'iznos uplate' column first, got %v", value)
	}
}

func TestHistoryDelta(t *testing.T) {
	income, expense := historyDelta(TransactionTypeIncome, decimal.NewFromInt(100))
	if income.String() != "100" || !expense.IsZero() {
		t.Fatalf("income delta wrong: %s / %s", income, expense)
	}
	income, expense = historyDelta(TransactionTypeExpense, decimal.NewFromInt(40))
	if !income.IsZero() || expense.String() != "40" {
		t.Fatalf("expense delta wrong: %s / %s", income, expense)
	}
}

func TestRunImportPipeline_RollupTotals(t *testing.T) {
	rows := []statementRow{
		makeRow(statementHeaders, "05/01/2024", "Plaća", "Uplata", "100,00", ""),
		makeRow(statementHeaders, "05/01/2024", "LIDL", "Isplata", "", "45,50"),
		makeRow(statementHeaders, "05/01/2024", "KONZUM", "Isplata", "", "4,50"),
	}
	store := newFakeImportStore()
	runImportPipeline(context.Background(), store, "user-1", rows)

	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	for _, s := range store.saved {
		inc, exp := historyDelta(s.row.Type, s.row.Amount)
		totalIncome = totalIncome.Add(inc)
		totalExpense = totalExpense.Add(exp)
	}
	if totalIncome.String() != "100" {
		t.Fatalf("expected income rollup 100, got %s", totalIncome)
	}
	if totalExpense.String() != "50" {
		t.Fatalf("expected expense rollup 50, got %s", totalExpense)
	}
}
