package models_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/models"
)

// End-to-end import against a real MySQL: header detection, per-row
// persistence, category get-or-create and rollup increments.
//
// Run (requires Docker): INTEGRATION_TESTS=1 go test ./models -run StatementImport -v

const sampleStatementCSV = `Pregled prometa po računu;;;;
Razdoblje:;01/01/2024;31/01/2024;;
Datum knjiženja;Opis plaćanja;Uplata/Isplata;Iznos uplate;Iznos isplate
05/01/2024;Plaća siječanj;Uplata;100,00;
06/01/2024;LIDL 123 ZAGREB;Isplata;;45,50
garbage;junk;Isplata;;10,00
`

func TestStatementImport_EndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "trosak_test")

	config.ConnectDatabaseWithRetry()
	if err := models.MigrateAll(); err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	db := config.GetDB()

	user, err := models.RegisterUser(ctx, &models.NewUser{
		Email:    "import@test.local",
		Password: "importtest1",
		Name:     "Import Test",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	result, err := models.ImportStatement(ctx, user.ID, bytes.NewReader([]byte(sampleStatementCSV)))
	if err != nil {
		t.Fatalf("ImportStatement: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("expected 2 imported / 1 skipped, got %d / %d", result.Imported, result.Skipped)
	}

	transactions, err := models.GetTransactions(ctx, user.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(transactions))
	}

	var categories []models.Category
	if err := db.Where("user_id = ? AND name = ?", user.ID, "Imported").Find(&categories).Error; err != nil {
		t.Fatalf("load categories: %v", err)
	}
	// One "Imported" category per kind seen in the file.
	if len(categories) != 2 {
		t.Fatalf("expected 2 Imported categories, got %d", len(categories))
	}
	for _, cat := range categories {
		if cat.Type == models.TransactionTypeExpense && cat.Icon != "🛒" {
			t.Fatalf("expected expense category icon 🛒 from the LIDL row, got %q", cat.Icon)
		}
	}

	var month models.MonthHistory
	if err := db.Where("user_id = ? AND day = 5 AND month = 1 AND year = 2024", user.ID).First(&month).Error; err != nil {
		t.Fatalf("load month history: %v", err)
	}
	if month.Income.String() != "100" {
		t.Fatalf("expected day-5 income 100, got %s", month.Income)
	}

	var year models.YearHistory
	if err := db.Where("user_id = ? AND month = 1 AND year = 2024", user.ID).First(&year).Error; err != nil {
		t.Fatalf("load year history: %v", err)
	}
	if year.Income.String() != "100" || year.Expense.String() != "45.5" {
		t.Fatalf("expected year rollup 100/45.5, got %s/%s", year.Income, year.Expense)
	}

	// Re-importing the same file duplicates every row and doubles the
	// rollups; there is no cross-import dedup.
	result, err = models.ImportStatement(ctx, user.ID, bytes.NewReader([]byte(sampleStatementCSV)))
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported on re-import, got %d", result.Imported)
	}
	if err := db.Where("user_id = ? AND month = 1 AND year = 2024", user.ID).First(&year).Error; err != nil {
		t.Fatalf("reload year history: %v", err)
	}
	if year.Income.String() != "200" || year.Expense.String() != "91" {
		t.Fatalf("expected doubled rollup 200/91, got %s/%s", year.Income, year.Expense)
	}

	// Still only one category per kind after the second pass.
	if err := db.Where("user_id = ? AND name = ?", user.ID, "Imported").Find(&categories).Error; err != nil {
		t.Fatalf("reload categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 Imported categories after re-import, got %d", len(categories))
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("trosak-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=trosak_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
