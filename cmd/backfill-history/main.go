package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/models"
)

// Rebuilds the month/year aggregate tables from the transactions table.
// Run after manual data surgery or when the aggregates are suspected to
// have drifted.
func main() {
	userID := flag.String("user-id", "", "Optional: rebuild only one user (uuid string). If empty, rebuilds all users.")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	if err := models.MigrateAll(); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	var userIDs []string
	if strings.TrimSpace(*userID) != "" {
		userIDs = []string{strings.TrimSpace(*userID)}
	} else {
		if err := db.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to list users: %v\n", err)
			os.Exit(1)
		}
	}
	if len(userIDs) == 0 {
		fmt.Fprintln(os.Stderr, "no users found to rebuild")
		return
	}

	failed := 0
	for _, id := range userIDs {
		if err := models.RebuildHistory(db, id); err != nil {
			fmt.Fprintf(os.Stderr, "user %s: rebuild failed: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("user %s: history rebuilt\n", id)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
