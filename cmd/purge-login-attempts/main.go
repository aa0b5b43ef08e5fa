// purge-login-attempts deletes login attempt rows older than the retention
// window (default 30 days). Intended to run as a scheduled job.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}

	days := 30
	if v, err := strconv.Atoi(os.Getenv("RETENTION_DAYS")); err == nil && v > 0 {
		days = v
	}

	deleted, err := models.PurgeOldTentatives(context.Background(), time.Duration(days)*24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d login attempt rows older than %d days\n", deleted, days)
}
