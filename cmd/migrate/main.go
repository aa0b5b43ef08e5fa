// migrate runs schema migrations as a standalone job, for deployments that
// start the API with SKIP_MIGRATIONS=true.
package main

import (
	"fmt"
	"os"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()
	fmt.Println("Migrations applied")
}
