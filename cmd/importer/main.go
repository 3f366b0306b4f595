// Command importer loads the ultramarathon races CSV dataset into the
// event catalog.
package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/database"
	"github.com/vacathon/vacathon-api/internal/importer"
	"github.com/vacathon/vacathon-api/internal/logging"
)

func main() {
	csvPath := flag.String("csv", "TWO_CENTURIES_OF_UM_RACES.csv", "path to the CSV dataset")
	limit := flag.Int("limit", 0, "limit the number of unique events to import (0 = no limit)")
	dryRun := flag.Bool("dry-run", false, "preview the events without writing to the database")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel)
	db := database.Connect(cfg)

	imp := importer.New(db, logger)
	summary, err := imp.Run(importer.Options{
		CSVPath: *csvPath,
		Limit:   *limit,
		DryRun:  *dryRun,
	})
	if err != nil {
		logger.Error().Err(err).Msg("import failed")
		os.Exit(1)
	}

	logger.Info().
		Int("unique", summary.Unique).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Msg("import finished")
}
