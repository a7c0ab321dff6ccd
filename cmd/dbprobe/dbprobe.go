package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"bkeilman/dbprobe/internal/config"
	"bkeilman/dbprobe/internal/explore"
)

var (
	configPath  string
	dbPath      string
	sqlText     string
	schemaTable string
	listTables  bool
	multiText   string
	analyzeDB   bool
	suggestDB   bool
	csvQuery    string
	csvFile     string
	jsonOutput  bool
	sampleLimit int
	verbose     bool
)

func configOptions(c *config.Root) []explore.Option {
	opts := []explore.Option{}
	if c.Database.Path != "" {
		opts = append(opts, explore.WithDatabase(c.Database.Path))
	}
	if c.Output.Format != "" {
		opts = append(opts, explore.WithFormat(c.Output.Format))
	}
	if c.Output.SampleLimit > 0 {
		opts = append(opts, explore.WithSampleLimit(c.Output.SampleLimit))
	}
	if c.Output.CSVFile != "" {
		opts = append(opts, explore.WithCSVFile(c.Output.CSVFile))
	}
	return opts
}

func main() {
	flag.StringVar(&configPath, "config", "", "Config file")
	flag.StringVar(&dbPath, "db", "", "Database path (default: database.db in current directory)")
	flag.StringVar(&sqlText, "sql", "", "Execute raw SQL query")
	flag.StringVar(&schemaTable, "schema", "", "Show schema for specified table")
	flag.BoolVar(&listTables, "tables", false, "List all tables")
	flag.StringVar(&multiText, "multi", "", "Execute multiple SQL queries (semicolon separated)")
	flag.BoolVar(&analyzeDB, "analyze", false, "Analyze database schema and provide insights")
	flag.BoolVar(&suggestDB, "suggest", false, "Suggest useful queries based on schema analysis")
	flag.StringVar(&csvQuery, "csv", "", "Execute SQL query and export results to CSV")
	flag.StringVar(&csvFile, "csv-file", "", "Output filename for CSV export (default: query_results.csv)")
	flag.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	flag.IntVar(&sampleLimit, "limit", 0, "Row limit for sample queries")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	if !verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := []explore.Option{explore.WithLogger(logger)}

	dbConfigured := false
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		dbConfigured = cfg.Database.Path != ""
		opts = append(opts, configOptions(cfg)...)
	}

	if dbPath != "" {
		opts = append(opts, explore.WithDatabase(dbPath))
	} else if !dbConfigured {
		opts = append(opts, explore.WithDatabase("database.db"))
	}
	if jsonOutput {
		opts = append(opts, explore.WithFormat(explore.FormatJSON))
	}
	if sampleLimit != 0 {
		opts = append(opts, explore.WithSampleLimit(sampleLimit))
	}
	if csvFile != "" {
		opts = append(opts, explore.WithCSVFile(csvFile))
	}

	opts = append(opts,
		explore.WithSQL(sqlText),
		explore.WithSchemaTable(schemaTable),
		explore.WithListTables(listTables),
		explore.WithMulti(multiText),
		explore.WithAnalyze(analyzeDB),
		explore.WithSuggest(suggestDB),
		explore.WithCSVQuery(csvQuery),
	)

	explorer, err := explore.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if !explorer.HasAction() {
		printQuickstart()
		return
	}

	if err := explorer.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printQuickstart() {
	fmt.Println("SQLite database query tool")
	fmt.Println("Use --help for usage information")
	fmt.Println("\nQuick start:")
	fmt.Println("  --tables     List all tables")
	fmt.Println("  --analyze    Analyze database structure")
	fmt.Println("  --suggest    Get suggested queries")
	fmt.Println("  --schema X   Show schema for table X")
	fmt.Println("  --sql 'X'    Execute SQL query X")
	fmt.Println("  --csv 'X'    Export query results to CSV")
}
