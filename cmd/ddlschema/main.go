package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/ddlschema"
	"github.com/tordrt/ddlschema/internal/formatter"
	"github.com/tordrt/ddlschema/internal/logging"
	"github.com/tordrt/ddlschema/internal/schema"
)

var (
	dbURL          string
	mysqlURL       string
	sqlitePath     string
	outputFile     string
	outputDir      string
	tables         string
	excludeTables  string
	schemaName     string
	format         string
	splitThreshold int
	emitDDL        bool
	indent         bool
	logLevel       string
)

// stdin and stdinIsTerminal are swapped in tests
var (
	stdin           io.Reader = os.Stdin
	stdinIsTerminal           = func() bool { return isTerminal(os.Stdin) }
)

var rootCmd = &cobra.Command{
	Use:   "ddlschema [file]",
	Short: "Extract tables, keys and dependencies from SQL DDL dumps",
	Long: `ddlschema reads a SQL dump (a file, "-" or piped stdin) or generates one from a
PostgreSQL, MySQL or SQLite database, and reports each table's definition,
primary key, foreign keys and the tables it depends on.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection URL (postgres://...)")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL DSN (user:pass@tcp(host:port)/database)")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	rootCmd.Flags().StringVarP(&format, "format", "f", formatter.FormatJSON, "Output format: json, yaml, text or markdown")
	rootCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().StringVarP(&excludeTables, "exclude", "x", "", "Tables to leave out (comma-separated, optional)")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, the DSN database for MySQL)")
	rootCmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
	rootCmd.Flags().BoolVar(&emitDDL, "emit-ddl", false, "Print the DDL generated from a database instead of parsing it")
	rootCmd.Flags().BoolVar(&indent, "indent", false, "Pretty-print JSON (default: on when stdout is a terminal)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logLevel, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if _, err := formatter.New(format, io.Discard, false); err != nil {
		return err
	}

	databaseURL, err := selectDatabase()
	if err != nil {
		return err
	}
	if databaseURL == "" && len(args) == 0 && stdinIsTerminal() {
		return fmt.Errorf("a SQL file, piped stdin, or one of --db-url, --mysql-url, or --sqlite must be specified")
	}
	if databaseURL != "" && len(args) > 0 {
		return fmt.Errorf("cannot combine a SQL file with a database flag")
	}
	if emitDDL && databaseURL == "" {
		return fmt.Errorf("--emit-ddl requires --db-url, --mysql-url, or --sqlite")
	}

	if !cmd.Flags().Changed("indent") && outputFile == "" {
		indent = isTerminal(os.Stdout)
	}

	var snapshot []schema.TableSnapshot
	if databaseURL != "" {
		snapshot, err = readDatabase(cmd.Context(), cmd.OutOrStdout(), logger, databaseURL)
		if err != nil || emitDDL {
			return err
		}
	} else {
		snapshot, err = readDump(logger, args)
		if err != nil {
			return err
		}
		snapshot = selectTables(snapshot, parseTableList(tables))
	}

	snapshot = filterExcludedTables(snapshot, parseTableList(excludeTables))

	return writeSnapshot(cmd.OutOrStdout(), logger, snapshot)
}

// selectDatabase returns the database URL named by the flags, or "" when
// none was given
func selectDatabase() (string, error) {
	dbCount := 0
	if dbURL != "" {
		dbCount++
	}
	if mysqlURL != "" {
		dbCount++
	}
	if sqlitePath != "" {
		dbCount++
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case sqlitePath != "":
		return "sqlite://" + sqlitePath, nil
	case mysqlURL != "":
		return "mysql://" + strings.TrimPrefix(mysqlURL, "mysql://"), nil
	default:
		return dbURL, nil
	}
}

// readDatabase dumps the database and parses the dump. With --emit-ddl the
// dump itself is written to out instead.
func readDatabase(ctx context.Context, out io.Writer, logger *zap.Logger, databaseURL string) ([]schema.TableSnapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &ddlschema.Options{
		Tables:     parseTableList(tables),
		SchemaName: schemaName,
	}

	dump, err := ddlschema.DumpDatabase(ctx, databaseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to dump database: %w", err)
	}
	logger.Debug("dumped database", zap.Int("bytes", len(dump)), zap.Strings("tables", opts.Tables))

	if emitDDL {
		return nil, writeDDL(out, logger, dump)
	}
	return ddlschema.Parse(dump), nil
}

func writeDDL(out io.Writer, logger *zap.Logger, dump string) error {
	w, closeOutput, err := openOutput(out, logger)
	if err != nil {
		return err
	}
	defer closeOutput()

	if _, err := io.WriteString(w, dump); err != nil {
		return fmt.Errorf("failed to write DDL: %w", err)
	}
	return nil
}

// readDump parses the file named in args, or stdin for "-" or no argument
func readDump(logger *zap.Logger, args []string) ([]schema.TableSnapshot, error) {
	var r io.Reader = stdin
	source := "stdin"

	if len(args) == 1 && args[0] != "-" {
		source = args[0]
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQL file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close SQL file", zap.String("path", source), zap.Error(err))
			}
		}()
		r = f
	}

	snapshot, err := ddlschema.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	logger.Debug("parsed dump", zap.String("source", source), zap.Int("tables", len(snapshot)))

	return snapshot, nil
}

func writeSnapshot(out io.Writer, logger *zap.Logger, snapshot []schema.TableSnapshot) error {
	// Check if we should use multi-file output
	shouldSplit := outputDir != "" && (splitThreshold == 0 || len(snapshot) > splitThreshold)

	if shouldSplit {
		err := ddlschema.FormatSnapshot(snapshot, &ddlschema.OutputOptions{
			OutputDir: outputDir,
			Format:    format,
			Indent:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	w, closeOutput, err := openOutput(out, logger)
	if err != nil {
		return err
	}
	defer closeOutput()

	err = ddlschema.FormatSnapshot(snapshot, &ddlschema.OutputOptions{
		Writer: w,
		Format: format,
		Indent: indent,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

// openOutput returns the --output file, or out when none was given
func openOutput(out io.Writer, logger *zap.Logger) (io.Writer, func(), error) {
	if outputFile == "" {
		return out, func() {}, nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close output file", zap.String("path", outputFile), zap.Error(err))
		}
	}, nil
}

func parseTableList(list string) []string {
	if list == "" {
		return nil
	}

	var result []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			result = append(result, name)
		}
	}
	return result
}

// selectTables keeps only the named tables; an empty list keeps all
func selectTables(snapshot []schema.TableSnapshot, include []string) []schema.TableSnapshot {
	if len(include) == 0 {
		return snapshot
	}

	includeSet := make(map[string]bool)
	for _, tableName := range include {
		includeSet[tableName] = true
	}

	selected := make([]schema.TableSnapshot, 0, len(include))
	for _, table := range snapshot {
		if includeSet[table.Name] {
			selected = append(selected, table)
		}
	}
	return selected
}

func filterExcludedTables(snapshot []schema.TableSnapshot, excludeList []string) []schema.TableSnapshot {
	if len(excludeList) == 0 {
		return snapshot
	}

	excludeSet := make(map[string]bool)
	for _, tableName := range excludeList {
		excludeSet[tableName] = true
	}

	filtered := make([]schema.TableSnapshot, 0, len(snapshot))
	for _, table := range snapshot {
		if !excludeSet[table.Name] {
			filtered = append(filtered, table)
		}
	}
	return filtered
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
