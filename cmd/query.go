package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/store"
	"github.com/KaramelBytes/insightloom/internal/table"
)

var (
	qSchema bool
	qDB     string
	qDriver string
	qTable  string
	qLimit  int
	qSource sourceFlags
)

// importedTable is the name a file's main table gets inside the query engine.
const importedTable = "data"

var queryCmd = &cobra.Command{
	Use:   "query [file] [SQL]",
	Short: "Run SQL over a file (imported as table \"data\") or a database, or print its schema",
	Example: `  insightloom query menu.xlsx --schema
  insightloom query menu.csv "SELECT Kategori, AVG(Fiyat) FROM data GROUP BY Kategori"
  insightloom query --db shop.db "SELECT COUNT(*) FROM products"`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var (
			st  *store.Store
			sql string
			err error
		)
		name := qTable
		if qDB != "" {
			if len(args) > 1 {
				return errors.New("with --db pass only the SQL statement")
			}
			if len(args) == 1 {
				sql = args[0]
			}
			if st, err = openStore(ctx, qDriver, qDB); err != nil {
				return err
			}
		} else {
			if len(args) == 0 {
				return errors.New("missing input: pass a file or --db")
			}
			if len(args) == 2 {
				sql = args[1]
			}
			loadOpt, err := qSource.options()
			if err != nil {
				return err
			}
			t, err := table.Load(args[0], loadOpt)
			if err != nil {
				return err
			}
			if st, err = store.OpenMemory(ctx); err != nil {
				return err
			}
			if err := st.Import(ctx, importedTable, t); err != nil {
				st.Close()
				return err
			}
			name = importedTable
		}
		defer st.Close()

		if qSchema || sql == "" {
			if name == "" {
				if name, err = st.MainTable(ctx); err != nil {
					return err
				}
			}
			t, err := st.ReadTable(ctx, name)
			if err != nil {
				return err
			}
			cl, err := classifier()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Table %s (%d rows)\n", name, t.Rows())
			printSchema(out, analysis.Profile(t, cl))
			return nil
		}

		res, err := st.Query(ctx, sql)
		if err != nil {
			return err
		}
		printTable(out, res, qLimit)
		return nil
	},
}

func printSchema(w io.Writer, profiles []analysis.ColumnProfile) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"Column", "Type", "Role", "Non-null", "Missing", "Sample"})
	for _, p := range profiles {
		tw.Append([]string{
			p.Name,
			p.Kind,
			p.Role,
			strconv.Itoa(p.NonNull),
			strconv.Itoa(p.Missing),
			p.Sample,
		})
	}
	tw.Render()
}

// printTable renders at most limit rows of t; limit <= 0 prints everything.
func printTable(w io.Writer, t *table.Table, limit int) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(t.Names())
	n := t.Rows()
	if limit > 0 && n > limit {
		n = limit
	}
	for i := 0; i < n; i++ {
		tw.Append(t.Record(i))
	}
	tw.Render()
	if n < t.Rows() {
		fmt.Fprintf(w, "(%d of %d rows shown)\n", n, t.Rows())
	} else {
		fmt.Fprintf(w, "(%d rows)\n", t.Rows())
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&qSchema, "schema", false, "print column name, inferred type, role and a sample value")
	queryCmd.Flags().StringVar(&qDB, "db", "", "query a database instead of a file: sqlite path or postgres DSN")
	queryCmd.Flags().StringVar(&qDriver, "driver", "", "database driver: sqlite | postgres (detected from --db if omitted)")
	queryCmd.Flags().StringVar(&qTable, "table", "", "with --db --schema: table to describe (default: the one with most rows)")
	queryCmd.Flags().IntVar(&qLimit, "limit", 50, "maximum result rows to print (0 = all)")
	qSource.register(queryCmd)
}
