package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the fight store",
	Long: `Run an arbitrary SQL query against the fight store and print results as a table.

Schema overview:
  fighters(id, name, height_in, reach_in, weight_lbs, stance, dob)
  events(id, name, event_date, location)
  fights(id, event_id, bout_order, result, winner_id, method, weight_class,
    end_round, end_time_sec, duration_sec,
    red_id, red_kd, red_sig_landed, red_sig_att, red_td_landed, red_td_att, red_sub_att, red_ctrl_sec,
    blue_id, blue_kd, blue_sig_landed, ...)
  runs(id, created_at, options, rows_out, diagnostics)
  run_rows(run_id, row_idx, fight_id, fighter_a, fighter_b, event_id, event_date, mirrored, label)
  run_values(run_id, row_idx, col_idx, value)
  run_issues(run_id, seq, kind, entity, message)

Note: result is 0=unknown, 1=win, 2=draw, 3=no contest. Dates are TEXT (YYYY-MM-DD).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
