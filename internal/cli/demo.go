package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/silo"
)

const demoRows = 50

var demoDescriptors = []string{"String:personal_id:size=12", "Long:measurement_1", "Long:measurement_2"}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a full example silo workflow",
		Long: `Run a full example silo workflow against the configured database.

The demo creates a silo named "Demo", defines a table in it, adds 50 rows
of sample data, shows the data with tail, shows the audit log twice, and
deletes the silo again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &demo{a: rootOpts.app, w: cmd.OutOrStdout()}
			return d.run(cmd.Context())
		},
	}
}

type demo struct {
	a        *app
	w        io.Writer
	commands []string
}

func (d *demo) text() bool {
	return d.a.out.Format != "json"
}

// step prints a titled section and the result of one command.
func (d *demo) step(title, command string, result any) error {
	if d.text() {
		fmt.Fprintf(d.w, "\n%s\n%s\n", title, strings.Repeat("-", 80))
	}
	if command != "" {
		d.commands = append(d.commands, command)
	}
	if result == nil {
		return nil
	}
	return d.a.out.Success(result)
}

func (d *demo) run(ctx context.Context) error {
	if d.text() {
		fmt.Fprintf(d.w, "\nExample silo session\n%s\n", strings.Repeat("=", 80))
	}

	list, err := runList(ctx, d.a, PageOptions{Limit: defaultListLimit})
	if err != nil {
		return err
	}
	if err := d.step("List current silos", "silo list", list); err != nil {
		return err
	}

	created, err := runCreate(ctx, d.a, "Demo")
	if err != nil {
		return err
	}
	if err := d.step("Create new silo", "silo create Demo", created); err != nil {
		return err
	}
	siloID := created.SiloID

	if list, err = runList(ctx, d.a, PageOptions{Limit: defaultListLimit}); err != nil {
		return err
	}
	if err := d.step("Re-list silos", "silo list", list); err != nil {
		return err
	}

	defined, err := runDefine(ctx, d.a, siloID, "", false, append([]string{"TypeA"}, demoDescriptors...))
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf("silo define --id %d TypeA %s", siloID, strings.Join(demoDescriptors, " "))
	if err := d.step(fmt.Sprintf("Add user table to silo %d", siloID), cmd, defined); err != nil {
		return err
	}
	tableID := defined.Tables[0].TableID

	err = d.a.withStore(ctx, "demo", func(ctx context.Context, st *silo.Store) error {
		cols, err := demoData()
		if err != nil {
			return err
		}
		return st.WriteRows(ctx, tableID, cols)
	})
	if err != nil {
		return err
	}
	if err := d.step(fmt.Sprintf("Add random data to table %d", tableID), "", nil); err != nil {
		return err
	}

	tables, err := runTables(ctx, d.a, siloID, PageOptions{Limit: defaultTailLimit})
	if err != nil {
		return err
	}
	if err := d.step("List tables attached to silo", fmt.Sprintf("silo tables --id %d", siloID), tables); err != nil {
		return err
	}

	tail, err := runTail(ctx, d.a, tableID, PageOptions{Limit: defaultTailLimit})
	if err != nil {
		return err
	}
	if err := d.step(fmt.Sprintf("List last several lines of table %d", tableID), fmt.Sprintf("silo tail %d", tableID), tail); err != nil {
		return err
	}

	for _, title := range []string{"List audit log", "List audit log again"} {
		log, err := runAuditLog(ctx, d.a, siloID, PageOptions{Limit: defaultTailLimit})
		if err != nil {
			return err
		}
		if err := d.step(title, fmt.Sprintf("silo auditlog --id %d", siloID), log); err != nil {
			return err
		}
	}

	if err := runDelete(ctx, d.a, siloID); err != nil {
		return err
	}
	if err := d.step(fmt.Sprintf("Deleting silo %d", siloID), fmt.Sprintf("silo delete %d", siloID), DeleteResult{SiloID: siloID}); err != nil {
		return err
	}

	if list, err = runList(ctx, d.a, PageOptions{Limit: defaultListLimit}); err != nil {
		return err
	}
	if err := d.step("List current silos", "silo list", list); err != nil {
		return err
	}

	if d.text() {
		fmt.Fprintf(d.w, "\nSummary of demo:\n%s\n", strings.Repeat("=", 80))
		for _, c := range d.commands {
			fmt.Fprintln(d.w, c)
		}
	}
	return nil
}

// demoData returns rows 0..49 for the demo table: personal_id is the last
// digit of the row repeated to fill the column, the measurements are x
// and -x.
func demoData() ([]grid.Column, error) {
	cols, err := parseDescriptors(demoDescriptors)
	if err != nil {
		return nil, err
	}
	for x := range demoRows {
		if err := cols[0].Append(strings.Repeat(fmt.Sprint(x%10), 12)); err != nil {
			return nil, err
		}
		if err := cols[1].Append(int64(x)); err != nil {
			return nil, err
		}
		if err := cols[2].Append(int64(-x)); err != nil {
			return nil, err
		}
	}
	return cols, nil
}
