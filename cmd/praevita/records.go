package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored observations",
		RunE:  runRecords,
	}

	cmd.Flags().Bool("pending", false, "only show observations awaiting prediction")

	return cmd
}

func runRecords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	pendingOnly, _ := cmd.Flags().GetBool("pending")

	records, err := store.GetAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tDISTRICT\tPERIOD\tCHOLERA\tTYPHOID\tPROJ CHOLERA\tPROJ TYPHOID")
	shown := 0
	for _, r := range records {
		if pendingOnly && r.Predicted() {
			continue
		}
		projCholera, projTyphoid := "-", "-"
		if r.Predicted() {
			projCholera = fmt.Sprintf("%d", *r.ProjectedCholera)
			projTyphoid = fmt.Sprintf("%d", *r.ProjectedTyphoid)
		}
		fmt.Fprintf(w, "%s\t%s\t%d-%02d\t%d\t%d\t%s\t%s\n",
			r.Region, r.District, r.Year, r.Month,
			r.CholeraCases, r.TyphoidCases, projCholera, projTyphoid)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d records\n", shown)
	return nil
}
