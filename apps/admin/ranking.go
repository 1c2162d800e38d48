package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
)

func (cli *commandLine) ranking(class string) error {
	ok, err := cli.schoolSvc.HasClass(context.Background(), class)
	if err != nil {
		return errors.Wrap(err, "checking class")
	}
	if !ok {
		return errors.Errorf("unknown class %q", class)
	}

	rk, err := cli.raportSvc.Ranking(context.Background(), class)
	if err != nil {
		return errors.Wrap(err, "computing ranking")
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s (%d siswa)\n", rk.Class, rk.ClassSize)
	fmt.Fprintln(w, "Rank\tNama\tJumlah\tRata-rata")
	for _, row := range rk.Rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", row.Rank, row.Name, row.Total, row.Average)
	}
	return w.Flush()
}
