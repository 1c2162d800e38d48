package main

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
)

func (cli *commandLine) importStudents(path string) error {
	r, err := cli.openInput(path)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer func() { _ = r.Close() }()

	text, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	n, err := cli.schoolSvc.ImportStudents(context.Background(), string(text))
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	fmt.Fprintf(cli.out, "%d students imported\n", n)
	return nil
}
