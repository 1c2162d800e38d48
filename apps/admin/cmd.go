package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/raport/core/raport"
	"github.com/trezcool/raport/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	schoolSvc *school.Service
	raportSvc *raport.Service
	stdin     io.Reader
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]       - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  importstudents -file PATH    - import \"Kelas, Nama, NIPD, JK, NISN\" lines (\"-\" reads stdin)")
	fmt.Fprintln(cli.out, "  hashpassword                 - print the bcrypt hash of a password, for the auth config")
	fmt.Fprintln(cli.out, "  ranking -class CLASS         - print the ranking of a class")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importCmd.SetOutput(cli.out)
	importFile := importCmd.String("file", "", "The file to import students from; \"-\" reads stdin.")

	rankingCmd := flag.NewFlagSet("ranking", flag.ContinueOnError)
	rankingCmd.SetOutput(cli.out)
	rankingClass := rankingCmd.String("class", "", "The class to rank.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importFile)
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)
	case "ranking":
		if err := rankingCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rankingClass == "" {
			rankingCmd.Usage()
			return errHelp
		}
		return cli.ranking(*rankingClass)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cli.stdin), nil
	}
	return os.Open(path)
}
