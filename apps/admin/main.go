package main

import (
	"log"
	"os"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/raport"
	"github.com/trezcool/raport/core/school"
	emailsvc "github.com/trezcool/raport/services/email"
	exportsvc "github.com/trezcool/raport/services/export"
	"github.com/trezcool/raport/storage/database"
	sqlxrepos "github.com/trezcool/raport/storage/database/sqlx"
)

var logger *log.Logger

// The admin CLI always works on the relational store.
func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))

	// start CLI
	cli := commandLine{
		db:        db,
		schoolSvc: schoolSvc,
		raportSvc: raport.NewService(schoolSvc, exportsvc.NewWriter(), emailsvc.NewConsoleService(conf)),
		stdin:     os.Stdin,
		out:       os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatalf("%+v", err)
	}
}
