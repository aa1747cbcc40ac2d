package main

import (
	"fmt"
	"os"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/user"
	logsvc "github.com/trezcool/educa/services/logger"
	"github.com/trezcool/educa/storage/database"
	sqlxrepos "github.com/trezcool/educa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger("ADMIN : ", conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		engine: db.DriverName(),
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Std().Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
