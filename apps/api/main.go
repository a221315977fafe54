package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/prepdesk/backend/apps/api/echo"
	"github.com/prepdesk/backend/core"
	"github.com/prepdesk/backend/core/collab"
	"github.com/prepdesk/backend/core/section"
	"github.com/prepdesk/backend/core/testconfig"
	"github.com/prepdesk/backend/core/user"
	"github.com/prepdesk/backend/core/visibility"
	dirsvc "github.com/prepdesk/backend/services/directory"
	emailsvc "github.com/prepdesk/backend/services/email"
	logsvc "github.com/prepdesk/backend/services/logger"
	"github.com/prepdesk/backend/storage/database"
	sqlxrepos "github.com/prepdesk/backend/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" - ", log.LstdFlags|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	sqlDB, err := database.Open(core.Conf)
	errAndDie(err)
	defer sqlDB.Close()
	db := sqlx.NewDb(sqlDB, "postgres")

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	sectionSvc := section.NewService(sqlxrepos.NewSectionRepository(db))
	configSvc := testconfig.NewService(sqlxrepos.NewConfigRepository(db))
	visibilitySvc := visibility.NewService(sqlxrepos.NewVisibilityRepository(db))
	collabSvc := collab.NewService(
		sqlxrepos.NewCollabRepository(db), dirsvc.NewUserDirectory(usrSvc), mailSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Addr(),
			UserSvc:       usrSvc,
			SectionSvc:    sectionSvc,
			ConfigSvc:     configSvc,
			VisibilitySvc: visibilitySvc,
			CollabSvc:     collabSvc,
			Logger:        logger,
		},
	)
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
