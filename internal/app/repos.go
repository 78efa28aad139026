package app

import (
	"gorm.io/gorm"

	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/repos"
)

type Repos struct {
	Park         repos.ParkRepo
	Facts        repos.FactsRepo
	FactsVersion repos.FactsVersionRepo
	Lead         repos.LeadRepo
	KBSource     repos.KBSourceRepo
	KBJob        repos.KBJobRepo
	KBIndex      repos.KBIndexRepo
	ChangeLog    repos.ChangeLogRepo
	EventLog     repos.EventLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Park:         repos.NewParkRepo(db, log),
		Facts:        repos.NewFactsRepo(db, log),
		FactsVersion: repos.NewFactsVersionRepo(db, log),
		Lead:         repos.NewLeadRepo(db, log),
		KBSource:     repos.NewKBSourceRepo(db, log),
		KBJob:        repos.NewKBJobRepo(db, log),
		KBIndex:      repos.NewKBIndexRepo(db, log),
		ChangeLog:    repos.NewChangeLogRepo(db, log),
		EventLog:     repos.NewEventLogRepo(db, log),
	}
}
