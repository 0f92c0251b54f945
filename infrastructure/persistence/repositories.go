package persistence

import (
	"database/sql"
	"strings"

	"content-scheduler/domain/repository"
)

const VendorMSSQL = "mssql"

// Repositories groups the SQL-backed stores for one vendor.
type Repositories struct {
	Schedules   repository.ISchedule
	Videos      repository.IVideo
	Accounts    repository.IAccount
	PublishLogs repository.IPublishLog
}

// NewRepositories picks the dialect for the opened database and ensures its schema.
func NewRepositories(db *sql.DB, vendor string) (*Repositories, error) {
	if strings.EqualFold(vendor, VendorMSSQL) {
		if err := EnsureSchedulerSchemaMSSQL(db); err != nil {
			return nil, err
		}
		return &Repositories{
			Schedules:   NewScheduleRepositoryMSSQL(db),
			Videos:      NewVideoRepositoryMSSQL(db),
			Accounts:    NewAccountRepositoryMSSQL(db),
			PublishLogs: NewPublishLogRepositoryMSSQL(db),
		}, nil
	}
	if err := EnsureSchedulerSchema(db); err != nil {
		return nil, err
	}
	return &Repositories{
		Schedules:   NewScheduleRepository(db),
		Videos:      NewVideoRepository(db),
		Accounts:    NewAccountRepository(db),
		PublishLogs: NewPublishLogRepository(db),
	}, nil
}
