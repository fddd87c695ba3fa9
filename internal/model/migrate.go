package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ростеров.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserRole{},
		&Roster{},
		&RosterManager{},
		&RosterUserSchedule{},
		&ScheduleSwapRequest{},
		&Attendance{},
	)
}
