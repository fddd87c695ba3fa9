package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store объединяет репозитории над одним хендлом БД. Внутри транзакции
// все репозитории работают через один и тот же tx.
type Store struct {
	db *gorm.DB

	Users       UserRepository
	Rosters     RosterRepository
	Schedules   ScheduleRepository
	Swaps       SwapRequestRepository
	Attendances AttendanceRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewGormUserRepository(db),
		Rosters:     NewGormRosterRepository(db),
		Schedules:   NewGormScheduleRepository(db),
		Swaps:       NewGormSwapRequestRepository(db),
		Attendances: NewGormAttendanceRepository(db),
	}
}

// Transaction выполняет fn в одной транзакции. Ошибка или паника в fn
// откатывают всё, что было сделано через tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB отдаёт исходный хендл (нужен для health-проверок).
func (s *Store) DB() *gorm.DB {
	return s.db
}
