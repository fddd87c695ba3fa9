package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
)

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Name      string    `json:"name"`
}

func mapUser(u *model.User) *userDTO {
	if u == nil {
		return nil
	}
	return &userDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Name: u.FullName()}
}

type rosterDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	IsActive    bool      `json:"is_active"`
	DateCreated time.Time `json:"date_created"`
}

func mapRoster(r *model.Roster) rosterDTO {
	return rosterDTO{ID: r.ID, Title: r.Title, IsActive: r.IsActive, DateCreated: r.DateCreated}
}

type rosterManagerDTO struct {
	ID      uuid.UUID `json:"id"`
	Roster  uuid.UUID `json:"roster"`
	Manager uuid.UUID `json:"manager"`
}

type scheduleDTO struct {
	ID           uuid.UUID `json:"id"`
	User         uuid.UUID `json:"user"`
	Roster       uuid.UUID `json:"roster"`
	ScheduleDate string    `json:"schedule_date"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

func mapSchedule(s *model.RosterUserSchedule) scheduleDTO {
	return scheduleDTO{
		ID:           s.ID,
		User:         s.UserID,
		Roster:       s.RosterID,
		ScheduleDate: model.FormatDate(s.ScheduleDate),
		StartTime:    s.StartTime.UTC(),
		EndTime:      s.EndTime.UTC(),
	}
}

func mapSchedulePage(p calendar.Page[model.RosterUserSchedule]) calendar.Page[scheduleDTO] {
	items := make([]scheduleDTO, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, mapSchedule(&p.Items[i]))
	}
	return calendar.Page[scheduleDTO]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}

type swapRequestDTO struct {
	ID             uuid.UUID    `json:"id"`
	Sender         uuid.UUID    `json:"sender"`
	Receiver       uuid.UUID    `json:"receiver"`
	Status         string       `json:"status"`
	RequestDate    time.Time    `json:"request_date"`
	SenderSchedule *scheduleDTO `json:"sender_schedule,omitempty"`
}

func mapSwapRequest(r *model.ScheduleSwapRequest) swapRequestDTO {
	dto := swapRequestDTO{
		ID:          r.ID,
		Sender:      r.SenderID,
		Receiver:    r.ReceiverID,
		Status:      r.Status.String(),
		RequestDate: r.DateCreated,
	}
	if r.SenderSchedule != nil {
		sch := mapSchedule(r.SenderSchedule)
		dto.SenderSchedule = &sch
	}
	return dto
}

func mapSwapPage(p calendar.Page[model.ScheduleSwapRequest]) calendar.Page[swapRequestDTO] {
	items := make([]swapRequestDTO, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, mapSwapRequest(&p.Items[i]))
	}
	return calendar.Page[swapRequestDTO]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}

type attendanceDTO struct {
	ID                 uuid.UUID `json:"id"`
	RosterUserSchedule uuid.UUID `json:"roster_user_schedule"`
	CaptureImage       string    `json:"capture_image"`
	Time               time.Time `json:"time"`
}

func mapAttendance(a *model.Attendance) attendanceDTO {
	return attendanceDTO{ID: a.ID, RosterUserSchedule: a.RosterUserScheduleID, CaptureImage: a.CaptureImage, Time: a.Time.UTC()}
}
