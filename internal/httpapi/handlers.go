package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/service"
)

const invalidBody = "Invalid request body."

// Auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	fe := fieldErrors{}
	if strings.TrimSpace(req.Email) == "" {
		fe.add("email", "This field is required.")
	}
	if req.Password == "" {
		fe.add("password", "This field is required.")
	}
	if len(fe) > 0 {
		writeErrors(w, http.StatusBadRequest, fe)
		return
	}

	tok, err := s.Identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt,
		"user":         mapUser(tok.User),
	})
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	u, err := s.Identity.RegisterUser(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, mapUser(u))
}

// Rosters

type createRosterRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateRoster(w http.ResponseWriter, r *http.Request) {
	var req createRosterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	actor := actorFromContext(r.Context())
	roster, err := s.Rosters.CreateRosterWithManager(r.Context(), req.Title, actor.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, mapRoster(roster))
}

type createRosterManagerRequest struct {
	Manager string `json:"manager"`
}

func (s *Server) handleCreateRosterManager(w http.ResponseWriter, r *http.Request) {
	rosterID, ok := pathUUID(w, r, "rosterID")
	if !ok {
		return
	}
	var req createRosterManagerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	managerID, err := uuid.Parse(req.Manager)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, fieldErrors{"manager": "Must be a valid UUID."})
		return
	}

	actor := actorFromContext(r.Context())
	if !s.ensureRosterManager(w, r, rosterID, actor.UserID) {
		return
	}

	rm, err := s.Rosters.CreateRosterManager(r.Context(), rosterID, managerID, &actor.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, rosterManagerDTO{ID: rm.ID, Roster: rm.RosterID, Manager: rm.ManagerID})
}

// ensureRosterManager отвечает 403, если пользователь не управляет ростером.
func (s *Server) ensureRosterManager(w http.ResponseWriter, r *http.Request, rosterID, userID uuid.UUID) bool {
	ok, err := s.Rosters.IsRosterManager(r.Context(), rosterID, userID)
	if err != nil {
		writeFailure(w, r, err)
		return false
	}
	if !ok {
		writeErrors(w, http.StatusForbidden, "Only roster manager can perform this action.")
		return false
	}
	return true
}

// Schedules

type scheduleInput struct {
	User         string `json:"user"`
	ScheduleDate string `json:"schedule_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

type bulkCreateSchedulesRequest struct {
	UserSchedules []scheduleInput `json:"user_schedules"`
}

func (in scheduleInput) parse(prefix string, fe fieldErrors) service.ScheduleEntry {
	var e service.ScheduleEntry
	var err error
	if e.UserID, err = uuid.Parse(in.User); err != nil {
		fe.add(prefix+"user", "Must be a valid UUID.")
	}
	if e.ScheduleDate, err = time.Parse(time.DateOnly, in.ScheduleDate); err != nil {
		fe.add(prefix+"schedule_date", "Date has wrong format. Use YYYY-MM-DD.")
	}
	if e.StartTime, err = time.Parse(time.RFC3339, in.StartTime); err != nil {
		fe.add(prefix+"start_time", "Datetime has wrong format. Use RFC 3339.")
	}
	if e.EndTime, err = time.Parse(time.RFC3339, in.EndTime); err != nil {
		fe.add(prefix+"end_time", "Datetime has wrong format. Use RFC 3339.")
	}
	return e
}

func (s *Server) handleBulkCreateSchedules(w http.ResponseWriter, r *http.Request) {
	rosterID, ok := pathUUID(w, r, "rosterID")
	if !ok {
		return
	}
	var req bulkCreateSchedulesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}

	fe := fieldErrors{}
	entries := make([]service.ScheduleEntry, 0, len(req.UserSchedules))
	for i, in := range req.UserSchedules {
		entries = append(entries, in.parse("user_schedules."+strconv.Itoa(i)+".", fe))
	}
	if len(fe) > 0 {
		writeErrors(w, http.StatusBadRequest, fe)
		return
	}

	actor := actorFromContext(r.Context())
	if !s.ensureRosterManager(w, r, rosterID, actor.UserID) {
		return
	}

	created, err := s.Rosters.BulkCreateRosterUserSchedules(r.Context(), rosterID, entries, &actor.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	out := make([]scheduleDTO, 0, len(created))
	for _, sch := range created {
		out = append(out, mapSchedule(sch))
	}
	writeData(w, http.StatusCreated, out)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	rosterID, ok := pathUUID(w, r, "rosterID")
	if !ok {
		return
	}
	page, err := s.Rosters.ListRosterUserSchedules(
		r.Context(),
		actorFromContext(r.Context()),
		rosterID,
		queryInt(r, "page", 1),
		queryInt(r, "page_size", 0),
	)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSchedulePage(page))
}

type updateScheduleRequest struct {
	ScheduleDate *string `json:"schedule_date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := pathUUID(w, r, "scheduleID")
	if !ok {
		return
	}
	var req updateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}

	fe := fieldErrors{}
	var patch service.SchedulePatch
	if req.ScheduleDate != nil {
		d, err := time.Parse(time.DateOnly, *req.ScheduleDate)
		if err != nil {
			fe.add("schedule_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
		patch.ScheduleDate = &d
	}
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			fe.add("start_time", "Datetime has wrong format. Use RFC 3339.")
		}
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			fe.add("end_time", "Datetime has wrong format. Use RFC 3339.")
		}
		patch.EndTime = &t
	}
	if len(fe) > 0 {
		writeErrors(w, http.StatusBadRequest, fe)
		return
	}

	actor := actorFromContext(r.Context())
	current, err := s.Rosters.GetActiveSchedule(r.Context(), scheduleID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	// чужой ростер для менеджера не виден
	managed, err := s.Rosters.IsRosterManager(r.Context(), current.RosterID, actor.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !managed {
		writeErrors(w, http.StatusNotFound, "No User Schedule Found")
		return
	}

	updated, err := s.Rosters.UpdateRosterUserSchedule(r.Context(), scheduleID, patch, &actor.UserID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSchedule(updated))
}

// Swap requests

type createSwapRequest struct {
	Receiver string `json:"receiver"`
	Schedule string `json:"schedule"`
}

func (s *Server) handleCreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req createSwapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	fe := fieldErrors{}
	receiverID, err := uuid.Parse(req.Receiver)
	if err != nil {
		fe.add("receiver", "Must be a valid UUID.")
	}
	scheduleID, err := uuid.Parse(req.Schedule)
	if err != nil {
		fe.add("schedule", "Must be a valid UUID.")
	}
	if len(fe) > 0 {
		writeErrors(w, http.StatusBadRequest, fe)
		return
	}

	actor := actorFromContext(r.Context())
	if _, err := s.Rosters.GetOwnActiveSchedule(r.Context(), actor.UserID, scheduleID); err != nil {
		writeFailure(w, r, err)
		return
	}

	created, err := s.Swaps.CreateSwapRequest(r.Context(), actor.UserID, receiverID, scheduleID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, mapSwapRequest(created))
}

func (s *Server) handleListSwapRequests(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	page, err := s.Swaps.ListPendingSwapRequests(r.Context(), actor.UserID, queryInt(r, "page", 1), queryInt(r, "page_size", 0))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSwapPage(page))
}

type respondSwapRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleRespondSwapRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "requestID")
	if !ok {
		return
	}
	var req respondSwapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, invalidBody)
		return
	}
	action, err := model.ParseSwapAction(req.Action)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, fieldErrors{"action": err.Error()})
		return
	}

	actor := actorFromContext(r.Context())
	updated, err := s.Swaps.RespondToSwapRequest(r.Context(), requestID, actor.UserID, action)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSwapRequest(updated))
}

// Attendance

func (s *Server) handleCreateAttendance(w http.ResponseWriter, r *http.Request) {
	// запас на остальные поля формы
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeErrors(w, http.StatusBadRequest, "Upload a valid image. Max file size limit is exceeded or the form is malformed.")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fe := fieldErrors{}
	scheduleID, err := uuid.Parse(r.FormValue("roster_user_schedule"))
	if err != nil {
		fe.add("roster_user_schedule", "Must be a valid UUID.")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		fe.add("image", "No file was submitted.")
	}
	if len(fe) > 0 {
		if file != nil {
			_ = file.Close()
		}
		writeErrors(w, http.StatusBadRequest, fe)
		return
	}
	defer file.Close()

	actor := actorFromContext(r.Context())
	a, err := s.Attendance.MarkAttendance(r.Context(), actor.UserID, scheduleID, header.Filename, file)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, mapAttendance(a))
}

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeErrors(w, http.StatusNotFound, "Not found.")
		return uuid.Nil, false
	}
	return id, true
}
