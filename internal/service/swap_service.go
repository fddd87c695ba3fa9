package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
	"github.com/Leganyst/rollcall/internal/rules"
)

const (
	msgSwapNotFound  = "No swap request found with given data"
	msgSwapDuplicate = "A swap request already exists."
)

// SwapService ведёт заявки на обмен сменами: PENDING -> ACCEPTED | REJECTED.
type SwapService struct {
	base
	rosters *RosterService
}

func NewSwapService(store *repository.Store, rosters *RosterService, opts ...Option) *SwapService {
	return &SwapService{base: newBase("swap", store, opts), rosters: rosters}
}

// CreateSwapRequest создаёт PENDING-заявку отправителя senderID на смену scheduleID.
func (s *SwapService) CreateSwapRequest(ctx context.Context, senderID, receiverID, scheduleID uuid.UUID) (req *model.ScheduleSwapRequest, err error) {
	defer func() {
		err = s.finish(ctx, "create_swap_request", err,
			"sender_id", senderID, "receiver_id", receiverID, "schedule_id", scheduleID)
	}()

	schedule, err := s.store.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get schedule", "No schedule found for given data", "")
	}

	receiver, err := s.store.Users.GetUser(ctx, receiverID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get receiver", "No receiver found for given data", "")
	}
	if receiver.Deleted() {
		return nil, apperr.NotFound("No receiver found for given data")
	}

	reciprocal, err := s.store.Swaps.ExistsPendingOnDate(ctx, receiverID, senderID, schedule.ScheduleDate)
	if err != nil {
		return nil, fmt.Errorf("check reciprocal request: %w", err)
	}

	receiverScheduled := true
	if _, err := s.store.Schedules.FindActiveForUserOnDate(ctx, receiverID, schedule.ScheduleDate, false); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find receiver schedule: %w", err)
		}
		receiverScheduled = false
	}

	req = &model.ScheduleSwapRequest{
		SenderID:         senderID,
		ReceiverID:       receiverID,
		SenderScheduleID: scheduleID,
		Status:           model.SwapStatusPending,
		Audit:            model.Audit{CreatedByID: &senderID},
	}
	err = rules.ValidateSwapRequest(req, rules.SwapFacts{
		Now:               s.clock(),
		SenderSchedule:    schedule,
		ReciprocalPending: reciprocal,
		ReceiverScheduled: receiverScheduled,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Swaps.ExistsActive(ctx, senderID, receiverID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("check swap duplicate: %w", err)
	}
	if exists {
		return nil, apperr.Duplicate(msgSwapDuplicate)
	}

	if err := s.store.Swaps.Create(ctx, req); err != nil {
		return nil, apperr.FromStorage(err, "create swap request", msgSwapNotFound, msgSwapDuplicate)
	}
	req.SenderSchedule = schedule
	return req, nil
}

// RespondToSwapRequest принимает или отклоняет заявку получателем receiverID.
// Принятие меняет смены местами; всё выполняется в одной транзакции.
func (s *SwapService) RespondToSwapRequest(
	ctx context.Context,
	requestID, receiverID uuid.UUID,
	action model.SwapAction,
) (req *model.ScheduleSwapRequest, err error) {
	defer func() {
		err = s.finish(ctx, "respond_swap_request", err,
			"request_id", requestID, "receiver_id", receiverID, "action", string(action))
	}()

	target := action.TargetStatus()
	swapped := 0

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		found, err := tx.Swaps.FindPendingForReceiver(ctx, requestID, receiverID, true)
		if err != nil {
			return apperr.FromStorage(err, "find swap request", msgSwapNotFound, "")
		}
		senderSchedule := found.SenderSchedule
		if senderSchedule == nil {
			return apperr.NotFound(msgSwapNotFound)
		}

		now := s.clock()
		if err := rules.ValidateSwapTransition(found.Status, target, senderSchedule.StartTime, now); err != nil {
			return err
		}

		n, err := tx.Swaps.ClosePending(ctx, found.ID, target, &receiverID, now)
		if err != nil {
			return fmt.Errorf("close swap request: %w", err)
		}
		if n == 0 {
			// заявку уже закрыл параллельный запрос
			return apperr.NotFound(msgSwapNotFound)
		}
		found.Status = target
		found.MarkDeleted(now, &receiverID)
		req = found

		if target != model.SwapStatusAccepted {
			return nil
		}

		receiverSchedule, err := tx.Schedules.FindActiveForUserOnDate(ctx, receiverID, senderSchedule.ScheduleDate, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.InconsistentState("No schedule found for receiver")
			}
			return fmt.Errorf("find receiver schedule: %w", err)
		}

		n, err = tx.Schedules.SoftDeleteMany(ctx, []uuid.UUID{senderSchedule.ID, receiverSchedule.ID}, &receiverID, now)
		if err != nil {
			return fmt.Errorf("archive swapped schedules: %w", err)
		}
		if n != 2 {
			return apperr.InconsistentState("Swapped schedules changed concurrently")
		}

		// каждая новая смена остаётся в ростере той строки, которую заменяет
		byRoster := map[uuid.UUID][]ScheduleEntry{}
		order := []uuid.UUID{}
		add := func(rosterID uuid.UUID, e ScheduleEntry) {
			if _, ok := byRoster[rosterID]; !ok {
				order = append(order, rosterID)
			}
			byRoster[rosterID] = append(byRoster[rosterID], e)
		}
		add(receiverSchedule.RosterID, ScheduleEntry{
			UserID:       senderSchedule.UserID,
			ScheduleDate: receiverSchedule.Date(),
			StartTime:    receiverSchedule.StartTime,
			EndTime:      receiverSchedule.EndTime,
		})
		add(senderSchedule.RosterID, ScheduleEntry{
			UserID:       receiverSchedule.UserID,
			ScheduleDate: senderSchedule.Date(),
			StartTime:    senderSchedule.StartTime,
			EndTime:      senderSchedule.EndTime,
		})

		for _, rosterID := range order {
			created, err := s.rosters.BulkCreateInTx(ctx, tx, rosterID, byRoster[rosterID], &receiverID)
			if err != nil {
				return err
			}
			swapped += len(created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.swapResolved(target.String())
	s.metrics.addSchedules(swapped)
	return req, nil
}

// ListPendingSwapRequests возвращает активные PENDING-заявки получателя, новые первыми.
func (s *SwapService) ListPendingSwapRequests(
	ctx context.Context,
	receiverID uuid.UUID,
	page, pageSize int,
) (result calendar.Page[model.ScheduleSwapRequest], err error) {
	defer func() { err = s.finish(ctx, "list_pending_swap_requests", err, "receiver_id", receiverID) }()

	limit, offset, page, pageSize := calendar.Window(page, pageSize)
	items, total, err := s.store.Swaps.ListPendingForReceiver(ctx, receiverID, limit, offset)
	if err != nil {
		return result, fmt.Errorf("list swap requests: %w", err)
	}
	return calendar.NewPage(items, total, page, pageSize), nil
}
