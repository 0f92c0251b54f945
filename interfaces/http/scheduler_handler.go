package http

import (
	"fmt"
	"net/http"
	"strconv"

	"content-scheduler/domain/dto"
	"content-scheduler/infrastructure/logger"
	"content-scheduler/usecase"

	"github.com/gin-gonic/gin"
)

type ISchedulerHandler interface {
	RunNow(c *gin.Context)
	RecentRuns(c *gin.Context)
	ScheduleStats(c *gin.Context)
}

type SchedulerHandler struct {
	schedulerUsecase usecase.ISchedulerUsecase
}

func NewSchedulerHandler(schedulerUsecase usecase.ISchedulerUsecase) ISchedulerHandler {
	return &SchedulerHandler{schedulerUsecase: schedulerUsecase}
}

// RunNow executes one tick immediately; a tick already running elsewhere yields 409.
func (h *SchedulerHandler) RunNow(c *gin.Context) {
	logger.GetLogger().WithField("user_id", c.GetString("user_id")).Info("Manual scheduler run requested")
	report, err := h.schedulerUsecase.RunTick(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if report.Skipped {
		c.JSON(http.StatusConflict, dto.Res{ResponseCode: "409", ResponseMessage: "scheduler tick already in progress", Data: report})
		return
	}
	ok(c, report)
}

func (h *SchedulerHandler) RecentRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usecase.DefaultRecentRuns)))
	if err != nil || limit <= 0 || limit > usecase.MaxRecentRuns {
		badRequest(c, fmt.Sprintf("limit must be between 1 and %d", usecase.MaxRecentRuns))
		return
	}
	reports, err := h.schedulerUsecase.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, reports)
}

func (h *SchedulerHandler) ScheduleStats(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	scheduleID, valid := int64Param(c, "id")
	if !valid {
		return
	}
	stats, err := h.schedulerUsecase.ScheduleStats(c.Request.Context(), userID, scheduleID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stats)
}
