package controller

import (
	"errors"
	"net/http"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/service"
	"sat_prep_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

type SubmitAttemptRequest struct {
	QuestionOutcomes []model.QuestionOutcome `json:"questionOutcomes"`
	EndTime          *time.Time              `json:"endTime,omitempty"`
	Status           model.AttemptStatus     `json:"status,omitempty"` // 默认 completed
}

// @Summary 开始或恢复一次测试尝试
// @Tags 测试尝试
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 201 {object} util.Response
// @Failure 403 {object} util.Response "配额用尽"
// @Router /api/tests/{id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	testID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	attempt, err := c.AttemptService.StartAttempt(user.UserID, uint(testID))
	if err != nil {
		var quotaErr *service.QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			ctx.JSON(http.StatusForbidden, util.Response{
				Code:    http.StatusForbidden,
				Message: quotaErr.Error(),
				Data:    quotaErr,
			})
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrUserNotFound):
			util.Unauthorized(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, attempt)
}

// @Summary 提交一次测试尝试
// @Tags 测试尝试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "尝试ID"
// @Param body body SubmitAttemptRequest true "逐题作答结果"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "非本人的尝试"
// @Failure 409 {object} util.Response "重复提交"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.SubmitAttempt(uint(attemptID), user.UserID, req.QuestionOutcomes, req.EndTime, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrAttemptAlreadyFinished):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrInvalidAttemptStatus):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// @Summary 查询某测试的尝试余量
// @Tags 测试尝试
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id}/attempts/status [get]
func (c *AttemptController) GetAttemptStatus(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	testID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	report, err := c.AttemptService.GetAttemptStatus(user.UserID, uint(testID))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.Unauthorized(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
