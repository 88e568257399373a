package api

import (
	"errors"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/response"
	"github.com/gin-gonic/gin"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 409:
		resp = response.Conflict(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

// HandleEngineError maps engine sentinels onto HTTP statuses: missing
// entities to 404, addressing mistakes to 400, ordering and concurrency
// conflicts to 409, everything else to 500.
func HandleEngineError(c *gin.Context, logger internal.Logger, err error, msg string) {
	HandleError(c, logger, err, statusFor(err), msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound), errors.Is(err, plan.ErrUserPlanNotFound):
		return 404
	case errors.Is(err, plan.ErrInvalidAddressing):
		return 400
	case errors.Is(err, plan.ErrOutOfOrderAdvance), errors.Is(err, plan.ErrStaleState), errors.Is(err, plan.ErrPlanCompleted):
		return 409
	default:
		return 500
	}
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}
