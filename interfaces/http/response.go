package http

import (
	"errors"
	"net/http"
	"strconv"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "OK", Data: data})
}

// fail maps domain errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConfigurationGap):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrTokenUnavailable):
		status = http.StatusConflict
	case errors.Is(err, model.ErrUpstreamRejected):
		status = http.StatusBadGateway
	case errors.Is(err, model.ErrTransientIO):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.GetLogger().WithField("path", c.FullPath()).WithField("error", err).Error("Request failed")
	}
	c.JSON(status, dto.Res{ResponseCode: strconv.Itoa(status), ResponseMessage: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: message})
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetString("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"})
		return 0, false
	}
	return id, true
}
