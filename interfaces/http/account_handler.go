package http

import (
	"net/http"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/logger"
	"content-scheduler/usecase"

	"github.com/gin-gonic/gin"
)

type IAccountHandler interface {
	RefreshAccount(c *gin.Context)
	TestAccount(c *gin.Context)
	OAuthURL(c *gin.Context)
	OAuthCallback(c *gin.Context)
}

type AccountHandler struct {
	tokenRefreshUsecase   usecase.ITokenRefreshUsecase
	accountConnectUsecase usecase.IAccountConnectUsecase
}

func NewAccountHandler(tokenRefreshUsecase usecase.ITokenRefreshUsecase, accountConnectUsecase usecase.IAccountConnectUsecase) IAccountHandler {
	return &AccountHandler{
		tokenRefreshUsecase:   tokenRefreshUsecase,
		accountConnectUsecase: accountConnectUsecase,
	}
}

func (h *AccountHandler) RefreshAccount(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	accountID, valid := int64Param(c, "id")
	if !valid {
		return
	}
	account, err := h.tokenRefreshUsecase.RefreshAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, account)
}

func (h *AccountHandler) TestAccount(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	accountID, valid := int64Param(c, "id")
	if !valid {
		return
	}
	result, err := h.tokenRefreshUsecase.TestAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

func (h *AccountHandler) OAuthURL(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	platform := c.DefaultQuery("platform", model.PlatformTikTok)
	res, err := h.accountConnectUsecase.AuthURL(userID, platform)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// OAuthCallback is public: the signed state identifies the user.
func (h *AccountHandler) OAuthCallback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		logger.GetLogger().
			WithField("platform", c.Param("platform")).
			WithField("error", reason).
			WithField("description", c.Query("error_description")).
			Warn("OAuth consent was not granted")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "authorization denied: " + reason})
		return
	}
	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		badRequest(c, "code and state are required")
		return
	}
	account, err := h.accountConnectUsecase.CompleteConnect(c.Request.Context(), state, code)
	if err != nil {
		fail(c, err)
		return
	}
	logger.GetLogger().
		WithField("account_id", account.ID).
		WithField("user_id", account.UserID).
		WithField("platform", account.Platform).
		Info("Account connected")
	ok(c, account)
}
