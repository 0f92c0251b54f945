package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Auth validates the bearer token and stores the numeric user id from the
// Issuer claim under "user_id".
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		authorization := ctx.Request.Header.Get("Authorization")
		raw, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		userClaims, token, err := getClaim(raw, secretKey)
		if err != nil || token == nil || !token.Valid {
			res.ResponseMessage = rejection(err)
			logger.GetLogger().WithField("error", err).Debug("Rejected bearer token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if userClaims.Audience == model.OAuthStateAudience {
			res.ResponseMessage = "OAuth state is not a bearer token"
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if _, err := strconv.ParseInt(userClaims.Issuer, 10, 64); err != nil {
			res.ResponseMessage = "Token does not identify a user"
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		ctx.Set("user_id", userClaims.Issuer)
		ctx.Set("user_name", userClaims.UserName)
		ctx.Next()
	}
}

func rejection(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			// Token is either expired or not active yet
			return "Timing is everything"
		default:
			return fmt.Sprintf("Couldn't handle this token:%v", err)
		}
	}
	return "Unauthorized"
}

func getClaim(raw, secretKey string) (model.UserClaims, *jwt.Token, error) {
	var userClaims model.UserClaims
	token, err := jwt.ParseWithClaims(
		raw,
		&userClaims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
	)
	return userClaims, token, err
}

// UserID reads the authenticated user id set by Auth.
func UserID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.GetString("user_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
