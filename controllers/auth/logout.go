package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"taskmarket/utils"

	"github.com/golang-jwt/jwt/v5"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler revokes a specific refresh token and the access token jti
// from the Authorization header.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	if req.RefreshToken == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "refresh_token is required"})
		return
	}

	if tokenStr, err := utils.BearerToken(r); err == nil {
		blacklistAccessToken(tokenStr)
	}
	// errors parsing the access token never block refresh-token revocation

	// A missing row still answers 200 to avoid token enumeration.
	_ = utils.RevokeRefreshToken(req.RefreshToken)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}

func blacklistAccessToken(tokenStr string) {
	jti := utils.ExtractJTI(tokenStr)
	if jti == "" {
		return
	}
	var ttl time.Duration
	parser := jwt.NewParser()
	if tkn, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{}); err == nil {
		if claims, ok := tkn.Claims.(jwt.MapClaims); ok {
			if expRaw, ok := claims["exp"].(float64); ok {
				ttl = time.Until(time.Unix(int64(expRaw), 0))
			}
		}
	}
	if ttl < 0 {
		ttl = 0
	}
	_ = utils.RevokeJTI(jti, ttl)
}
