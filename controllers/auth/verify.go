package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/models"
	"taskmarket/utils"

	"gorm.io/gorm"
)

type VerifyRequest struct {
	WorldID           string `json:"world_id" validate:"required"`
	NullifierHash     string `json:"nullifier_hash" validate:"required"`
	MerkleRoot        string `json:"merkle_root" validate:"required"`
	Proof             string `json:"proof" validate:"required"`
	VerificationLevel string `json:"verification_level" validate:"required,oneof=orb device"`
	Action            string `json:"action" validate:"required"`
	Username          *string `json:"username,omitempty"`
}

// VerifyHandler is the only way to create a session. The proof goes to the
// cloud verifier first; a user row is created on first sight of a nullifier
// and reused afterwards. There is no password anywhere in the system.
func VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	proof := utils.WorldIDProof{
		NullifierHash:     req.NullifierHash,
		MerkleRoot:        req.MerkleRoot,
		Proof:             req.Proof,
		VerificationLevel: req.VerificationLevel,
	}
	if err := utils.VerifyWorldIDProof(proof, req.Action); err != nil {
		log.Printf("[auth] proof verification failed action=%s: %v", req.Action, err)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Verification failed", Code: "VERIFICATION_FAILED"})
		return
	}

	db := database.DB

	var user models.User
	err := db.Where("nullifier_hash = ?", req.NullifierHash).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			WorldID:           req.WorldID,
			NullifierHash:     req.NullifierHash,
			Username:          req.Username,
			VerificationLevel: req.VerificationLevel,
			Role:              models.RoleWorker,
			IsActive:          true,
		}
		if err := db.Create(&user).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
	} else if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if !user.IsActive {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Account is deactivated, contact support"})
		return
	}

	// An orb proof upgrades a device account permanently. Never downgrade.
	if req.VerificationLevel == models.VerificationOrb && user.VerificationLevel != models.VerificationOrb {
		if err := db.Model(&user).Update("verification_level", models.VerificationOrb).Error; err == nil {
			user.VerificationLevel = models.VerificationOrb
		}
	}

	accessToken, err := utils.GenerateAccessToken(&user)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to issue session"})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to store refresh token"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Verified",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    time.Now().Add(15 * time.Minute).Unix(),
			"user":          user,
		},
	})
}
