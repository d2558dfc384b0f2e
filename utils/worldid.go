package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const WorldIDBaseURL = "https://developer.worldcoin.org"

// WorldIDError represents a verifier API rejection.
type WorldIDError struct {
	Code     string
	Detail   string
	HTTPCode int
}

func (e *WorldIDError) Error() string {
	return fmt.Sprintf("world id error [%s]: %s", e.Code, e.Detail)
}

type WorldIDProof struct {
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
}

type worldIDVerifyRequest struct {
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action"`
	SignalHash        string `json:"signal_hash,omitempty"`
}

type worldIDVerifyResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
}

var worldIDClient = &http.Client{Timeout: 10 * time.Second}

// VerifyWorldIDProof submits a zero-knowledge proof to the cloud verifier.
// Any outcome other than an explicit success is a rejection; timeouts and
// transport failures never fall through to "verified".
func VerifyWorldIDProof(proof WorldIDProof, action string) error {
	appID := os.Getenv("WORLD_APP_ID")
	if appID == "" {
		return fmt.Errorf("WORLD_APP_ID not set")
	}

	reqBody := worldIDVerifyRequest{
		NullifierHash:     proof.NullifierHash,
		MerkleRoot:        proof.MerkleRoot,
		Proof:             proof.Proof,
		VerificationLevel: proof.VerificationLevel,
		Action:            action,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/verify/%s", WorldIDBaseURL, appID)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := worldIDClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var vr worldIDVerifyResponse
		_ = json.Unmarshal(body, &vr)
		return &WorldIDError{Code: vr.Code, Detail: vr.Detail, HTTPCode: resp.StatusCode}
	}

	var vr worldIDVerifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !vr.Success {
		return &WorldIDError{Code: vr.Code, Detail: vr.Detail, HTTPCode: resp.StatusCode}
	}
	return nil
}
