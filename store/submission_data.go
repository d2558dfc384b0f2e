package store

import (
	"encoding/json"
	"fmt"

	"taskmarket/models"
)

// Submission payloads vary by task type. Each variant is validated at the
// boundary and stored as JSON; unknown task types fall through to an opaque
// payload so new task types can ship without a schema change.

type pairwiseRatingData struct {
	PromptID string `json:"prompt_id"`
	Chosen   string `json:"chosen"`
	Rejected string `json:"rejected"`
	Rating   *int   `json:"rating,omitempty"`
}

type voiceRecordingData struct {
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds"`
	Language        string  `json:"language,omitempty"`
}

type annotationData struct {
	ItemID string            `json:"item_id"`
	Labels map[string]string `json:"labels"`
}

// ValidateSubmissionData checks the payload shape for the given task type.
// The payload itself stays opaque past this point.
func ValidateSubmissionData(taskType string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return Validation("submission_data is required")
	}
	switch taskType {
	case models.TaskTypePairwiseRating:
		var d pairwiseRatingData
		if err := json.Unmarshal(raw, &d); err != nil {
			return Validation("invalid pairwise rating payload")
		}
		if d.PromptID == "" || d.Chosen == "" || d.Rejected == "" {
			return Validation("pairwise rating requires prompt_id, chosen and rejected")
		}
		if d.Chosen == d.Rejected {
			return Validation("chosen and rejected responses must differ")
		}
		if d.Rating != nil && (*d.Rating < 1 || *d.Rating > 10) {
			return Validation("rating must be between 1 and 10")
		}
	case models.TaskTypeVoiceRecording:
		var d voiceRecordingData
		if err := json.Unmarshal(raw, &d); err != nil {
			return Validation("invalid voice recording payload")
		}
		if d.DurationSeconds <= 0 {
			return Validation("duration_seconds must be positive")
		}
	case models.TaskTypeAnnotation:
		var d annotationData
		if err := json.Unmarshal(raw, &d); err != nil {
			return Validation("invalid annotation payload")
		}
		if d.ItemID == "" || len(d.Labels) == 0 {
			return Validation("annotation requires item_id and at least one label")
		}
	default:
		// Opaque fallback: must at least be a JSON object.
		var d map[string]json.RawMessage
		if err := json.Unmarshal(raw, &d); err != nil {
			return Validation(fmt.Sprintf("submission_data for %s tasks must be a JSON object", taskType))
		}
	}
	return nil
}
