package store

import (
	"encoding/json"
	"testing"

	"taskmarket/models"
)

func TestValidateSubmissionDataPairwise(t *testing.T) {
	good := json.RawMessage(`{"prompt_id":"p1","chosen":"a","rejected":"b","rating":7}`)
	if err := ValidateSubmissionData(models.TaskTypePairwiseRating, good); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	bad := []string{
		`{"chosen":"a","rejected":"b"}`,
		`{"prompt_id":"p1","chosen":"a","rejected":"a"}`,
		`{"prompt_id":"p1","chosen":"a","rejected":"b","rating":11}`,
		`not json`,
	}
	for _, payload := range bad {
		if err := ValidateSubmissionData(models.TaskTypePairwiseRating, json.RawMessage(payload)); err == nil {
			t.Fatalf("payload %q accepted", payload)
		}
	}
}

func TestValidateSubmissionDataVoice(t *testing.T) {
	good := json.RawMessage(`{"transcript":"hello","duration_seconds":4.2}`)
	if err := ValidateSubmissionData(models.TaskTypeVoiceRecording, good); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	zero := json.RawMessage(`{"transcript":"hello","duration_seconds":0}`)
	if err := ValidateSubmissionData(models.TaskTypeVoiceRecording, zero); err == nil {
		t.Fatal("zero duration accepted")
	}
}

func TestValidateSubmissionDataAnnotation(t *testing.T) {
	good := json.RawMessage(`{"item_id":"i1","labels":{"sentiment":"positive"}}`)
	if err := ValidateSubmissionData(models.TaskTypeAnnotation, good); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	empty := json.RawMessage(`{"item_id":"i1","labels":{}}`)
	if err := ValidateSubmissionData(models.TaskTypeAnnotation, empty); err == nil {
		t.Fatal("empty labels accepted")
	}
}

func TestValidateSubmissionDataCustomFallback(t *testing.T) {
	if err := ValidateSubmissionData(models.TaskTypeCustom, json.RawMessage(`{"anything":1}`)); err != nil {
		t.Fatalf("custom object rejected: %v", err)
	}
	if err := ValidateSubmissionData(models.TaskTypeCustom, json.RawMessage(`[1,2,3]`)); err == nil {
		t.Fatal("non-object custom payload accepted")
	}
	if err := ValidateSubmissionData(models.TaskTypeCustom, nil); err == nil {
		t.Fatal("empty payload accepted")
	}
}
