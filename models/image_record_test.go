package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectedObject_UnmarshalJSON_ObjectDescription(t *testing.T) {
	payload := `{
		"bbox": [10.5, 20.0, 110.5, 220.0],
		"label": "tree",
		"confidence": 0.93,
		"fragment_url": "http://minio:9000/frag/1.jpg",
		"description": {
			"scene": {"season_inferred": "summer", "note": "single birch in a park"},
			"object": {
				"type": "tree",
				"species": {"label_ru": "береза", "confidence": 80},
				"condition": {"tree_status": "alive", "dry_branches_pct": 15},
				"risk": {"level": "low"}
			}
		}
	}`

	var obj DetectedObject
	require.NoError(t, json.Unmarshal([]byte(payload), &obj))

	assert.Equal(t, []float64{10.5, 20.0, 110.5, 220.0}, obj.BBox)
	assert.Equal(t, "tree", obj.Label)
	assert.InDelta(t, 0.93, obj.Confidence, 0.001)
	require.NotNil(t, obj.FragmentURL)
	require.NotNil(t, obj.Description)
	require.NotNil(t, obj.Description.Object)
	require.NotNil(t, obj.Description.Object.Condition)
	require.NotNil(t, obj.Description.Object.Condition.DryBranchesPct)
	assert.Equal(t, 15, *obj.Description.Object.Condition.DryBranchesPct)
	require.NotNil(t, obj.Description.Object.Risk)
	assert.Equal(t, "low", *obj.Description.Object.Risk.Level)
}

func TestDetectedObject_UnmarshalJSON_ToleratesNonObjectDescriptions(t *testing.T) {
	tests := []struct {
		name        string
		description string
	}{
		{"string", `"raw model output"`},
		{"null", `null`},
		{"number", `42`},
		{"array", `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"bbox":[0,0,1,1],"label":"tree","confidence":0.5,"description":` + tt.description + `}`
			var obj DetectedObject
			require.NoError(t, json.Unmarshal([]byte(payload), &obj))
			assert.Nil(t, obj.Description)
			assert.Equal(t, "tree", obj.Label)
		})
	}
}

func TestDetectedObject_UnmarshalJSON_AbsentDescription(t *testing.T) {
	var obj DetectedObject
	require.NoError(t, json.Unmarshal([]byte(`{"bbox":[0,0,1,1],"label":"stump","confidence":0.7}`), &obj))
	assert.Nil(t, obj.Description)
}

func TestImageRecord_RoundTripStatusHelpers(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusFailed))
	assert.True(t, IsTerminalStatus(StatusError))
	assert.False(t, IsTerminalStatus(StatusUploaded))
	assert.False(t, IsTerminalStatus(StatusProcessing))
}

func TestImageRecord_UnmarshalNestedObjects(t *testing.T) {
	payload := `{
		"id": 3,
		"filename": "oak.jpg",
		"processing_status": "completed",
		"description_text": "an oak with visible hollows",
		"detected_objects": [
			{"bbox":[0,0,50,50],"label":"tree","confidence":0.88,"description":{"object":{"risk":{"level":"medium"}}}},
			{"bbox":[60,0,120,50],"label":"tree","confidence":0.81,"description":"broken"}
		]
	}`

	var record ImageRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &record))

	require.Len(t, record.DetectedObjects, 2)
	require.NotNil(t, record.DetectedObjects[0].Description)
	assert.Nil(t, record.DetectedObjects[1].Description, "malformed description must not poison the record")
	require.NotNil(t, record.DescriptionText)
}
