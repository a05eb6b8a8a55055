package database

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryResponseAcceptsNumbers(t *testing.T) {
	body := `{"code":0,"msg":"Succeed","serviceTime":1700000000000,"data":{"list":[
		{"issueNumber":20240101100010001,"number":7,"color":"green"},
		{"issueNumber":"20240101100010000","number":null,"premium":"3421"}
	]}}`

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.Equal(t, "0", resp.Code.String())
	assert.Equal(t, "1700000000000", resp.ServiceTime.String())
	require.Len(t, resp.Data.List, 2)
	assert.Equal(t, "20240101100010001", resp.Data.List[0].IssueNumber.String())
	assert.Equal(t, "7", resp.Data.List[0].Outcome())
	assert.Equal(t, "3421", resp.Data.List[1].Outcome())
}

func TestTextRejectsObjects(t *testing.T) {
	var text Text
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &text))
}

func TestStatusLetters(t *testing.T) {
	assert.Equal(t, "W", StatusWin.Letter())
	assert.Equal(t, "L", StatusLoss.Letter())
	assert.Equal(t, "P", StatusPending.Letter())
	assert.True(t, StatusLoss.Resolved())
	assert.False(t, StatusPending.Resolved())
}

func TestForecastJSON(t *testing.T) {
	data, err := json.Marshal(Forecast{
		Period:             "1",
		Prediction:         "7",
		PredictionCategory: CategoryBig,
		Confidence:         80,
		RankedPredictions:  []RankedPick{{Number: "7"}},
		Status:             StatusPending,
	})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "pending", fields["status"])
	assert.NotContains(t, fields, "actual")
	assert.NotContains(t, fields, "CreatedAt")
}
