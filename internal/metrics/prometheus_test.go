package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadex-ai/internal/database"
)

func TestRecorderListener(t *testing.T) {
	r := NewRecorder()

	r.OnForecastCreated(database.Forecast{Period: "1"})
	r.OnForecastCreated(database.Forecast{Period: "2"})
	r.OnFeedError(errors.New("timeout"))
	r.OnRoundsResolved([]database.Forecast{
		{Period: "1", Status: database.StatusWin},
		{Period: "2", Status: database.StatusLoss},
		{Period: "3", Status: database.StatusWin},
	}, database.Stats{WinRate: 67, TotalWins: 2, TotalLosses: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecastsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.feedErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.roundsResolved.WithLabelValues("win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.roundsResolved.WithLabelValues("loss")))
	assert.Equal(t, 67.0, testutil.ToFloat64(r.winRate))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.totalWins))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.totalLosses))
}

func TestRecorderRequests(t *testing.T) {
	r := NewRecorder()

	r.RecordAction("getStats", "OK")
	r.RecordAction("", "Request Failed")
	r.RecordRequest("/user/Game/api.php", "POST", 200, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionRequests.WithLabelValues("getStats", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actionRequests.WithLabelValues("none", "Request Failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.requestDuration))
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder()
	r.OnForecastCreated(database.Forecast{})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "shadex_forecasts_created_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
