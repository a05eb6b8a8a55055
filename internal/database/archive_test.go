package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	mutex     sync.Mutex
	forecasts []string
	resolved  []string
	fail      bool
}

func (f *fakeStore) SaveForecast(_ context.Context, forecast Forecast) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.forecasts = append(f.forecasts, forecast.Period)
	return nil
}

func (f *fakeStore) SaveResolution(_ context.Context, round Forecast) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.resolved = append(f.resolved, round.Period+":"+string(round.Status))
	return nil
}

func TestArchiverWritesInOrder(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)

	archiver.OnForecastCreated(Forecast{Period: "1001"})
	archiver.OnRoundsResolved([]Forecast{
		{Period: "1001", Status: StatusWin},
		{Period: "1002", Status: StatusLoss},
	}, Stats{})
	archiver.OnFeedError(errors.New("ignored"))
	archiver.Close()

	assert.Equal(t, []string{"1001"}, store.forecasts)
	assert.Equal(t, []string{"1001:win", "1002:loss"}, store.resolved)

	// 重复关闭安全
	archiver.Close()
}

func TestArchiverSurvivesStoreErrors(t *testing.T) {
	store := &fakeStore{fail: true}
	archiver := NewArchiver(store)

	archiver.OnForecastCreated(Forecast{Period: "1"})
	archiver.Close()

	assert.Empty(t, store.forecasts)
}

func TestArchiverDropsEventsAfterClose(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)
	archiver.Close()

	assert.NotPanics(t, func() {
		archiver.OnForecastCreated(Forecast{Period: "1"})
		archiver.OnRoundsResolved([]Forecast{{Period: "1", Status: StatusWin}}, Stats{})
	})
	assert.Empty(t, store.forecasts)
	assert.Empty(t, store.resolved)
}

func TestArchiverCloseRacesWithEvents(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				archiver.OnForecastCreated(Forecast{Period: "1"})
			}
		}()
	}

	assert.NotPanics(t, archiver.Close)
	wg.Wait()
}
