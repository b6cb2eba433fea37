package tour

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStopRef(t *testing.T) {
	stops := []*Stop{
		{ID: 2, VenueName: "The Crocodile"},
		{ID: 7, VenueName: "Doug Fir"},
		{ID: 9, VenueName: "The Troubadour"},
	}

	// An exact id match wins even when the same number is a valid position.
	s, ok := ResolveStopRef(2, stops)
	require.True(t, ok)
	assert.Equal(t, int64(2), s.ID)

	// No stop carries id 3, so 3 falls back to the third position.
	s, ok = ResolveStopRef(3, stops)
	require.True(t, ok)
	assert.Equal(t, int64(9), s.ID)

	s, ok = ResolveStopRef(1, stops)
	require.True(t, ok)
	assert.Equal(t, int64(2), s.ID)

	_, ok = ResolveStopRef(4, stops)
	assert.False(t, ok)
	_, ok = ResolveStopRef(0, stops)
	assert.False(t, ok)
	_, ok = ResolveStopRef(-1, stops)
	assert.False(t, ok)
	_, ok = ResolveStopRef(1, nil)
	assert.False(t, ok)
}

func TestStopPredicates(t *testing.T) {
	lat, lon := 47.6, -122.3
	s := &Stop{ID: 1, Latitude: &lat, Longitude: &lon, Status: StatusConfirmed}
	assert.True(t, s.HasCoords())
	assert.True(t, s.Fixed())

	assert.False(t, (&Stop{ID: 2, Latitude: &lat}).HasCoords())
	assert.False(t, (&Stop{ID: 3, Status: StatusHold}).Fixed())
	assert.False(t, (&Stop{ID: 4, Status: StatusPotential}).Fixed())
}

func TestNewSnapshot(t *testing.T) {
	start := NewDay(2025, time.June, 1)
	tr := &Tour{ID: 1, Name: "West Coast Run", ArtistID: 5, StartDate: &start}
	artist := &Artist{ID: 5, Name: "The Midnight Echo", Genres: []string{"indie rock"}}
	stops := []*Stop{
		{ID: 10, TourID: 1, Status: StatusConfirmed},
		{ID: 11, TourID: 1, Status: StatusPotential},
		{ID: 12, TourID: 1, Status: StatusCancelled},
		{ID: 13, TourID: 1, Status: StatusHold},
	}

	snap := NewSnapshot(tr, artist, stops)
	assert.Equal(t, int64(1), snap.TourID)
	assert.Equal(t, "West Coast Run", snap.TourName)
	assert.Equal(t, "The Midnight Echo", snap.ArtistName)
	require.NotNil(t, snap.StartDate)

	// Hold counts as movable; cancelled never enters the snapshot.
	assert.Equal(t, []int64{10}, ids(snap.Confirmed))
	assert.Equal(t, []int64{11, 13}, ids(snap.Potential))
	assert.Equal(t, []int64{10, 11, 13}, ids(snap.All))

	_, ok := snap.Stop(12)
	assert.False(t, ok)
	s, ok := snap.Stop(13)
	require.True(t, ok)
	assert.Equal(t, StatusHold, s.Status)
}

func TestNewSnapshotWithoutArtist(t *testing.T) {
	snap := NewSnapshot(&Tour{ID: 2, Name: "Solo"}, nil, nil)
	assert.Empty(t, snap.ArtistName)
	assert.Empty(t, snap.All)
}

func ids(stops []*Stop) []int64 {
	out := make([]int64, len(stops))
	for i, s := range stops {
		out[i] = s.ID
	}
	return out
}
