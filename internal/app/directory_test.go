package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaret/interp/internal/adapters/booth"
	"github.com/dmaret/interp/internal/domain"
)

func newTestDirectory(t *testing.T, booths ...domain.BoothID) *Directory {
	t.Helper()
	d := NewDirectory()
	for _, bid := range booths {
		d.AddBooth(bid, booth.NewSim("test", 0))
	}
	return d
}

func TestRegisterRoomRejectsDuplicates(t *testing.T) {
	d := newTestDirectory(t)

	require.NoError(t, d.RegisterRoom("client-a", 1))

	// Same client cannot claim a second room.
	assert.ErrorIs(t, d.RegisterRoom("client-a", 2), ErrAlreadyRegistered)

	// Another client cannot claim the same room.
	assert.ErrorIs(t, d.RegisterRoom("client-b", 1), ErrAlreadyRegistered)

	rid, ok := d.RoomOf("client-a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID(1), rid)
}

func TestBindRequiresClientAndKnownBooth(t *testing.T) {
	d := newTestDirectory(t, 10)

	_, _, err := d.Bind(1, 10)
	assert.ErrorIs(t, err, ErrUnknownRoom)

	require.NoError(t, d.RegisterRoom("client-a", 1))

	_, _, err = d.Bind(1, 99)
	assert.ErrorIs(t, err, ErrUnknownBooth)

	_, hadPrev, err := d.Bind(1, 10)
	require.NoError(t, err)
	assert.False(t, hadPrev)
}

func TestBindRejectsBusyBooth(t *testing.T) {
	d := newTestDirectory(t, 10)
	require.NoError(t, d.RegisterRoom("client-a", 1))
	require.NoError(t, d.RegisterRoom("client-b", 2))

	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	_, _, err = d.Bind(2, 10)
	assert.ErrorIs(t, err, ErrBoothBusy)

	// The original binding is untouched.
	bid, ok := d.BoothOf(1)
	require.True(t, ok)
	assert.Equal(t, domain.BoothID(10), bid)
	_, ok = d.BoothOf(2)
	assert.False(t, ok)
}

func TestBindExchangesPreviousBooth(t *testing.T) {
	d := newTestDirectory(t, 10, 11)
	require.NoError(t, d.RegisterRoom("client-a", 1))

	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	prev, hadPrev, err := d.Bind(1, 11)
	require.NoError(t, err)
	assert.True(t, hadPrev)
	assert.Equal(t, domain.BoothID(10), prev)

	// Booth 10 is free again, nothing leaked.
	assert.Equal(t, []domain.BoothID{10}, d.AvailableBooths())
}

func TestUnbindIgnoresStalePair(t *testing.T) {
	d := newTestDirectory(t, 10, 11)
	require.NoError(t, d.RegisterRoom("client-a", 1))
	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	assert.False(t, d.Unbind(1, 11))
	assert.False(t, d.Unbind(2, 10))

	bid, ok := d.BoothOf(1)
	require.True(t, ok)
	assert.Equal(t, domain.BoothID(10), bid)

	assert.True(t, d.Unbind(1, 10))
	assert.False(t, d.Unbind(1, 10))
}

func TestUnregisterClientReleasesEverything(t *testing.T) {
	d := newTestDirectory(t, 10)
	require.NoError(t, d.RegisterRoom("client-a", 1))
	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	rid, bid, hadRoom, hadBinding := d.UnregisterClient("client-a")
	assert.Equal(t, domain.RoomID(1), rid)
	assert.Equal(t, domain.BoothID(10), bid)
	assert.True(t, hadRoom)
	assert.True(t, hadBinding)

	// Room id and booth are immediately reusable.
	require.NoError(t, d.RegisterRoom("client-b", 1))
	_, _, err = d.Bind(1, 10)
	assert.NoError(t, err)
}

func TestUnregisterClientUnknownIsNoop(t *testing.T) {
	d := newTestDirectory(t)
	_, _, hadRoom, hadBinding := d.UnregisterClient("nobody")
	assert.False(t, hadRoom)
	assert.False(t, hadBinding)
}

func TestAvailabilityLists(t *testing.T) {
	d := newTestDirectory(t, 11, 10)
	require.NoError(t, d.RegisterRoom("client-a", 2))
	require.NoError(t, d.RegisterRoom("client-b", 1))

	assert.Equal(t, []domain.RoomID{1, 2}, d.AvailableRooms())
	assert.Equal(t, []domain.BoothID{10, 11}, d.AvailableBooths())

	_, _, err := d.Bind(1, 11)
	require.NoError(t, err)

	assert.Equal(t, []domain.RoomID{2}, d.AvailableRooms())
	assert.Equal(t, []domain.BoothID{10}, d.AvailableBooths())
	assert.Equal(t, []domain.BoothID{10, 11}, d.Booths())
}

func TestClientForBooth(t *testing.T) {
	d := newTestDirectory(t, 10)
	require.NoError(t, d.RegisterRoom("client-a", 1))
	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	cid, rid, ok := d.ClientForBooth(10)
	require.True(t, ok)
	assert.Equal(t, domain.ClientID("client-a"), cid)
	assert.Equal(t, domain.RoomID(1), rid)

	_, _, ok = d.ClientForBooth(99)
	assert.False(t, ok)
}

func TestRemoveBoothDropsBinding(t *testing.T) {
	d := newTestDirectory(t, 10)
	require.NoError(t, d.RegisterRoom("client-a", 1))
	_, _, err := d.Bind(1, 10)
	require.NoError(t, err)

	d.RemoveBooth(10)

	_, ok := d.BoothOf(1)
	assert.False(t, ok)
	assert.Empty(t, d.Booths())
}
