package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBooking() *Booking {
	return &Booking{
		ID:         "bk-1",
		Reference:  "RB-TESTREF1",
		ResortID:   "resort-1",
		RoomTypeID: "rt-1",
		RatePlanID: "rp-1",
		GuestName:  "Mika Tanaka",
		GuestEmail: "mika@example.com",
		CheckIn:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		Adults:     2,
		Units:      1,
		Status:     BookingStatusPending,
	}
}

func TestBookingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Booking)
		wantErr error
	}{
		{"valid", func(b *Booking) {}, nil},
		{"missing id", func(b *Booking) { b.ID = " " }, ErrInvalidBookingID},
		{"check-out before check-in", func(b *Booking) { b.CheckIn, b.CheckOut = b.CheckOut, b.CheckIn }, ErrInvalidDateRange},
		{"same-day stay", func(b *Booking) { b.CheckOut = b.CheckIn }, ErrInvalidDateRange},
		{"no adults", func(b *Booking) { b.Adults = 0 }, ErrInvalidOccupancy},
		{"negative children", func(b *Booking) { b.Children = -1 }, ErrInvalidOccupancy},
		{"zero units", func(b *Booking) { b.Units = 0 }, ErrInvalidUnits},
		{"blank guest name", func(b *Booking) { b.GuestName = "  " }, ErrInvalidGuestInfo},
		{"blank guest email", func(b *Booking) { b.GuestEmail = "" }, ErrInvalidGuestInfo},
		{"unknown status", func(b *Booking) { b.Status = "held" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := b.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBookingTransitions(t *testing.T) {
	t.Run("pending to confirmed to completed", func(t *testing.T) {
		b := validBooking()

		require.NoError(t, b.Confirm())
		assert.Equal(t, BookingStatusConfirmed, b.Status)
		require.NotNil(t, b.ConfirmedAt)

		require.NoError(t, b.Complete())
		assert.Equal(t, BookingStatusCompleted, b.Status)
		require.NotNil(t, b.CompletedAt)
	})

	t.Run("pending cancels", func(t *testing.T) {
		b := validBooking()
		require.NoError(t, b.Cancel())
		assert.Equal(t, BookingStatusCancelled, b.Status)
		require.NotNil(t, b.CancelledAt)
	})

	t.Run("confirmed cancels", func(t *testing.T) {
		b := validBooking()
		require.NoError(t, b.Confirm())
		require.NoError(t, b.Cancel())
		assert.Equal(t, BookingStatusCancelled, b.Status)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		b := validBooking()
		assert.ErrorIs(t, b.Complete(), ErrInvalidStatus)
	})

	t.Run("terminal states reject every transition", func(t *testing.T) {
		cancelled := validBooking()
		require.NoError(t, cancelled.Cancel())
		assert.ErrorIs(t, cancelled.Confirm(), ErrAlreadyCancelled)
		assert.ErrorIs(t, cancelled.Cancel(), ErrAlreadyCancelled)
		assert.ErrorIs(t, cancelled.Complete(), ErrAlreadyCancelled)

		completed := validBooking()
		require.NoError(t, completed.Confirm())
		require.NoError(t, completed.Complete())
		assert.ErrorIs(t, completed.Confirm(), ErrAlreadyCompleted)
		assert.ErrorIs(t, completed.Cancel(), ErrAlreadyCompleted)
		assert.ErrorIs(t, completed.Complete(), ErrAlreadyCompleted)
	})

	t.Run("double confirm", func(t *testing.T) {
		b := validBooking()
		require.NoError(t, b.Confirm())
		assert.ErrorIs(t, b.Confirm(), ErrAlreadyConfirmed)
	})
}

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
}

func TestNightCount(t *testing.T) {
	b := validBooking()
	assert.Equal(t, 3, b.NightCount())
}
