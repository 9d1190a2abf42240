package observability

import (
	"context"
	"testing"
	"time"

	"mod-ark/domain"
	"mod-ark/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBusStats_Counts_Consumed_Events(t *testing.T) {
	req := require.New(t)
	stats := NewBusStats()
	ctx := context.Background()
	now := time.Now().UTC()

	req.NoError(stats.Consume(ctx, event.ParticipantRegistered{ID: uuid.New(), Who: "steam.42", At: now}))
	req.NoError(stats.Consume(ctx, event.MessageDelivered{ID: uuid.New(), Who: "steam.42", From: "local.console", At: now}))
	req.NoError(stats.Consume(ctx, event.MessageDelivered{ID: uuid.New(), Who: "steam.42", From: "local.console", At: now}))
	req.NoError(stats.Consume(ctx, event.DeliveryFailed{ID: uuid.New(), Who: "local.ghost", From: "local.console", At: now}))
	req.NoError(stats.Consume(ctx, event.ParticipantUnregistered{ID: uuid.New(), Who: "steam.42", At: now}))

	snap := stats.Collect()
	req.Equal(uint64(1), snap.Registrations)
	req.Equal(uint64(1), snap.Unregistrations)
	req.Equal(uint64(2), snap.Delivered)
	req.Equal(uint64(1), snap.DeliveryFailures)
	req.NotEmpty(snap.LastEventReceived)
}

func TestBusStats_Tracks_Online_Count_From_Presence(t *testing.T) {
	req := require.New(t)
	stats := NewBusStats()

	stats.ObservePresence([]domain.ParticipantID{"steam.42", "local.alphamod"})
	req.Equal(2, stats.Collect().OnlineCount)

	stats.ObservePresence([]domain.ParticipantID{"steam.42"})
	req.Equal(1, stats.Collect().OnlineCount)
}

func TestSnapshot_Render_Lists_Every_Counter(t *testing.T) {
	req := require.New(t)
	stats := NewBusStats()
	stats.ObservePresence([]domain.ParticipantID{"steam.42"})

	text := stats.Collect().Render()

	req.Contains(text, "Online participants : 1")
	req.Contains(text, "Messages delivered")
	req.Contains(text, "Goroutines")
}
