package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/ria-analyst/internal/funds"
	"github.com/mwhitfield/ria-analyst/internal/ria"
)

func TestProfileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewProfileStore()
	ctx := context.Background()

	p := ria.Profile{
		ID:        "p1",
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Websites:  []funds.WebsiteAnalysis{{URL: "https://a.example.com", Summary: "s"}},
	}
	require.NoError(t, store.Create(ctx, p))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	p.MeetingNotes = "updated"
	require.NoError(t, store.Update(ctx, p))
	got, err = store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "updated", got.MeetingNotes)
}

func TestProfileStoreNotFound(t *testing.T) {
	t.Parallel()

	store := NewProfileStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ria.ErrProfileNotFound)

	err = store.Update(ctx, ria.Profile{ID: "missing"})
	require.ErrorIs(t, err, ria.ErrProfileNotFound)
}
