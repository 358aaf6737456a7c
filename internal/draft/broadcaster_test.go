package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/careerforge/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(color string) *Snapshot {
	return &Snapshot{
		Company:  BrandDraft{PrimaryColor: color},
		Sections: []SectionDraft{{Type: models.SectionTypeAbout, Title: "About"}},
	}
}

func recvEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	defer b.Close()

	first := b.Subscribe("c1")
	second := b.Subscribe("c1")
	other := b.Subscribe("c2")

	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#111111")})

	ev := recvEvent(t, first)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, "#111111", ev.Snapshot.Company.PrimaryColor)

	ev = recvEvent(t, second)
	assert.Equal(t, "#111111", ev.Snapshot.Company.PrimaryColor)

	// A different company's subscribers hear nothing
	assertNoEvent(t, other)
}

func TestBroadcasterSuppressesRepeatedState(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	defer b.Close()

	ch := b.Subscribe("c1")

	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#111111")})
	recvEvent(t, ch)

	// Same content again: suppressed by the fingerprint gate
	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#111111")})
	assertNoEvent(t, ch)

	// Changed content passes
	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#222222")})
	ev := recvEvent(t, ch)
	assert.Equal(t, "#222222", ev.Snapshot.Company.PrimaryColor)
}

func TestBroadcasterDeliversClearedState(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	defer b.Close()

	ch := b.Subscribe("c1")

	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#111111")})
	recvEvent(t, ch)

	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: nil})
	ev := recvEvent(t, ch)
	assert.Nil(t, ev.Snapshot)
}

func TestBroadcasterPollerPicksUpStoreWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := NewBroadcaster(store, nil, 20*time.Millisecond)
	defer b.Close()

	ch := b.Subscribe("c1")

	// Write directly to the store, as another process would
	require.NoError(t, store.Save(ctx, "c1", testSnapshot("#abcdef")))

	ev := recvEvent(t, ch)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, "#abcdef", ev.Snapshot.Company.PrimaryColor)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	defer b.Close()

	ch := b.Subscribe("c1")
	b.Unsubscribe("c1", ch)

	_, open := <-ch
	assert.False(t, open)

	// Publishing afterwards must not panic
	b.Publish(context.Background(), Event{CompanyID: "c1", Snapshot: testSnapshot("#111111")})
}

func TestBroadcasterPublishRacesUnsubscribe(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	defer b.Close()

	ctx := context.Background()

	// Churn subscribers while publishing distinct states; a send landing on
	// a channel mid-close would panic the process.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			color := "#000000"
			if i%2 == 0 {
				color = "#ffffff"
			}
			b.Publish(ctx, Event{CompanyID: "c1", Snapshot: testSnapshot(color)})
		}
	}()

	for i := 0; i < 500; i++ {
		ch := b.Subscribe("c1")
		b.Unsubscribe("c1", ch)
	}
	wg.Wait()
}

func TestBroadcasterCloseClosesSubscribers(t *testing.T) {
	b := NewBroadcaster(NewMemoryStore(), nil, time.Hour)
	ch := b.Subscribe("c1")

	b.Close()

	_, open := <-ch
	assert.False(t, open)
}
