package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "ScanStarted", typ: ScanStarted},
		{want: "ScanComplete", typ: ScanComplete},
		{want: "HashStarted", typ: HashStarted},
		{want: "FileHashed", typ: FileHashed},
		{want: "HashFailed", typ: HashFailed},
		{want: "HashComplete", typ: HashComplete},
		{want: "GroupFound", typ: GroupFound},
		{want: "DeleteFile", typ: DeleteFile},
		{want: "DeleteFailed", typ: DeleteFailed},
		{want: "Warning", typ: Warning},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
	assert.Equal(t, "Unknown", Type(-3).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Zero(t, e.Size)
	assert.Zero(t, e.Total)
	assert.Zero(t, e.TotalSize)
	require.NoError(t, e.Error)
}

func TestEmitStampsTimestamp(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ch, Event{Type: FileHashed, Path: "/data/a.bin", Size: 1024})

	got := <-ch
	assert.Equal(t, FileHashed, got.Type)
	assert.Equal(t, "/data/a.bin", got.Path)
	assert.False(t, got.Timestamp.IsZero())
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	ch := make(chan Event, 1)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	Emit(ch, Event{Type: Warning, Timestamp: ts})
	assert.Equal(t, ts, (<-ch).Timestamp)
}

func TestEmitNeverBlocks(t *testing.T) {
	ch := make(chan Event) // unbuffered, nobody reading
	done := make(chan struct{})
	go func() {
		Emit(ch, Event{Type: DeleteFile})
		Emit(nil, Event{Type: DeleteFile})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full channel")
	}
}
