package content

import (
	"context"
	"testing"
)

func TestTouchesPublishOrTrash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		old, new Status
		want     bool
	}{
		{"draft to publish", StatusDraft, StatusPublish, true},
		{"publish to draft", StatusPublish, StatusDraft, true},
		{"publish to trash", StatusPublish, StatusTrash, true},
		{"trash to draft", StatusTrash, StatusDraft, true},
		{"draft to pending", StatusDraft, StatusPending, false},
		{"publish resave", StatusPublish, StatusPublish, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := Transitioned{OldStatus: tt.old, NewStatus: tt.new, Kind: "post", ID: 1}
			if got := ev.TouchesPublishOrTrash(); got != tt.want {
				t.Errorf("TouchesPublishOrTrash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(ObserverFunc(func(_ context.Context, ev Transitioned) {
		got = append(got, "first")
	}))
	bus.Subscribe(ObserverFunc(func(_ context.Context, ev Transitioned) {
		got = append(got, "second")
	}))

	bus.Publish(context.Background(), Transitioned{OldStatus: StatusDraft, NewStatus: StatusPublish})

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("observers called as %v, want [first second]", got)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusPublish.Valid() {
		t.Error("publish should be valid")
	}
	if Status("archived").Valid() {
		t.Error("archived should not be valid")
	}
}
