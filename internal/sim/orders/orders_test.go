package orders

import "testing"

func TestBook_SelectableRespectsReleaseAndState(t *testing.T) {
	b := NewBook([]Data{
		{ID: "o1", Payout: 100, Priority: 0, ReleaseTick: 0},
		{ID: "o2", Payout: 200, Priority: 1, ReleaseTick: 50},
		{ID: "o3", Payout: 50, Priority: 2, ReleaseTick: 0},
	}, 0)

	got := b.Selectable(0)
	if len(got) != 2 {
		t.Fatalf("selectable at tick 0 = %d orders, want 2", len(got))
	}
	// Stable listing order: priority desc, payout desc.
	if got[0].ID != "o3" || got[1].ID != "o1" {
		t.Fatalf("listing order = %s,%s want o3,o1", got[0].ID, got[1].ID)
	}

	b.Get("o3").State = StateAccepted
	if got := b.Selectable(60); len(got) != 2 || got[0].ID != "o2" {
		t.Fatalf("after accept, selectable at 60 = %v", ids(got))
	}
}

func TestOrder_DeadlineByPriority(t *testing.T) {
	cases := []struct {
		priority int
		want     uint64
	}{
		{0, 600}, {1, 450}, {2, 300}, {5, 300},
	}
	for _, tc := range cases {
		if got := DeadlineTicks(tc.priority, 5); got != tc.want {
			t.Fatalf("DeadlineTicks(priority=%d) = %d, want %d", tc.priority, got, tc.want)
		}
	}
}

func TestOrder_Overtime(t *testing.T) {
	o := &Order{Priority: 2}
	o.Accept(100, 5)
	if o.State != StateAccepted || o.DeadlineTick != 400 {
		t.Fatalf("accept: state=%s deadline=%d", o.State, o.DeadlineTick)
	}
	if ot := o.Overtime(400); ot != 0 {
		t.Fatalf("overtime at deadline = %d, want 0", ot)
	}
	if ot := o.Overtime(475); ot != 75 {
		t.Fatalf("overtime = %d, want 75", ot)
	}
}

func TestBook_MarkExpiredOnlyAvailable(t *testing.T) {
	b := NewBook([]Data{
		{ID: "stale", ReleaseTick: 0},
		{ID: "held", ReleaseTick: 0},
		{ID: "fresh", ReleaseTick: 900},
	}, 100)
	b.Get("held").State = StateCarrying

	expired := b.MarkExpired(1000)
	if len(expired) != 1 || expired[0].ID != "stale" {
		t.Fatalf("expired = %v, want [stale]", ids(expired))
	}
	if b.Get("held").State != StateCarrying {
		t.Fatalf("carried order must never expire")
	}
	if b.Get("fresh").State != StateAvailable {
		t.Fatalf("recently released order must not expire")
	}
}

func ids(os []*Order) []string {
	out := make([]string, len(os))
	for i, o := range os {
		out[i] = o.ID
	}
	return out
}
