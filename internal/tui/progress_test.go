package tui

import "testing"

func TestNewModelSeedsAllTestsPending(t *testing.T) {
	m := NewModel("checkout", []string{"adds item", "pays"})
	if len(m.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rows))
	}
	for _, row := range m.rows {
		if row.Status != StatusPending {
			t.Fatalf("expected StatusPending, got %v", row.Status)
		}
	}
}

func TestUpdateStepMsgMarksRunningAndIncrementsCount(t *testing.T) {
	m := NewModel("checkout", []string{"adds item"})
	updated, _ := m.Update(StepMsg{TestName: "adds item", ActionDesc: "click Add"})
	next := updated.(Model)
	if next.rows[0].Status != StatusRunning || next.rows[0].StepCount != 1 {
		t.Fatalf("unexpected row state: %+v", next.rows[0])
	}
}

func TestUpdateResultMsgSetsTerminalStatus(t *testing.T) {
	m := NewModel("checkout", []string{"adds item"})
	updated, _ := m.Update(ResultMsg{TestName: "adds item", Status: StatusFailed, Reason: "element not found"})
	next := updated.(Model)
	if next.rows[0].Status != StatusFailed || next.rows[0].Reason != "element not found" {
		t.Fatalf("unexpected row state: %+v", next.rows[0])
	}
}

func TestUpdateUnknownTestNameIsIgnored(t *testing.T) {
	m := NewModel("checkout", []string{"adds item"})
	updated, _ := m.Update(StepMsg{TestName: "does not exist", ActionDesc: "noop"})
	next := updated.(Model)
	if next.rows[0].Status != StatusPending {
		t.Fatalf("unrelated row should be untouched, got %+v", next.rows[0])
	}
}

func TestDoneMsgSetsDoneAndQuits(t *testing.T) {
	m := NewModel("checkout", []string{"adds item"})
	updated, cmd := m.Update(DoneMsg{})
	next := updated.(Model)
	if !next.done {
		t.Fatal("expected done=true")
	}
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}
