package system

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/habitkit/internal/notifier"
	"github.com/julianstephens/habitkit/internal/storage/sqlite"
)

type recordingDeliverer struct {
	got  []notifier.Intent
	fail bool
}

func (r *recordingDeliverer) Deliver(intent notifier.Intent) error {
	if r.fail {
		return errors.New("tray app not running")
	}
	r.got = append(r.got, intent)
	return nil
}

func seedReminders(t *testing.T, store *sqlite.Store) (withTime, archived int64) {
	t.Helper()
	h := validHabit("Stretch")
	h.NotificationTime = "07:30"
	withTime = insertHabit(t, store, h)

	insertHabit(t, store, validHabit("Read"))

	a := validHabit("Old")
	a.NotificationTime = "21:00"
	a.IsArchived = true
	archived = insertHabit(t, store, a)
	return withTime, archived
}

func TestNotifyCmd(t *testing.T) {
	tests := []struct {
		name      string
		dryRun    bool
		disabled  bool
		fail      bool
		wantErr   bool
		wantOut   string
		wantSends int
	}{
		{name: "syncs reminders", wantOut: "Synced 2 reminder(s).", wantSends: 2},
		{name: "dry run", dryRun: true, wantOut: "[DryRun] schedule Stretch at 07:30"},
		{name: "disabled", disabled: true, wantOut: "Notifications are disabled."},
		{name: "delivery failure", fail: true, wantErr: true, wantOut: "Synced 0 reminder(s)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, store, out := setupTestDoctorDB(t, true)
			rec := &recordingDeliverer{fail: tt.fail}
			ctx.Deliverer = rec
			ctx.Config.Notifications.Enabled = !tt.disabled

			withTime, archived := seedReminders(t, store)

			err := (&NotifyCmd{DryRun: tt.dryRun}).Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
			if len(rec.got) != tt.wantSends {
				t.Fatalf("delivered %d intents, want %d", len(rec.got), tt.wantSends)
			}
			if tt.wantSends == 0 {
				return
			}

			byHabit := make(map[int64]notifier.Action)
			for _, in := range rec.got {
				byHabit[in.HabitID] = in.Action
			}
			if byHabit[withTime] != notifier.ActionSchedule {
				t.Errorf("habit %d action = %q, want schedule", withTime, byHabit[withTime])
			}
			if byHabit[archived] != notifier.ActionCancel {
				t.Errorf("habit %d action = %q, want cancel", archived, byHabit[archived])
			}
		})
	}
}
