package schedule

import (
	"testing"
	"time"

	"github.com/julianstephens/habitkit/internal/models"
)

// 2026-01-05 is a Monday.
func weekOf(t *testing.T) []time.Time {
	t.Helper()
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = time.Date(2026, 1, 5+i, 0, 0, 0, 0, time.UTC)
	}
	return days
}

func TestISOWeekday(t *testing.T) {
	for i, day := range weekOf(t) {
		if got := ISOWeekday(day); got != i+1 {
			t.Errorf("ISOWeekday(%s) = %d, want %d", day.Weekday(), got, i+1)
		}
	}
}

func TestIsDue_Daily(t *testing.T) {
	rules := []string{"daily", "DAILY", "  Daily  ", "dAiLy"}
	for _, rule := range rules {
		habit := models.Habit{Recurrence: rule}
		for _, day := range weekOf(t) {
			if !IsDue(habit, day) {
				t.Errorf("IsDue(%q, %s) = false, want true", rule, day.Weekday())
			}
		}
	}
}

func TestIsDue_Weekdays(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want [7]bool // Monday first
	}{
		{
			name: "mon wed fri",
			rule: "1,3,5",
			want: [7]bool{true, false, true, false, true, false, false},
		},
		{
			name: "weekend with spaces",
			rule: " 6 , 7 ",
			want: [7]bool{false, false, false, false, false, true, true},
		},
		{
			name: "malformed tokens ignored",
			rule: "2,abc,9,0,-1,4",
			want: [7]bool{false, true, false, true, false, false, false},
		},
		{
			name: "duplicates",
			rule: "7,7,7",
			want: [7]bool{false, false, false, false, false, false, true},
		},
		{
			name: "all malformed fails closed",
			rule: "abc,8,0",
			want: [7]bool{},
		},
		{
			name: "empty rule fails closed",
			rule: "",
			want: [7]bool{},
		},
		{
			name: "weekly keyword is not a rule",
			rule: "weekly",
			want: [7]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			habit := models.Habit{Recurrence: tt.rule}
			for i, day := range weekOf(t) {
				if got := IsDue(habit, day); got != tt.want[i] {
					t.Errorf("IsDue(%q, %s) = %v, want %v", tt.rule, day.Weekday(), got, tt.want[i])
				}
			}
		})
	}
}

func TestIsDue_IgnoresTimeOfDay(t *testing.T) {
	habit := models.Habit{Recurrence: "1"}
	late := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	if !IsDue(habit, late) {
		t.Error("expected Monday 23:59 to be due for a Monday-only habit")
	}
}

func TestRuleString(t *testing.T) {
	tests := []struct {
		rule string
		want string
	}{
		{"daily", "daily"},
		{"5,1,3", "1,3,5"},
		{"1, x, 2", "1,2"},
		{"nonsense", ""},
	}
	for _, tt := range tests {
		if got := Parse(tt.rule).String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestRuleValid(t *testing.T) {
	if !Parse("daily").Valid() {
		t.Error("daily should be valid")
	}
	if !Parse("3").Valid() {
		t.Error("single weekday should be valid")
	}
	if Parse("8,x").Valid() {
		t.Error("rule without usable weekday should be invalid")
	}
}

func TestFromWeekdays(t *testing.T) {
	got := FromWeekdays([]time.Weekday{time.Sunday, time.Monday})
	if got != "1,7" {
		t.Errorf("FromWeekdays(Sun, Mon) = %q, want %q", got, "1,7")
	}

	all := []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
	if got := FromWeekdays(all); got != "daily" {
		t.Errorf("FromWeekdays(all) = %q, want %q", got, "daily")
	}
}

func TestParseWeekdayNames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "short names", input: "mon,wed,fri", want: "1,3,5"},
		{name: "long names mixed case", input: "Saturday, SUNDAY", want: "6,7"},
		{name: "iso numbers", input: "7,1", want: "1,7"},
		{name: "daily keyword", input: "Daily", want: "daily"},
		{name: "every day by name", input: "mon,tue,wed,thu,fri,sat,sun", want: "daily"},
		{name: "unknown name", input: "mon,funday", wantErr: true},
		{name: "out of range number", input: "0", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekdayNames(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekdayNames(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWeekdayNames(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := map[string]string{
		"daily": "Daily",
		"1,3,5": "Mon, Wed, Fri",
		"7":     "Sun",
		"x":     "Never",
	}
	for rule, want := range tests {
		if got := Describe(rule); got != want {
			t.Errorf("Describe(%q) = %q, want %q", rule, got, want)
		}
	}
}
