package appointment

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

// 2025-05-28 is a Wednesday.
var wednesday = time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)

func mustProvider(t *testing.T, id string, opts ProviderOptions) *Provider {
	t.Helper()
	p, err := NewProvider(party.Identity{ID: id, FirstName: "Dr", LastName: id}, opts)
	if err != nil {
		t.Fatalf("NewProvider(%s): %v", id, err)
	}
	return p
}

func mustPatient(t *testing.T, id string) *Patient {
	t.Helper()
	p, err := NewPatient(party.Identity{ID: id, FirstName: "Pat", LastName: id})
	if err != nil {
		t.Fatalf("NewPatient(%s): %v", id, err)
	}
	return p
}

func wedTen() schedule.Instant {
	return schedule.Instant{Day: schedule.Wednesday, At: schedule.Clock(10, 0)}
}

func TestNewAppointment_Defaults(t *testing.T) {
	a, err := NewAppointment("APP0001", mustPatient(t, "P1"), mustProvider(t, "D1", ProviderOptions{}), wedTen(), wednesday)
	if err != nil {
		t.Fatal(err)
	}

	v := a.View()
	if v.Status != StatusScheduled || v.Paid || v.DurationMinutes != 30 || v.Cost != 50.0 {
		t.Errorf("unexpected defaults: %+v", v)
	}
	if v.PatientID != "P1" || v.ProviderID != "D1" || v.Instant != wedTen() {
		t.Errorf("unexpected references: %+v", v)
	}
}

func TestNewAppointment_Validation(t *testing.T) {
	patient := mustPatient(t, "P1")
	provider := mustProvider(t, "D1", ProviderOptions{})

	tests := []struct {
		name     string
		id       string
		patient  *Patient
		provider *Provider
		instant  schedule.Instant
		date     time.Time
		want     error
	}{
		{"missing id", "", patient, provider, wedTen(), wednesday, ErrMissingID},
		{"missing patient", "A", nil, provider, wedTen(), wednesday, ErrMissingPatient},
		{"missing provider", "A", patient, nil, wedTen(), wednesday, ErrMissingProvider},
		{"missing instant", "A", patient, provider, schedule.Instant{}, wednesday, ErrMissingInstant},
		{"missing date", "A", patient, provider, wedTen(), time.Time{}, ErrMissingInstant},
		{"off grid", "A", patient, provider, schedule.Instant{Day: schedule.Wednesday, At: schedule.Clock(10, 10)}, wednesday, schedule.ErrNotGridPoint},
		{"date on other weekday", "A", patient, provider, schedule.Instant{Day: schedule.Monday, At: schedule.Clock(10, 0)}, wednesday, ErrDateMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAppointment(tt.id, tt.patient, tt.provider, tt.instant, tt.date)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v; want %v", err, tt.want)
			}
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v; want a validation error", err)
			}
			if a != nil {
				t.Error("no appointment should be created")
			}
		})
	}
}

func TestSetDuration_FixedFeeKeepsCost(t *testing.T) {
	a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)

	for _, m := range []int{15, 40, 90} {
		if err := a.SetDuration(m); err != nil {
			t.Fatal(err)
		}
		if a.Cost() != 50.0 {
			t.Errorf("cost after duration %d = %v; want 50", m, a.Cost())
		}
		if a.DurationMinutes() != m {
			t.Errorf("duration = %d; want %d", a.DurationMinutes(), m)
		}
	}
}

func TestSetDuration_VariableFeeReprices(t *testing.T) {
	provider := mustProvider(t, "D", ProviderOptions{VariableFee: true, PerMinuteFee: 5.0})
	a, _ := NewAppointment("A", mustPatient(t, "P"), provider, wedTen(), wednesday)

	if a.Cost() != DefaultCost {
		t.Fatalf("cost before explicit duration = %v; want %v", a.Cost(), DefaultCost)
	}
	if err := a.SetDuration(40); err != nil {
		t.Fatal(err)
	}
	if a.Cost() != 200.0 {
		t.Errorf("cost = %v; want 200", a.Cost())
	}
}

func TestSetDuration_Invalid(t *testing.T) {
	a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)
	for _, m := range []int{0, -30} {
		if err := a.SetDuration(m); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("SetDuration(%d) err = %v", m, err)
		}
	}
	if a.DurationMinutes() != 30 {
		t.Error("invalid duration must not mutate the appointment")
	}
}

func TestProviderFeeDefaults(t *testing.T) {
	private := mustProvider(t, "D1", ProviderOptions{VariableFee: true})
	if private.PerMinuteFee() != DefaultPerMinuteFee {
		t.Errorf("fee = %v; want %v", private.PerMinuteFee(), DefaultPerMinuteFee)
	}
	if _, err := NewProvider(party.Identity{ID: "D2"}, ProviderOptions{PerMinuteFee: -1}); !errors.Is(err, ErrNegativeFee) {
		t.Errorf("err = %v; want ErrNegativeFee", err)
	}
	if _, err := NewProvider(party.Identity{ID: "D3", Role: party.RolePatient}, ProviderOptions{}); !errors.Is(err, ErrWrongRole) {
		t.Errorf("err = %v; want ErrWrongRole", err)
	}
	if _, err := NewPatient(party.Identity{}); !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("err = %v; want ErrMissingIdentity", err)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name   string
		first  Status
		second Status
	}{
		{"completed then canceled", StatusCompleted, StatusCanceled},
		{"canceled then completed", StatusCanceled, StatusCompleted},
		{"completed twice", StatusCompleted, StatusCompleted},
		{"canceled twice", StatusCanceled, StatusCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)
			if err := a.Transition(tt.first); err != nil {
				t.Fatalf("first transition: %v", err)
			}
			err := a.Transition(tt.second)
			if !errors.Is(err, ErrInvalidStatusTransition) || !errors.Is(err, apperr.ErrState) {
				t.Errorf("second transition err = %v; want ErrInvalidStatusTransition", err)
			}
			if a.Status() != tt.first {
				t.Errorf("status = %s; want %s unchanged", a.Status(), tt.first)
			}
		})
	}
}

func TestTransition_InvalidTarget(t *testing.T) {
	a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)
	if err := a.Transition(StatusScheduled); !errors.Is(err, ErrInvalidTargetStatus) {
		t.Errorf("err = %v; want ErrInvalidTargetStatus", err)
	}
	if err := a.Transition(Status("Lost")); !errors.Is(err, ErrInvalidTargetStatus) {
		t.Errorf("err = %v; want ErrInvalidTargetStatus", err)
	}
}

func TestMarkPaid_Idempotent(t *testing.T) {
	a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)

	changed, amount := a.MarkPaid()
	if !changed || amount != 50.0 || !a.Paid() {
		t.Fatalf("first MarkPaid = %v, %v; paid=%v", changed, amount, a.Paid())
	}
	changed, amount = a.MarkPaid()
	if changed || amount != 0 || !a.Paid() {
		t.Errorf("second MarkPaid = %v, %v; paid=%v", changed, amount, a.Paid())
	}
}

func TestMarkPaid_ConcurrentCollectsOnce(t *testing.T) {
	a, _ := NewAppointment("A", mustPatient(t, "P"), mustProvider(t, "D", ProviderOptions{}), wedTen(), wednesday)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
		wins  int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if changed, amount := a.MarkPaid(); changed {
				mu.Lock()
				wins++
				total += amount
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 || total != 50.0 {
		t.Errorf("wins = %d total = %v; want 1, 50", wins, total)
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"completed": StatusCompleted,
		"Canceled":  StatusCanceled,
		"cancelled": StatusCanceled,
		"SCHEDULED": StatusScheduled,
	}
	for in, want := range tests {
		if got, err := ParseStatus(in); err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidTargetStatus) {
		t.Errorf("err = %v", err)
	}
}

func TestPatientOutstandingBalance(t *testing.T) {
	patient := mustPatient(t, "P")
	provider := mustProvider(t, "D", ProviderOptions{})
	a1, _ := NewAppointment("A1", patient, provider, wedTen(), wednesday)
	a2, _ := NewAppointment("A2", patient, provider, schedule.Instant{Day: schedule.Wednesday, At: schedule.Clock(11, 0)}, wednesday)
	patient.attach(a1)
	patient.attach(a2)
	patient.attach(a1)

	if n := len(patient.Appointments()); n != 2 {
		t.Fatalf("appointments = %d; want 2, attach must ignore duplicates", n)
	}
	if got := patient.OutstandingBalance(); got != 100 {
		t.Errorf("balance = %v; want 100", got)
	}
	a1.MarkPaid()
	if got := patient.OutstandingBalance(); got != 50 {
		t.Errorf("balance = %v; want 50", got)
	}
}
