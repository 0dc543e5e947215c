package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/apperr"
	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/ids"
	"github.com/hackgods/facility-scheduling-core/internal/lock"
	"github.com/hackgods/facility-scheduling-core/internal/party"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

type fixture struct {
	booking *appointment.Service
	ledger  *Ledger
	events  *audit.MemorySink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := appointment.NewMemRepository()
	locker := lock.NewMemoryLocker()
	booking := appointment.NewService(repo, locker, ids.NewSequence("APP", 4),
		appointment.WithWeek(schedule.WeekOf(time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC))),
	)
	for _, id := range []string{"P1", "P2"} {
		if _, err := booking.RegisterPatient(ctx, party.Identity{ID: id, FirstName: "Pat"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := booking.RegisterProvider(ctx, party.Identity{ID: "D1", FirstName: "Doc"}, appointment.ProviderOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := booking.RegisterProvider(ctx, party.Identity{ID: "D2", FirstName: "Priv"},
		appointment.ProviderOptions{VariableFee: true, PerMinuteFee: 2}); err != nil {
		t.Fatal(err)
	}

	sink := &audit.MemorySink{}
	ledger := NewLedger(repo, locker, ids.NewSequence("INV", 4),
		WithEvents(audit.NewRecorder(sink, zerolog.Nop())),
	)
	return &fixture{booking: booking, ledger: ledger, events: sink}
}

func (f *fixture) book(t *testing.T, patient, provider string, at schedule.TimeOfDay) *appointment.Appointment {
	t.Helper()
	a, err := f.booking.CreateAppointment(context.Background(), patient, provider, schedule.Thursday, at)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestOutstanding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.book(t, "P1", "D1", schedule.Clock(9, 0))
	private := f.book(t, "P1", "D2", schedule.Clock(9, 0))
	third := f.book(t, "P1", "D1", schedule.Clock(11, 0))
	f.book(t, "P2", "D1", schedule.Clock(12, 0))

	if _, err := f.booking.SetAppointmentDuration(ctx, private.ID(), 45); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.MarkPaid(ctx, third.ID()); err != nil {
		t.Fatal(err)
	}

	unpaid, total, err := f.ledger.Outstanding(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if len(unpaid) != 2 || unpaid[0] != first || unpaid[1] != private {
		t.Fatalf("unpaid = %v; want [%s %s]", unpaid, first.ID(), private.ID())
	}
	if total != 50+90 {
		t.Errorf("total = %v; want 140", total)
	}
	if private.Paid() || first.Paid() {
		t.Error("Outstanding must not change paid flags")
	}

	if _, _, err := f.ledger.Outstanding(ctx, "nobody"); !errors.Is(err, appointment.ErrPatientNotFound) {
		t.Errorf("unknown patient err = %v", err)
	}
}

func TestPayAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "P1", "D1", schedule.Clock(9, 0))
	f.book(t, "P1", "D1", schedule.Clock(9, 30))
	other := f.book(t, "P2", "D1", schedule.Clock(10, 0))

	r, err := f.ledger.PayAll(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.AppointmentIDs) != 2 || r.Amount != 100 {
		t.Errorf("receipt = %+v; want 2 appointments totalling 100", r)
	}
	if _, total, _ := f.ledger.Outstanding(ctx, "P1"); total != 0 {
		t.Errorf("outstanding after PayAll = %v", total)
	}
	if other.Paid() {
		t.Error("another patient's appointment was paid")
	}

	again, err := f.ledger.PayAll(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if len(again.AppointmentIDs) != 0 || again.Amount != 0 {
		t.Errorf("second PayAll receipt = %+v; want empty", again)
	}
	if got := f.events.Types(); len(got) != 1 || got[0] != EventPaymentRecorded {
		t.Errorf("events = %v; want a single payment event", got)
	}
}

func TestPayOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.book(t, "P1", "D1", schedule.Clock(9, 0))
	theirs := f.book(t, "P2", "D1", schedule.Clock(9, 30))

	tests := []struct {
		name    string
		patient string
		appt    string
		want    error
		kind    error
	}{
		{"own appointment", "P1", mine.ID(), nil, nil},
		{"already paid", "P1", mine.ID(), nil, nil},
		{"other patient's appointment", "P1", theirs.ID(), ErrNotPatientsAppointment, apperr.ErrNotFound},
		{"unknown appointment", "P1", "APP9999", appointment.ErrAppointmentNotFound, apperr.ErrNotFound},
		{"unknown patient", "P9", mine.ID(), appointment.ErrPatientNotFound, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.PayOne(ctx, tt.patient, tt.appt)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v; want %v", err, tt.want)
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Errorf("err = %v; want kind %v", err, tt.kind)
			}
		})
	}
	if !mine.Paid() {
		t.Error("own appointment should be paid")
	}
	if theirs.Paid() {
		t.Error("other patient's appointment must stay unpaid")
	}
}

func TestPayAll_ConcurrentCollectsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, at := range []schedule.TimeOfDay{schedule.Clock(9, 0), schedule.Clock(10, 0), schedule.Clock(11, 0)} {
		f.book(t, "P1", "D1", at)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
		count int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.ledger.PayAll(ctx, "P1")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			total += r.Amount
			count += len(r.AppointmentIDs)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if count != 3 || total != 150 {
		t.Errorf("collected %d appointments for %v; want 3 for 150", count, total)
	}
}

func TestInvoice_CumulativePayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	f.ledger.now = func() time.Time { return issued }

	inv, err := f.ledger.OpenInvoice(ctx, "P1", 300, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if inv.ID() != "INV0001" {
		t.Errorf("id = %s; want INV0001", inv.ID())
	}
	if due := inv.View().DueAt; !due.Equal(issued.AddDate(0, 0, DefaultInvoiceTermDays)) {
		t.Errorf("due = %s", due)
	}

	if _, err := f.ledger.PayInvoice(ctx, inv.ID(), 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero payment err = %v; want ErrInvalidAmount", err)
	}
	if _, err := f.ledger.PayInvoice(ctx, inv.ID(), 100); err != nil {
		t.Fatal(err)
	}
	if v := inv.View(); v.Settled || v.Paid != 100 || v.Remaining != 200 {
		t.Errorf("after partial payment view = %+v", v)
	}
	if _, err := f.ledger.PayInvoice(ctx, inv.ID(), 250); err != nil {
		t.Fatal(err)
	}
	if v := inv.View(); !v.Settled || v.Remaining != 0 {
		t.Errorf("after full payment view = %+v", v)
	}
	_, err = f.ledger.PayInvoice(ctx, inv.ID(), 10)
	if !errors.Is(err, ErrInvoiceSettled) || !errors.Is(err, apperr.ErrState) {
		t.Errorf("payment on settled invoice err = %v; want ErrInvoiceSettled", err)
	}

	if got := f.ledger.ListInvoices(ctx, "P1"); len(got) != 1 || got[0] != inv {
		t.Errorf("invoices = %v", got)
	}
	if _, err := f.ledger.GetInvoice(ctx, "INV9999"); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("unknown invoice err = %v", err)
	}
}

func TestInvoice_IndependentOfAppointmentFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "P1", "D1", schedule.Clock(9, 0))

	inv, err := f.ledger.OpenInvoice(ctx, "P1", a.Cost(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.PayInvoice(ctx, inv.ID(), a.Cost()); err != nil {
		t.Fatal(err)
	}
	if a.Paid() {
		t.Error("settling an invoice must not mark appointments paid")
	}
	if _, err := f.ledger.OpenInvoice(ctx, "P1", -5, time.Time{}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative total err = %v", err)
	}
}
