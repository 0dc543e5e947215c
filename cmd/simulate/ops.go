package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var (
	weekdays = []string{"mon", "tue", "wed", "thu", "fri"}
	statuses = []string{"completed", "canceled"}
)

// gridTime returns one of the 15 half-hour slots starting at 09:00.
func gridTime(rng *rand.Rand) string {
	m := 9*60 + 30*rng.Intn(15)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (s *Simulator) Run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < c.BookingRatio:
				s.doBooking(ctx, rng)
			case r < c.BookingRatio+c.StatusRatio:
				s.doStatus(ctx, rng)
			case r < c.BookingRatio+c.StatusRatio+c.PayRatio:
				s.doPay(ctx, rng)
			case r < c.BookingRatio+c.StatusRatio+c.PayRatio+c.RoomRatio:
				s.doRoom(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doReadByID(ctx, rng)
				} else {
					s.doListSlots(ctx, rng)
				}
			}
		}
	}
}

// call issues one request and records it. Requests cut off by the end of
// the run are not recorded.
func (s *Simulator) call(ctx context.Context, om *OperationMetrics, method, path string, body any, okStatus int, onOK func([]byte)) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		om.Record(0, false, false)
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Debug().Err(err).Str("path", path).Msg("request failed")
		om.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()

	success := resp.StatusCode == okStatus
	conflict := resp.StatusCode == http.StatusConflict
	if success && onOK != nil {
		if b, err := io.ReadAll(resp.Body); err == nil {
			onOK(b)
		}
	}
	om.Record(latency, success, conflict)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	body := map[string]string{
		"patient_id":  s.pool.Patients[rng.Intn(len(s.pool.Patients))],
		"provider_id": s.pool.Providers[rng.Intn(len(s.pool.Providers))],
		"weekday":     weekdays[rng.Intn(len(weekdays))],
		"time":        gridTime(rng),
	}
	s.call(ctx, &s.metrics.Booking, http.MethodPost, "/appointments", body, http.StatusCreated, func(b []byte) {
		var appt struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(b, &appt) == nil && appt.ID != "" {
			s.pool.AddAppointment(appt.ID)
		}
	})
}

func (s *Simulator) doStatus(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	body := map[string]string{"status": statuses[rng.Intn(len(statuses))]}
	s.call(ctx, &s.metrics.Status, http.MethodPost, "/appointments/"+id+"/status", body, http.StatusOK, nil)
}

func (s *Simulator) doPay(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	s.call(ctx, &s.metrics.Payment, http.MethodPost, "/appointments/"+id+"/pay", nil, http.StatusOK, nil)
}

func (s *Simulator) doRoom(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Rooms) == 0 {
		return
	}
	roomID := s.pool.Rooms[rng.Intn(len(s.pool.Rooms))]
	if rng.Intn(2) == 0 {
		body := map[string]string{"patient_id": s.pool.Patients[rng.Intn(len(s.pool.Patients))]}
		s.call(ctx, &s.metrics.RoomAssign, http.MethodPost, "/rooms/"+roomID+"/assign", body, http.StatusOK, nil)
		return
	}
	s.call(ctx, &s.metrics.RoomFree, http.MethodPost, "/rooms/"+roomID+"/release", nil, http.StatusOK, nil)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	s.call(ctx, &s.metrics.ReadByID, http.MethodGet, "/appointments/"+id, nil, http.StatusOK, nil)
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	provider := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	path := fmt.Sprintf("/providers/%s/slots?weekday=%s", provider, weekdays[rng.Intn(len(weekdays))])
	s.call(ctx, &s.metrics.ListSlots, http.MethodGet, path, nil, http.StatusOK, nil)
}
