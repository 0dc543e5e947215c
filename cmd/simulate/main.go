package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/facility-scheduling-core/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	PayRatio     float64
	RoomRatio    float64
	ReadRatio    float64
}

type DataPool struct {
	Patients  []string
	Providers []string
	Rooms     []string

	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	_ = godotenv.Load()
	log := logging.New(logging.Options{
		Env:     getEnv("APP_ENV", "dev"),
		Level:   getEnv("LOG_LEVEL", "info"),
		Service: "simulate",
	})
	log.Info().Msg("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().Dur("duration", cfg.Duration).Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).Float64("status", cfg.StatusRatio).
		Float64("pay", cfg.PayRatio).Float64("room", cfg.RoomRatio).
		Float64("read", cfg.ReadRatio).Msg("config")

	client := &http.Client{Timeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataPool, err := loadDataPool(ctx, client, cfg.APIBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	log.Info().Int("patients", len(dataPool.Patients)).Int("providers", len(dataPool.Providers)).
		Int("rooms", len(dataPool.Rooms)).Msg("loaded directory")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: client,
		log:    log,
	}

	sim.Run(context.Background())
	sim.PrintReport(os.Stdout)
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.1),
		PayRatio:     getFloat("SIM_PAY_RATIO", 0.1),
		RoomRatio:    getFloat("SIM_ROOM_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
	}
	normalize(&cfg)
	return cfg
}

func normalize(cfg *SimConfig) {
	total := cfg.BookingRatio + cfg.StatusRatio + cfg.PayRatio + cfg.RoomRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.PayRatio /= total
		cfg.RoomRatio /= total
		cfg.ReadRatio /= total
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("SIM_API_BASE_URL is required")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool reads the directory from the API; the server must have been
// started with demo seeding or populated beforehand.
func loadDataPool(ctx context.Context, client *http.Client, baseURL string) (*DataPool, error) {
	var (
		patients  []struct{ ID string `json:"id"` }
		providers []struct{ ID string `json:"id"` }
		rooms     []struct{ ID string `json:"id"` }
	)
	for path, dst := range map[string]any{
		"/patients":  &patients,
		"/providers": &providers,
		"/rooms":     &rooms,
	} {
		if err := getJSON(ctx, client, baseURL+path, dst); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	dataPool := &DataPool{}
	for _, p := range patients {
		dataPool.Patients = append(dataPool.Patients, p.ID)
	}
	for _, p := range providers {
		dataPool.Providers = append(dataPool.Providers, p.ID)
	}
	for _, r := range rooms {
		dataPool.Rooms = append(dataPool.Rooms, r.ID)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Providers) == 0 {
		return nil, fmt.Errorf("no providers loaded")
	}
	return dataPool, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
