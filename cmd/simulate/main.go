package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/client"
	"github.com/hackgods/studio-booking/pkg/logging"
)

type SimConfig struct {
	APIBaseURL string
	Date       string
	Duration   time.Duration
	Workers    int
	Think      time.Duration
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	return avg, latencies[0], latencies[len(latencies)-1], percentile(latencies, 50), percentile(latencies, 95)
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type Metrics struct {
	FetchSlots OperationMetrics
	Booking    OperationMetrics
}

// Simulator runs visitors that each walk the booking wizard against the API for the
// same date, so they compete for the same slots.
type Simulator struct {
	config  SimConfig
	api     *client.Client
	logger  *logging.Logger
	metrics Metrics

	soldOut atomic.Bool
}

func main() {
	logger := logging.New(getEnv("LOG_LEVEL", "info")).Named("simulate")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger.Info("simulator starting",
		"api", cfg.APIBaseURL, "date", cfg.Date, "duration", cfg.Duration, "workers", cfg.Workers)

	sim := &Simulator{
		config: cfg,
		api:    client.New(cfg.APIBaseURL, &http.Client{Timeout: 10 * time.Second}, logger),
		logger: logger,
	}

	sim.Run(context.Background())
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Date:       getEnv("SIM_DATE", nextWeekday(time.Now()).Format(booking.DateLayout)),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 10),
		Think:      getDuration("SIM_THINK_TIME", 50*time.Millisecond),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if _, err := time.Parse(booking.DateLayout, cfg.Date); err != nil {
		return fmt.Errorf("SIM_DATE must be YYYY-MM-DD: %w", err)
	}
	return nil
}

func nextWeekday(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (s *Simulator) Run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context, id int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	wizard := booking.NewWizard(s.api, s.api)

	for ctx.Err() == nil && !s.soldOut.Load() {
		wizard.Reset()
		s.visit(ctx, wizard, rng)

		select {
		case <-ctx.Done():
		case <-time.After(s.config.Think):
		}
	}
}

// visit is one visitor: fetch the day, pick a random offered time, submit.
func (s *Simulator) visit(ctx context.Context, wizard *booking.Wizard, rng *rand.Rand) {
	start := time.Now()
	list, err := wizard.SelectDate(ctx, s.config.Date)
	s.metrics.FetchSlots.Record(time.Since(start), err == nil, false)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("fetch slots failed", "error", err)
		}
		return
	}
	if !list.Available() {
		if s.soldOut.CompareAndSwap(false, true) {
			s.logger.Info("no slots left", "date", s.config.Date, "reason", list.Reason)
		}
		return
	}

	clock := list.Slots[rng.Intn(len(list.Slots))]
	if err := wizard.SelectTime(clock); err != nil {
		s.logger.Warn("select time failed", "time", clock, "error", err)
		return
	}

	details := booking.Details{
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Message: gofakeit.HackerPhrase(),
	}
	start = time.Now()
	appt, err := wizard.Submit(ctx, details)
	latency := time.Since(start)

	conflict := errors.Is(err, booking.ErrSlotUnavailable) || errors.Is(err, booking.ErrSlotBeingBooked)
	s.metrics.Booking.Record(latency, err == nil, conflict)
	switch {
	case err == nil:
		s.logger.Debug("booked", "appointment_id", appt.ID, "time", clock)
	case conflict:
		s.logger.Debug("slot lost to another visitor", "time", clock, "error", err)
	case ctx.Err() == nil:
		s.logger.Warn("booking failed", "time", clock, "error", err)
	}
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Date: %s\n", s.config.Date)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Fetch slots", &s.metrics.FetchSlots)
	printOperationReport("Booking", &s.metrics.Booking)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

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

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
