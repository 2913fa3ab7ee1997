package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/config"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/internal/leads"
	"github.com/hackgods/studio-booking/pkg/logging"
)

var (
	projectTypes = []string{"Personal Portfolio", "Business / Company Website", "E-commerce Website", "Landing Page", "Web App / SaaS"}
	budgets      = []string{"₹5,000 – ₹10,000", "₹10,000 – ₹20,000", "₹30,000+", "Not sure yet"}
	timelines    = []string{"ASAP", "1–2 weeks", "3–4 weeks", "Flexible"}
	features     = []string{"Blog", "Contact form", "Payments", "CMS", "Analytics", "Booking"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel).Named("seed")
	logger.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	avail := availability.NewService(availability.NewPgRepository(pool), logger, nil)
	if err := seedWeek(ctx, avail); err != nil {
		logger.Error("seed availability", "error", err)
		os.Exit(1)
	}
	logger.Info("availability seeded", "days", "mon-fri", "window", "09:00-17:00")

	intake := leads.NewService(leads.NewPgRepository(pool), logger, nil)
	count := 25
	if s := os.Getenv("SEED_COUNT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			count = n
		}
	}
	if err := seedIntake(ctx, intake, count); err != nil {
		logger.Error("seed intake", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete", "leads", count, "project_leads", count, "contact_forms", count)
}

// seedWeek fills in missing weekdays and opens Monday to Friday with the default window.
func seedWeek(ctx context.Context, svc *availability.Service) error {
	rules, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	for i := range rules {
		day := rules[i].Weekday
		rules[i].Active = day >= time.Monday && day <= time.Friday
	}
	_, err = svc.Save(ctx, rules)
	return err
}

func seedIntake(ctx context.Context, svc *leads.Service, count int) error {
	for i := 0; i < count; i++ {
		if _, err := svc.CreateLead(ctx, leads.LeadInput{
			Name:           gofakeit.Name(),
			Email:          gofakeit.Email(),
			ProjectDetails: gofakeit.HackerPhrase(),
		}); err != nil {
			return err
		}

		if _, err := svc.CreateProjectLead(ctx, leads.ProjectLeadInput{
			FullName:    gofakeit.Name(),
			Email:       gofakeit.Email(),
			Phone:       gofakeit.Phone(),
			CompanyName: gofakeit.Company(),
			ProjectType: pick(projectTypes),
			Description: gofakeit.HackerPhrase() + " " + gofakeit.HackerPhrase(),
			Features:    []string{pick(features), pick(features)},
			Budget:      pick(budgets),
			Timeline:    pick(timelines),
			ExistingURL: gofakeit.URL(),
		}); err != nil {
			return err
		}

		body, err := json.Marshal(leads.ContactForm{
			FullName: gofakeit.Name(),
			Email:    gofakeit.Email(),
			Message:  gofakeit.HackerPhrase(),
		})
		if err != nil {
			return err
		}
		if _, err := svc.SubmitForm(ctx, leads.FormContact, nil, body); err != nil {
			return err
		}
	}
	return nil
}

func pick(values []string) string {
	return values[gofakeit.Number(0, len(values)-1)]
}
