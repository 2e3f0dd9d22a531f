package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/server/dates"
	"github.com/habitloop/server/habits"
	"github.com/habitloop/server/handlers"
	"github.com/habitloop/server/jobs"
	"github.com/habitloop/server/mail"
	"github.com/habitloop/server/store"
)

const defaultPort = "8080"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("File .env not found!")
	}

	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := store.Open(mustGetenv("DATABASE_URL"))
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Init(context.Background()); err != nil {
		logrus.WithError(err).Fatal("schema init failed")
	}

	secret := []byte(mustGetenv("JWT_SECRET"))

	h := &handlers.Handler{Store: st, Secret: secret}
	router := handlers.Router(h, corsOrigins())

	reminders := &jobs.Reminders{Store: st, Notify: notifier()}
	c := cron.New(cron.WithLocation(dates.Location))
	spec := envOr("REMINDER_CRON", jobs.DefaultSpec)
	if err := reminders.Schedule(c, spec); err != nil {
		logrus.WithError(err).Fatal("invalid reminder cron spec")
	}
	c.Start()
	defer c.Stop()

	port := envOr("PORT", defaultPort)
	logrus.WithField("port", port).Info("habit tracker API running")
	logrus.Fatal(http.ListenAndServe(":"+port, router))
}

// notifier picks Mailgun when configured and falls back to log-only delivery
// so the reminder job still runs in development.
func notifier() habits.Notifier {
	domain := os.Getenv("MAILGUN_DOMAIN")
	key := os.Getenv("MAILGUN_KEY")
	if domain == "" || key == "" {
		logrus.Warn("MAILGUN_DOMAIN/MAILGUN_KEY not set, reminders will only be logged")
		return mail.LogNotifier{}.Notify
	}
	sender := envOr("EMAIL_FROM", "Habitloop <reminders@"+domain+">")
	return mail.NewNotifier(domain, key, sender).Notify
}

func corsOrigins() []string {
	var origins []string
	for _, p := range strings.Split(envOr("CORS_ORIGIN", "http://localhost:3000"), ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		logrus.Fatalf("%s environment variable not set.", k)
	}
	return v
}
