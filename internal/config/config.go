package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/robertarktes/party-bookings/internal/domain"
)

const (
	StoreCRDB   = "crdb"
	StoreMemory = "memory"

	PolicyShared    = "shared"
	PolicyExclusive = "exclusive"
)

type Config struct {
	HTTPAddr       string
	CRDBDSN        string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RabbitURL      string
	OTLPEndpoint   string
	Store          string
	BookingPolicy  string
	SlotLockTTL    time.Duration
	TimeSlots      []string
	WhatsAppNumber string
	AdminToken     string
	IdempotencyTTL time.Duration
	RateLimit      int
	SeedContent    bool
	LogLevel       string
	OutboxInterval time.Duration
	AuditQueue     string
	APIURL         string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		CRDBDSN:        os.Getenv("CRDB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getenv("MONGO_DB", "party"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Store:          strings.ToLower(getenv("STORE", StoreCRDB)),
		BookingPolicy:  strings.ToLower(getenv("BOOKING_POLICY", PolicyShared)),
		SlotLockTTL:    duration("SLOT_LOCK_TTL", 10*time.Second),
		TimeSlots:      slots(os.Getenv("TIME_SLOTS")),
		WhatsAppNumber: getenv("WHATSAPP_NUMBER", "5491122334455"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		IdempotencyTTL: duration("IDEMPOTENCY_TTL", time.Hour),
		RateLimit:      integer("RATE_LIMIT_PER_MINUTE", 30),
		SeedContent:    boolean("SEED_CONTENT"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		OutboxInterval: duration("OUTBOX_INTERVAL", 5*time.Second),
		AuditQueue:     getenv("AUDIT_QUEUE", "pb.audit"),
		APIURL:         getenv("API_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreCRDB:
		if c.CRDBDSN == "" {
			return errors.New("CRDB_DSN is required when STORE=crdb")
		}
	case StoreMemory:
	default:
		return errors.Newf("unknown STORE %q", c.Store)
	}
	if c.BookingPolicy != PolicyShared && c.BookingPolicy != PolicyExclusive {
		return errors.Newf("unknown BOOKING_POLICY %q", c.BookingPolicy)
	}
	if len(c.TimeSlots) == 0 {
		return errors.New("at least one time slot is required")
	}
	return nil
}

// Exclusive reports whether a slot may be held by one booking at a time.
func (c *Config) Exclusive() bool {
	return c.BookingPolicy == PolicyExclusive
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d <= 0 {
		return def
	}
	return d
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolean(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

// slots parses a comma separated slot list, falling back to the venue defaults.
func slots(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), domain.DefaultSlots...)
	}
	return out
}
