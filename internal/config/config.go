package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL   string
	HTTPPort      int
	LogLevel      string
	TelegramToken string
	AuditChatID   int64
	HolidaysFile  string
	Rules         RotationRules
}

// RotationRules - параметры рабочего процесса ротаций
type RotationRules struct {
	AttendanceThreshold float64
	DueSoonWindowDays   int
	LateGraceMinutes    int
	DefaultClockIn      string
	DefaultClockOut     string
	DefaultBreakMinutes int
	DefaultHoursPerDay  float64
	RegressReviewDays   int
	Location            *time.Location
}

// DefaultRules возвращает правила по умолчанию
func DefaultRules() RotationRules {
	return RotationRules{
		AttendanceThreshold: 75,
		DueSoonWindowDays:   7,
		LateGraceMinutes:    15,
		DefaultClockIn:      "09:00",
		DefaultClockOut:     "17:00",
		DefaultBreakMinutes: 60,
		DefaultHoursPerDay:  8,
		RegressReviewDays:   7,
		Location:            time.UTC,
	}
}

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		defaults := DefaultRules()
		instance = &Config{
			DatabaseURL:   getEnv("DATABASE_URL", "rotation.db"),
			HTTPPort:      int(getEnvAsInt("HTTP_PORT", 8080)),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			AuditChatID:   getEnvAsInt("AUDIT_CHAT_ID", 0),
			HolidaysFile:  getEnv("HOLIDAYS_FILE", ""),
			Rules: RotationRules{
				AttendanceThreshold: getEnvAsFloat("ATTENDANCE_THRESHOLD", defaults.AttendanceThreshold),
				DueSoonWindowDays:   int(getEnvAsInt("DUE_SOON_WINDOW_DAYS", int64(defaults.DueSoonWindowDays))),
				LateGraceMinutes:    int(getEnvAsInt("LATE_GRACE_MINUTES", int64(defaults.LateGraceMinutes))),
				DefaultClockIn:      getEnv("DEFAULT_CLOCK_IN", defaults.DefaultClockIn),
				DefaultClockOut:     getEnv("DEFAULT_CLOCK_OUT", defaults.DefaultClockOut),
				DefaultBreakMinutes: int(getEnvAsInt("DEFAULT_BREAK_MINUTES", int64(defaults.DefaultBreakMinutes))),
				DefaultHoursPerDay:  getEnvAsFloat("DEFAULT_HOURS_PER_DAY", defaults.DefaultHoursPerDay),
				RegressReviewDays:   int(getEnvAsInt("REGRESS_REVIEW_DAYS", int64(defaults.RegressReviewDays))),
				Location:            getEnvAsLocation("TIMEZONE", time.UTC),
			},
		}

		if instance.HTTPPort <= 0 || instance.HTTPPort > 65535 {
			logrus.Fatalf("invalid HTTP_PORT %d", instance.HTTPPort)
		}
		if instance.TelegramToken != "" && instance.AuditChatID == 0 {
			logrus.Fatal("AUDIT_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
		}
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsLocation(name string, defaultVal *time.Location) *time.Location {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	loc, err := time.LoadLocation(valStr)
	if err != nil {
		logrus.Warnf("unknown timezone %q, using %s", valStr, defaultVal)
		return defaultVal
	}
	return loc
}
