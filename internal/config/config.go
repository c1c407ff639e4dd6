package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port  string `json:"port"`
	Debug bool   `json:"debug"`

	// База: "pgx" (Postgres) | "sqlite" (встроенная, файл или :memory:)
	DBDriver        string        `json:"dbDriver"`
	DBURL           string        `json:"dbUrl"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	AcquireTimeout  time.Duration `json:"acquireTimeout"`
	ShutdownGrace   time.Duration `json:"shutdownGrace"`

	AutoMigrate bool `json:"autoMigrate"`
	Seed        bool `json:"seed"`

	// Пусто — встроенный каталог
	DSLDir   string `json:"dslDir"`
	EnumsDir string `json:"enumsDir"`

	ManyPlanetsThreshold int `json:"manyPlanetsThreshold"`
}

// fileConfig — то, что лежит в JSON; длительности строками ("30s", "5m")
type fileConfig struct {
	Config
	ConnMaxLifetime string `json:"connMaxLifetime"`
	AcquireTimeout  string `json:"acquireTimeout"`
	ShutdownGrace   string `json:"shutdownGrace"`
}

func def() Config {
	return Config{
		Port:  "8080",
		Debug: false,

		DBDriver:        "pgx",
		DBURL:           "",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		AcquireTimeout:  60 * time.Second,
		ShutdownGrace:   10 * time.Second,

		AutoMigrate: false,
		Seed:        false,

		DSLDir:   "",
		EnumsDir: "",

		ManyPlanetsThreshold: 2,
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	fc := fileConfig{Config: c}
	if err := json.Unmarshal(b, &fc); err != nil {
		return c, err
	}
	c = fc.Config
	c.ConnMaxLifetime = parseDuration(fc.ConnMaxLifetime, c.ConnMaxLifetime)
	c.AcquireTimeout = parseDuration(fc.AcquireTimeout, c.AcquireTimeout)
	c.ShutdownGrace = parseDuration(fc.ShutdownGrace, c.ShutdownGrace)
	return c, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	// голое число — секунды
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		return parseBool(v, fallback)
	}
	return fallback
}
func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}
func getenvDuration(k string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok {
		return parseDuration(v, fallback)
	}
	return fallback
}

func parseBool(v string, fallback bool) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "1" || v == "true" || v == "yes" {
		return true
	}
	if v == "0" || v == "false" || v == "no" {
		return false
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return load(jsonPath, flag.CommandLine, os.Args[1:])
}

func load(jsonPath string, fs *flag.FlagSet, args []string) Config {
	cfg := fromFileAndEnv(jsonPath)

	// Flags overrides
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	debug := fs.String("debug", strconv.FormatBool(cfg.Debug), "Development logging (true/false)")
	driver := fs.String("db-driver", cfg.DBDriver, "Database driver (pgx/sqlite)")
	db := fs.String("db", cfg.DBURL, "Database URL (postgres DSN or sqlite file)")
	maxOpen := fs.Int("max-open-conns", cfg.MaxOpenConns, "Pool size")
	maxIdle := fs.Int("max-idle-conns", cfg.MaxIdleConns, "Idle connections kept in the pool")
	lifetime := fs.Duration("conn-max-lifetime", cfg.ConnMaxLifetime, "Connection max lifetime")
	acquire := fs.Duration("acquire-timeout", cfg.AcquireTimeout, "Connection acquire timeout")
	grace := fs.Duration("shutdown-grace", cfg.ShutdownGrace, "Graceful shutdown period")
	auto := fs.String("auto-migrate", strconv.FormatBool(cfg.AutoMigrate), "Create missing tables on start (true/false)")
	seed := fs.String("seed", strconv.FormatBool(cfg.Seed), "Insert demo data on start (true/false)")
	dsl := fs.String("dsl", cfg.DSLDir, "Path to DSL directory (empty = builtin)")
	enums := fs.String("enums", cfg.EnumsDir, "Path to enums directory (empty = builtin)")
	threshold := fs.Int("many-planets", cfg.ManyPlanetsThreshold, "Planet count a star must exceed in stars-with-many-planets")

	_ = fs.Parse(args)

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		cfg = fromFileAndEnv(*configPath)
	}

	// явно заданные флаги важнее файла и ENV
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "debug":
			cfg.Debug = parseBool(*debug, cfg.Debug)
		case "db-driver":
			cfg.DBDriver = strings.TrimSpace(*driver)
		case "db":
			cfg.DBURL = strings.TrimSpace(*db)
		case "max-open-conns":
			cfg.MaxOpenConns = *maxOpen
		case "max-idle-conns":
			cfg.MaxIdleConns = *maxIdle
		case "conn-max-lifetime":
			cfg.ConnMaxLifetime = *lifetime
		case "acquire-timeout":
			cfg.AcquireTimeout = *acquire
		case "shutdown-grace":
			cfg.ShutdownGrace = *grace
		case "auto-migrate":
			cfg.AutoMigrate = parseBool(*auto, cfg.AutoMigrate)
		case "seed":
			cfg.Seed = parseBool(*seed, cfg.Seed)
		case "dsl":
			cfg.DSLDir = strings.TrimSpace(*dsl)
		case "enums":
			cfg.EnumsDir = strings.TrimSpace(*enums)
		case "many-planets":
			cfg.ManyPlanetsThreshold = *threshold
		}
	})
	return cfg
}

func fromFileAndEnv(jsonPath string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("CELESTIAL_PORT", cfg.Port)
	cfg.Debug = getenvBool("CELESTIAL_DEBUG", cfg.Debug)
	cfg.DBDriver = getenv("CELESTIAL_DB_DRIVER", cfg.DBDriver)
	cfg.DBURL = getenv("CELESTIAL_DB_URL", cfg.DBURL)
	cfg.MaxOpenConns = getenvInt("CELESTIAL_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	cfg.MaxIdleConns = getenvInt("CELESTIAL_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.ConnMaxLifetime = getenvDuration("CELESTIAL_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)
	cfg.AcquireTimeout = getenvDuration("CELESTIAL_ACQUIRE_TIMEOUT", cfg.AcquireTimeout)
	cfg.ShutdownGrace = getenvDuration("CELESTIAL_SHUTDOWN_GRACE", cfg.ShutdownGrace)
	cfg.AutoMigrate = getenvBool("CELESTIAL_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.Seed = getenvBool("CELESTIAL_SEED", cfg.Seed)
	cfg.DSLDir = getenv("CELESTIAL_DSL_DIR", cfg.DSLDir)
	cfg.EnumsDir = getenv("CELESTIAL_ENUMS_DIR", cfg.EnumsDir)
	cfg.ManyPlanetsThreshold = getenvInt("CELESTIAL_MANY_PLANETS", cfg.ManyPlanetsThreshold)
	return cfg
}
