package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	AutoPlay      AutoPlayConfig      `yaml:"autoplay"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver" envconfig:"DATABASE_DRIVER"`
	// SQLitePath is used when Driver is "sqlite".
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" envconfig:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration. An empty URL disables the JetStream lock and the
// in-process lock is used instead.
type NATSConfig struct {
	URL      string `yaml:"url" envconfig:"NATS_URL"`
	LockKV   string `yaml:"lock_kv" envconfig:"NATS_LOCK_KV"`
	LeagueID string `yaml:"league_id" envconfig:"LEAGUE_ID"`
}

// JWTConfig holds JWT configuration for the control API.
type JWTConfig struct {
	Secret     string        `yaml:"secret" envconfig:"JWT_SECRET"`
	DefaultTTL time.Duration `yaml:"default_ttl" envconfig:"JWT_DEFAULT_TTL"`
}

// HTTPConfig holds the control API listener settings.
type HTTPConfig struct {
	Address        string  `yaml:"address" envconfig:"HTTP_ADDRESS"`
	RateLimit      float64 `yaml:"rate_limit" envconfig:"HTTP_RATE_LIMIT"`
	RateLimitBurst int     `yaml:"rate_limit_burst" envconfig:"HTTP_RATE_LIMIT_BURST"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address" envconfig:"METRICS_ADDRESS"`
	Environment    string `yaml:"environment" envconfig:"ENV"`
	LogLevel       string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// SimulationConfig holds the league knobs read by the engine. They are read-only for the
// duration of a run.
type SimulationConfig struct {
	NumGames              int   `yaml:"num_games" envconfig:"SIM_NUM_GAMES"`
	NumGamesPlayoffSeries []int `yaml:"num_games_playoff_series" envconfig:"SIM_NUM_GAMES_PLAYOFF_SERIES"`
	PlayIn                bool  `yaml:"play_in" envconfig:"SIM_PLAY_IN"`
	AllStarGame           bool  `yaml:"all_star_game" envconfig:"SIM_ALL_STAR_GAME"`

	TiesAllowed bool `yaml:"ties_allowed" envconfig:"SIM_TIES_ALLOWED"`
	OTLAllowed  bool `yaml:"otl_allowed" envconfig:"SIM_OTL_ALLOWED"`

	StopOnInjury      bool `yaml:"stop_on_injury" envconfig:"SIM_STOP_ON_INJURY"`
	StopOnInjuryGames int  `yaml:"stop_on_injury_games" envconfig:"SIM_STOP_ON_INJURY_GAMES"`

	// PlayThroughInjuries is the longest injury (in games) a player still dresses for, indexed
	// by [regular season, playoffs].
	PlayThroughInjuries []int `yaml:"play_through_injuries" envconfig:"SIM_PLAY_THROUGH_INJURIES"`

	TragicDeathRate float64 `yaml:"tragic_death_rate" envconfig:"SIM_TRAGIC_DEATH_RATE"`
	InjuryRate      float64 `yaml:"injury_rate" envconfig:"SIM_INJURY_RATE"`
	Difficulty      float64 `yaml:"difficulty" envconfig:"SIM_DIFFICULTY"`

	// SalaryCap and DefaultSalaryCap are in thousands of dollars. Revenue formulas scale by
	// SalaryCap / DefaultSalaryCap.
	SalaryCap        int64 `yaml:"salary_cap" envconfig:"SIM_SALARY_CAP"`
	DefaultSalaryCap int64 `yaml:"default_salary_cap" envconfig:"SIM_DEFAULT_SALARY_CAP"`
	BudgetEnabled    bool  `yaml:"budget" envconfig:"SIM_BUDGET"`

	MinRosterSize int `yaml:"min_roster_size" envconfig:"SIM_MIN_ROSTER_SIZE"`
	MaxRosterSize int `yaml:"max_roster_size" envconfig:"SIM_MAX_ROSTER_SIZE"`

	GodMode          bool `yaml:"god_mode" envconfig:"SIM_GOD_MODE"`
	ForceWinAttempts int  `yaml:"force_win_attempts" envconfig:"SIM_FORCE_WIN_ATTEMPTS"`
}

// AutoPlayConfig controls the background cadence that simulates days without a request.
type AutoPlayConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"AUTOPLAY_ENABLED"`
	Interval    time.Duration `yaml:"interval" envconfig:"AUTOPLAY_INTERVAL"`
	DaysPerTick int           `yaml:"days_per_tick" envconfig:"AUTOPLAY_DAYS_PER_TICK"`
}

// LoadConfig loads the configuration from a YAML file, then overlays any environment
// variables that are set.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// Environment only.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "league.db"
	}
	if c.NATS.LockKV == "" {
		c.NATS.LockKV = "leaguesim-locks"
	}
	if c.NATS.LeagueID == "" {
		c.NATS.LeagueID = "default"
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":3000"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateLimitBurst == 0 {
		c.HTTP.RateLimitBurst = 10
	}
	if c.AutoPlay.Interval == 0 {
		c.AutoPlay.Interval = time.Minute
	}
	if c.AutoPlay.DaysPerTick == 0 {
		c.AutoPlay.DaysPerTick = 1
	}
	c.Simulation.applyDefaults()
}

func (s *SimulationConfig) applyDefaults() {
	if s.NumGames == 0 {
		s.NumGames = 17
	}
	if len(s.NumGamesPlayoffSeries) == 0 {
		s.NumGamesPlayoffSeries = []int{1, 1, 1, 1}
	}
	if s.StopOnInjuryGames == 0 {
		s.StopOnInjuryGames = 20
	}
	if len(s.PlayThroughInjuries) < 2 {
		s.PlayThroughInjuries = []int{0, 4}
	}
	if s.InjuryRate == 0 {
		s.InjuryRate = 0.0025
	}
	if s.SalaryCap == 0 {
		s.SalaryCap = 200000
	}
	if s.DefaultSalaryCap == 0 {
		s.DefaultSalaryCap = 200000
	}
	if s.MinRosterSize == 0 {
		s.MinRosterSize = 45
	}
	if s.MaxRosterSize == 0 {
		s.MaxRosterSize = 53
	}
	if s.ForceWinAttempts == 0 {
		s.ForceWinAttempts = 2000
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	for i, n := range c.Simulation.NumGamesPlayoffSeries {
		if n < 1 {
			return fmt.Errorf("num_games_playoff_series[%d] must be positive, got %d", i, n)
		}
	}
	if c.Simulation.MinRosterSize > c.Simulation.MaxRosterSize {
		return fmt.Errorf("min_roster_size %d exceeds max_roster_size %d",
			c.Simulation.MinRosterSize, c.Simulation.MaxRosterSize)
	}
	return nil
}

// SalaryCapScale is the factor revenue formulas are multiplied by.
func (s SimulationConfig) SalaryCapScale() float64 {
	if s.DefaultSalaryCap == 0 {
		return 1
	}
	return float64(s.SalaryCap) / float64(s.DefaultSalaryCap)
}
