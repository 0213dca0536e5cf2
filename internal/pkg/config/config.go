package config

import (
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBUsername    string   `yaml:"db_username"`
	DBPassword    string   `yaml:"db_password"`
	DBHost        string   `yaml:"db_host"`
	DBPort        string   `yaml:"port"`
	DBName        string   `yaml:"db_name"`
	DisableTLS    bool     `yaml:"disable_tls"`
	DebugSQL      bool     `yaml:"debug_sql"`
	HTTPPort      string   `yaml:"http_port"`
	JWTKey        string   `yaml:"jwt_key"`
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	CORSOrigins   []string `yaml:"cors_origins"`
	Policy        Policy   `yaml:"policy"`
}

// Band is an inclusive identifier range reserved for a role.
type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether id lies in the band.
func (b Band) Contains(id int) bool {
	return id >= b.Min && id <= b.Max
}

// Policy holds the tunables of the attendance and scheduling rules.
type Policy struct {
	Bands              map[string]Band `yaml:"bands"`
	DebounceWindow     time.Duration   `yaml:"debounce_window"`
	AllocationAttempts int             `yaml:"allocation_attempts"`
	AllocationBackoff  time.Duration   `yaml:"allocation_backoff"`
	ShiftLockTTL       time.Duration   `yaml:"shift_lock_ttl"`
	ShiftLockAttempts  int             `yaml:"shift_lock_attempts"`
	ShiftLockBackoff   time.Duration   `yaml:"shift_lock_backoff"`
}

// DefaultPolicy returns the policy used when config.yaml leaves it out.
func DefaultPolicy() Policy {
	return Policy{
		Bands: map[string]Band{
			"STAFF":   {Min: 1000, Max: 7999},
			"MANAGER": {Min: 8000, Max: 8999},
			"ADMIN":   {Min: 9000, Max: 9999},
		},
		DebounceWindow:     60 * time.Second,
		AllocationAttempts: 3,
		AllocationBackoff:  100 * time.Millisecond,
		ShiftLockTTL:       5 * time.Second,
		ShiftLockAttempts:  3,
		ShiftLockBackoff:   50 * time.Millisecond,
	}
}

func NewConfig(path string) (*Config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	return Parse(yamlFile)
}

// Parse decodes a yaml document, fills policy defaults and validates the
// result.
func Parse(data []byte) (*Config, error) {
	var c Config

	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if c.DBUsername == "" || c.DBPassword == "" || c.DBHost == "" || c.DBName == "" {
		return nil, errors.New("missing required database configuration")
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.HTTPPort == "" {
		c.HTTPPort = ":8080"
	}

	c.Policy.applyDefaults()
	if err := c.Policy.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (p *Policy) applyDefaults() {
	d := DefaultPolicy()
	if len(p.Bands) == 0 {
		p.Bands = d.Bands
	}
	if p.DebounceWindow == 0 {
		p.DebounceWindow = d.DebounceWindow
	}
	if p.AllocationAttempts == 0 {
		p.AllocationAttempts = d.AllocationAttempts
	}
	if p.AllocationBackoff == 0 {
		p.AllocationBackoff = d.AllocationBackoff
	}
	if p.ShiftLockTTL == 0 {
		p.ShiftLockTTL = d.ShiftLockTTL
	}
	if p.ShiftLockAttempts == 0 {
		p.ShiftLockAttempts = d.ShiftLockAttempts
	}
	if p.ShiftLockBackoff == 0 {
		p.ShiftLockBackoff = d.ShiftLockBackoff
	}
}

// Validate checks that every band is well formed and that no two bands share
// an identifier.
func (p Policy) Validate() error {
	if p.DebounceWindow < 0 || p.AllocationBackoff < 0 || p.ShiftLockBackoff < 0 {
		return errors.New("policy durations must not be negative")
	}
	if p.AllocationAttempts < 1 {
		return errors.New("allocation_attempts must be at least 1")
	}

	type named struct {
		role string
		Band
	}
	bands := make([]named, 0, len(p.Bands))
	for role, b := range p.Bands {
		if role == "" {
			return errors.New("band role must not be empty")
		}
		if b.Min > b.Max {
			return errors.Errorf("band %s: min %d greater than max %d", role, b.Min, b.Max)
		}
		bands = append(bands, named{role, b})
	}

	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	for i := 1; i < len(bands); i++ {
		if bands[i].Min <= bands[i-1].Max {
			return errors.Errorf("bands %s and %s overlap", bands[i-1].role, bands[i].role)
		}
	}

	return nil
}
