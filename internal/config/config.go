package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	GoalRandom = "random"
	GoalLocal  = "local"
	GoalGlobal = "global"
)

type Config struct {
	Mission Mission `yaml:"mission"`
	Goal    Goal    `yaml:"goal"`
	Flight  Flight  `yaml:"flight"`
	MQTT    MQTT    `yaml:"mqtt"`
	Log     Log     `yaml:"log"`
}

type Mission struct {
	Colliders      string  `yaml:"colliders"`
	TargetAltitude float64 `yaml:"target_altitude"`
	SafetyDistance float64 `yaml:"safety_distance"`
	UseSkeleton    bool    `yaml:"use_skeleton"`
	SnapRadius     int     `yaml:"snap_radius"`
}

type Goal struct {
	Strategy string  `yaml:"strategy"`
	Seed     int64   `yaml:"seed"`
	North    float64 `yaml:"north"`
	East     float64 `yaml:"east"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
}

// Flight holds the transition guards of the flight state machine.
type Flight struct {
	TakeoffRatio           float64 `yaml:"takeoff_ratio"`
	WaypointRadius         float64 `yaml:"waypoint_radius"`
	LandingSpeed           float64 `yaml:"landing_speed"`
	HomeAltitudeTolerance  float64 `yaml:"home_altitude_tolerance"`
	LocalAltitudeTolerance float64 `yaml:"local_altitude_tolerance"`
}

type MQTT struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Timeout    time.Duration `yaml:"timeout"`
	DeviceID   string        `yaml:"device_id"`
	Username   string        `yaml:"username"`
	PrivateKey string        `yaml:"private_key"`
	Audience   string        `yaml:"audience"`
	TLS        bool          `yaml:"tls"`
}

type Log struct {
	Dir        string `yaml:"dir"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

func Default() Config {
	return Config{
		Mission: Mission{
			Colliders:      "colliders.csv",
			TargetAltitude: 5,
			SafetyDistance: 5,
			UseSkeleton:    true,
		},
		Goal: Goal{
			Strategy: GoalRandom,
			Seed:     1,
		},
		Flight: Flight{
			TakeoffRatio:           0.95,
			WaypointRadius:         5,
			LandingSpeed:           1,
			HomeAltitudeTolerance:  0.1,
			LocalAltitudeTolerance: 0.01,
		},
		MQTT: MQTT{
			Host:     "127.0.0.1",
			Port:     1883,
			Timeout:  60 * time.Second,
			DeviceID: "drone",
			Username: "unused",
		},
		Log: Log{
			Dir:        "Logs",
			MaxSize:    32,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty filename returns
// the defaults.
func Load(filename string) (Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	text, err := ioutil.ReadFile(filename)
	if err != nil {
		return cfg, errors.WithMessage(err, "Could not read config")
	}
	if err := Parse(text, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func Parse(text []byte, cfg *Config) error {
	if err := yaml.Unmarshal(text, cfg); err != nil {
		return errors.WithMessage(err, "Could not parse config")
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Mission.TargetAltitude < 0 {
		return errors.Errorf("target_altitude must be >= 0, got %v", c.Mission.TargetAltitude)
	}
	if c.Mission.SafetyDistance < 0 {
		return errors.Errorf("safety_distance must be >= 0, got %v", c.Mission.SafetyDistance)
	}
	switch c.Goal.Strategy {
	case GoalRandom, GoalLocal, GoalGlobal:
	default:
		return errors.Errorf("unknown goal strategy %q", c.Goal.Strategy)
	}
	if c.Flight.TakeoffRatio <= 0 || c.Flight.TakeoffRatio > 1 {
		return errors.Errorf("takeoff_ratio must be in (0, 1], got %v", c.Flight.TakeoffRatio)
	}
	if c.Flight.WaypointRadius <= 0 {
		return errors.Errorf("waypoint_radius must be > 0, got %v", c.Flight.WaypointRadius)
	}
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		return errors.Errorf("invalid port %d", c.MQTT.Port)
	}

	return nil
}
