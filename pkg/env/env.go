package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Ref identifies a rover.
type Ref struct {
	Type string `toml:"type"`
	ID   string `toml:"id"`
}

// IsValid indicates both Type and ID are set.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Name returns type/id.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// Duration wraps time.Duration to be a TOML string like "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config provides options to reach the MCU and the telemetry broker.
type Config struct {
	Ref Ref `toml:"rover"`

	// MCUURL locates the MCU, one of
	//   tcp://host:port
	//   ws://host:port/path
	//   serial:///dev/ttyACM0 or just /dev/ttyACM0
	//   mqtt://broker:port/topic-prefix via the bridge of Ref
	MCUURL string `toml:"mcu_url"`
	// Baud is the serial baud rate.
	Baud int `toml:"baud"`
	// Timeout bounds the wait for each MCU response.
	Timeout Duration `toml:"timeout"`
	// Rate limits requests per second to the MCU, 0 means unlimited.
	Rate float64 `toml:"rate"`

	// MQTTBrokerURL specifies the MQTT broker for telemetry.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `toml:"mqtt_url"`
}

// Defaults
const (
	DefaultMCUURL        = "tcp://localhost:7700"
	DefaultBaud          = 115200
	DefaultTimeout       = 500 * time.Millisecond
	DefaultMQTTBrokerURL = "mqtt://localhost:1883/rover/"
	DefaultType          = "rover"
)

var (
	defaultConfig = Config{
		Ref:           Ref{Type: DefaultType},
		MCUURL:        DefaultMCUURL,
		Baud:          DefaultBaud,
		Timeout:       Duration{DefaultTimeout},
		MQTTBrokerURL: DefaultMQTTBrokerURL,
	}

	configFile string
)

func init() {
	if val := os.Getenv("ROVER_MCU_URL"); val != "" {
		defaultConfig.MCUURL = val
	}
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROVER_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("ROVER_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
}

// flagSetters copy the value of a flag from src to dst.
var flagSetters = map[string]func(dst, src *Config){
	"mcu":     func(dst, src *Config) { dst.MCUURL = src.MCUURL },
	"baud":    func(dst, src *Config) { dst.Baud = src.Baud },
	"timeout": func(dst, src *Config) { dst.Timeout = src.Timeout },
	"rate":    func(dst, src *Config) { dst.Rate = src.Rate },
	"mqtt":    func(dst, src *Config) { dst.MQTTBrokerURL = src.MQTTBrokerURL },
	"type":    func(dst, src *Config) { dst.Ref.Type = src.Ref.Type },
	"id":      func(dst, src *Config) { dst.Ref.ID = src.Ref.ID },
}

func setupFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.MCUURL, "mcu", c.MCUURL, "MCU URL: tcp://host:port, ws://host:port/path or serial device path.")
	fs.IntVar(&c.Baud, "baud", c.Baud, "Serial baud rate.")
	fs.DurationVar(&c.Timeout.Duration, "timeout", c.Timeout.Duration, "MCU response timeout.")
	fs.Float64Var(&c.Rate, "rate", c.Rate, "Maximum MCU requests per second, 0 means unlimited.")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL.")
	fs.StringVar(&c.Ref.Type, "type", c.Ref.Type, "Rover type.")
	fs.StringVar(&c.Ref.ID, "id", c.Ref.ID, "Rover ID, defaults to the machine id.")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	setupFlags(flag.CommandLine, &defaultConfig)
	flag.StringVar(&configFile, "config", configFile, "TOML config file, explicit flags take precedence.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile decodes a TOML file over c.
func (c *Config) LoadFile(fn string) error {
	md, err := toml.DecodeFile(fn, c)
	if err != nil {
		return fmt.Errorf("load %s: %w", fn, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load %s: unknown keys %v", fn, undecoded)
	}
	return nil
}

// overlay loads fn over base and re-applies the flags set in fs.
func overlay(base *Config, fn string, fs *flag.FlagSet, flags *Config) (*Config, error) {
	conf := *base
	if fn != "" {
		if err := conf.LoadFile(fn); err != nil {
			return nil, err
		}
		fs.Visit(func(f *flag.Flag) {
			if set, ok := flagSetters[f.Name]; ok {
				set(&conf, flags)
			}
		})
	}
	if conf.Ref.ID == "" {
		conf.Ref.ID = MachineID()
	}
	return &conf, nil
}

// LoadConfig creates the Config from the config file and command line
// flags, it must be called after flag.Parse.
func LoadConfig() (*Config, error) {
	return overlay(&defaultConfig, configFile, flag.CommandLine, &defaultConfig)
}

// MustLoadConfig is LoadConfig which fails on error.
func MustLoadConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}
