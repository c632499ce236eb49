// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/squery/internal/logger"
	"github.com/woozymasta/squery/internal/vars"
)

// Commands accepted as the first positional argument.
const (
	CommandPlayers = "players"
	CommandInfo    = "info"
	CommandServe   = "serve"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server  Server        `group:"Server Options" env-namespace:"SQUERY"`
	A2S     A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"SQUERY_A2S"`
	Monitor Monitor       `group:"Monitor Options" namespace:"monitor" env-namespace:"SQUERY_MONITOR"`
	Storage Storage       `group:"Storage Options" namespace:"db" env-namespace:"SQUERY_DB"`
	GeoIP   GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"SQUERY_GEOIP"`
	MQTT    MQTT          `group:"MQTT Options" namespace:"mqtt" env-namespace:"SQUERY_MQTT"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"SQUERY_LOG"`

	Args struct {
		Command string `positional-arg-name:"command" description:"players, info or serve"`
		Address string `positional-arg-name:"address" description:"Server address host[:port] for players and info"`
	} `positional-args:"yes"`

	JSON    bool `short:"j" long:"json" description:"Print query results as JSON"`
	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address        string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken      string        `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	TrustProxy     bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	HardLimitCount int           `long:"rate-limit-count" env:"RATE_LIMIT_COUNT" description:"Per IP limit: requests count" default:"30"`
	HardLimitWin   time.Duration `long:"rate-limit-window" env:"RATE_LIMIT_WINDOW" description:"Per IP limit: window duration" default:"1m"`
}

// A2S holds Source Query protocol configuration.
type A2S struct {
	// betteralign:ignore

	SendTimeout   time.Duration `long:"send-timeout" env:"SEND_TIMEOUT" description:"Datagram send timeout" default:"3s"`
	RecvTimeout   time.Duration `long:"recv-timeout" env:"RECV_TIMEOUT" description:"Datagram receive timeout" default:"3s"`
	BufferSize    uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Receive buffer size per datagram" default:"1400"`
	MaxChallenges int           `long:"max-challenges" env:"MAX_CHALLENGES" description:"Maximum challenge re-sends per query" default:"5"`
}

// Monitor holds the background poller configuration.
type Monitor struct {
	// betteralign:ignore

	Targets  []string      `short:"s" long:"target" env:"TARGETS" env-delim:"," description:"Server address host[:port] to poll, repeatable"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Polling interval" default:"1m"`
	Workers  int           `long:"workers" env:"WORKERS" description:"Concurrent queries" default:"10"`
	Rate     float64       `long:"rate" env:"RATE" description:"Maximum queries per second" default:"20"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"squery.db"`
	PruneOlder    time.Duration `long:"prune-older" description:"Delete snapshots and servers not seen within duration, then exit"`
	Retention     time.Duration `long:"retention" env:"RETENTION" description:"Snapshot retention applied on every poll, 0 keeps everything" default:"0"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"squery.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// MQTT holds snapshot publishing configuration. Publishing is disabled without a broker.
type MQTT struct {
	// betteralign:ignore

	Broker   string `long:"broker" env:"BROKER" description:"Broker URL, e.g. tcp://localhost:1883"`
	ClientID string `long:"client-id" env:"CLIENT_ID" description:"MQTT client ID" default:"squery"`
	Topic    string `long:"topic" env:"TOPIC" description:"Topic prefix" default:"squery"`
	Username string `long:"username" env:"USERNAME" description:"Broker username"`
	Password string `long:"password" env:"PASSWORD" description:"Broker password"`

	RetryInterval time.Duration `long:"retry-interval" env:"RETRY_INTERVAL" description:"Delay between connect attempts while the broker is down" default:"10s"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

// Load parses args and the environment into a validated Config.
func Load(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Version {
		return &cfg, nil
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.Args.Command = strings.ToLower(c.Args.Command)

	switch c.Args.Command {
	case CommandPlayers, CommandInfo:
		if c.Args.Address == "" {
			return fmt.Errorf("command %q requires a server address", c.Args.Command)
		}

	case CommandServe:
		if c.Server.AuthToken == "" && c.Storage.PruneOlder == 0 && c.Storage.GenerateCount == 0 {
			return errors.New("required flag `-t, --auth-token' or environment variable `SQUERY_AUTH_TOKEN` was not specified")
		}

	case "":
		return fmt.Errorf("missing command, expected one of: %s, %s, %s", CommandPlayers, CommandInfo, CommandServe)

	default:
		return fmt.Errorf("unknown command %q", c.Args.Command)
	}

	if c.A2S.MaxChallenges < 0 {
		return errors.New("--a2s-max-challenges must not be negative")
	}
	if c.Monitor.Workers < 1 {
		c.Monitor.Workers = 1
	}

	return nil
}
