package gateway

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is the environment-variable prefix every MQTTSN_* setting is
// bound under (e.g. MQTTSN_HOST, MQTTSN_AMQP_CONNECTION_STRING).
const envPrefix = "MQTTSN"

// Config is the gateway's full runtime configuration, loaded from
// environment variables under the MQTTSN_ prefix. cmd/mqttsn-gatewayd
// lets a few CLI flags (--host, --port, --debug, --dev) override the
// loaded values.
type Config struct {
	Host string
	Port int

	UsePortNumberInClientStore bool
	ExtendStoreTTLOnPublish    bool

	AMQPConnectionString string
	AMQPPublishExchange  string

	ValkeyConnectionString string

	SentryDSN string

	Debug    bool
	JSONLogs bool

	MaxInFlight     int
	DispatchTimeout time.Duration

	// DevMode runs the gateway against in-memory stores and forwarder
	// instead of Valkey/AMQP, for local development without external
	// services.
	DevMode bool
}

// LoadConfig binds MQTTSN_* environment variables to a Config, applying
// the defaults from the external-interfaces contract.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 1884)
	v.SetDefault("use_port_number_in_client_store", false)
	v.SetDefault("extend_store_ttl_on_publish", true)
	v.SetDefault("amqp_publish_exchange", "mqtt-sn")
	v.SetDefault("valkey_connection_string", "valkey://localhost:6379/0")
	v.SetDefault("debug", false)
	v.SetDefault("json_logs", false)
	v.SetDefault("max_inflight", DefaultMaxInFlight)
	v.SetDefault("dispatch_timeout", DefaultDispatchTimeout)
	v.SetDefault("dev_mode", false)

	cfg := Config{
		Host:                       v.GetString("host"),
		Port:                       v.GetInt("port"),
		UsePortNumberInClientStore: v.GetBool("use_port_number_in_client_store"),
		ExtendStoreTTLOnPublish:    v.GetBool("extend_store_ttl_on_publish"),
		AMQPConnectionString:       v.GetString("amqp_connection_string"),
		AMQPPublishExchange:        v.GetString("amqp_publish_exchange"),
		ValkeyConnectionString:     v.GetString("valkey_connection_string"),
		SentryDSN:                  v.GetString("sentry_dsn"),
		Debug:                      v.GetBool("debug"),
		JSONLogs:                   v.GetBool("json_logs"),
		MaxInFlight:                v.GetInt("max_inflight"),
		DispatchTimeout:            v.GetDuration("dispatch_timeout"),
		DevMode:                    v.GetBool("dev_mode"),
	}

	if cfg.AMQPConnectionString == "" && !cfg.DevMode {
		return Config{}, fmt.Errorf("gateway: %s_AMQP_CONNECTION_STRING is required", envPrefix)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("gateway: invalid port %d", cfg.Port)
	}

	return cfg, nil
}

// Addr formats Host and Port as a net.Listen-style address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
