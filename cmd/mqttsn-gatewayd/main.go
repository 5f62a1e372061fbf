// Command mqttsn-gatewayd runs the MQTT-SN-to-AMQP gateway: it binds a UDP
// socket, terminates MQTT-SN sessions from constrained devices, and
// forwards accepted publishes onto an AMQP topic exchange.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	gateway "github.com/mqttsn/gateway"
)

var rootCmd = &cobra.Command{
	Use:   "mqttsn-gatewayd",
	Short: "MQTT-SN to AMQP gateway",
	Long:  "Terminates MQTT-SN sessions over UDP and forwards accepted publishes to an AMQP topic exchange.",
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("host", "", "UDP listen host (overrides MQTTSN_HOST)")
	flags.Int("port", 0, "UDP listen port (overrides MQTTSN_PORT)")
	flags.Bool("debug", false, "enable debug logging (overrides MQTTSN_DEBUG)")
	flags.Bool("dev", false, "run against in-memory stores and forwarder, no Valkey/AMQP required (overrides MQTTSN_DEV_MODE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		return fmt.Errorf("mqttsn-gatewayd: %w", err)
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.DevMode = true
	}

	log := gateway.NewLogger(cfg)

	flushTelemetry, err := gateway.InitTelemetry(cfg)
	if err != nil {
		log.Warn("telemetry init failed, continuing without it", "err", err)
	}
	defer flushTelemetry()

	var (
		clients gateway.ClientStore
		topics  gateway.TopicStore
		fwd     gateway.Forwarder
	)

	if cfg.DevMode {
		log.Warn("running in dev mode: using in-memory stores and forwarder, nothing is persisted or forwarded externally")
		clients = gateway.NewMemClientStore(gateway.DefaultSessionTTL)
		topics = gateway.NewMemTopicStore(gateway.DefaultSessionTTL)
		fwd = gateway.NewMemForwarder()
	} else {
		rdb := redis.NewClient(parseValkeyOptions(cfg.ValkeyConnectionString))
		defer rdb.Close()

		amqpConn, err := amqp.Dial(cfg.AMQPConnectionString)
		if err != nil {
			return fmt.Errorf("mqttsn-gatewayd: dial AMQP broker: %w", err)
		}
		defer amqpConn.Close()

		amqpFwd, err := gateway.NewAMQPForwarder(amqpConn, cfg.AMQPPublishExchange, 0)
		if err != nil {
			return fmt.Errorf("mqttsn-gatewayd: init forwarder: %w", err)
		}
		defer amqpFwd.Close()
		fwd = amqpFwd

		clients = gateway.NewRedisClientStore(rdb, gateway.DefaultSessionTTL)
		topics = gateway.NewRedisTopicStore(rdb, gateway.DefaultSessionTTL)
	}

	dispatcher := gateway.NewDispatcher(clients, topics, fwd, gateway.Options{
		ExtendTTLOnPublish:         cfg.ExtendStoreTTLOnPublish,
		UsePortNumberInClientStore: cfg.UsePortNumberInClientStore,
		DispatchTimeout:            cfg.DispatchTimeout,
		Logger:                     log,
	})

	srv := gateway.NewServer(dispatcher, gateway.ServerConfig{
		Addr:        cfg.Addr(),
		MaxInFlight: cfg.MaxInFlight,
		Logger:      log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

// parseValkeyOptions builds *redis.Options from a valkey://host:port/db
// style connection string, falling back to redis.ParseURL's own scheme
// handling (which accepts "redis://" and "rediss://" directly).
func parseValkeyOptions(connString string) *redis.Options {
	normalized := connString
	if len(connString) >= len("valkey://") && connString[:len("valkey://")] == "valkey://" {
		normalized = "redis://" + connString[len("valkey://"):]
	}
	opts, err := redis.ParseURL(normalized)
	if err != nil {
		return &redis.Options{Addr: "localhost:6379"}
	}
	return opts
}
