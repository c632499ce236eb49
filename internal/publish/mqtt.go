// Package publish forwards player snapshots to an MQTT broker.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/squery/internal/config"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/internal/vars"
)

const (
	connectTimeout       = 10 * time.Second
	defaultRetryInterval = 10 * time.Second
	disconnectQuiesce    = 2000 // milliseconds
)

// ErrConnectPending is returned by Connect when the broker did not accept the
// connection in time. The client keeps dialing in the background.
var ErrConnectPending = errors.New("MQTT connect pending")

// Message is the JSON document published for each snapshot.
type Message struct {
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Snapshot  models.Snapshot `json:"snapshot"`
	Count     int             `json:"count"`
}

// MQTTPublisher publishes snapshots with QoS 1 to "<topic>/players".
type MQTTPublisher struct {
	client      mqtt.Client
	topic       string
	connectWait time.Duration
}

// NewMQTT configures a publisher. It returns nil without error when no broker is set.
func NewMQTT(cfg config.MQTT) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = defaultRetryInterval
	}

	// AutoReconnect only covers connections lost after the first success,
	// ConnectRetry keeps the initial dial going while the broker is down.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retry)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(connectTimeout)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	return &MQTTPublisher{
		client:      mqtt.NewClient(opts),
		topic:       Topic(cfg.Topic),
		connectWait: connectTimeout,
	}, nil
}

// Topic returns the snapshot topic for a prefix.
func Topic(prefix string) string {
	if prefix == "" {
		prefix = vars.Name
	}

	return prefix + "/players"
}

// Connect starts dialing the broker and waits up to the connect timeout.
// ErrConnectPending means dialing continues in the background; snapshots
// published meanwhile are queued until the connection is up.
func (p *MQTTPublisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(p.connectWait) {
		return fmt.Errorf("%w: no answer within %s", ErrConnectPending, p.connectWait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT connect failed: %w", err)
	}

	return nil
}

// PublishSnapshot sends one snapshot. Delivery errors are logged asynchronously.
func (p *MQTTPublisher) PublishSnapshot(snap models.Snapshot) {
	if !p.client.IsConnected() {
		return
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		log.Warn().Err(err).Str("topic", p.topic).Msg("Failed to marshal MQTT message")
		return
	}

	token := p.client.Publish(p.topic, 1, false, data)
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", p.topic).Msg("MQTT publish failed")
		}
	}()
}

// Connected reports whether the broker connection is currently open.
func (p *MQTTPublisher) Connected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
	log.Info().Msg("MQTT disconnected")
}

// EncodeSnapshot builds the JSON payload published for snap.
func EncodeSnapshot(snap models.Snapshot) ([]byte, error) {
	return json.Marshal(Message{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    vars.UserAgent(),
		Snapshot:  snap,
		Count:     len(snap.Players),
	})
}
