// Package notify publishes transcript lifecycle events to an MQTT broker
// so saved transcripts can feed downstream automation. Entirely optional:
// a nil *Publisher is a no-op.
package notify

import (
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/metrics"
)

// Publisher mirrors bus events onto MQTT topics.
type Publisher struct {
	conn        mqtt.Client
	topicPrefix string
	connected   atomic.Bool
	log         zerolog.Logger
}

// Options configure the MQTT connection.
type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	Log         zerolog.Logger
}

// Connect establishes the MQTT connection. The client auto-reconnects;
// events published while disconnected are dropped, not queued.
func Connect(opts Options) (*Publisher, error) {
	p := &Publisher{
		topicPrefix: opts.TopicPrefix,
		log:         opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	p.conn = mqtt.NewClient(clientOpts)
	token := p.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) onConnect(mqtt.Client) {
	p.connected.Store(true)
	p.log.Info().Str("topic_prefix", p.topicPrefix).Msg("mqtt connected")
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.connected.Store(false)
	p.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// Publish sends one event as JSON under <prefix>/<event-type>. Fire and
// forget at QoS 0.
func (p *Publisher) Publish(e events.Event) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.Error().Err(err).Str("type", e.Type).Msg("encode mqtt event")
		return
	}
	p.conn.Publish(p.topicPrefix+"/"+e.Type, 0, false, payload)
	metrics.MQTTEventsPublishedTotal.Inc()
}

// Attach subscribes to the bus and republishes every event until the
// subscription channel closes.
func (p *Publisher) Attach(bus *events.Bus) func() {
	ch, cancel := bus.Subscribe()
	go func() {
		for e := range ch {
			p.Publish(e)
		}
	}()
	return cancel
}

// IsConnected reports broker connectivity for health checks.
func (p *Publisher) IsConnected() bool {
	if p == nil {
		return false
	}
	return p.connected.Load()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.log.Info().Msg("disconnecting mqtt publisher")
	p.conn.Disconnect(1000)
}
