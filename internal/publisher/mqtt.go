package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/griddash/internal/aggregate"
	"github.com/jgoulah/griddash/internal/config"
)

const publishTimeout = 10 * time.Second

// client is the part of mqtt.Client the publisher needs
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends dashboard summaries to an MQTT broker
type Publisher struct {
	client      client
	topicPrefix string
}

// New connects to the broker configured in cfg
func New(cfg *config.Config) (*Publisher, error) {
	if !cfg.MQTT.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.MQTT.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.MQTT.Broker))
	opts.SetClientID(cfg.GetClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newWithClient(c, cfg.GetTopicPrefix()), nil
}

func newWithClient(c client, topicPrefix string) *Publisher {
	return &Publisher{client: c, topicPrefix: topicPrefix}
}

// SummaryPayload is the retained message describing a selection
type SummaryPayload struct {
	Source      string            `json:"source"`
	Selection   string            `json:"selection"`
	PublishedAt string            `json:"published_at"`
	Summary     aggregate.Summary `json:"summary"`
}

// Publish sends the summary of one selection. Every hour bucket gets its own
// retained topic so consumers can subscribe to a single hour.
func (p *Publisher) Publish(source, selection string, summary aggregate.Summary) error {
	base := fmt.Sprintf("%s/%s", p.topicPrefix, selection)

	body, err := json.Marshal(SummaryPayload{
		Source:      source,
		Selection:   selection,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:     summary,
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := p.send(base+"/summary", body); err != nil {
		return err
	}

	for h, avg := range summary.HourlyAverage {
		topic := fmt.Sprintf("%s/hour/%d/average", base, h)
		if err := p.send(topic, []byte(fmt.Sprintf("%.4f", avg))); err != nil {
			return err
		}
	}

	acc := summary.Accuracy
	if err := p.send(base+"/mae", []byte(fmt.Sprintf("%.4f", acc.MAE))); err != nil {
		return err
	}
	return p.send(base+"/rmse", []byte(fmt.Sprintf("%.4f", acc.RMSE)))
}

func (p *Publisher) send(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}
