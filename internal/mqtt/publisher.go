package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"city-ambience/internal/citycontext"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds each publish on the request path.
const publishTimeout = 5 * time.Second

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
	timeout     time.Duration
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix), nil
}

func newPublisher(client mqtt.Client, prefix string) *Publisher {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = "city-ambience"
	}
	return &Publisher{client: client, topicPrefix: prefix, enabled: true, timeout: publishTimeout}
}

// Slug turns a city name into a topic segment: lower case, with runs of
// anything but letters and digits collapsed to a single hyphen.
func Slug(city string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

func (p *Publisher) Topic(city, name string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, Slug(city), name)
}

// Publish sends the period and the full context for the city.
func (p *Publisher) Publish(c *citycontext.Context) error {
	if !p.enabled {
		return nil
	}

	values := map[string]interface{}{
		"period":    c.Period.String(),
		"timezone":  c.Timezone,
		"hour":      c.LocalTime.Hour,
		"radio_url": c.RadioURL,
	}
	for name, value := range values {
		topic := p.Topic(c.City, name)
		token := p.client.Publish(topic, 0, false, fmt.Sprintf("%v", value))
		if !token.WaitTimeout(p.timeout) {
			log.Printf("Timed out publishing to %s", topic)
			continue
		}
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	topic := p.Topic(c.City, "context")
	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("timed out publishing context to %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish context: %w", token.Error())
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
