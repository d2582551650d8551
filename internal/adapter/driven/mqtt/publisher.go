// Package mqtt exports endpoint telemetry to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TelemetrySink = (*Publisher)(nil)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Config holds MQTT publisher configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	ClientID    string
}

// Publisher writes each endpoint's aggregate stats to
// <prefix>/<endpoint_id>/stats as a retained message, and its own
// availability to <prefix>/bridge/state.
type Publisher struct {
	client pahomqtt.Client
	prefix string
	logger *slog.Logger
}

// NewPublisher connects to the broker. Reconnection after the first
// successful connect is handled by the client library.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "mikromon"
	}

	p := &Publisher{
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		logger: logger.With("component", "mqtt"),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.stateTopic(), "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			p.logger.Info("MQTT connected", "broker", cfg.Broker)
			p.publishState("online")
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			p.logger.Warn("MQTT connection lost", "error", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	p.client = client

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return p, nil
}

// statsMessage is the JSON body of a stats topic.
type statsMessage struct {
	EndpointID         string `json:"endpoint_id"`
	EndpointName       string `json:"endpoint_name"`
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	TotalAccounts      int    `json:"total_accounts"`
	OnlineAccounts     int    `json:"online_accounts"`
	OfflineAccounts    int    `json:"offline_accounts"`
	EnabledAccounts    int    `json:"enabled_accounts"`
	DisabledAccounts   int    `json:"disabled_accounts"`
	TotalDownloadBytes int64  `json:"total_download_bytes"`
	TotalUploadBytes   int64  `json:"total_upload_bytes"`
	ActiveInterfaces   int    `json:"active_interfaces"`
	LastUpdated        string `json:"last_updated"`
}

// Publish implements driven.TelemetrySink.
func (p *Publisher) Publish(ctx context.Context, snap model.Snapshot) error {
	payload, err := json.Marshal(statsMessage{
		EndpointID:         snap.EndpointID,
		EndpointName:       snap.EndpointName,
		Success:            snap.Success,
		Error:              snap.Error,
		TotalAccounts:      snap.Stats.TotalAccounts,
		OnlineAccounts:     snap.Stats.OnlineAccounts,
		OfflineAccounts:    snap.Stats.OfflineAccounts,
		EnabledAccounts:    snap.Stats.EnabledAccounts,
		DisabledAccounts:   snap.Stats.DisabledAccounts,
		TotalDownloadBytes: snap.Stats.TotalDownloadBytes,
		TotalUploadBytes:   snap.Stats.TotalUploadBytes,
		ActiveInterfaces:   len(snap.PPPoEInterfaces),
		LastUpdated:        snap.CapturedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	topic := p.StatsTopic(snap.EndpointID)
	token := p.client.Publish(topic, 1, true, payload)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish %s: %w", topic, ctx.Err())
	}
}

// StatsTopic returns the stats topic for an endpoint. Characters with
// special meaning in MQTT topics are replaced.
func (p *Publisher) StatsTopic(endpointID string) string {
	return p.prefix + "/" + topicSegment(endpointID) + "/stats"
}

// Close publishes the offline state and disconnects.
func (p *Publisher) Close() {
	p.publishState("offline")
	p.client.Disconnect(1000)
	p.logger.Info("MQTT publisher stopped")
}

func (p *Publisher) stateTopic() string {
	return p.prefix + "/bridge/state"
}

func (p *Publisher) publishState(state string) {
	token := p.client.Publish(p.stateTopic(), 1, true, state)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn("MQTT publish timeout", "topic", p.stateTopic())
		} else if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish error", "topic", p.stateTopic(), "error", err)
		}
	}()
}

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")

func topicSegment(s string) string {
	if s == "" {
		return "unknown"
	}
	return topicReplacer.Replace(s)
}
