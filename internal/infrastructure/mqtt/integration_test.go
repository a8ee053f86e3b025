//go:build integration

package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
)

// These tests need a Mosquitto broker on 127.0.0.1:1883:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func brokerConfig(clientID string) config.MQTTConfig {
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	return cfg
}

func dialBroker(t *testing.T, clientID string) *Client {
	t.Helper()

	client, err := Connect(brokerConfig(clientID))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

// ─── Connection Lifecycle ───

func TestIntegration_ConnectAndClose(t *testing.T) {
	client := dialBroker(t, "ecomax-int-lifecycle")

	if !client.IsConnected() {
		t.Fatal("IsConnected false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected true after Close")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck after Close = %v, want ErrNotConnected", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := brokerConfig("ecomax-int-refused")
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_OperationsAfterClose(t *testing.T) {
	client := dialBroker(t, "ecomax-int-closed")
	client.Close()

	if err := client.Publish("ecomax/int/closed", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish = %v, want ErrNotConnected", err)
	}
	if err := client.Subscribe("ecomax/int/closed", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe = %v, want ErrNotConnected", err)
	}
	if err := client.Unsubscribe("ecomax/int/closed"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe = %v, want ErrNotConnected", err)
	}
}

// ─── Message Delivery ───

func TestIntegration_Roundtrip(t *testing.T) {
	pub := dialBroker(t, "ecomax-int-pub")
	sub := dialBroker(t, "ecomax-int-sub")

	topic := "ecomax/int/roundtrip"
	want := `{"code":18,"from":"2026-08-30T10:00:00Z"}`
	received := make(chan string, 1)

	err := sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		select {
		case received <- string(payload):
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.PublishString(topic, want, 1, false); err != nil {
		t.Fatalf("PublishString: %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Errorf("received %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestIntegration_WildcardDelivery(t *testing.T) {
	pub := dialBroker(t, "ecomax-int-wild-pub")
	sub := dialBroker(t, "ecomax-int-wild-sub")

	var mu sync.Mutex
	seen := make(map[string]bool)

	err := sub.Subscribe("ecomax/int/+/state", 1, func(topic string, _ []byte) error {
		mu.Lock()
		seen[topic] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	topics := []string{
		"ecomax/int/ecomax/state",
		"ecomax/int/ecomax-mixer-1/state",
		"ecomax/int/ecomax-mixer-2/state",
	}
	for _, topic := range topics {
		if err := pub.PublishString(topic, `{"on":true}`, 1, false); err != nil {
			t.Fatalf("Publish(%s): %v", topic, err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		done := len(seen) == len(topics)
		mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for wildcard delivery, saw %v", seen)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestIntegration_HandlerErrorIsNotFatal(t *testing.T) {
	client := dialBroker(t, "ecomax-int-handler-err")
	client.SetLogger(&captureLogger{})

	topic := "ecomax/int/handler-error"
	called := make(chan struct{}, 2)

	err := client.Subscribe(topic, 1, func(string, []byte) error {
		called <- struct{}{}
		return errors.New("decode failure")
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// Two publishes: the second proves delivery survives the first
	// handler error.
	for range 2 {
		if err := client.PublishString(topic, "x", 1, false); err != nil {
			t.Fatalf("PublishString: %v", err)
		}
	}

	for range 2 {
		select {
		case <-called:
		case <-time.After(5 * time.Second):
			t.Fatal("handler not called")
		}
	}
}

// ─── Subscription Table ───

func TestIntegration_SubscribeTracksAndUnsubscribeForgets(t *testing.T) {
	client := dialBroker(t, "ecomax-int-sub-track")

	topics := []string{
		"ecomax/int/track/one",
		"ecomax/int/track/two",
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
			t.Fatalf("Subscribe(%s): %v", topic, err)
		}
	}

	if got := client.SubscriptionCount(); got != len(topics) {
		t.Errorf("SubscriptionCount = %d, want %d", got, len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if client.HasSubscription(topics[0]) {
		t.Error("topic still tracked after Unsubscribe")
	}
	if got := client.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount = %d, want 1", got)
	}
}
