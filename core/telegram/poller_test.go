package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongPollDefaults(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected a long poller")
	}
	if p.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %s", p.Timeout)
	}
	if len(p.AllowedUpdates) != 2 {
		t.Fatalf("allowed updates = %v", p.AllowedUpdates)
	}

	p = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	if p.Timeout != 25*time.Second {
		t.Fatalf("timeout = %s", p.Timeout)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook", SecretToken: "s3cret"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatal("expected a webhook")
	}
	if wh.Listen != "0.0.0.0:8443" {
		t.Fatalf("listen = %q", wh.Listen)
	}
	if wh.Endpoint == nil || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("endpoint = %+v", wh.Endpoint)
	}
	if wh.SecretToken != "s3cret" {
		t.Fatalf("secret token = %q", wh.SecretToken)
	}
}
