package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestNewOutbound_Timeouts(t *testing.T) {
	c := NewOutbound(2 * time.Second)
	if c.Timeout != 7*time.Second {
		t.Fatalf("timeout=%v", c.Timeout)
	}
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Fatalf("transport=%T", c.Transport)
	}
	if d := NewOutbound(0).Timeout; d != 35*time.Second {
		t.Fatalf("default timeout=%v", d)
	}
}
