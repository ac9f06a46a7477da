package internalclient

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/bringauto/internal-client-go/internal/protocol"
	"github.com/bringauto/internal-client-go/internal/protocol/frame"
	"github.com/bringauto/internal-client-go/internal/testutil/testlog"
)

// startGateway runs a minimal gateway that accepts one connection, acks the
// registration, and answers every status with a fixed command.
func startGateway(t *testing.T, ackStatus uint8) (host, port string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				limits := frame.DefaultLimits()
				buf, err := frame.Read(c, limits)
				if err != nil {
					return
				}
				if _, err := protocol.DecodeRegister(buf); err != nil {
					return
				}
				ack, err := protocol.EncodeRegisterAck(1, protocol.RegisterAck{Status: ackStatus})
				if err != nil || frame.Write(c, ack, limits) != nil {
					return
				}
				if ackStatus != protocol.AckOK {
					return
				}
				for {
					if _, err := frame.Read(c, limits); err != nil {
						return
					}
					cmd, err := protocol.EncodeCommand(2, []byte("blink"))
					if err != nil || frame.Write(c, cmd, limits) != nil {
						return
					}
				}
			}(conn)
		}
	}()

	tcpAddr := l.Addr().(*net.TCPAddr)
	return tcpAddr.IP.String(), strconv.Itoa(tcpAddr.Port)
}

func testConfig(host, port string) Config {
	return Config{
		ModuleID:       1,
		Hostname:       host,
		Port:           port,
		DeviceName:     "button1",
		DeviceType:     0,
		DeviceRole:     "left_button",
		DevicePriority: 0,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"non-numeric port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"missing device name", func(c *Config) { c.DeviceName = "" }},
		{"missing device role", func(c *Config) { c.DeviceRole = "" }},
	}
	for _, tc := range cases {
		cfg := testConfig("127.0.0.1", "8888")
		tc.mut(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestClientLifecycle(t *testing.T) {
	testlog.Start(t)
	host, port := startGateway(t, protocol.AckOK)

	client, err := New(testConfig(host, port))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if client.Connected() {
		t.Fatalf("client must start unconnected")
	}

	if err := client.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !client.Connected() {
		t.Fatalf("expected connected client")
	}

	cmd, err := client.SendStatus([]byte(`{"pressed":true}`), time.Second)
	if err != nil {
		t.Fatalf("send status: %v", err)
	}
	if string(cmd) != "blink" {
		t.Fatalf("unexpected command: %q", cmd)
	}

	cached, err := client.GetCommand()
	if err != nil {
		t.Fatalf("get command: %v", err)
	}
	if string(cached) != "blink" {
		t.Fatalf("unexpected cached command: %q", cached)
	}

	if err := client.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := client.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
	if client.Connected() {
		t.Fatalf("destroyed client must not report connected")
	}
}

func TestDestroyedClientFailsFast(t *testing.T) {
	testlog.Start(t)
	client, err := New(testConfig("127.0.0.1", "8888"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := client.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if err := client.Connect(); !errors.Is(err, ErrClientDestroyed) {
		t.Fatalf("expected ErrClientDestroyed from Connect, got %v", err)
	}
	if _, err := client.SendStatus([]byte("s"), time.Second); !errors.Is(err, ErrClientDestroyed) {
		t.Fatalf("expected ErrClientDestroyed from SendStatus, got %v", err)
	}
	if _, err := client.GetCommand(); !errors.Is(err, ErrClientDestroyed) {
		t.Fatalf("expected ErrClientDestroyed from GetCommand, got %v", err)
	}
}

func TestConnectRejectionClassification(t *testing.T) {
	testlog.Start(t)
	host, port := startGateway(t, uint8(RejectDeviceNotSupported))

	client, err := New(testConfig(host, port))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Destroy()

	err = client.Connect()
	if !IsRejectError(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	var re *RejectError
	if !errors.As(err, &re) || re.Reason != RejectDeviceNotSupported {
		t.Fatalf("expected device-not-supported, got %v", err)
	}
	if IsTransportError(err) || IsProtocolViolation(err) {
		t.Fatalf("rejection must not match the other families")
	}
	if client.Connected() {
		t.Fatalf("rejected client must not report connected")
	}
}

func TestGetCommandBeforeExchange(t *testing.T) {
	testlog.Start(t)
	host, port := startGateway(t, protocol.AckOK)

	client, err := New(testConfig(host, port))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Destroy()

	if err := client.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := client.GetCommand(); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}
