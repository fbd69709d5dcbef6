package link

import (
	"errors"
	"net"
	"testing"
	"time"

	"cyclotron/core"
	"cyclotron/host/serial"
	"cyclotron/protocol"
)

// startBoard runs the firmware command layer on one end of a pipe and
// returns a Link connected to the other end.
func startBoard(t *testing.T) *Link {
	t.Helper()
	core.InitCoreCommands()
	core.InitLEDCommands()
	core.ResetFirmwareState()
	core.SetTime(0)
	core.SetDispatcher(core.NewDispatcher(64, 64, nil))

	host, dev := net.Pipe()
	out := protocol.NewScratchOutput()
	tr := protocol.NewTransport(out, core.HandleCommand)
	tr.SetFlushCallback(func() {
		dev.Write(out.Result())
		out.Reset()
	})
	core.SetGlobalTransport(tr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		in := protocol.NewFifoBuffer(1024)
		buf := make([]byte, 256)
		for {
			n, err := dev.Read(buf)
			if n > 0 {
				in.Write(buf[:n])
				tr.Receive(in)
			}
			if err != nil {
				return
			}
		}
	}()

	l := New(serial.Wrap(host))
	l.Timeout = 2 * time.Second
	t.Cleanup(func() {
		l.Close()
		dev.Close()
		<-done
		core.SetGlobalTransport(nil)
		core.SetDispatcher(nil)
	})
	return l
}

func TestIdentify(t *testing.T) {
	l := startBoard(t)
	if err := l.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	dict := l.Dictionary()
	if dict.Version != "cyclotron-"+protocol.Version {
		t.Errorf("Version = %q", dict.Version)
	}
	if len(l.RawDictionary()) == 0 {
		t.Error("raw dictionary is empty")
	}

	cmd, ok := dict.Command("config_ring")
	if !ok {
		t.Fatal("config_ring missing from dictionary")
	}
	if got := cmd.Signature(); got != "config_ring oid=%c device=%c led_count=%c step_count=%c" {
		t.Errorf("Signature() = %q", got)
	}
	if _, ok := dict.ResponseByName("ring_state"); !ok {
		t.Error("ring_state missing from dictionary")
	}
	if n, ok := dict.Enum("pattern", "power-check"); !ok || n != int(core.PatternPowerCheck) {
		t.Errorf("Enum(pattern, power-check) = %d, %v", n, ok)
	}
	if name, ok := dict.EnumName("phase", int64(core.RampDown)); !ok || name != core.RampDown.String() {
		t.Errorf("EnumName(phase, down) = %q, %v", name, ok)
	}
	if freq, ok := dict.ConfigUint("CLOCK_FREQ"); !ok || freq != core.TimerFreq {
		t.Errorf("CLOCK_FREQ = %d, %v", freq, ok)
	}
}

func TestSendAndQuery(t *testing.T) {
	l := startBoard(t)
	if err := l.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if err := l.Send("config_ring", Args{"oid": 3, "device": 0, "led_count": 12, "step_count": 0}); err != nil {
		t.Fatalf("config_ring: %v", err)
	}
	if err := l.Send("ring_start", Args{"oid": 3, "revolution_ms": 1200}); err != nil {
		t.Fatalf("ring_start: %v", err)
	}

	resp, err := l.Query("query_ring", Args{"oid": 3}, "ring_state")
	if err != nil {
		t.Fatalf("query_ring: %v", err)
	}
	if resp.Uint("oid") != 3 || resp.Uint("revolution_ms") != 1200 {
		t.Errorf("ring_state = %s", resp)
	}
	if resp.Uint("clockwise") != 1 {
		t.Errorf("clockwise = %d, want 1", resp.Uint("clockwise"))
	}
}

func TestCommandError(t *testing.T) {
	l := startBoard(t)
	if err := l.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	err := l.Send("ring_start", Args{"oid": 9, "revolution_ms": 500})
	if !errors.Is(err, ErrCommand) || !errors.Is(err, core.ErrUnknownObject) {
		t.Fatalf("ring_start on unknown oid: %v", err)
	}

	// the error does not stick to the next send
	if err := l.Send("get_clock", nil); err != nil {
		t.Errorf("get_clock: %v", err)
	}
}

func TestResponseListener(t *testing.T) {
	l := startBoard(t)
	if err := l.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}

	got := make(chan string, 4)
	l.OnResponse(func(r *Response) { got <- r.Name })
	if err := l.Send("get_clock", nil); err != nil {
		t.Fatalf("get_clock: %v", err)
	}
	select {
	case name := <-got:
		if name != "clock" {
			t.Errorf("listener got %q, want clock", name)
		}
	case <-time.After(time.Second):
		t.Fatal("no response delivered to listener")
	}
}

func TestSendBeforeIdentify(t *testing.T) {
	l := startBoard(t)
	if err := l.Send("get_clock", nil); !errors.Is(err, ErrNoDictionary) {
		t.Errorf("Send before Identify = %v, want ErrNoDictionary", err)
	}
}
