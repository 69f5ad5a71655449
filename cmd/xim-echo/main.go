// xim-echo demonstrates the ximclient callback surface against the
// in-memory simulated input-method engine, without a window system.
//
// It loads client options, resolves the input-method server name the way
// an X application would, then replays a scripted key sequence through a
// Client while issuing rapid position updates, printing the commit and
// preedit traffic that comes back.
//
// Usage:
//
//	xim-echo -script "hello\nworld\n" -preedit
//	xim-echo -config client.toml -compound-text
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ximclient"
	"ximclient/config"
	"ximclient/discovery"
	"ximclient/protocol"
	"ximclient/protocol/sim"
)

const demoWindow protocol.WindowID = 0x2c0000a

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml options file")
	script := flag.String("script", `hello world\n`, "keys to type; \\n commits, \\e abandons")
	preedit := flag.Bool("preedit", false, "negotiate live preedit callbacks")
	compound := flag.Bool("compound-text", false, "simulate a COMPOUND_TEXT server")
	probe := flag.Bool("probe-ibus", false, "check for an IBus daemon on the session bus")
	verbose := flag.Bool("v", false, "log engine diagnostics")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	opts := config.DefaultOptions()
	if *configPath != "" {
		var err error
		opts, err = config.Load(*configPath)
		if err != nil {
			slog.Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}

	server := opts.Server
	if server == "" {
		if name, ok := discovery.ServerName(); ok {
			server = name
			slog.Info("resolved server from XMODIFIERS", "server", server)
		}
	}

	if *probe {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		running, err := discovery.ProbeIBus(ctx)
		cancel()
		switch {
		case err != nil:
			slog.Warn("ibus probe failed", "err", err)
		case running:
			slog.Info("ibus daemon is running")
		default:
			slog.Info("no ibus daemon on the session bus")
		}
	}

	style, err := opts.InputStyle()
	if err != nil {
		slog.Error("bad input style", "err", err)
		os.Exit(1)
	}
	if *preedit {
		style = protocol.StylePreeditCallbacks
	}

	encoding := protocol.EncodingUTF8
	if *compound {
		encoding = protocol.EncodingCompoundText
	}

	if *verbose || opts.Logging.Enabled {
		ximclient.SetLogger(func(line string) {
			slog.Debug("engine", "msg", line)
		})
	}

	engine := sim.New(sim.Config{ServerName: server, Encoding: encoding})
	client := ximclient.New(engine, style)
	defer client.Close()

	client.SetCommitStringCallback(func(win protocol.WindowID, text string) {
		fmt.Printf("commit  win=0x%x %q\n", uint32(win), text)
	})
	client.SetForwardEventCallback(func(win protocol.WindowID, ev *protocol.KeyEvent) {
		fmt.Printf("forward win=0x%x keycode=0x%02x release=%v\n",
			uint32(win), ev.Detail, ev.IsRelease())
	})
	client.SetPreeditStartCallback(func(win protocol.WindowID) {
		fmt.Printf("preedit start\n")
	})
	client.SetPreeditDrawCallback(func(win protocol.WindowID, info *ximclient.PreeditInfo) {
		fmt.Printf("preedit draw  %q caret=%d\n", info.Text(), info.Caret())
	})
	client.SetPreeditDoneCallback(func(win protocol.WindowID) {
		fmt.Printf("preedit done\n")
	})

	// Place the candidate window; the first call kicks off context
	// creation, so it reports deferred.
	sent := client.UpdatePosition(demoWindow, 10, 20)
	slog.Debug("initial UpdatePosition", "sent", sent)
	engine.DeliverPending()

	// A burst of placement updates, as window dragging produces. Only the
	// first is sent immediately; the rest coalesce down to the last value
	// once the acknowledgment arrives.
	for i := 1; i <= 5; i++ {
		sent := client.UpdatePosition(demoWindow, 10+int16(i)*4, 20)
		slog.Debug("UpdatePosition", "x", 10+i*4, "sent", sent)
	}
	engine.DeliverPending()

	for _, key := range expandScript(*script) {
		press := protocol.KeyEvent{
			Response: protocol.ResponseKeyPress,
			Detail:   key,
			Window:   demoWindow,
		}
		release := press
		release.Response = protocol.ResponseKeyRelease

		if !client.ProcessEvent(&press) {
			fmt.Printf("unhandled keycode=0x%02x\n", key)
		}
		client.ProcessEvent(&release)
		engine.DeliverPending()
	}

	stats := engine.Stats()
	slog.Info("done",
		"opens", stats.Opens,
		"creates", stats.Creates,
		"position_updates", stats.ValueUpdates,
		"forwarded_keys", stats.Forwards)
}

// expandScript turns the script flag into keycodes, honoring \n and \e
// escapes.
func expandScript(s string) []uint8 {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\e`, "\x1b")
	keys := make([]uint8, 0, len(s))
	for _, r := range s {
		if r == '\n' {
			keys = append(keys, 0x0d)
			continue
		}
		if r < 0x80 {
			keys = append(keys, uint8(r))
		}
	}
	return keys
}
