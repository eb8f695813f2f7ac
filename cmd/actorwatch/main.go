// Command actorwatch joins a server as a client and prints every actor
// packet it receives, one JSON object per line.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"actornet/client"
	"actornet/internal/netcode"
	"actornet/session"
)

type line struct {
	Time    time.Time `json:"time"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	ID      uint32    `json:"id"`
	Payload string    `json:"payload"`
}

func main() {
	var (
		url     = flag.StringP("url", "u", "ws://127.0.0.1:7777/ws", "server websocket URL")
		version = flag.StringP("version", "v", "037", "client version to announce (037 or 03DL)")
		beat    = flag.Duration("heartbeat", 5*time.Second, "heartbeat interval, 0 to disable")
		damage  = flag.Int("damage", -1, "report 10 damage to this actor id once connected")
		verbose = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if err := run(log.WithField("cmd", "actorwatch"), *url, *version, *beat, *damage); err != nil {
		fmt.Fprintln(os.Stderr, "actorwatch:", err)
		os.Exit(1)
	}
}

func run(log *logrus.Entry, url, version string, beat time.Duration, damage int) error {
	v, err := session.ParseClientVersion(version)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	c := client.NewConnector(log)
	c.OnAny(func(f netcode.Frame) {
		enc.Encode(line{
			Time:    time.Now(),
			Name:    f.Name,
			Type:    f.Type.String(),
			ID:      f.ID,
			Payload: hex.EncodeToString(f.Payload),
		})
	})
	c.OnKick(func(reason string) {
		log.WithField("reason", reason).Warn("[actorwatch] kicked")
	})
	if err := c.Start(ctx, url, v); err != nil {
		return err
	}
	defer c.Close()
	log.WithField("url", url).Info("[actorwatch] connected")

	if damage >= 0 {
		err := c.Send(netcode.OnPlayerDamageActor{ActorID: uint16(damage), Damage: 10, WeaponID: 24, Bodypart: 9})
		if err != nil {
			return err
		}
	}

	var tick <-chan time.Time
	if beat > 0 {
		t := time.NewTicker(beat)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return fmt.Errorf("connection closed")
		case <-tick:
			if err := c.Heartbeat(); err != nil {
				return err
			}
		}
	}
}
