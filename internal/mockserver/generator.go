package mockserver

import (
	"context"
	"math/rand"
	"time"
)

var (
	rooms = []string{"living room", "bedroom"}
	nodes = []string{"kitchen", "bedroom", "living-room"}
)

// Generator periodically broadcasts room predictions for every device, the
// way the real server relays room-assistant entity updates.
type Generator struct {
	server   *Server
	interval time.Duration
	rng      *rand.Rand
}

func NewGenerator(server *Server, interval time.Duration) *Generator {
	return &Generator{
		server:   server,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start walks devices between rooms until ctx is cancelled.
func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	positions := make(map[string]int)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, id := range g.server.DeviceIDs() {
			// Devices mostly stay put; sometimes they wander.
			if g.rng.Intn(3) == 0 {
				positions[id]++
			}
			g.server.Hub().Broadcast(message{Type: "room", Payload: map[string]any{
				"deviceId": id,
				"room":     rooms[positions[id]%len(rooms)],
				"node":     nodes[g.rng.Intn(len(nodes))],
			}})
		}
	}
}
