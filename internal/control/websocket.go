package control

import (
	"log"
	"net/http"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// signalFrame is the wire shape accepted on the local signal endpoint: a
// separate price-ingestion process streams these in so ingest can run out
// of this binary's process tree. Anything not matching this shape is
// ignored, per spec.
type signalFrame struct {
	Type   string  `json:"type"`
	Price  float64 `json:"p"`
	Asset  string  `json:"s"`
	Source string  `json:"x"`
}

// signalWS upgrades to a WebSocket and turns each well-formed {type:"S",...}
// frame into a synthetic TickEvent published on TopicTick, the same topic
// the leader-venue ingest adapters publish to.
func (s *Server) signalWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("control: ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var frame signalFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if frame.Type != "S" {
			continue
		}
		asset := frame.Asset
		if asset == "" {
			asset = s.DefaultAsset
		}
		source := frame.Source
		if source == "" {
			source = "control"
		}
		if s.Bus != nil {
			s.Bus.Publish(events.TopicTick, domain.TickEvent{
				Asset:     asset,
				Source:    source,
				Kind:      domain.TickTrade,
				Price:     frame.Price,
				Timestamp: time.Now(),
			})
		}
	}
}

func logAccess(method, path string, status int, elapsed time.Duration) {
	log.Printf("control: %s %s %d %v", method, path, status, elapsed)
}
