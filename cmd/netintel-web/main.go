// Command netintel-web is the browser front end: a chat page talking to
// the pipeline over a WebSocket, plus prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/config"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/llm"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/pipeline"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/store"
)

type wsCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type wsReply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// wsConnectionManager tracks open connections for logging and shutdown.
type wsConnectionManager struct {
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func newWSConnectionManager() *wsConnectionManager {
	return &wsConnectionManager{connections: map[*websocket.Conn]bool{}}
}

func (m *wsConnectionManager) add(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connections[conn] = true
	logs.Infof("websocket connected, %d open", len(m.connections))
}

func (m *wsConnectionManager) remove(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.connections[conn]; ok {
		delete(m.connections, conn)
		conn.Close()
		logs.Infof("websocket closed, %d open", len(m.connections))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func main() {
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	client, err := store.New(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}
	defer client.Close(ctx)

	schema, err := client.RefreshSchema(ctx)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	model, err := llm.New(ctx, cfg)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	runner, err := pipeline.New(ctx, pipeline.Deps{Model: model, Store: client, Schema: schema})
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	manager := newWSConnectionManager()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logs.Errorf("websocket upgrade failed: %v", err)
			return
		}
		manager.add(conn)
		defer manager.remove(conn)

		// Offer example questions right away.
		send(conn, wsReply{Type: "examples", Payload: pipeline.ExampleQuestions()})

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logs.Errorf("websocket read: %v", err)
				}
				break
			}

			var cmd wsCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				send(conn, wsReply{Type: "error", Payload: "malformed command"})
				continue
			}
			if cmd.Type != "chat" {
				send(conn, wsReply{Type: "error", Payload: "unknown command type"})
				continue
			}
			var req chatRequest
			if err := json.Unmarshal(cmd.Payload, &req); err != nil || req.Message == "" {
				send(conn, wsReply{Type: "error", Payload: "chat command needs a message"})
				continue
			}

			result, err := runner.Run(r.Context(), req.Message)
			if err != nil {
				logs.Errorf("pipeline run failed: %v", err)
				send(conn, wsReply{Type: "error", Payload: "the question could not be processed"})
				continue
			}
			send(conn, wsReply{Type: "answer", Payload: result})
		}
	})

	logs.Infof("web front end listening on %s", cfg.WebAddr)
	if err := http.ListenAndServe(cfg.WebAddr, nil); err != nil {
		logs.Errorf("http server: %v", err)
		os.Exit(1)
	}
}

func send(conn *websocket.Conn, reply wsReply) {
	if err := conn.WriteJSON(reply); err != nil {
		logs.Warnf("websocket write: %v", err)
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Network Intelligence Platform</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; }
#log { border: 1px solid #ccc; padding: 1rem; min-height: 300px; }
.steps, .cypher { color: #666; font-size: 0.85em; }
.cypher { font-family: monospace; }
.example { cursor: pointer; color: #3366cc; }
</style>
</head>
<body>
<h1>Network Intelligence Platform</h1>
<p>Ask about people, organizations, and professional relationships.</p>
<div id="examples"></div>
<div id="log"></div>
<form id="form"><input id="q" size="60" autocomplete="off"><button>Ask</button></form>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
const log = document.getElementById("log");
function append(html) { const d = document.createElement("div"); d.innerHTML = html; log.appendChild(d); }
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "examples") {
    document.getElementById("examples").innerHTML =
      msg.payload.map(q => '<div class="example">' + q + "</div>").join("");
    document.querySelectorAll(".example").forEach(el =>
      el.addEventListener("click", () => { document.getElementById("q").value = el.textContent; }));
  } else if (msg.type === "answer") {
    append("<p>" + msg.payload.answer + "</p>" +
      '<p class="steps">steps: ' + msg.payload.steps.join(" → ") + "</p>" +
      (msg.payload.cypher_statement ? '<p class="cypher">' + msg.payload.cypher_statement + "</p>" : ""));
  } else {
    append('<p class="steps">' + msg.payload + "</p>");
  }
};
document.getElementById("form").addEventListener("submit", (ev) => {
  ev.preventDefault();
  const q = document.getElementById("q").value.trim();
  if (!q) return;
  append("<p><b>" + q + "</b></p>");
  ws.send(JSON.stringify({type: "chat", payload: {message: q}}));
  document.getElementById("q").value = "";
});
</script>
</body>
</html>
`
