package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/magnategame/magnate-server/internal/alliance"
	"github.com/magnategame/magnate-server/internal/auction"
	"github.com/magnategame/magnate-server/internal/calendar"
	"github.com/magnategame/magnate-server/internal/config"
	"github.com/magnategame/magnate-server/internal/game"
	"github.com/magnategame/magnate-server/internal/game/rules"
	"github.com/magnategame/magnate-server/internal/repository"
	"github.com/magnategame/magnate-server/internal/session"
	"github.com/magnategame/magnate-server/internal/trade"
)

// Message is the inbound gateway protocol frame.
type Message struct {
	Type     string          `json:"type"`
	Token    string          `json:"token,omitempty"`
	GameID   string          `json:"game_id,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// outbound is the frame sent to clients, either an engine event or a
// direct reply.
type outbound struct {
	Type   string `json:"type"`
	Event  string `json:"event,omitempty"`
	GameID string `json:"game_id,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// gameRuntime bundles a hosted game with its coordination managers.
type gameRuntime struct {
	game      *game.Game
	auctions  *auction.Manager
	trades    *trade.Manager
	alliances *alliance.Manager
	calendar  *calendar.Manager
}

// Gateway translates websocket frames into engine entry points and
// forwards every engine event to the connected presentation layers. It
// contains no rule logic.
type Gateway struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	cfg      *config.Config
	engine   *game.Engine
	sessions *session.Manager
	repo     *repository.GameRepository // nil when persistence is disabled
	hub      *Hub
	runtimes map[string]*gameRuntime
}

// NewGateway wires the gateway over the engine. repo may be nil.
func NewGateway(cfg *config.Config, engine *game.Engine, sessions *session.Manager, repo *repository.GameRepository, logger *zap.Logger) *Gateway {
	return &Gateway{
		logger:   logger,
		cfg:      cfg,
		engine:   engine,
		sessions: sessions,
		repo:     repo,
		hub:      NewHub(logger),
		runtimes: make(map[string]*gameRuntime),
	}
}

// Hub exposes the broadcast hub for the HTTP server.
func (gw *Gateway) Hub() *Hub { return gw.hub }

// CreateGame hosts a new game and wires its sub-protocol managers and
// event forwarding.
func (gw *Gateway) CreateGame() *game.Game {
	g := gw.engine.CreateGame()
	gw.wireGame(g)
	return g
}

func (gw *Gateway) wireGame(g *game.Game) {
	bus := g.Bus()
	rt := &gameRuntime{
		game: g,
		auctions: auction.NewManager(bus, g, auction.Config{
			Duration:     gw.cfg.Game.AuctionDuration,
			Extension:    gw.cfg.Game.AuctionExtension,
			TickInterval: auction.DefaultConfig().TickInterval,
		}, gw.logger),
		trades: trade.NewManager(bus, trade.Config{
			Window:        gw.cfg.Game.TradeWindow,
			SweepInterval: gw.cfg.Game.TradeSweepInterval,
		}, gw.logger),
		alliances: alliance.NewManager(bus, gw.logger),
		calendar: calendar.NewManager(bus, g.Board(), calendar.Config{
			WeatherPeriod:  gw.cfg.Game.WeatherPeriod,
			EconomicPeriod: gw.cfg.Game.EconomicPeriod,
			CulturalPeriod: gw.cfg.Game.CulturalPeriod,
		}, gw.logger),
	}

	gw.mu.Lock()
	gw.runtimes[g.ID()] = rt
	gw.mu.Unlock()

	gameID := g.ID()
	bus.Subscribe(func(evt rules.Event) {
		gw.forwardEvent(gameID, evt)
	})
}

func (gw *Gateway) forwardEvent(gameID string, evt rules.Event) {
	frame, err := json.Marshal(outbound{
		Type:   "event",
		Event:  string(evt.Type()),
		GameID: gameID,
		Data:   evt,
	})
	if err != nil {
		gw.logger.Error("marshal event", zap.Error(err))
		return
	}
	gw.hub.Broadcast(frame)
}

func (gw *Gateway) runtime(gameID string) (*gameRuntime, bool) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	rt, ok := gw.runtimes[gameID]
	return rt, ok
}

// HandleWS upgrades a connection and serves its message loop.
func (gw *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := newUpgrader(gw.cfg.Server.WebSocket.AllowedOrigins)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: gw.hub, conn: conn, send: make(chan []byte, 64)}
	gw.hub.register <- client
	go client.writePump()
	go client.readPump(gw.handleMessage)
}

func (gw *Gateway) reply(c *Client, out outbound) {
	frame, err := json.Marshal(out)
	if err != nil {
		gw.logger.Error("marshal reply", zap.Error(err))
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (gw *Gateway) replyError(c *Client, msgType string, err error) {
	gw.reply(c, outbound{Type: msgType, Error: err.Error()})
}

func (gw *Gateway) handleMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		gw.logger.Warn("bad frame", zap.Error(err))
		return
	}

	switch msg.Type {
	case "login":
		gw.handleLogin(c, msg)
		return
	case "chat":
		// Chat is a pure relay; the engine never sees it.
		gw.hub.Broadcast(raw)
		return
	}

	// Every authenticated frame revalidates the token, refreshing the
	// lease and rejecting expired sessions.
	if _, ok := gw.sessions.Validate(c.session); !ok {
		c.session = ""
		gw.reply(c, outbound{Type: msg.Type, Error: "not authenticated"})
		return
	}

	switch msg.Type {
	case "create_game":
		g := gw.CreateGame()
		c.gameID = g.ID()
		gw.reply(c, outbound{Type: "game_created", GameID: g.ID()})

	case "start_game":
		gw.handleStartGame(c, msg)

	case "roll_dice":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			die1, die2, err := rt.game.RollDice()
			if err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			gw.reply(c, outbound{Type: "rolled", GameID: msg.GameID, Data: [2]int{die1, die2}})
		})

	case "end_turn":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			if err := rt.game.NextPlayer(); err != nil {
				gw.replyError(c, msg.Type, err)
			}
		})

	case "buy_property":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				Position int `json:"position"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			if err := rt.game.BuyProperty(msg.PlayerID, data.Position); err != nil {
				gw.replyError(c, msg.Type, err)
			}
		})

	case "decline_purchase":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			if err := rt.game.DeclinePurchase(msg.PlayerID); err != nil {
				gw.replyError(c, msg.Type, err)
			}
		})

	case "pay_jail_fine":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			if err := rt.game.PayJailFine(msg.PlayerID); err != nil {
				gw.replyError(c, msg.Type, err)
			}
		})

	case "bid":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				Amount int `json:"amount"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			rt.auctions.MakeBid(msg.PlayerID, data.Amount)
		})

	case "pass":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			rt.auctions.Pass(msg.PlayerID)
		})

	case "create_trade":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				To      string            `json:"to"`
				Offer   rules.TradeBundle `json:"offer"`
				Request rules.TradeBundle `json:"request"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			id := rt.trades.CreateOffer(msg.PlayerID, data.To, data.Offer, data.Request)
			gw.reply(c, outbound{Type: "trade_created", GameID: msg.GameID, Data: id})
		})

	case "accept_trade":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				OfferID string `json:"offer_id"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			rt.trades.AcceptOffer(data.OfferID)
		})

	case "reject_trade":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				OfferID string `json:"offer_id"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			rt.trades.RejectOffer(data.OfferID)
		})

	case "create_alliance":
		gw.withGame(c, msg, func(rt *gameRuntime) {
			var data struct {
				Members    []string `json:"members"`
				Conditions []string `json:"conditions"`
			}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				gw.replyError(c, msg.Type, err)
				return
			}
			if _, err := rt.alliances.CreateAlliance(data.Members, data.Conditions); err != nil {
				gw.replyError(c, msg.Type, err)
			}
		})

	case "save_game":
		gw.handleSaveGame(c, msg)

	case "load_game":
		gw.handleLoadGame(c, msg)

	default:
		gw.reply(c, outbound{Type: msg.Type, Error: "unknown message type"})
	}
}

func (gw *Gateway) withGame(c *Client, msg Message, fn func(*gameRuntime)) {
	gameID := msg.GameID
	if gameID == "" {
		gameID = c.gameID
	}
	rt, ok := gw.runtime(gameID)
	if !ok {
		gw.reply(c, outbound{Type: msg.Type, Error: "unknown game"})
		return
	}
	fn(rt)
}

func (gw *Gateway) handleLogin(c *Client, msg Message) {
	var data struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		gw.replyError(c, msg.Type, err)
		return
	}
	if err := session.VerifyAccessPassword(gw.cfg.Server.AccessPasswordHash, data.Password); err != nil {
		gw.replyError(c, msg.Type, err)
		return
	}
	s, err := gw.sessions.Create(data.Name)
	if err != nil {
		gw.replyError(c, msg.Type, err)
		return
	}
	c.session = s.Token
	gw.reply(c, outbound{Type: "logged_in", Data: s.Token})
}

func (gw *Gateway) handleStartGame(c *Client, msg Message) {
	gw.withGame(c, msg, func(rt *gameRuntime) {
		var data struct {
			Players []game.PlayerInfo `json:"players"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			gw.replyError(c, msg.Type, err)
			return
		}
		if err := rt.game.Start(data.Players); err != nil {
			gw.replyError(c, msg.Type, err)
		}
	})
}

func (gw *Gateway) handleSaveGame(c *Client, msg Message) {
	if gw.repo == nil {
		gw.reply(c, outbound{Type: msg.Type, Error: "persistence disabled"})
		return
	}
	gw.withGame(c, msg, func(rt *gameRuntime) {
		snap := rt.game.SaveState()
		if err := gw.repo.SaveSnapshot(context.Background(), snap); err != nil {
			gw.replyError(c, msg.Type, err)
			return
		}
		gw.reply(c, outbound{Type: "game_saved", GameID: snap.GameID})
	})
}

func (gw *Gateway) handleLoadGame(c *Client, msg Message) {
	if gw.repo == nil {
		gw.reply(c, outbound{Type: msg.Type, Error: "persistence disabled"})
		return
	}
	snap, err := gw.repo.LoadSnapshot(context.Background(), msg.GameID)
	if err != nil {
		gw.replyError(c, msg.Type, err)
		return
	}
	g, err := gw.engine.RestoreGame(snap)
	if err != nil {
		gw.replyError(c, msg.Type, err)
		return
	}
	gw.wireGame(g)
	c.gameID = g.ID()
	gw.reply(c, outbound{Type: "game_loaded", GameID: g.ID()})
}

// StartWebSocketServer runs the gateway HTTP listener until it fails.
func StartWebSocketServer(cfg config.WebSocketConfig, gw *Gateway, logger *zap.Logger) error {
	go gw.Hub().Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("starting websocket server", zap.String("address", cfg.Address))
	return http.ListenAndServe(cfg.Address, mux)
}
