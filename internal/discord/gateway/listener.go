package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/bwmarrin/discordgo"
)

// Sink receives translated gateway events.
type Sink interface {
	Dispatch(ev dispatch.Event)
}

// Listener bridges one shard's session to the dispatcher. It is the
// io.Closer attached to the shard state.
type Listener struct {
	shard  int
	client rest.Client
	sink   Sink

	removers []func()
	stop     chan struct{}
	once     sync.Once

	logger *slog.Logger
}

// Attach registers the listener's handlers on session. A positive
// heartbeatCheck starts a monitor turning new heartbeat acks into
// KindHeartbeat events.
func Attach(session *discordgo.Session, sink Sink, heartbeatCheck time.Duration) *Listener {
	l := newListener(session.ShardID, rest.NewSessionClient(session), sink)

	l.removers = append(l.removers,
		session.AddHandler(l.onEvent),
		session.AddHandler(l.onConnect),
		session.AddHandler(l.onDisconnect),
		session.AddHandler(l.onResumed),
	)

	if heartbeatCheck > 0 {
		go l.monitorHeartbeat(session, heartbeatCheck)
	}

	return l
}

func newListener(shardID int, client rest.Client, sink Sink) *Listener {
	return &Listener{
		shard:  shardID,
		client: client,
		sink:   sink,
		stop:   make(chan struct{}),
		logger: slog.Default().With(slog.Group("gateway", "shard", shardID)),
	}
}

func (l *Listener) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	l.logger = logger
}

func (l *Listener) Close() error {
	l.once.Do(func() {
		for _, remove := range l.removers {
			remove()
		}
		close(l.stop)
	})
	return nil
}

func (l *Listener) emit(kind dispatch.Kind, data any) {
	l.sink.Dispatch(dispatch.Event{
		Shard:  l.shard,
		Kind:   kind,
		Data:   data,
		Client: l.client,
		At:     time.Now(),
	})
}

func (l *Listener) onEvent(_ *discordgo.Session, e *discordgo.Event) {
	if e.Type == "" || e.Struct == nil {
		return
	}
	l.emit(dispatch.Kind(e.Type), e.Struct)
}

func (l *Listener) onConnect(_ *discordgo.Session, _ *discordgo.Connect) {
	l.emit(dispatch.KindStatusChange, dispatch.StatusChange{Status: dispatch.StatusConnected})
}

func (l *Listener) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	l.emit(dispatch.KindStatusChange, dispatch.StatusChange{Status: dispatch.StatusDisconnected})
}

func (l *Listener) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	l.emit(dispatch.KindStatusChange, dispatch.StatusChange{Status: dispatch.StatusResumed})
}

func (l *Listener) monitorHeartbeat(session *discordgo.Session, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var seen time.Time
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		session.RLock()
		ack, sent := session.LastHeartbeatAck, session.LastHeartbeatSent
		session.RUnlock()

		if !ack.After(seen) {
			l.logger.Debug("no new heartbeat ack", "last", ack)
			continue
		}
		seen = ack
		l.emit(dispatch.KindHeartbeat, dispatch.Heartbeat{Latency: ack.Sub(sent)})
	}
}
