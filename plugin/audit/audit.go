// Package audit is a server-side plugin that publishes connection
// lifecycle events (connect, disconnect, receive error) to an AMQP
// exchange for out-of-process audit logging. Built on com.Rabbit's
// connection/channel management, preferred over the older com/rmq.go
// (streadway/amqp) duplicate since rabbitmq/amqp091-go is the
// maintained client.
package audit

import (
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gox/netrt/com"
	"github.com/gox/netrt/nw"
	"github.com/gox/netrt/utils"
)

const (
	layerName  = "audit"
	channelKey = "audit"
)

// Config names the AMQP connection and exchange events are published to.
type Config struct {
	User     string
	Password string
	Host     string
	VHost    string
	Exchange string
}

// Plugin publishes one JSON message per lifecycle event.
type Plugin struct {
	cfg    Config
	mu     sync.Mutex
	rabbit *com.Rabbit
}

type event struct {
	Kind     string `json:"kind"`
	ClientID uint64 `json:"client_id"`
	Endpoint string `json:"endpoint"`
	Error    string `json:"error,omitempty"`
	Time     int64  `json:"time"`
}

// NewPlugin dials the AMQP broker via com.Rabbit and declares Exchange as
// a fanout on a dedicated channel.
func NewPlugin(cfg Config) (*Plugin, error) {
	rabbit, err := com.NewRabbit(&com.RabbitConfig{
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		VHost:    cfg.VHost,
	})
	if err != nil {
		return nil, err
	}

	ch, err := rabbit.GetChannel(channelKey)
	if err != nil {
		rabbit.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		rabbit.Close()
		return nil, err
	}

	return &Plugin{cfg: cfg, rabbit: rabbit}, nil
}

func (this_ *Plugin) Name() string { return layerName }

func (this_ *Plugin) OnAttach(w *nw.ServerWrapper) error {
	w.Register().SetLayer(layerName, &nw.ServerCallbacks{
		OnConnection: func(_ nw.Server, id nw.ClientID, ep nw.Endpoint) {
			this_.publish(event{Kind: "connection", ClientID: uint64(id), Endpoint: string(ep), Time: time.Now().Unix()})
		},
		OnDisconnect: func(_ nw.Server, id nw.ClientID, ep nw.Endpoint, err error) {
			this_.publish(event{Kind: "disconnection", ClientID: uint64(id), Endpoint: string(ep), Error: errString(err), Time: time.Now().Unix()})
		},
		OnReceiveError: func(_ nw.Server, id nw.ClientID, ep nw.Endpoint, err error) {
			this_.publish(event{Kind: "receive_error", ClientID: uint64(id), Endpoint: string(ep), Error: errString(err), Time: time.Now().Unix()})
		},
	}, true)

	return nil
}

func (this_ *Plugin) OnDetach() {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	this_.rabbit.Close()
}

func (this_ *Plugin) Tick() {}

func (this_ *Plugin) RequiresConnection() bool { return false }

func (this_ *Plugin) publish(e event) {
	body := utils.JSON(e)

	this_.mu.Lock()
	defer this_.mu.Unlock()

	if this_.rabbit.IsClosed() {
		return
	}

	ch, err := this_.rabbit.GetChannel(channelKey)
	if err != nil {
		return
	}

	ch.Publish(this_.cfg.Exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        []byte(body),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
