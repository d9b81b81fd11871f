package nw

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gox/netrt/utils"
)

// Transport names one of the two wire-level families a Server or Client
// operates over: a reliable, ordered byte stream, or best-effort
// datagrams. Exactly two concrete implementations exist per spec.md §9's
// own note that a language without zero-cost generics over a protocol
// tag should use two concrete types sharing a base rather than forcing
// the abstraction.
type Transport int

const (
	TransportStream Transport = iota
	TransportDatagram
)

func (t Transport) String() string {
	return utils.Conditional(t == TransportDatagram, "datagram", "stream")
}

// Dialect selects which concrete protocol implements TransportStream.
// TransportDatagram always means UDP.
type Dialect int

const (
	DialectTCP Dialect = iota
	DialectWebSocket
)

func (d Dialect) String() string {
	return utils.Conditional(d == DialectWebSocket, "websocket", "tcp")
}

// Config configures a Server. Field names and yaml/json tags follow the
// teacher's nw.Config (TcpHost/WsHost/MaxConn/Timeout), generalised to a
// single listen address plus explicit transport/dialect selection.
type Config struct {
	ListenAddr      string `yaml:"listen_addr" json:"listen_addr"`
	Transport       Transport
	Dialect         Dialect
	MaxConnections  int      `yaml:"max_connections" json:"max_connections"`
	BufferCapacity  int      `yaml:"buffer_capacity" json:"buffer_capacity"`
	IdleTimeoutSecs int      `yaml:"idle_timeout_secs" json:"idle_timeout_secs"`
	Backlog         int      `yaml:"backlog" json:"backlog"`
	AsyncDispatch   bool     `yaml:"async_dispatch" json:"async_dispatch"`
	LogLevel        LogLevel `yaml:"log_level" json:"log_level"`
}

// ClientConfig configures a Client's outbound connection.
type ClientConfig struct {
	Candidates      []string `yaml:"candidates" json:"candidates"`
	Transport       Transport
	Dialect         Dialect
	BufferCapacity  int      `yaml:"buffer_capacity" json:"buffer_capacity"`
	ReconnectOnDrop bool     `yaml:"reconnect_on_drop" json:"reconnect_on_drop"`
	AsyncDispatch   bool     `yaml:"async_dispatch" json:"async_dispatch"`
	LogLevel        LogLevel `yaml:"log_level" json:"log_level"`
}

func (c *Config) withDefaults() *Config {
	cp := *c
	if cp.MaxConnections <= 0 {
		cp.MaxConnections = 10000
	}
	if cp.BufferCapacity <= 0 {
		cp.BufferCapacity = DefaultBufferCapacity
	}
	if cp.Backlog <= 0 {
		cp.Backlog = 4096
	}
	if cp.LogLevel == LogLevelUnset {
		cp.LogLevel = LogLevelInfo
	}
	return &cp
}

func (c *ClientConfig) withDefaults() *ClientConfig {
	cp := *c
	cp.Candidates = utils.CloneSlice(c.Candidates)
	if cp.BufferCapacity <= 0 {
		cp.BufferCapacity = DefaultBufferCapacity
	}
	if cp.LogLevel == LogLevelUnset {
		cp.LogLevel = LogLevelInfo
	}
	return &cp
}

// UnmarshalYAML lets a config file spell LogLevel as one of the
// recognised names (trace/debug/info/warn/error/critical/none) instead
// of its underlying int.
func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	*l = ParseLogLevel(value.Value)
	return nil
}

// LoadConfig reads a YAML server configuration file, following
// strand-protocol-strand's nexctl config loader. It warns when the file
// grants any permission to group or others. Defaults are set before
// parsing, and withDefaults fills any zero values the file leaves after
// parsing; a missing file yields the pre-set defaults without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:     ":9090",
		MaxConnections: 10000,
		BufferCapacity: DefaultBufferCapacity,
		Backlog:        4096,
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		DefaultTracer().Warn("config file %s has permissions %04o, expected 0600", path, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg.withDefaults(), nil
}
