package model

// ProtocolOfficial7 is the only LiveReload protocol revision the server speaks.
const ProtocolOfficial7 = "http://livereload.com/protocols/official-7"

const (
	CommandHello  = "hello"
	CommandReload = "reload"
	CommandInfo   = "info"
	CommandUrl    = "url"
	CommandAlert  = "alert"
)

type Hello struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols"`
	ServerName string   `json:"serverName,omitempty"`
}

type Reload struct {
	Command string `json:"command"`
	Path    string `json:"path"`
	LiveCSS bool   `json:"liveCSS"`
	LiveImg bool   `json:"liveImg"`
}

// ClientCommand is anything a browser client sends. Only the command
// name and the protocols of a hello are interpreted.
type ClientCommand struct {
	Command   string   `json:"command"`
	Protocols []string `json:"protocols,omitempty"`
	Url       string   `json:"url,omitempty"`
}

func NewServerHello(serverName string) Hello {
	return Hello{Command: CommandHello, Protocols: []string{ProtocolOfficial7}, ServerName: serverName}
}

func NewReload(path string) *Reload {
	return &Reload{Command: CommandReload, Path: path, LiveCSS: true, LiveImg: true}
}

// SupportsOfficial7 reports whether a client hello offered the protocol
// revision this server implements.
func (c *ClientCommand) SupportsOfficial7() bool {
	for _, p := range c.Protocols {
		if p == ProtocolOfficial7 {
			return true
		}
	}
	return false
}
