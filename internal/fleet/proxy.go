package fleet

import (
	"fmt"
	"strconv"
	"strings"
)

// SessionsPerProxy is the band size: sessions 1-25 share slot 1, 26-50 share
// slot 2, and so on.
const SessionsPerProxy = 25

// ProxySlot is one entry of the fixed egress pool.
type ProxySlot struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// URL renders the slot as an http proxy URL usable as a transport override.
func (p *ProxySlot) URL() string {
	if p == nil {
		return ""
	}
	if p.Username != "" {
		return fmt.Sprintf("http://%s:%s@%s:%d", p.Username, p.Password, p.Host, p.Port)
	}
	return fmt.Sprintf("http://%s:%d", p.Host, p.Port)
}

// AssignProxy maps a session's 1-based position to a slot of the pool.
// Positions past the pool capacity get nil: the caller falls back to direct
// egress. The mapping is recomputed from the current position every time, so
// removing an earlier session re-bands everything after it.
func AssignProxy(position int, pool []ProxySlot) *ProxySlot {
	if position < 1 || len(pool) == 0 {
		return nil
	}

	slot := (position + SessionsPerProxy - 1) / SessionsPerProxy
	if slot > len(pool) {
		return nil
	}

	return &pool[slot-1]
}

// ParseProxyPool parses the PROXY_POOL env value:
// "host:port,host:port:user:pass,..." in pool order.
func ParseProxyPool(raw string) ([]ProxySlot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var pool []ProxySlot
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Split(part, ":")
		if len(fields) != 2 && len(fields) != 4 {
			return nil, fmt.Errorf("invalid proxy entry %q (want host:port or host:port:user:pass)", part)
		}

		port, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid proxy port in %q: %w", part, err)
		}

		slot := ProxySlot{Host: fields[0], Port: port}
		if len(fields) == 4 {
			slot.Username = fields[2]
			slot.Password = fields[3]
		}
		pool = append(pool, slot)
	}

	return pool, nil
}
