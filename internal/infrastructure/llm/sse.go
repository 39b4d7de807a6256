package llm

import (
	"bytes"
	"strings"
)

// Event 一个 SSE 事件
type Event struct {
	Event string
	Data  string
}

// Parser 增量 SSE 解析器
// 输入可以在任意字节位置切分，事件以空行结束
type Parser struct {
	buf []byte
}

// Feed 追加字节并返回已完整的事件
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)
	p.buf = bytes.ReplaceAll(p.buf, []byte("\r\n"), []byte("\n"))

	var events []Event
	for {
		idx := bytes.Index(p.buf, []byte("\n\n"))
		if idx < 0 {
			break
		}
		block := string(p.buf[:idx])
		p.buf = p.buf[idx+2:]
		if ev, ok := parseBlock(block); ok {
			events = append(events, ev)
		}
	}

	// 释放已消费的前缀
	if len(p.buf) == 0 {
		p.buf = nil
	}
	return events
}

// Flush 流结束时解析剩余的不完整事件
func (p *Parser) Flush() []Event {
	rest := strings.TrimRight(string(p.buf), "\r\n")
	p.buf = nil
	if rest == "" {
		return nil
	}
	if ev, ok := parseBlock(rest); ok {
		return []Event{ev}
	}
	return nil
}

// parseBlock 解析一个事件块，没有 data 字段的块被丢弃
func parseBlock(block string) (Event, bool) {
	var (
		ev      Event
		data    []string
		hasData bool
	)
	for _, line := range strings.Split(block, "\n") {
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			ev.Event = value
		}
	}
	if !hasData {
		return Event{}, false
	}
	ev.Data = strings.Join(data, "\n")
	return ev, true
}
