package chat

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// gptConversation is one conversation from a ChatGPT data export
// (conversations.json).
type gptConversation struct {
	Title       string             `json:"title"`
	CreateTime  float64            `json:"create_time"`
	CurrentNode string             `json:"current_node"`
	Mapping     map[string]gptNode `json:"mapping"`
}

type gptNode struct {
	ID       string      `json:"id"`
	Parent   *string     `json:"parent"`
	Children []string    `json:"children"`
	Message  *gptMessage `json:"message"`
}

type gptMessage struct {
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	CreateTime *float64 `json:"create_time"`
	Content    struct {
		ContentType string          `json:"content_type"`
		Parts       json.RawMessage `json:"parts"`
		Text        string          `json:"text"`
	} `json:"content"`
}

// parseChatGPT accepts a single conversation object or an array of them.
// Conversations are emitted oldest first.
func parseChatGPT(data []byte) ([]turn, error) {
	var convs []gptConversation
	if err := json.Unmarshal(data, &convs); err != nil {
		var single gptConversation
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, errNotDetected
		}
		convs = []gptConversation{single}
	}

	var withMapping []gptConversation
	for _, c := range convs {
		if len(c.Mapping) > 0 {
			withMapping = append(withMapping, c)
		}
	}
	if len(withMapping) == 0 {
		return nil, errNotDetected
	}
	sort.SliceStable(withMapping, func(i, j int) bool {
		return withMapping[i].CreateTime < withMapping[j].CreateTime
	})

	var turns []turn
	for _, c := range withMapping {
		for _, node := range c.orderedNodes() {
			m := node.Message
			if m == nil {
				continue
			}
			text := m.Content.Text
			if text == "" {
				text, _ = contentText(m.Content.Parts)
			}
			var ts time.Time
			if m.CreateTime != nil {
				ts = unixFloat(*m.CreateTime)
			}
			turns = append(turns, turn{role: m.Author.Role, text: text, ts: ts})
		}
	}
	return turns, nil
}

// orderedNodes returns the active branch by walking parents back from the
// current node. Exports without a current node fall back to create_time order.
func (c gptConversation) orderedNodes() []gptNode {
	if _, ok := c.Mapping[c.CurrentNode]; ok {
		var branch []gptNode
		seen := make(map[string]bool)
		for id := c.CurrentNode; id != "" && !seen[id]; {
			node, ok := c.Mapping[id]
			if !ok {
				break
			}
			seen[id] = true
			branch = append(branch, node)
			if node.Parent == nil {
				break
			}
			id = *node.Parent
		}
		for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
			branch[i], branch[j] = branch[j], branch[i]
		}
		return branch
	}

	nodes := make([]gptNode, 0, len(c.Mapping))
	for id, n := range c.Mapping {
		if n.ID == "" {
			n.ID = id
		}
		nodes = append(nodes, n)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		ti, tj := nodeTime(nodes[i]), nodeTime(nodes[j])
		if ti != tj {
			return ti < tj
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

func nodeTime(n gptNode) float64 {
	if n.Message == nil || n.Message.CreateTime == nil {
		return 0
	}
	return *n.Message.CreateTime
}

func unixFloat(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
