package chatbot

import (
	"fmt"
	"strings"
	"unicode"
)

// IntentRule 意图规则：任一模式命中即返回固定回答
// Exact 为 true 时整句必须等于某个模式
type IntentRule struct {
	Name     string
	Patterns []string
	Exact    bool
	Respond  func(p Persona) string
}

// IntentMatcher 按声明顺序匹配，先声明的规则优先
type IntentMatcher struct {
	persona Persona
	rules   []IntentRule
}

// DefaultIntentRules 默认规则
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		{
			Name:     "identity",
			Patterns: []string{"siapa kamu", "nama kamu", "kamu siapa"},
			Respond: func(p Persona) string {
				return fmt.Sprintf("Halo! Saya %s, %s.", p.Name, p.Role)
			},
		},
		{
			Name:     "creator",
			Patterns: []string{"pembuat kamu", "developer", "yang membuat kamu", "siapa yang buat kamu"},
			Respond: func(p Persona) string {
				return fmt.Sprintf("Saya dikembangkan oleh %s di %s.", p.Department, p.University)
			},
		},
		{
			Name:  "greeting",
			Exact: true,
			Patterns: []string{
				"halo", "hallo", "hai", "hi", "hello", "hey",
				"halo kak", "halo min", "hai kak", "hai min",
				"halo mr wacana", "hai mr wacana",
				"selamat pagi", "selamat siang", "selamat sore", "selamat malam",
			},
			Respond: func(p Persona) string {
				return fmt.Sprintf("Halo! Saya %s, %s. Ada yang bisa saya bantu seputar informasi kampus?", p.Name, p.Role)
			},
		},
		{
			Name:     "thanks",
			Exact:    true,
			Patterns: []string{"terima kasih", "terimakasih", "makasih", "thanks", "thank you", "terima kasih banyak", "makasih ya"},
			Respond: func(p Persona) string {
				return "Sama-sama! Jangan ragu bertanya lagi kalau butuh informasi kampus lainnya."
			},
		},
	}
}

// NewIntentMatcher 创建意图匹配器，模式在创建时规范化
func NewIntentMatcher(persona Persona, rules []IntentRule) *IntentMatcher {
	normalized := make([]IntentRule, len(rules))
	for i, r := range rules {
		patterns := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			if p = Normalize(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		normalized[i] = IntentRule{Name: r.Name, Patterns: patterns, Exact: r.Exact, Respond: r.Respond}
	}
	return &IntentMatcher{persona: persona, rules: normalized}
}

// Match 返回命中规则名与回答
func (m *IntentMatcher) Match(query string) (rule string, reply string, ok bool) {
	text := Normalize(query)
	if text == "" {
		return "", "", false
	}
	padded := " " + text + " "
	for _, r := range m.rules {
		for _, p := range r.Patterns {
			if r.Exact && text != p {
				continue
			}
			if strings.Contains(padded, " "+p+" ") {
				return r.Name, r.Respond(m.persona), true
			}
		}
	}
	return "", "", false
}

// Normalize 小写、去标点、合并空白
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
