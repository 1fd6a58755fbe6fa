package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"lumenai/internal/metrics"
	apperrors "lumenai/pkg/errors"
)

const (
	MaxChatMessageLength = 500
	topicFallback        = "fallback"
)

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Reply       string   `json:"reply"`
	Topic       string   `json:"topic"`
	Suggestions []string `json:"suggestions"`
}

type chatRule struct {
	topic       string
	pattern     *regexp.Regexp
	reply       string
	suggestions []string
}

// Rules are tried in order; the first match answers.
var chatRules = []chatRule{
	{
		topic:       "greeting",
		pattern:     regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`),
		reply:       "Hello! I'm the Lumen AI assistant. I can tell you about our services, case studies, events or how to get in touch.",
		suggestions: []string{"What services do you offer?", "Show me case studies", "How can I contact you?"},
	},
	{
		topic:       "pricing",
		pattern:     regexp.MustCompile(`(?i)\b(price|pricing|cost|budget|quote|rates?)\b`),
		reply:       "Every engagement is scoped to your goals, so we quote after a short discovery call. Send us an inquiry through the contact form and we'll reply within one business day.",
		suggestions: []string{"How can I contact you?", "What services do you offer?"},
	},
	{
		topic:       "services",
		pattern:     regexp.MustCompile(`(?i)\b(services?|offer|help with|llm|mlops|computer vision|strategy|data engineering|training)\b`),
		reply:       "We offer AI strategy, custom LLM solutions, MLOps, computer vision, data engineering and team training. See the services page for details.",
		suggestions: []string{"Show me case studies", "What does it cost?"},
	},
	{
		topic:       "case_studies",
		pattern:     regexp.MustCompile(`(?i)\b(case stud(y|ies)|clients?|portfolio|examples?|results)\b`),
		reply:       "Our case studies cover retail forecasting, document automation, quality inspection and more. Browse them on the case studies page.",
		suggestions: []string{"What services do you offer?", "How can I contact you?"},
	},
	{
		topic:       "events",
		pattern:     regexp.MustCompile(`(?i)\b(events?|webinars?|meetups?|conference|workshops?)\b`),
		reply:       "We run webinars and meetups regularly. The events page lists everything coming up with registration links.",
		suggestions: []string{"What services do you offer?"},
	},
	{
		topic:       "careers",
		pattern:     regexp.MustCompile(`(?i)\b(jobs?|careers?|hiring|vacanc(y|ies)|join (you|your team))\b`),
		reply:       "We're always keen to meet engineers and researchers. Mention the role you're interested in through the contact form.",
		suggestions: []string{"How can I contact you?"},
	},
	{
		topic:       "contact",
		pattern:     regexp.MustCompile(`(?i)\b(contact|reach|talk|call|email|phone|meeting|demo)\b`),
		reply:       "The quickest way to reach us is the contact form. Tell us about your company and project and the team will get back to you shortly.",
		suggestions: []string{"What services do you offer?", "What does it cost?"},
	},
	{
		topic:       "thanks",
		pattern:     regexp.MustCompile(`(?i)\b(thanks|thank you|cheers|bye|goodbye)\b`),
		reply:       "You're welcome! Reach out any time.",
		suggestions: []string{},
	},
}

var fallbackReply = ChatReply{
	Reply:       "I'm not sure about that one. I can help with our services, pricing, case studies, events or getting in touch.",
	Topic:       topicFallback,
	Suggestions: []string{"What services do you offer?", "Show me case studies", "How can I contact you?"},
}

// ChatAssistant answers site visitors with canned replies.
type ChatAssistant struct {
	rules []chatRule
}

// NewChatAssistant creates the rule-based assistant
func NewChatAssistant() *ChatAssistant {
	return &ChatAssistant{rules: chatRules}
}

// Reply matches message against the rules in order.
func (a *ChatAssistant) Reply(message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.Validation("invalid chat message", apperrors.FieldError{Field: "message", Message: "message is required"})
	}
	if utf8.RuneCountInString(message) > MaxChatMessageLength {
		return nil, apperrors.Validation("invalid chat message", apperrors.FieldError{Field: "message", Message: "message must be at most 500 characters"})
	}

	for _, r := range a.rules {
		if r.pattern.MatchString(message) {
			metrics.RecordChatMessage(r.topic)
			return &ChatReply{Reply: r.reply, Topic: r.topic, Suggestions: append([]string{}, r.suggestions...)}, nil
		}
	}

	metrics.RecordChatMessage(topicFallback)
	reply := fallbackReply
	reply.Suggestions = append([]string{}, fallbackReply.Suggestions...)
	return &reply, nil
}
