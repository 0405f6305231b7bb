package util

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTopic is returned for topics that cannot be mapped to a subject.
var ErrInvalidTopic = errors.New("invalid topic")

// SubjectMatches reports whether a subject matches a pattern that can include
// NATS wildcards * (one token) and > (greedy remainder).
func SubjectMatches(pattern, subj string) bool {
	if pattern == subj {
		return true
	}
	pTok := strings.Split(pattern, ".")
	sTok := strings.Split(subj, ".")
	for i, pt := range pTok {
		switch pt {
		case ">":
			return i < len(sTok) // matches a non-empty remainder
		case "*":
			if i >= len(sTok) {
				return false
			}
			continue
		}
		if i >= len(sTok) {
			return false
		}
		if pt != sTok[i] {
			return false
		}
	}
	return len(sTok) == len(pTok)
}

// TopicSubject maps a slash-separated topic such as "/robot/joint_states" to
// the NATS subject "<prefix>.robot.joint_states".
func TopicSubject(prefix, topic string) (string, error) {
	trimmed := strings.Trim(topic, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty topic %q", ErrInvalidTopic, topic)
	}
	tokens := strings.Split(trimmed, "/")
	for _, tok := range tokens {
		if tok == "" || strings.ContainsAny(tok, ".*> \t\r\n") {
			return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
		}
	}
	return prefix + "." + strings.Join(tokens, "."), nil
}

// SubjectTopic is the inverse of TopicSubject.
func SubjectTopic(prefix, subj string) string {
	rest := strings.TrimPrefix(subj, prefix+".")
	return "/" + strings.ReplaceAll(rest, ".", "/")
}
