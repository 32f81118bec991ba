// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Subject identifies one of the tracked lessons.
type Subject struct {
	// Slug is the ASCII identifier used in record and solved-counter keys.
	Slug string
	// Name is the display name, also used by the remaining-questions keys.
	Name string
}

// Tracked subjects, in display order.
var (
	Turkish = Subject{Slug: "Turkce", Name: "Türkçe"}
	Math    = Subject{Slug: "Matematik", Name: "Matematik"}
	Science = Subject{Slug: "Fen", Name: "Fen"}
	Social  = Subject{Slug: "Sosyal", Name: "Sosyal"}
)

// Subjects returns all tracked subjects in display order.
func Subjects() []Subject {
	return []Subject{Turkish, Math, Science, Social}
}

var subjectAliases = map[string]Subject{
	"turkish": Turkish,
	"math":    Math,
	"science": Science,
	"social":  Social,
}

// ParseSubject resolves a slug, display name or English alias.
func ParseSubject(value string) (Subject, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Subject{}, fmt.Errorf("subject must not be empty")
	}
	for _, s := range Subjects() {
		if strings.EqualFold(v, s.Slug) || strings.EqualFold(v, s.Name) {
			return s, nil
		}
	}
	if s, ok := subjectAliases[strings.ToLower(v)]; ok {
		return s, nil
	}
	names := make([]string, 0, len(Subjects()))
	for _, s := range Subjects() {
		names = append(names, s.Name)
	}
	return Subject{}, fmt.Errorf("unknown subject %q (available: %s)", value, strings.Join(names, ", "))
}

func (s Subject) String() string {
	return s.Name
}

// SessionRecord captures one completed practice session. Net and Tier are
// fixed when the record is created.
type SessionRecord struct {
	Date          string
	QuestionCount int
	Correct       int
	Incorrect     int
	Blank         int
	Net           float64
	Tier          string
}

// DailyCounterState holds the day-scoped counters of one subject.
type DailyCounterState struct {
	Remaining     int
	SolvedToday   int
	LastResetDate string
}

// Config defines tracker settings.
type Config struct {
	Subject      Subject
	StrictTotals bool
	DateLayout   string
	PollInterval time.Duration
	Location     *time.Location
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Subjects    []Subject
	Last        int
	CurveWindow int
	Best        int
}
