package logger

import (
	"sync"
	"time"
)

// Incident is one recorded error/warn event, deduplicated by level+message.
type Incident struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// IncidentLog keeps a bounded, deduplicated record of recent error and warn
// events so the health endpoint can report what has been going wrong without
// anyone tailing logs.
type IncidentLog struct {
	mutex   sync.RWMutex
	entries map[string]*Incident
	maxSize int
}

func NewIncidentLog(maxSize int) *IncidentLog {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &IncidentLog{
		entries: make(map[string]*Incident),
		maxSize: maxSize,
	}
}

func (il *IncidentLog) Add(level, message string, fields map[string]interface{}) {
	now := time.Now()
	key := level + "|" + message

	il.mutex.Lock()
	defer il.mutex.Unlock()

	if e, ok := il.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		e.Fields = fields
		return
	}

	if len(il.entries) >= il.maxSize {
		il.evictOldest()
	}

	il.entries[key] = &Incident{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Recent returns incidents last seen within the given window, newest first.
func (il *IncidentLog) Recent(window time.Duration) []Incident {
	cutoff := time.Now().Add(-window)

	il.mutex.RLock()
	defer il.mutex.RUnlock()

	out := make([]Incident, 0, len(il.entries))
	for _, e := range il.entries {
		if e.LastSeen.After(cutoff) {
			out = append(out, *e)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].LastSeen.After(out[i].LastSeen) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (il *IncidentLog) evictOldest() {
	var oldestKey string
	var oldest time.Time

	for key, e := range il.entries {
		if oldestKey == "" || e.LastSeen.Before(oldest) {
			oldest = e.LastSeen
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(il.entries, oldestKey)
	}
}
