// services/commentary.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"gridiron-match-engine/models"
	"gridiron-match-engine/utils"
)

// Describer turns a structured event into a line of text. Production points
// this at the commentary service; everything else (tests, local dev, and the
// fallback path) uses PlainDescriber. A describer must never fail the play —
// worst case it returns "" and the event ships without prose.
type Describer interface {
	Describe(ev models.MatchEvent, actorName, defenderName string, phase models.GamePhase, atmosphere float64) string
}

// PlainDescriber is the built-in formatter.
type PlainDescriber struct{}

func (PlainDescriber) Describe(ev models.MatchEvent, actorName, defenderName string, phase models.GamePhase, atmosphere float64) string {
	switch ev.Kind {
	case models.EventKickoff:
		return "Kickoff! The match is underway"
	case models.EventPass:
		return fmt.Sprintf("%s completes a pass for %d yards", actorName, ev.Yards)
	case models.EventPassIncomplete:
		return fmt.Sprintf("%s throws incomplete", actorName)
	case models.EventInterception:
		return fmt.Sprintf("%s is intercepted by %s", actorName, defenderName)
	case models.EventRun:
		return fmt.Sprintf("%s breaks free for a %d yard run", actorName, ev.Yards)
	case models.EventTackle:
		return fmt.Sprintf("%s is brought down by %s", actorName, defenderName)
	case models.EventKick:
		return fmt.Sprintf("%s boots it %d yards downfield", actorName, ev.Yards)
	case models.EventKickMiss:
		return fmt.Sprintf("%s shanks the kick", actorName)
	case models.EventDefensiveStop:
		return fmt.Sprintf("%s shuts the play down", actorName)
	case models.EventDefensiveMiss:
		return fmt.Sprintf("%s whiffs on the tackle", actorName)
	case models.EventFumble:
		return fmt.Sprintf("%s forces the fumble and recovers!", actorName)
	case models.EventScore:
		if phase == models.PhaseClutch {
			return fmt.Sprintf("%s SCORES with the clock running out!", actorName)
		}
		return fmt.Sprintf("%s takes it in to score!", actorName)
	case models.EventInjury:
		return fmt.Sprintf("%s is down after the hit — the medics run on", actorName)
	case models.EventHalfBreak:
		return "That's the end of the half"
	case models.EventNoAction:
		return "The teams reset between plays"
	}
	return ""
}

// RemoteDescriber asks the commentary service for prose and falls back to
// the plain formatter on any error. The call rides the shared HTTP client's
// timeout so a slow commentary service can only delay a tick, never wedge it.
type RemoteDescriber struct {
	BaseURL  string
	Token    string
	Client   *http.Client
	fallback PlainDescriber
}

func NewRemoteDescriber(baseURL, token string) *RemoteDescriber {
	return &RemoteDescriber{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

func (d *RemoteDescriber) Describe(ev models.MatchEvent, actorName, defenderName string, phase models.GamePhase, atmosphere float64) string {
	payload, err := json.Marshal(map[string]interface{}{
		"event":      ev,
		"actor":      actorName,
		"defender":   defenderName,
		"phase":      phase,
		"atmosphere": atmosphere,
	})
	if err != nil {
		return d.fallback.Describe(ev, actorName, defenderName, phase, atmosphere)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/describe", d.BaseURL), bytes.NewBuffer(payload))
	if err != nil {
		return d.fallback.Describe(ev, actorName, defenderName, phase, atmosphere)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", d.Token)

	resp, err := d.Client.Do(req)
	if err != nil {
		return d.fallback.Describe(ev, actorName, defenderName, phase, atmosphere)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return d.fallback.Describe(ev, actorName, defenderName, phase, atmosphere)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Text == "" {
		return d.fallback.Describe(ev, actorName, defenderName, phase, atmosphere)
	}
	return out.Text
}
