package loader

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Global slots populated by the script form of the settings document. The
// script tiers exist for themes that can only inject a <script src> tag, so
// the document is an executable file whose only side effect is assigning
// JSON literals to these slots.
const (
	SlotSettings = "window.__CartDrawerSettings"
	SlotUpsells  = "window.__CartDrawerUpsells"
	SlotAddOns   = "window.__CartDrawerAddOns"
)

// ParseScriptBundle decodes a script-form settings document into a
// normalized Bundle. The loader's script tiers go through it, and the
// provider's script handler is tested against it so the emitted and
// consumed shapes cannot drift.
func ParseScriptBundle(body string) (*Bundle, error) {
	payload, err := parseScript(body)
	if err != nil {
		return nil, err
	}
	return assemble(&bundleDocument{
		Settings: payload.settings,
		Upsells:  payload.upsells,
		AddOns:   payload.addOns,
	}), nil
}

// scriptPayload is the decoded content of a settings script document.
type scriptPayload struct {
	settings map[string]any
	upsells  []map[string]any
	addOns   []map[string]any
}

// parseScript extracts the JSON literals assigned to the known global slots.
// The engine never executes the script; it only reads the literal values, so
// a hostile or malformed document degrades to the next tier instead of
// running code.
func parseScript(body string) (*scriptPayload, error) {
	settingsRaw, err := extractAssignment(body, SlotSettings)
	if err != nil {
		return nil, err
	}

	payload := &scriptPayload{}
	if err := json.Unmarshal([]byte(settingsRaw), &payload.settings); err != nil {
		return nil, fmt.Errorf("settings slot is not valid JSON: %w", err)
	}

	// Offer slots are optional; older documents only carry settings.
	if upsellsRaw, err := extractAssignment(body, SlotUpsells); err == nil {
		if err := json.Unmarshal([]byte(upsellsRaw), &payload.upsells); err != nil {
			return nil, fmt.Errorf("upsells slot is not valid JSON: %w", err)
		}
	}
	if addOnsRaw, err := extractAssignment(body, SlotAddOns); err == nil {
		if err := json.Unmarshal([]byte(addOnsRaw), &payload.addOns); err != nil {
			return nil, fmt.Errorf("add-ons slot is not valid JSON: %w", err)
		}
	}

	return payload, nil
}

// extractAssignment returns the balanced JSON literal assigned to slot.
func extractAssignment(body, slot string) (string, error) {
	idx := strings.Index(body, slot)
	if idx < 0 {
		return "", fmt.Errorf("slot %s not found", slot)
	}
	rest := body[idx+len(slot):]
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", fmt.Errorf("slot %s has no assignment", slot)
	}
	rest = strings.TrimLeft(rest[eq+1:], " \t\r\n")
	if rest == "" {
		return "", fmt.Errorf("slot %s assignment is empty", slot)
	}

	open := rest[0]
	var closer byte
	switch open {
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return "", fmt.Errorf("slot %s does not assign an object or array", slot)
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return rest[:i+1], nil
			}
		}
	}
	return "", fmt.Errorf("slot %s assignment is unterminated", slot)
}
