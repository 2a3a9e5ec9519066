// Package hotkey registers the global record toggle shortcut through a
// low-level keyboard hook, so it works while any application has focus.
package hotkey

import (
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// rawcodesByKey maps normalized key names to Windows virtual-key rawcodes.
// Modifiers list both left and right variants.
var rawcodesByKey = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
	"printscr":  {44}, // VK_SNAPSHOT
	"pause":     {19},
}

func init() {
	// Letters a-z (VK 65-90), digits 0-9 (VK 48-57), F1-F24 (VK 112-135).
	for c := byte('a'); c <= 'z'; c++ {
		rawcodesByKey[string(c)] = []uint16{uint16(c - 'a' + 65)}
	}
	for c := byte('0'); c <= '9'; c++ {
		rawcodesByKey[string(c)] = []uint16{uint16(c - '0' + 48)}
	}
	for i := 1; i <= 24; i++ {
		rawcodesByKey["f"+strconv.Itoa(i)] = []uint16{uint16(111 + i)}
	}
	rawcodesByKey["win"] = rawcodesByKey["cmd"]
	rawcodesByKey["super"] = rawcodesByKey["cmd"]
}

// Listen registers the hotkey combination and invokes callback on each press.
// The callback runs on the hook goroutine; it must hand work to the event
// loop instead of blocking.
func Listen(hotkeyConfig string, callback func()) {
	keys := parseHotkey(hotkeyConfig)

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}

	var keyStates []keyState
	for _, keyName := range keys {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			log.Printf("Hotkey: cannot map key %q, combination may not work", keyName)
			continue
		}
		keyStates = append(keyStates, keyState{name: keyName, rawcodes: rawcodes})
	}
	if len(keyStates) == 0 {
		log.Printf("Hotkey: no valid keys in %q", hotkeyConfig)
		return
	}

	log.Printf("Hotkey: listening for %s", hotkeyConfig)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: panic in hook goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("Hotkey: hook failed to start")
			return
		}

		var mu sync.Mutex
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				mu.Lock()
				for i := range keyStates {
					for _, rawcode := range keyStates[i].rawcodes {
						if ev.Rawcode == rawcode {
							keyStates[i].pressed = true
							break
						}
					}
				}
				allPressed := true
				for i := range keyStates {
					if !keyStates[i].pressed {
						allPressed = false
						break
					}
				}
				if allPressed {
					for i := range keyStates {
						keyStates[i].pressed = false
					}
					mu.Unlock()
					log.Printf("Hotkey: %s activated", hotkeyConfig)
					if callback != nil {
						callback()
					}
					continue
				}
				mu.Unlock()

			case gohook.KeyUp:
				mu.Lock()
				for i := range keyStates {
					for _, rawcode := range keyStates[i].rawcodes {
						if ev.Rawcode == rawcode {
							keyStates[i].pressed = false
							break
						}
					}
				}
				mu.Unlock()
			}
		}
		log.Printf("Hotkey: event channel closed")
	}()
}

// parseHotkey converts "Ctrl+Alt+R" into normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// keyNameToRawcodes maps a key name to its Windows virtual-key rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	return rawcodesByKey[strings.ToLower(strings.TrimSpace(keyName))]
}
