package keycode

// Name maps scan codes to the names used in keymap files.
var Name = map[Code]string{
	Undefined: "Undefined",

	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",

	Key1: "1", Key2: "2", Key3: "3", Key4: "4", Key5: "5",
	Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",

	KeyEnter:      "Enter",
	KeyEscape:     "Escape",
	KeyBackspace:  "Backspace",
	KeyTab:        "Tab",
	KeySpace:      "Space",
	KeyMinus:      "Minus",
	KeyEqual:      "Equal",
	KeyLeftBrace:  "LeftBrace",
	KeyRightBrace: "RightBrace",
	KeyBackslash:  "Backslash",
	KeySemicolon:  "Semicolon",
	KeyApostrophe: "Apostrophe",
	KeyGrave:      "Grave",
	KeyComma:      "Comma",
	KeyPeriod:     "Period",
	KeySlash:      "Slash",
	KeyCapsLock:   "CapsLock",

	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",

	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyPause:       "Pause",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyPageUp:      "PageUp",
	KeyDelete:      "Delete",
	KeyEnd:         "End",
	KeyPageDown:    "PageDown",

	KeyRight: "Right",
	KeyLeft:  "Left",
	KeyDown:  "Down",
	KeyUp:    "Up",

	KeyMute:       "Mute",
	KeyVolumeUp:   "VolumeUp",
	KeyVolumeDown: "VolumeDown",

	KeyLeftControl:  "LeftControl",
	KeyLeftShift:    "LeftShift",
	KeyLeftAlt:      "LeftAlt",
	KeyLeftGUI:      "LeftGUI",
	KeyRightControl: "RightControl",
	KeyRightShift:   "RightShift",
	KeyRightAlt:     "RightAlt",
	KeyRightGUI:     "RightGUI",

	MouseLeftClick:   "MouseLeftClick",
	MouseRightClick:  "MouseRightClick",
	MouseMiddleClick: "MouseMiddleClick",
	MouseXNeg:        "MouseXNeg",
	MouseXPos:        "MouseXPos",
	MouseYNeg:        "MouseYNeg",
	MouseYPos:        "MouseYPos",
	MouseScrollNeg:   "MouseScrollNeg",
	MouseScrollPos:   "MouseScrollPos",

	Layer0: "Layer0", Layer1: "Layer1", Layer2: "Layer2",
	Layer3: "Layer3", Layer4: "Layer4", Layer5: "Layer5",

	LayerToggle0: "LayerToggle0", LayerToggle1: "LayerToggle1",
	LayerToggle2: "LayerToggle2", LayerToggle3: "LayerToggle3",
	LayerToggle4: "LayerToggle4", LayerToggle5: "LayerToggle5",
}

var byName = func() map[string]Code {
	m := make(map[string]Code, len(Name))
	for c, n := range Name {
		m[n] = c
	}
	return m
}()

// FromName resolves a keymap file name back to its scan code.
func FromName(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

func (c Code) String() string {
	if n, ok := Name[c]; ok {
		return n
	}
	return "Undefined"
}
