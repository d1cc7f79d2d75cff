// Package keycode defines the scan codes a key cell can produce and the
// typed report codes the report generator consumes.
//
// Codes 0x00-0xE7 follow the USB HID Keyboard/Keypad usage page. The range
// above the modifiers (0xE8+) is a vendor range used internally for mouse
// motion, mouse buttons and layer selection; those codes never appear in a
// HID report directly, they are translated to ReportCode values first.
package keycode

// Code is a single scan code stored in a keymap cell.
type Code uint8

// HID Usage codes (USB HID Keyboard/Keypad usage page).
const (
	Undefined Code = 0x00

	// Letters A-Z
	KeyA Code = 0x04
	KeyB Code = 0x05
	KeyC Code = 0x06
	KeyD Code = 0x07
	KeyE Code = 0x08
	KeyF Code = 0x09
	KeyG Code = 0x0A
	KeyH Code = 0x0B
	KeyI Code = 0x0C
	KeyJ Code = 0x0D
	KeyK Code = 0x0E
	KeyL Code = 0x0F
	KeyM Code = 0x10
	KeyN Code = 0x11
	KeyO Code = 0x12
	KeyP Code = 0x13
	KeyQ Code = 0x14
	KeyR Code = 0x15
	KeyS Code = 0x16
	KeyT Code = 0x17
	KeyU Code = 0x18
	KeyV Code = 0x19
	KeyW Code = 0x1A
	KeyX Code = 0x1B
	KeyY Code = 0x1C
	KeyZ Code = 0x1D

	// Number row
	Key1 Code = 0x1E
	Key2 Code = 0x1F
	Key3 Code = 0x20
	Key4 Code = 0x21
	Key5 Code = 0x22
	Key6 Code = 0x23
	Key7 Code = 0x24
	Key8 Code = 0x25
	Key9 Code = 0x26
	Key0 Code = 0x27

	KeyEnter      Code = 0x28
	KeyEscape     Code = 0x29
	KeyBackspace  Code = 0x2A
	KeyTab        Code = 0x2B
	KeySpace      Code = 0x2C
	KeyMinus      Code = 0x2D
	KeyEqual      Code = 0x2E
	KeyLeftBrace  Code = 0x2F
	KeyRightBrace Code = 0x30
	KeyBackslash  Code = 0x31
	KeySemicolon  Code = 0x33
	KeyApostrophe Code = 0x34
	KeyGrave      Code = 0x35
	KeyComma      Code = 0x36
	KeyPeriod     Code = 0x37
	KeySlash      Code = 0x38
	KeyCapsLock   Code = 0x39

	KeyF1  Code = 0x3A
	KeyF2  Code = 0x3B
	KeyF3  Code = 0x3C
	KeyF4  Code = 0x3D
	KeyF5  Code = 0x3E
	KeyF6  Code = 0x3F
	KeyF7  Code = 0x40
	KeyF8  Code = 0x41
	KeyF9  Code = 0x42
	KeyF10 Code = 0x43
	KeyF11 Code = 0x44
	KeyF12 Code = 0x45

	KeyPrintScreen Code = 0x46
	KeyScrollLock  Code = 0x47
	KeyPause       Code = 0x48
	KeyInsert      Code = 0x49
	KeyHome        Code = 0x4A
	KeyPageUp      Code = 0x4B
	KeyDelete      Code = 0x4C
	KeyEnd         Code = 0x4D
	KeyPageDown    Code = 0x4E

	KeyRight Code = 0x4F
	KeyLeft  Code = 0x50
	KeyDown  Code = 0x51
	KeyUp    Code = 0x52

	KeyMute       Code = 0x7F
	KeyVolumeUp   Code = 0x80
	KeyVolumeDown Code = 0x81

	// Modifiers (0xE0-0xE7); the modifier bit is the usage code mod 8.
	KeyLeftControl  Code = 0xE0
	KeyLeftShift    Code = 0xE1
	KeyLeftAlt      Code = 0xE2
	KeyLeftGUI      Code = 0xE3
	KeyRightControl Code = 0xE4
	KeyRightShift   Code = 0xE5
	KeyRightAlt     Code = 0xE6
	KeyRightGUI     Code = 0xE7
)

// Vendor range: mouse buttons, mouse motion, layer selection.
const (
	MouseLeftClick   Code = 0xE8
	MouseRightClick  Code = 0xE9
	MouseMiddleClick Code = 0xEA
	MouseXNeg        Code = 0xEB
	MouseXPos        Code = 0xEC
	MouseYNeg        Code = 0xED
	MouseYPos        Code = 0xEE
	MouseScrollNeg   Code = 0xEF
	MouseScrollPos   Code = 0xF0

	Layer0 Code = 0xF1
	Layer1 Code = 0xF2
	Layer2 Code = 0xF3
	Layer3 Code = 0xF4
	Layer4 Code = 0xF5
	Layer5 Code = 0xF6

	LayerToggle0 Code = 0xF7
	LayerToggle1 Code = 0xF8
	LayerToggle2 Code = 0xF9
	LayerToggle3 Code = 0xFA
	LayerToggle4 Code = 0xFB
	LayerToggle5 Code = 0xFC
)

// Mouse deltas emitted per throttle window for a held motion key.
const (
	mouseStep  = 5
	scrollStep = 1
)
