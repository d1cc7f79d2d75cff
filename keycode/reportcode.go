package keycode

// ReportKind discriminates the typed report codes produced by layer
// resolution. The discriminant set is closed; the report generator matches
// on it exhaustively.
type ReportKind uint8

const (
	KindLetter ReportKind = iota
	KindModifier
	KindMouseButton
	KindMouseX
	KindMouseY
	KindMouseScroll
	KindLayer
	KindLayerToggle
	KindSticky
)

// ReportCode is a tagged report value. Code carries the HID usage (Letter,
// Modifier), the button bit (MouseButton) or the layer number (Layer,
// LayerToggle). Delta carries the signed step for mouse motion kinds.
type ReportCode struct {
	Kind  ReportKind
	Code  uint8
	Delta int8
}

// Sticky is the marker code a combined key emits ahead of its resolved code.
var Sticky = ReportCode{Kind: KindSticky}

// Report translates a scan code into the report code the generator consumes.
func (c Code) Report() ReportCode {
	switch {
	case c >= KeyLeftControl && c <= KeyRightGUI:
		return ReportCode{Kind: KindModifier, Code: uint8(c)}
	case c >= MouseLeftClick && c <= MouseMiddleClick:
		return ReportCode{Kind: KindMouseButton, Code: uint8(c - MouseLeftClick)}
	case c == MouseXNeg:
		return ReportCode{Kind: KindMouseX, Delta: -mouseStep}
	case c == MouseXPos:
		return ReportCode{Kind: KindMouseX, Delta: mouseStep}
	case c == MouseYNeg:
		return ReportCode{Kind: KindMouseY, Delta: -mouseStep}
	case c == MouseYPos:
		return ReportCode{Kind: KindMouseY, Delta: mouseStep}
	case c == MouseScrollNeg:
		return ReportCode{Kind: KindMouseScroll, Delta: -scrollStep}
	case c == MouseScrollPos:
		return ReportCode{Kind: KindMouseScroll, Delta: scrollStep}
	case c >= Layer0 && c <= Layer5:
		return ReportCode{Kind: KindLayer, Code: uint8(c - Layer0)}
	case c >= LayerToggle0 && c <= LayerToggle5:
		return ReportCode{Kind: KindLayerToggle, Code: uint8(c - LayerToggle0)}
	default:
		return ReportCode{Kind: KindLetter, Code: uint8(c)}
	}
}
