package keystate

// calibration tracks the observed travel extrema of one hall-effect switch
// and the thresholds derived from them. Extrema only widen until Reset, and
// Reset does not touch them.
type calibration struct {
	releasePoint   uint16
	actuationPoint uint16
	lowestPoint    uint16
	highestPoint   uint16
	tolerance      uint16
}

func defaultCalibration() calibration {
	dif := float32(DefaultHigh - DefaultLow)
	return calibration{
		releasePoint:   DefaultHigh - uint16(releaseScale*dif),
		actuationPoint: DefaultHigh - uint16(actuateScale*dif),
		lowestPoint:    DefaultLow,
		highestPoint:   DefaultHigh,
		tolerance:      uint16(toleranceScale * dif),
	}
}

// widen records one reading, rederiving the thresholds only when a new
// extreme was observed.
func (c *calibration) widen(avg uint16) {
	changed := false
	if c.highestPoint < avg {
		c.highestPoint = avg
		changed = true
	} else if c.lowestPoint > avg {
		c.lowestPoint = avg
		changed = true
	}
	if changed {
		dif := float32(c.highestPoint - c.lowestPoint)
		c.releasePoint = c.highestPoint - uint16(releaseScale*dif)
		c.actuationPoint = c.highestPoint - uint16(actuateScale*dif)
		c.tolerance = uint16(toleranceScale * dif)
	}
}

// sampleBuffer is the rolling window of raw readings.
type sampleBuffer struct {
	buf [bufferSize]uint16
	pos int
}

func (b *sampleBuffer) push(sample uint16) {
	b.buf[b.pos] = sample
	b.pos = (b.pos + 1) % bufferSize
}

func (b *sampleBuffer) avg() uint16 {
	var sum uint16
	for _, v := range b.buf {
		sum += v
	}
	return sum / bufferSize
}

func (b *sampleBuffer) fill(v uint16) {
	for i := range b.buf {
		b.buf[i] = v
	}
	b.pos = 0
}

// collecting reports whether setup still needs samples: the window has not
// wrapped back to the start with real readings yet.
func (b *sampleBuffer) collecting() bool {
	return b.buf[0] == 0 || b.pos != 0
}

// DigitalPosition makes a hall-effect switch act like a mechanical switch
// with hysteresis: pressed at or below the actuation point, released above
// the release point, no state change in between.
type DigitalPosition struct {
	samples sampleBuffer
	calib   calibration
	pressed bool
}

// NewDigitalPosition returns a digital-mode hall-effect switch with default
// calibration.
func NewDigitalPosition() *DigitalPosition {
	return &DigitalPosition{calib: defaultCalibration()}
}

func (d *DigitalPosition) UpdateBuf(sample uint16) {
	d.samples.push(sample)
	avg := d.samples.avg()
	d.Calibrate(avg)
	if avg <= d.calib.actuationPoint {
		d.pressed = true
	} else if avg > d.calib.releasePoint {
		d.pressed = false
	}
}

func (d *DigitalPosition) IsPressed() bool { return d.pressed }
func (d *DigitalPosition) Buf() uint16     { return d.samples.avg() }
func (d *DigitalPosition) IsAnalog() bool  { return true }

func (d *DigitalPosition) Setup(sample uint16) bool {
	if d.samples.collecting() {
		d.samples.push(sample)
		return false
	}
	d.Calibrate(d.samples.avg())
	return true
}

func (d *DigitalPosition) Calibrate(sample uint16) { d.calib.widen(sample) }

func (d *DigitalPosition) Reset() {
	d.samples.fill(d.calib.highestPoint)
	d.pressed = false
}

// WootingPosition is the rapid-trigger mode: press and release re-trigger on
// reversal of travel direction, independent of the absolute thresholds, so a
// partial release followed by renewed travel registers as a new press.
type WootingPosition struct {
	samples sampleBuffer
	calib   calibration
	lastPos uint16
	pressed bool
	// latched marks that the directional trigger owns the press state, so
	// the absolute actuation point does not re-fire while held.
	latched bool
}

// NewWootingPosition returns a rapid-trigger hall-effect switch with default
// calibration.
func NewWootingPosition() *WootingPosition {
	return &WootingPosition{calib: defaultCalibration()}
}

func (w *WootingPosition) UpdateBuf(sample uint16) {
	w.samples.push(sample)
	avg := w.samples.avg()
	switch {
	case avg > w.calib.releasePoint:
		w.lastPos = avg
		w.latched = false
		w.pressed = false
		w.Calibrate(avg)
	case avg < w.calib.lowestPoint:
		w.lastPos = avg
		w.latched = true
		w.pressed = true
		w.Calibrate(avg)
	case int(avg) < int(w.lastPos)-int(w.calib.tolerance) ||
		(avg <= w.calib.actuationPoint && !w.latched):
		w.lastPos = avg
		w.latched = true
		w.pressed = true
	case int(avg) > int(w.lastPos)+int(w.calib.tolerance):
		w.lastPos = avg
		w.pressed = false
	}
}

func (w *WootingPosition) IsPressed() bool { return w.pressed }
func (w *WootingPosition) Buf() uint16     { return w.samples.avg() }
func (w *WootingPosition) IsAnalog() bool  { return true }

func (w *WootingPosition) Setup(sample uint16) bool {
	if w.samples.collecting() {
		w.samples.push(sample)
		return false
	}
	w.Calibrate(w.samples.avg())
	return true
}

func (w *WootingPosition) Calibrate(sample uint16) { w.calib.widen(sample) }

func (w *WootingPosition) Reset() {
	w.samples.fill(w.calib.highestPoint)
	w.pressed = false
	w.latched = false
}

// SlavePosition relays the other half's key state: samples of 0/1 carry the
// packed press boolean, larger samples carry an analog reading passthrough.
type SlavePosition struct {
	state         uint16
	analogReading uint16
}

// NewSlavePosition returns a released relay switch.
func NewSlavePosition() *SlavePosition {
	return &SlavePosition{analogReading: 0xFFFF}
}

func (s *SlavePosition) UpdateBuf(sample uint16) {
	if sample > 1 {
		s.analogReading = sample
	} else {
		s.state = sample
	}
}

func (s *SlavePosition) IsPressed() bool   { return s.state != 0 }
func (s *SlavePosition) Buf() uint16       { return s.analogReading }
func (s *SlavePosition) IsAnalog() bool    { return true }
func (s *SlavePosition) Setup(uint16) bool { return true }
func (s *SlavePosition) Calibrate(uint16)  {}

func (s *SlavePosition) Reset() {
	s.state = 0
	s.analogReading = 0xFFFF
}
