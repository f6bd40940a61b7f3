package manager

import (
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/hoppxi/glimmer/internal/controller"
	"github.com/hoppxi/glimmer/internal/theme"
	. "github.com/onsi/gomega"
)

type grayScreen struct{ level uint8 }

func (s grayScreen) Sample() (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = s.level
	}
	return img, nil
}

type memDevice struct {
	level  int
	setErr error
}

func (d *memDevice) Brightness() (int, error) { return d.level, nil }

func (d *memDevice) SetBrightness(level int) error {
	if d.setErr != nil {
		return d.setErr
	}
	d.level = level
	return nil
}

func testSettings() Settings {
	var s Settings
	s.Interval = time.Second
	s.Sensitivity = 7
	s.Limits = theme.Limits{Max: 80, Min: 20}
	s.Themes = theme.Defaults()
	s.Device.Backend = "brightnessctl"
	s.Log.Format = "console"
	return s
}

func newTestManager(t *testing.T, dev *memDevice) (*AppManager, *controller.Controller) {
	t.Helper()
	ctrl := controller.New(grayScreen{level: 100}, dev)
	m := &AppManager{}
	if err := m.Init(ctrl, testSettings()); err != nil {
		t.Fatal(err)
	}
	return m, ctrl
}

func TestInitAppliesThemeLimits(t *testing.T) {
	g := NewWithT(t)
	ctrl := controller.New(grayScreen{}, &memDevice{})
	s := testSettings()
	s.Theme = "outdoor"

	m := &AppManager{}
	g.Expect(m.Init(ctrl, s)).To(Succeed())

	max, min := ctrl.Limits()
	g.Expect([]int{max, min}).To(Equal([]int{100, 50}))
	g.Expect(m.Report().Theme).To(Equal("Outdoor"))
}

func TestDispatchPauseResume(t *testing.T) {
	g := NewWithT(t)
	m, ctrl := newTestManager(t, &memDevice{})

	g.Expect(m.Dispatch("PAUSE")).To(Equal("OK: paused"))
	g.Expect(ctrl.Paused()).To(BeTrue())

	g.Expect(m.Dispatch("resume")).To(Equal("OK: resumed"))
	g.Expect(ctrl.Paused()).To(BeFalse())

	g.Expect(m.Dispatch("TOGGLE")).To(Equal("OK: paused"))
	g.Expect(m.Dispatch("TOGGLE")).To(Equal("OK: resumed"))
}

func TestDispatchTheme(t *testing.T) {
	g := NewWithT(t)
	m, ctrl := newTestManager(t, &memDevice{})

	g.Expect(m.Dispatch("THEME indoor")).To(Equal("OK: theme Indoor (max 50, min 10)"))
	max, min := ctrl.Limits()
	g.Expect([]int{max, min}).To(Equal([]int{50, 10}))

	reply := m.Dispatch("THEME cinema")
	g.Expect(reply).To(HavePrefix("ERR: unknown theme"))
	g.Expect(reply).To(ContainSubstring("Indoor, Outdoor"))
	max, min = ctrl.Limits()
	g.Expect([]int{max, min}).To(Equal([]int{50, 10}))

	g.Expect(m.Dispatch("THEME")).To(HavePrefix("ERR: usage"))
}

func TestDispatchLimits(t *testing.T) {
	g := NewWithT(t)
	m, ctrl := newTestManager(t, &memDevice{})
	m.Dispatch("THEME Outdoor")

	g.Expect(m.Dispatch("LIMITS 90 30")).To(Equal("OK: limits max 90, min 30"))
	g.Expect(m.Report().Theme).To(BeEmpty())

	g.Expect(m.Dispatch("LIMITS 30 90")).To(HavePrefix("ERR: brightness out of range"))
	g.Expect(m.Dispatch("LIMITS high low")).To(HavePrefix("ERR:"))
	g.Expect(m.Dispatch("LIMITS 90")).To(HavePrefix("ERR: usage"))

	max, min := ctrl.Limits()
	g.Expect([]int{max, min}).To(Equal([]int{90, 30}))
}

func TestDispatchManual(t *testing.T) {
	g := NewWithT(t)
	dev := &memDevice{}
	m, ctrl := newTestManager(t, dev)

	g.Expect(m.Dispatch("MANUAL 40")).To(HavePrefix("OK: manual brightness 40"))
	g.Expect(dev.level).To(Equal(40))
	g.Expect(ctrl.Paused()).To(BeTrue())
	g.Expect(ctrl.Status().ManualBrightness).To(HaveValue(Equal(40)))

	m.Dispatch("RESUME")
	g.Expect(ctrl.Status().ManualBrightness).To(BeNil())
}

func TestDispatchManualRejected(t *testing.T) {
	g := NewWithT(t)
	dev := &memDevice{level: 55}
	m, ctrl := newTestManager(t, dev)

	g.Expect(m.Dispatch("MANUAL 150")).To(HavePrefix("ERR: brightness out of range"))
	g.Expect(ctrl.Paused()).To(BeFalse())
	g.Expect(dev.level).To(Equal(55))

	g.Expect(m.Dispatch("MANUAL bright")).To(HavePrefix("ERR: invalid level"))

	dev.setErr = errors.New("permission denied")
	g.Expect(m.Dispatch("MANUAL 30")).To(Equal("ERR: display rejected the brightness change"))
}

func TestDispatchManualSameLevelRejected(t *testing.T) {
	g := NewWithT(t)
	dev := &memDevice{}
	m, _ := newTestManager(t, dev)

	g.Expect(m.Dispatch("MANUAL 40")).To(HavePrefix("OK: manual brightness 40"))

	dev.setErr = errors.New("permission denied")
	g.Expect(m.Dispatch("MANUAL 40")).To(Equal("ERR: display rejected the brightness change"))
}

func TestDispatchStatus(t *testing.T) {
	g := NewWithT(t)
	m, ctrl := newTestManager(t, &memDevice{level: 64})

	max, min := ctrl.Limits()
	m.recordTick(ctrl.Adjust(5, max, min))

	reply := m.Dispatch("STATUS")
	g.Expect(reply).To(HavePrefix("OK: "))

	var r StatusReport
	g.Expect(json.Unmarshal([]byte(strings.TrimPrefix(reply, "OK: ")), &r)).To(Succeed())
	g.Expect(r.Paused).To(BeFalse())
	g.Expect(r.MaxLimit).To(Equal(80))
	g.Expect(r.MinLimit).To(Equal(20))
	g.Expect(r.Current).To(Equal(80))
	g.Expect(r.Sensitivity).To(Equal(7.0))
	g.Expect(r.Interval).To(Equal("1s"))
	g.Expect(r.Last).To(HaveValue(Equal(controller.Adjustment{Ambient: 100, Target: 80})))
}

func TestDispatchUnknown(t *testing.T) {
	g := NewWithT(t)
	m, _ := newTestManager(t, &memDevice{})

	g.Expect(m.Dispatch("")).To(Equal("ERR: empty command"))
	g.Expect(m.Dispatch("DIM")).To(Equal("ERR: unknown command"))
}

func TestIPCRoundTrip(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	m, ctrl := newTestManager(t, &memDevice{})

	go m.StartIPCServer()
	defer m.StopAll()

	g.Eventually(func() error {
		conn, err := m.ConnectIPC()
		if err == nil {
			conn.Close()
		}
		return err
	}).WithTimeout(2 * time.Second).Should(Succeed())

	reply, err := m.SendIPCCommand("PAUSE")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reply).To(Equal("OK: paused"))
	g.Expect(ctrl.Paused()).To(BeTrue())
}

func TestIPCStop(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	cleaned := make(chan struct{})
	ctrl := controller.New(grayScreen{level: 100}, &memDevice{})
	m := &AppManager{}
	g.Expect(m.Init(ctrl, testSettings(), func() { close(cleaned) })).To(Succeed())

	go m.StartIPCServer()

	g.Eventually(func() error {
		conn, err := m.ConnectIPC()
		if err == nil {
			conn.Close()
		}
		return err
	}).WithTimeout(2 * time.Second).Should(Succeed())

	reply, err := m.SendIPCCommand("STOP")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reply).To(Equal("OK: Shutting down."))

	g.Eventually(m.Done()).WithTimeout(2 * time.Second).Should(BeClosed())
	g.Expect(cleaned).To(BeClosed())

	_, err = m.ConnectIPC()
	g.Expect(err).To(HaveOccurred())
}

func TestIPCStatusReplyIsComplete(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	m, ctrl := newTestManager(t, &memDevice{level: 64})

	go m.StartIPCServer()
	defer m.StopAll()

	g.Eventually(func() error {
		conn, err := m.ConnectIPC()
		if err == nil {
			conn.Close()
		}
		return err
	}).WithTimeout(2 * time.Second).Should(Succeed())

	max, min := ctrl.Limits()
	m.recordTick(ctrl.Adjust(5, max, min))
	g.Expect(ctrl.SetManualBrightness(35)).To(Succeed())

	reply, err := m.SendIPCCommand("STATUS")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reply).To(HavePrefix("OK: "))

	var r StatusReport
	g.Expect(json.Unmarshal([]byte(strings.TrimPrefix(reply, "OK: ")), &r)).To(Succeed())
	g.Expect(r.ManualBrightness).To(HaveValue(Equal(35)))
	g.Expect(r.Last).NotTo(BeNil())
}
