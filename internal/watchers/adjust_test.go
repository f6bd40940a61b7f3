package watchers

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/hoppxi/glimmer/internal/controller"
	. "github.com/onsi/gomega"
)

type stubSampler struct {
	mu   sync.Mutex
	fail bool
}

func (s *stubSampler) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

func (s *stubSampler) Sample() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("no display")
	}
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	return img, nil
}

type stubDevice struct{ level int }

func (d *stubDevice) Brightness() (int, error) { return d.level, nil }

func (d *stubDevice) SetBrightness(level int) error {
	d.level = level
	return nil
}

func stubNotify(t *testing.T) *[]string {
	t.Helper()
	var sent []string
	old := notify
	notify = func(text string) error {
		sent = append(sent, text)
		return nil
	}
	t.Cleanup(func() { notify = old })
	return &sent
}

func TestFormatAdjustment(t *testing.T) {
	g := NewWithT(t)

	g.Expect(FormatAdjustment(controller.Adjustment{Ambient: 100, Target: 80})).
		To(Equal("Average Brightness: 100.00\nAdjusted Brightness: 80.00%"))
	g.Expect(FormatAdjustment(controller.Adjustment{})).
		To(Equal("Average Brightness: 0.00\nAdjusted Brightness: 0.00%"))
}

func TestTickUsesControllerLimits(t *testing.T) {
	g := NewWithT(t)
	dev := &stubDevice{}
	ctrl := controller.New(&stubSampler{}, dev, controller.WithSampleWidth(16))
	g.Expect(ctrl.SetLimits(50, 10)).To(Succeed())

	a := tick(ctrl, 5)
	g.Expect(a).To(Equal(controller.Adjustment{Ambient: 100, Target: 50}))
	g.Expect(dev.level).To(Equal(50))
}

func TestNotifyOnOutage(t *testing.T) {
	g := NewWithT(t)
	sent := stubNotify(t)
	sampler := &stubSampler{fail: true}
	ctrl := controller.New(sampler, &stubDevice{}, controller.WithSampleWidth(16))

	notified := false
	for i := 0; i < controller.StaleSampleLimit-1; i++ {
		tick(ctrl, 7)
		notified = notifyOnOutage(ctrl, true, notified)
	}
	g.Expect(*sent).To(BeEmpty())

	tick(ctrl, 7)
	notified = notifyOnOutage(ctrl, true, notified)
	g.Expect(notified).To(BeTrue())
	g.Expect(*sent).To(HaveLen(1))

	// One notification per outage.
	tick(ctrl, 7)
	notified = notifyOnOutage(ctrl, true, notified)
	g.Expect(*sent).To(HaveLen(1))

	sampler.setFail(false)
	tick(ctrl, 7)
	notified = notifyOnOutage(ctrl, true, notified)
	g.Expect(notified).To(BeFalse())
}

func TestNotifyDisabled(t *testing.T) {
	g := NewWithT(t)
	sent := stubNotify(t)
	ctrl := controller.New(&stubSampler{fail: true}, &stubDevice{})

	for i := 0; i < controller.StaleSampleLimit+2; i++ {
		tick(ctrl, 7)
		g.Expect(notifyOnOutage(ctrl, false, false)).To(BeFalse())
	}
	g.Expect(*sent).To(BeEmpty())
}

func TestStartAdjustWatcher(t *testing.T) {
	g := NewWithT(t)
	stubNotify(t)
	ctrl := controller.New(&stubSampler{}, &stubDevice{}, controller.WithSampleWidth(16))

	var mu sync.Mutex
	var results []controller.Adjustment
	watch := StartAdjustWatcher(ctrl,
		func() TickSettings { return TickSettings{Interval: 5 * time.Millisecond, Sensitivity: 5} },
		func(a controller.Adjustment) {
			mu.Lock()
			results = append(results, a)
			mu.Unlock()
		})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		watch(stop)
		close(done)
	}()

	g.Eventually(func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(results)
	}).WithTimeout(2 * time.Second).Should(BeNumerically(">=", 2))

	close(stop)
	g.Eventually(done).WithTimeout(time.Second).Should(BeClosed())

	mu.Lock()
	defer mu.Unlock()
	g.Expect(results[0]).To(Equal(controller.Adjustment{Ambient: 100, Target: 80}))
}
