package main

import (
	_ "embed"
	"sync"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
)

//go:embed counter.html
var counterPage string

// counter is the demo object exposed as window.app
type counter struct {
	*object.Object

	mu     sync.Mutex
	count  int
	step   int
	label  string
	notify func(property string)
}

func newCounter() (*counter, error) {
	c := &counter{step: 1, label: "clicks"}

	obj, err := object.New(
		object.Accessor("count", c.getCount, c.setCount),
		object.Accessor("step", c.getStep, c.setStep),
		object.Accessor("label", c.getLabel, nil),
		object.Func("increment", c.increment),
		object.Func("add", c.add),
		object.Func("reset", c.reset),
	)
	if err != nil {
		return nil, err
	}
	c.Object = obj
	return c, nil
}

// onChange sets the callback told about host-side changes
func (c *counter) onChange(fn func(property string)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

func (c *counter) changed(property string) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn(property)
	}
}

func (c *counter) getCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *counter) setCount(v int) error {
	c.mu.Lock()
	c.count = v
	c.mu.Unlock()
	return nil
}

func (c *counter) getStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *counter) setStep(v int) error {
	c.mu.Lock()
	c.step = v
	c.mu.Unlock()
	c.changed("step")
	return nil
}

func (c *counter) getLabel() string {
	return c.label
}

func (c *counter) increment() int {
	return c.add(c.getStep())
}

func (c *counter) add(n int) int {
	c.mu.Lock()
	c.count += n
	v := c.count
	c.mu.Unlock()
	c.changed("count")
	return v
}

func (c *counter) reset() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
	c.changed("count")
}
